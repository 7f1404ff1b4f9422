// Command aiscatcherd runs the AIS receiver and message-routing daemon:
// it loads a YAML configuration tree, wires ingestion inputs, the vessel
// database/history/statistics, configured output streamers, and the HTTP
// surface together, and runs until terminated (spec §5/§6).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aiscatcherd/aiscatcherd/internal/config"
	"github.com/aiscatcherd/aiscatcherd/internal/logger"
)

// Exit codes per spec §6.
const (
	exitNormal        = 0
	exitConfigInvalid = 1
	exitDeviceError   = 2
	exitNetworkFatal  = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	configPath := "aiscatcherd.yaml"
	if len(args) > 0 {
		configPath = args[0]
	}

	log := logger.New(os.Stderr)

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Criticalf("config: %v", err)
		return exitConfigInvalid
	}
	if cfg.LogLevel != "" {
		log.Infof("log level %q configured", cfg.LogLevel)
	}

	p := newPipeline(*cfg, log)
	p.loadSnapshot(log.Zerolog())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var shutdownOnce sync.Once
	exitCode := exitNormal
	shutdown := func(reason error, code int) {
		shutdownOnce.Do(func() {
			if reason != nil {
				log.Errorf("fatal pipeline error, shutting down: %v", reason)
			}
			exitCode = code
			cancel()
		})
	}
	// Inputs are this daemon's "device" (spec §7's device-error exit code
	// 2); output streamers failing fatally is the network-fatal case
	// (exit code 3).
	requestInputShutdown := func(reason error) { shutdown(reason, exitDeviceError) }
	requestOutputShutdown := func(reason error) { shutdown(reason, exitNetworkFatal) }

	if err := p.wireSinks(ctx, requestOutputShutdown); err != nil {
		log.Criticalf("config: %v", err)
		return exitConfigInvalid
	}
	p.runInputs(ctx, requestInputShutdown)

	var httpSrv *http.Server
	if cfg.HTTPServer.Addr != "" {
		httpSrv = &http.Server{Addr: cfg.HTTPServer.Addr, Handler: p.http.Handler()}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				requestOutputShutdown(err)
			}
		}()
	}

	go p.runPersistLoop(ctx, cfg.Persist, log.Zerolog())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info("received shutdown signal")
		cancel()
	case <-ctx.Done():
	}

	if httpSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = httpSrv.Shutdown(shutdownCtx)
		shutdownCancel()
	}
	p.wait()
	p.saveSnapshot(log.Zerolog())

	return exitCode
}

func loadConfig(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrConfigInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
