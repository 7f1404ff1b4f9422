package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiscatcherd/aiscatcherd/internal/config"
)

// loadSnapshot restores Stats/History/DB from cfg.Persist.Path if it
// exists, per spec §6 "concatenation of Counter then 4 History rings
// then DB, each prefixed by its magic + version; truncated files cause
// a fresh start." Any read/decode error is logged and ignored — the
// pipeline simply starts empty, matching that contract.
func (p *pipeline) loadSnapshot(zl zerolog.Logger) {
	if p.cfg.Persist.Path == "" {
		return
	}
	f, err := os.Open(p.cfg.Persist.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			zl.Warn().Err(err).Str("path", p.cfg.Persist.Path).Msg("persist: open snapshot failed, starting fresh")
		}
		return
	}
	defer f.Close()

	if err := p.stats.Load(f); err != nil {
		zl.Warn().Err(err).Msg("persist: stats snapshot rejected, starting fresh")
		return
	}
	if err := p.hist.Load(f); err != nil {
		zl.Warn().Err(err).Msg("persist: history snapshot rejected, starting fresh")
		return
	}
	if err := p.db.Load(f); err != nil {
		zl.Warn().Err(err).Msg("persist: vessel db snapshot rejected, starting fresh")
		return
	}
	zl.Info().Str("path", p.cfg.Persist.Path).Msg("persist: snapshot loaded")
}

// saveSnapshot writes the same three sections to a temp file and renames
// it into place, so a crash mid-write never corrupts the previous
// snapshot.
func (p *pipeline) saveSnapshot(zl zerolog.Logger) {
	path := p.cfg.Persist.Path
	if path == "" {
		return
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		zl.Error().Err(err).Str("path", tmp).Msg("persist: create snapshot failed")
		return
	}

	writeErr := func() error {
		if err := p.stats.Save(f); err != nil {
			return err
		}
		if err := p.hist.Save(f); err != nil {
			return err
		}
		return p.db.Save(f)
	}()
	closeErr := f.Close()
	if writeErr != nil || closeErr != nil {
		zl.Error().AnErr("write", writeErr).AnErr("close", closeErr).Msg("persist: save snapshot failed")
		os.Remove(tmp)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		zl.Error().Err(err).Msg("persist: rename snapshot failed")
	}
}

// runPersistLoop saves the snapshot every cfg.Persist.Interval until ctx
// is cancelled, and once more on the way out.
func (p *pipeline) runPersistLoop(ctx context.Context, cfg config.Persist, zl zerolog.Logger) {
	if cfg.Path == "" || cfg.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.saveSnapshot(zl)
		case <-ctx.Done():
			p.saveSnapshot(zl)
			return
		}
	}
}
