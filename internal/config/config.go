// Package config defines the configuration struct tree this daemon's
// CLI/TOML front door (out of scope per spec.md §1) ultimately binds to:
// a plain Go struct unmarshalable from YAML via gopkg.in/yaml.v3, with a
// Validate() that reports the out-of-range/unknown-enum cases spec §7
// calls ConfigInvalid.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrConfigInvalid is returned by Validate for any out-of-range numeric
// or unknown enum value (spec §7: "ConfigInvalid — fatal at startup
// only").
var ErrConfigInvalid = errors.New("config: invalid configuration")

// Config is the top-level struct an external CLI/TOML/YAML loader
// populates before handing off to cmd/aiscatcherd's wiring.
type Config struct {
	Station    Station    `yaml:"station"`
	Inputs     []Input    `yaml:"inputs"`
	Outputs    []Output   `yaml:"outputs"`
	Vessel     Vessel     `yaml:"vessel"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Persist    Persist    `yaml:"persist"`
	LogLevel   string     `yaml:"log_level"` // debug|info|warning|error|critical
}

// Station describes this receiver's own identity and position, used for
// tag-block station ids and distance/bearing computation (spec §4.7
// step 4).
type Station struct {
	ID      int32   `yaml:"id"`
	OwnMMSI int32   `yaml:"own_mmsi"`
	Lat     float64 `yaml:"lat"`
	Lon     float64 `yaml:"lon"`
}

// Input describes one ingestion source: a protocol-stack URL (scheme
// tcp/tls/ws/wss selects the stack, a bare host:port means tcp; mqtt is
// not accepted for inputs) feeding an NMEA reassembler.
type Input struct {
	Name              string        `yaml:"name"`
	URL               string        `yaml:"url"`
	Persistent        bool          `yaml:"persistent"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
	KeepAlive         bool          `yaml:"keep_alive"`
	CRCCheck          bool          `yaml:"crc_check"`
	Warnings          bool          `yaml:"warnings"`
	Groups            uint64        `yaml:"groups"`
}

// OutputKind selects which pkg/output streamer an Output entry
// configures.
type OutputKind string

const (
	OutputUDP         OutputKind = "udp"
	OutputTCPClient   OutputKind = "tcp_client"
	OutputTCPListener OutputKind = "tcp_listener"
	OutputHTTP        OutputKind = "http"
	OutputMQTT        OutputKind = "mqtt"
)

// Output configures one output streamer (spec §4.6). Only the fields
// relevant to Kind are read by the wiring code; the rest are ignored.
type Output struct {
	Name   string     `yaml:"name"`
	Kind   OutputKind `yaml:"kind"`
	Addr   string     `yaml:"addr"` // udp/tcp_client/tcp_listener destination or bind address
	URL    string     `yaml:"url"`  // http/mqtt endpoint

	Format        string        `yaml:"format"` // nmea|nmea_tag|binary_nmea|json_nmea|json_sparse|json_full|community_hub|silent
	Interval      time.Duration `yaml:"interval"`
	ResetInterval time.Duration `yaml:"reset_interval"`
	Broadcast     bool          `yaml:"broadcast"`
	Gzip          bool          `yaml:"gzip"`
	Container     string        `yaml:"container"` // aiscatcher|airframes|aprs|nmea, http kind only
	ClientID      string        `yaml:"client_id"`
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"`
	TopicTemplate string        `yaml:"topic_template"`
	QoS           uint8         `yaml:"qos"`

	Filter Filter `yaml:"filter"`
}

// Filter mirrors pkg/output.Filter's fields, spec §4.6/original_source's
// Filter::include.
type Filter struct {
	On             bool     `yaml:"on"`
	AllowedTypes   []int    `yaml:"allowed_types"`
	AllowedRepeats []int    `yaml:"allowed_repeats"`
	Channels       string   `yaml:"channels"`
	MMSIAllowed    []uint32 `yaml:"mmsi_allowed"`
	MMSIBlocked    []uint32 `yaml:"mmsi_blocked"`
	RemoveEmpty    bool     `yaml:"remove_empty"`
	Downsample     bool     `yaml:"downsample"`
	DownsampleSecs int      `yaml:"downsample_seconds"`
}

// Vessel configures pkg/vessel.DB (spec §4.7).
type Vessel struct {
	Capacity            int     `yaml:"capacity"`             // default 4096
	CutoffKm            float64 `yaml:"cutoff_km"`            // 0 disables the spoofed-range guard
	PositionIntervalSec int     `yaml:"position_interval_sec"` // not read by the daemon; position duplicate suppression stays off
}

// HTTPServer configures pkg/httpserver (spec §4.8/§6).
type HTTPServer struct {
	Addr      string `yaml:"addr"`
	TilesDir  string `yaml:"tiles_dir"`
	StaticDir string `yaml:"static_dir"`
	Gzip      bool   `yaml:"gzip"`
}

// Persist configures the optional binary snapshot file (spec §6
// "Persisted state").
type Persist struct {
	Path           string        `yaml:"path"`
	Interval       time.Duration `yaml:"interval"` // write every N minutes
}

var validFormats = map[string]bool{
	"nmea": true, "nmea_tag": true, "binary_nmea": true, "json_nmea": true,
	"json_sparse": true, "json_full": true, "community_hub": true, "silent": true,
}

var validContainers = map[string]bool{
	"aiscatcher": true, "airframes": true, "aprs": true, "nmea": true,
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warning": true, "error": true, "critical": true,
}

// Validate checks the struct tree for the out-of-range/unknown-enum
// conditions spec §7 classifies as ConfigInvalid, a fatal-at-startup-only
// error.
func (c *Config) Validate() error {
	if c.LogLevel != "" && !validLogLevels[c.LogLevel] {
		return fmt.Errorf("%w: unknown log_level %q", ErrConfigInvalid, c.LogLevel)
	}
	if c.Vessel.Capacity < 0 {
		return fmt.Errorf("%w: vessel.capacity must be >= 0", ErrConfigInvalid)
	}
	if c.Vessel.CutoffKm < 0 {
		return fmt.Errorf("%w: vessel.cutoff_km must be >= 0", ErrConfigInvalid)
	}

	for i, in := range c.Inputs {
		if in.URL == "" {
			return fmt.Errorf("%w: inputs[%d] missing url", ErrConfigInvalid, i)
		}
	}

	for i, out := range c.Outputs {
		switch out.Kind {
		case OutputUDP, OutputTCPClient, OutputTCPListener, OutputHTTP, OutputMQTT:
		default:
			return fmt.Errorf("%w: outputs[%d] unknown kind %q", ErrConfigInvalid, i, out.Kind)
		}
		if out.Format != "" && !validFormats[out.Format] {
			return fmt.Errorf("%w: outputs[%d] unknown format %q", ErrConfigInvalid, i, out.Format)
		}
		if out.Kind == OutputHTTP && out.Container != "" && !validContainers[out.Container] {
			return fmt.Errorf("%w: outputs[%d] unknown container %q", ErrConfigInvalid, i, out.Container)
		}
		if out.QoS > 2 {
			return fmt.Errorf("%w: outputs[%d] qos must be 0-2", ErrConfigInvalid, i)
		}
		for _, t := range out.Filter.AllowedTypes {
			if t < 1 || t > 27 {
				return fmt.Errorf("%w: outputs[%d] filter.allowed_types entry %d out of range 1-27", ErrConfigInvalid, i, t)
			}
		}
		for _, r := range out.Filter.AllowedRepeats {
			if r < 0 || r > 3 {
				return fmt.Errorf("%w: outputs[%d] filter.allowed_repeats entry %d out of range 0-3", ErrConfigInvalid, i, r)
			}
		}
	}
	return nil
}
