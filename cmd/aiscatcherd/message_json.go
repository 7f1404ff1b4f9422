package main

import (
	"encoding/json"

	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/httpserver"
	"github.com/aiscatcherd/aiscatcherd/pkg/output"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
)

// messageJSON renders msg in the AIS-Catcher peer JSON shape (spec §6),
// the same body pkg/output's JSON streamers emit, for the /api/sse feed.
func messageJSON(msg *ais.Message, tag stream.Tag, build httpserver.BuildInfo) []byte {
	cfg := output.PeerJSONConfig{Version: build.Version, Driver: build.Driver, Hardware: build.Hardware, UUID: stationUUID}
	return output.FormatMessage(msg, output.FormatJSONFull, cfg, tag, true, "AI", "VDM")
}

// signalJSON renders the per-frame Tag metadata for the /api/signal SSE
// feed (spec §6's second SSE channel).
func signalJSON(tag stream.Tag) []byte {
	out := map[string]any{}
	if tag.HasLevel {
		out["level"] = tag.Level
	}
	if tag.HasPPM {
		out["ppm"] = tag.PPM
	}
	if tag.Distance != 0 {
		out["distance_km"] = tag.Distance
	}
	if tag.Angle != 0 {
		out["angle_deg"] = tag.Angle
	}
	if len(out) == 0 {
		return nil
	}
	b, _ := json.Marshal(out)
	return b
}
