package httpserver

import (
	"net/http"

	"github.com/aiscatcherd/aiscatcherd/pkg/vessel"
)

// shipSummary is the shape returned by /api/ships.json: one entry per
// vessel with the fields a map display typically needs.
type shipSummary struct {
	MMSI      uint32  `json:"mmsi"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	COG       float64 `json:"cog"`
	SOG       float64 `json:"sog"`
	Heading   float64 `json:"heading"`
	NavStatus uint8   `json:"nav_status"`
	ShipType  uint8   `json:"ship_type"`
	Name      string  `json:"name"`
	Callsign  string  `json:"callsign"`
	LastSeen  int64   `json:"last_seen_us"`
}

func summarize(v vessel.Vessel) shipSummary {
	return shipSummary{
		MMSI: v.MMSI, Lat: v.Lat, Lon: v.Lon, COG: v.COG, SOG: v.SOG,
		Heading: v.Heading, NavStatus: v.NavStatus, ShipType: v.ShipType,
		Name: v.Name, Callsign: v.Callsign, LastSeen: v.LastSeenUS,
	}
}

func (s *Server) handleShips(w http.ResponseWriter, r *http.Request) {
	snap := s.DB.Snapshot()
	out := make([]shipSummary, len(snap))
	for i, v := range snap {
		out[i] = summarize(v)
	}
	writeJSON(w, out)
}

// shipArrayColumns names the columns in the positional-array encoding
// returned by /api/ships_array.json, the compact wire shape AIS-Catcher
// clients expect for large vessel tables.
var shipArrayColumns = []string{"mmsi", "lat", "lon", "cog", "sog", "heading", "nav_status", "ship_type", "name", "callsign"}

func (s *Server) handleShipsArray(w http.ResponseWriter, r *http.Request) {
	snap := s.DB.Snapshot()
	values := make([][]any, len(snap))
	for i, v := range snap {
		values[i] = []any{v.MMSI, v.Lat, v.Lon, v.COG, v.SOG, v.Heading, v.NavStatus, v.ShipType, v.Name, v.Callsign}
	}
	writeJSON(w, map[string]any{"columns": shipArrayColumns, "values": values})
}

// shipFull is the /api/ships_full.json shape: every DB field, including
// the NMEA and path rings.
type shipFull struct {
	shipSummary
	FirstSeen   int64              `json:"first_seen_us"`
	Destination string             `json:"destination"`
	MsgHistory  uint32             `json:"msg_history"`
	NMEAHistory []string           `json:"nmea_history"`
	Path        []vessel.PathPoint `json:"path"`
}

func (s *Server) handleShipsFull(w http.ResponseWriter, r *http.Request) {
	snap := s.DB.Snapshot()
	out := make([]shipFull, len(snap))
	for i, v := range snap {
		out[i] = shipFull{
			shipSummary: summarize(v),
			FirstSeen:   v.FirstSeenUS,
			Destination: v.Destination,
			MsgHistory:  v.MsgHistory,
			NMEAHistory: v.NMEAHistory,
			Path:        v.Path,
		}
	}
	writeJSON(w, out)
}
