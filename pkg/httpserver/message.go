package httpserver

import (
	"net/http"
	"strconv"
	"strings"
)

// handleMessage implements /api/message?<mmsi> (spec §6): the last raw
// NMEA sentence(s) received for that vessel.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	mmsi64, err := strconv.ParseUint(strings.TrimSpace(r.URL.RawQuery), 10, 32)
	if err != nil {
		http.Error(w, "bad mmsi", http.StatusBadRequest)
		return
	}
	v, ok := s.DB.Get(uint32(mmsi64))
	if !ok || len(v.NMEAHistory) == 0 {
		writeJSON(w, map[string]any{"mmsi": mmsi64, "nmea": nil})
		return
	}
	writeJSON(w, map[string]any{"mmsi": mmsi64, "nmea": v.NMEAHistory[len(v.NMEAHistory)-1]})
}
