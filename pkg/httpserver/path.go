package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/aiscatcherd/aiscatcherd/pkg/vessel"
)

// maxPathMMSIs is spec §6's "max 100 mmsi" bound on /api/path.json.
const maxPathMMSIs = 100

// parseMMSIQuery extracts the comma-separated mmsi list from a raw query
// string shaped like "244670316,366123456" (no key=value pairs, per
// spec §6's literal "?<mmsi>,<mmsi>,...").
func parseMMSIQuery(rawQuery string) []uint32 {
	if rawQuery == "" {
		return nil
	}
	parts := strings.Split(rawQuery, ",")
	out := make([]uint32, 0, len(parts))
	for _, p := range parts {
		if len(out) >= maxPathMMSIs {
			break
		}
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			continue
		}
		out = append(out, uint32(v))
	}
	return out
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	mmsis := parseMMSIQuery(r.URL.RawQuery)
	out := make(map[uint32][]vessel.PathPoint, len(mmsis))
	for _, mmsi := range mmsis {
		if v, ok := s.DB.Get(mmsi); ok {
			out[mmsi] = v.Path
		}
	}
	writeJSON(w, out)
}
