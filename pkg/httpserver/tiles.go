package httpserver

import (
	"net/http"
	"path/filepath"
	"strings"
)

// handleTile serves /tiles/<layerId>/<z>/<x>/<y> from a flat directory
// tree under TilesDir (spec §6). Missing TilesDir or an out-of-tree path
// (traversal attempt) both yield 404, never a directory listing.
func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	if s.TilesDir == "" {
		http.NotFound(w, r)
		return
	}
	rel := strings.TrimPrefix(r.URL.Path, "/tiles/")
	if rel == "" || strings.Contains(rel, "..") {
		http.NotFound(w, r)
		return
	}
	full := filepath.Join(s.TilesDir, filepath.FromSlash(rel))
	if !strings.HasPrefix(full, filepath.Clean(s.TilesDir)+string(filepath.Separator)) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, full)
}
