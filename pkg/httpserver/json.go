package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// maybeGzip wraps a handler so a response is gzip-compressed when the
// server has gzip enabled and the client advertises support for it
// (spec §4.8 "static file store and gzip").
func (s *Server) maybeGzip(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.Gzip || !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next(w, r)
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		next(gzipResponseWriter{ResponseWriter: w, Writer: gz}, r)
	}
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer *gzip.Writer
}

func (g gzipResponseWriter) Write(p []byte) (int, error) {
	return g.Writer.Write(p)
}
