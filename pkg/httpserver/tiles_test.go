package httpserver

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleTile_ServesFileFromTilesDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "0", "0"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0", "0", "0.png"), []byte("tile-bytes"), 0o644))

	s := newTestServer()
	s.TilesDir = dir

	rr := httptest.NewRecorder()
	s.handleTile(rr, httptest.NewRequest("GET", "/tiles/0/0/0.png", nil))
	require.Equal(t, 200, rr.Code)
	assert.Equal(t, "tile-bytes", rr.Body.String())
}

func TestHandleTile_NoTilesDirConfiguredReturns404(t *testing.T) {
	s := newTestServer()
	rr := httptest.NewRecorder()
	s.handleTile(rr, httptest.NewRequest("GET", "/tiles/0/0/0.png", nil))
	assert.Equal(t, 404, rr.Code)
}

func TestHandleTile_PathTraversalRejected(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer()
	s.TilesDir = dir

	rr := httptest.NewRecorder()
	s.handleTile(rr, httptest.NewRequest("GET", "/tiles/../../etc/passwd", nil))
	assert.Equal(t, 404, rr.Code)
}
