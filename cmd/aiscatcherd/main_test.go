package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiscatcherd/aiscatcherd/internal/config"
)

func TestLoadConfig_MissingFileErrors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAMLWrapsConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("station: [this is not a mapping"), 0o644))

	_, err := loadConfig(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfigInvalid)
}

func TestLoadConfig_RejectsFailedValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: not_a_real_level\n"), 0o644))

	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_AcceptsWellFormedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "good.yaml")
	yaml := `
station:
  id: 1
  own_mmsi: 244670316
inputs:
  - name: primary
    url: "tcp://127.0.0.1:10110"
http_server:
  addr: ":8080"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int32(244670316), cfg.Station.OwnMMSI)
	assert.Len(t, cfg.Inputs, 1)
}
