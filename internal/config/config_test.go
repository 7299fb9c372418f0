package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"server_port": "9090",
		"devices": [
			{"name": "ledger-1", "address": "127.0.0.1:9999"},
			{"name": "ledger-2", "address": "127.0.0.1:9998", "mode": "plain", "chunk_size": 200,
			 "path_framing": "separate", "timeout": "5s", "index_base": 1}
		],
		"logger": {"level": "debug", "format": "json"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.Database.Enabled)

	require.Len(t, cfg.Devices, 2)
	assert.Equal(t, Device{
		Name:        "ledger-1",
		Address:     "127.0.0.1:9999",
		Mode:        "dkg",
		ChunkSize:   DefaultChunkSize,
		PathFraming: "packed",
		Timeout:     DefaultTimeout,
	}, cfg.Devices[0])
	assert.Equal(t, "plain", cfg.Devices[1].Mode)
	assert.Equal(t, 200, cfg.Devices[1].ChunkSize)
	assert.Equal(t, "separate", cfg.Devices[1].PathFraming)
	assert.Equal(t, 5*time.Second, cfg.Devices[1].Timeout)
	assert.Equal(t, 1, cfg.Devices[1].IndexBase)
}

func TestLoadConfigYAMLAndEnv(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
server_port: "7000"
devices:
  - name: emu
    address: localhost:40000
`)
	t.Setenv("FROST_LEDGER_SERVER_PORT", "7001")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "7001", cfg.ServerPort)
	require.Len(t, cfg.Devices, 1)
	assert.Equal(t, "emu", cfg.Devices[0].Name)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultServerPort, cfg.ServerPort)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Empty(t, cfg.Devices)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Device {
		return Device{Name: "d", Address: "a:1", Mode: "dkg", ChunkSize: 250, PathFraming: "packed"}
	}
	tests := []struct {
		name   string
		mutate func(*Device)
	}{
		{"no name", func(d *Device) { d.Name = "" }},
		{"no address", func(d *Device) { d.Address = "" }},
		{"bad mode", func(d *Device) { d.Mode = "fast" }},
		{"chunk too large", func(d *Device) { d.ChunkSize = 256 }},
		{"bad framing", func(d *Device) { d.PathFraming = "inline" }},
		{"bad index base", func(d *Device) { d.IndexBase = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base()
			tt.mutate(&d)
			cfg := &Config{Devices: []Device{d}}
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := &Config{Devices: []Device{base(), base()}}
	assert.Error(t, cfg.Validate(), "duplicate names")

	cfg = &Config{Devices: []Device{base()}}
	assert.NoError(t, cfg.Validate())
}
