package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_JSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"modules": {
			"usb_device_monitoring": {
				"enabled": true,
				"options": {"source": "netlink", "subsystems": ["usb", "block"], "receive_buffer": 1048576}
			}
		},
		"logging": {"level": "debug"},
		"metrics": {"address": ":9108"},
		"transmission": {"batch_size": 10, "flush_interval": "2s"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	usb := cfg.Modules["usb_device_monitoring"]
	assert.True(t, usb.Enabled)
	assert.Equal(t, "netlink", usb.OptionString("source", ""))
	assert.Equal(t, []string{"usb", "block"}, usb.OptionStrings("subsystems", nil))
	assert.Equal(t, 1048576, usb.OptionInt("receive_buffer", 0))
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ":9108", cfg.Metrics.Address)
	assert.Equal(t, 10, cfg.Transmission.BatchSize)

	interval, err := cfg.Transmission.Interval()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, interval)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
modules:
  usb_device_monitoring:
    enabled: true
    options:
      source: spool
      spool_dir: /var/spool/uevent
      remove_processed: true
      receive_buffer: 4096
      subsystems: [usb]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	usb := cfg.Modules["usb_device_monitoring"]
	assert.Equal(t, "spool", usb.OptionString("source", ""))
	assert.Equal(t, "/var/spool/uevent", usb.OptionString("spool_dir", ""))
	assert.True(t, usb.OptionBool("remove_processed", false))
	assert.Equal(t, 4096, usb.OptionInt("receive_buffer", 0))
	assert.Equal(t, []string{"usb"}, usb.OptionStrings("subsystems", nil))
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "config.json", `{}`))
	require.NoError(t, err)

	assert.NotNil(t, cfg.Modules)
	assert.Equal(t, DEFAULT_LOG_LEVEL, cfg.Logging.Level)
	assert.Equal(t, DEFAULT_BATCH_SIZE, cfg.Transmission.BatchSize)

	interval, err := cfg.Transmission.Interval()
	require.NoError(t, err)
	assert.Equal(t, DEFAULT_FLUSH_INTERVAL, interval)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"invalid json", "config.json", `{"modules":`},
		{"invalid yaml", "config.yaml", "modules: [unterminated"},
		{"invalid interval", "config.json", `{"transmission": {"flush_interval": "soon"}}`},
		{"negative interval", "config.json", `{"transmission": {"flush_interval": "-1s"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestConfig_OptionDefaults(t *testing.T) {
	c := Config{Options: map[string]interface{}{"source": 12, "trace": "yes"}}

	assert.Equal(t, "netlink", c.OptionString("source", "netlink"))
	assert.False(t, c.OptionBool("trace", false))
	assert.Equal(t, 7, c.OptionInt("missing", 7))
	assert.Equal(t, []string{"usb"}, c.OptionStrings("subsystems", []string{"usb"}))
	assert.Equal(t, []string{"block"}, Config{Options: map[string]interface{}{"s": "block"}}.OptionStrings("s", nil))
}
