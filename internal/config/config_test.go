package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 75, cfg.Simulation.NumAircraft)
	assert.Equal(t, 1.0, cfg.Simulation.MessageIntervalMin)
	assert.Equal(t, 5.0, cfg.Simulation.MessageIntervalMax)
	assert.Equal(t, 0.001, cfg.Simulation.EmergencyFrequency)
	assert.Equal(t, 0.002, cfg.Simulation.SeparationFrequency)
	assert.Equal(t, "localhost:9092", cfg.Kafka.BootstrapServers)
	assert.Equal(t, "adsb_messages", cfg.Kafka.Topic)
	assert.Equal(t, 0.7, cfg.AircraftTypes.JetRatio)
	require.NoError(t, cfg.Validate())
}

func TestLoadWithFallbackMissingFile(t *testing.T) {
	cfg, err := LoadWithFallback(filepath.Join(t.TempDir(), "nope.yaml"))

	assert.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithFallbackMalformedFile(t *testing.T) {
	path := writeConfig(t, "simulation: [not a map")

	cfg, err := LoadWithFallback(path)
	assert.Error(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
simulation:
  num_aircraft: 10
kafka:
  topic: "test_topic"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Simulation.NumAircraft)
	assert.Equal(t, "test_topic", cfg.Kafka.Topic)
	// Untouched keys fall back field-by-field
	assert.Equal(t, 1.0, cfg.Simulation.MessageIntervalMin)
	assert.Equal(t, "localhost:9092", cfg.Kafka.BootstrapServers)
	assert.Equal(t, 0.7, cfg.AircraftTypes.JetRatio)
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `
simulation:
  num_aircraft: 200
  message_interval_min: 0.5
  message_interval_max: 2
  emergency_frequency: 0.01
  seed: 42
kafka:
  bootstrap_servers: "kafka-1:9092,kafka-2:9092"
  topic: "traffic"
aircraft_types:
  jet_ratio: 0.25
server:
  enabled: false
storage:
  enabled: true
  sqlite_path: "/tmp/reports.db"
logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.Simulation.NumAircraft)
	assert.Equal(t, 0.5, cfg.Simulation.MessageIntervalMin)
	assert.Equal(t, int64(42), cfg.Simulation.Seed)
	assert.Equal(t, "kafka-1:9092,kafka-2:9092", cfg.Kafka.BootstrapServers)
	assert.Equal(t, 0.25, cfg.AircraftTypes.JetRatio)
	assert.False(t, cfg.Server.Enabled)
	assert.True(t, cfg.Storage.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(c *Config) {}, ok: true},
		{name: "zero_aircraft", mutate: func(c *Config) { c.Simulation.NumAircraft = 0 }, ok: false},
		{name: "negative_interval", mutate: func(c *Config) { c.Simulation.MessageIntervalMin = -1 }, ok: false},
		{name: "max_below_min", mutate: func(c *Config) {
			c.Simulation.MessageIntervalMin = 5
			c.Simulation.MessageIntervalMax = 1
		}, ok: false},
		{name: "emergency_frequency_above_one", mutate: func(c *Config) { c.Simulation.EmergencyFrequency = 1.5 }, ok: false},
		{name: "jet_ratio_negative", mutate: func(c *Config) { c.AircraftTypes.JetRatio = -0.1 }, ok: false},
		{name: "empty_servers", mutate: func(c *Config) { c.Kafka.BootstrapServers = "" }, ok: false},
		{name: "empty_topic", mutate: func(c *Config) { c.Kafka.Topic = "" }, ok: false},
		{name: "bad_port", mutate: func(c *Config) { c.Server.Port = 70000 }, ok: false},
		{name: "bad_port_server_disabled", mutate: func(c *Config) {
			c.Server.Enabled = false
			c.Server.Port = 70000
		}, ok: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
