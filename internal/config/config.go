package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Simulation    SimulationConfig    `yaml:"simulation"`     // Fleet size and sampling rates
	Kafka         KafkaConfig         `yaml:"kafka"`          // Message bus settings
	AircraftTypes AircraftTypesConfig `yaml:"aircraft_types"` // Fleet composition settings
	Server        ServerConfig        `yaml:"server"`         // Monitoring HTTP server settings
	Storage       StorageConfig       `yaml:"storage"`        // Report archive settings
	Logging       LoggingConfig       `yaml:"logging"`        // Application logging settings
}

// SimulationConfig contains the simulation kernel settings
type SimulationConfig struct {
	NumAircraft         int     `yaml:"num_aircraft"`         // Number of aircraft in the fleet
	MessageIntervalMin  float64 `yaml:"message_interval_min"` // Lower bound of the emission interval draw, seconds
	MessageIntervalMax  float64 `yaml:"message_interval_max"` // Upper bound of the emission interval draw, seconds
	EmergencyFrequency  float64 `yaml:"emergency_frequency"`  // Per-aircraft per-tick emergency probability
	SeparationFrequency float64 `yaml:"separation_frequency"` // Reserved; not consumed by the kernel today
	Seed                int64   `yaml:"seed"`                 // RNG seed (0 = derive from wall clock)
}

// KafkaConfig contains message bus connection settings
type KafkaConfig struct {
	BootstrapServers string `yaml:"bootstrap_servers"` // Broker endpoint(s), host:port[,host:port]
	Topic            string `yaml:"topic"`             // Target topic for position reports
}

// AircraftTypesConfig controls fleet composition
type AircraftTypesConfig struct {
	JetRatio float64 `yaml:"jet_ratio"` // Probability that a fleet slot is a jet (remainder are props)
}

// ServerConfig contains the monitoring HTTP server settings
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"` // Serve the monitoring API and WebSocket feed
	Host    string `yaml:"host"`    // Host address to bind to
	Port    int    `yaml:"port"`    // HTTP port
}

// StorageConfig contains the report archive settings
type StorageConfig struct {
	Enabled         bool   `yaml:"enabled"`            // Archive emitted reports to SQLite
	SQLitePath      string `yaml:"sqlite_path"`        // Path of the SQLite database file
	MaxReportsInAPI int    `yaml:"max_reports_in_api"` // Maximum recent reports returned per aircraft by the API
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `yaml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// Default returns the configuration used when no file is available
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			NumAircraft:         75,
			MessageIntervalMin:  1,
			MessageIntervalMax:  5,
			EmergencyFrequency:  0.001,
			SeparationFrequency: 0.002,
		},
		Kafka: KafkaConfig{
			BootstrapServers: "localhost:9092",
			Topic:            "adsb_messages",
		},
		AircraftTypes: AircraftTypesConfig{
			JetRatio: 0.7,
		},
		Server: ServerConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8080,
		},
		Storage: StorageConfig{
			Enabled:         false,
			SQLitePath:      "adsb-reports.db",
			MaxReportsInAPI: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads the configuration from the specified file path. Keys absent from
// the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	return config, nil
}

// LoadWithFallback loads the configuration from path, falling back to the full
// default configuration when the file is absent or malformed. The returned
// error reports why the fallback was taken; the returned Config is always
// usable.
func LoadWithFallback(path string) (*Config, error) {
	config, err := Load(path)
	if err != nil {
		return Default(), err
	}
	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Simulation.NumAircraft <= 0 {
		return fmt.Errorf("invalid num_aircraft: %d (must be > 0)", c.Simulation.NumAircraft)
	}
	if c.Simulation.MessageIntervalMin <= 0 {
		return fmt.Errorf("invalid message_interval_min: %g (must be > 0)", c.Simulation.MessageIntervalMin)
	}
	if c.Simulation.MessageIntervalMax < c.Simulation.MessageIntervalMin {
		return fmt.Errorf("invalid message_interval_max: %g (must be >= message_interval_min)", c.Simulation.MessageIntervalMax)
	}
	if c.Simulation.EmergencyFrequency < 0 || c.Simulation.EmergencyFrequency > 1 {
		return fmt.Errorf("invalid emergency_frequency: %g (must be in [0, 1])", c.Simulation.EmergencyFrequency)
	}
	if c.Simulation.SeparationFrequency < 0 || c.Simulation.SeparationFrequency > 1 {
		return fmt.Errorf("invalid separation_frequency: %g (must be in [0, 1])", c.Simulation.SeparationFrequency)
	}
	if c.AircraftTypes.JetRatio < 0 || c.AircraftTypes.JetRatio > 1 {
		return fmt.Errorf("invalid jet_ratio: %g (must be in [0, 1])", c.AircraftTypes.JetRatio)
	}
	if c.Kafka.BootstrapServers == "" {
		return fmt.Errorf("kafka bootstrap_servers must not be empty")
	}
	if c.Kafka.Topic == "" {
		return fmt.Errorf("kafka topic must not be empty")
	}
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Storage.Enabled && c.Storage.SQLitePath == "" {
		return fmt.Errorf("storage sqlite_path must not be empty when storage is enabled")
	}
	if c.Storage.MaxReportsInAPI <= 0 {
		c.Storage.MaxReportsInAPI = Default().Storage.MaxReportsInAPI
	}
	return nil
}
