package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Lobby holds all configuration for the lobby server.
type Lobby struct {
	// Network
	Bind string `yaml:"bind"`

	// Identity strings sent in the Welcome payload
	ServerName     string `yaml:"server_name"`
	WelcomeMessage string `yaml:"welcome_message"`
	DefaultChannel string `yaml:"default_channel"`

	// Timeouts and sweeps
	WriteTimeout     time.Duration `yaml:"write_timeout"`      // per-write deadline (default: 5s)
	SweepInterval    time.Duration `yaml:"sweep_interval"`     // housekeeping tick (default: 5s)
	RequestedGameTTL time.Duration `yaml:"requested_game_ttl"` // unconfirmed game lifetime (default: 30s)

	// Metrics endpoint
	Metrics Metrics `yaml:"metrics"`
}

// Metrics holds the Prometheus endpoint configuration.
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Bind    string `yaml:"bind"`
}

// DefaultLobby returns Lobby config with sensible defaults.
func DefaultLobby() Lobby {
	return Lobby{
		Bind:             "0.0.0.0:17171",
		ServerName:       "IE::Net",
		WelcomeMessage:   "Welcome to IE::Net, a community-operated EarthNet server",
		DefaultChannel:   "General",
		WriteTimeout:     5 * time.Second,
		SweepInterval:    5 * time.Second,
		RequestedGameTTL: 30 * time.Second,
		Metrics: Metrics{
			Enabled: false,
			Bind:    "127.0.0.1:9171",
		},
	}
}

// LoadLobby loads lobby server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadLobby(path string) (Lobby, error) {
	cfg := DefaultLobby()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
