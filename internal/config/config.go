// Package config loads the optional YAML settings file. Every field has a
// default; flags on main override whatever the file says.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Client settings.
	RelayURL       string `yaml:"relay_url"`
	Room           string `yaml:"room"`
	IdentitiesFile string `yaml:"identities_file"`

	// Relay settings.
	ListenAddr string `yaml:"listen_addr"`
	Advertise  bool   `yaml:"advertise"`

	// Engine timers, in milliseconds.
	HeartbeatMS      int `yaml:"heartbeat_ms"`
	SweepMS          int `yaml:"sweep_ms"`
	StaleAfterMS     int `yaml:"stale_after_ms"`
	ReconnectGraceMS int `yaml:"reconnect_grace_ms"`
}

func Defaults() Config {
	return Config{
		RelayURL:         "",
		Room:             "lobby",
		ListenAddr:       ":8777",
		Advertise:        true,
		HeartbeatMS:      5000,
		SweepMS:          5000,
		StaleAfterMS:     15000,
		ReconnectGraceMS: 3000,
	}
}

// Load reads the config file, falling back to defaults when the path is
// empty or the file does not exist.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// normalize repairs nonsense values instead of rejecting them.
func (c *Config) normalize() {
	d := Defaults()
	if c.Room == "" {
		c.Room = d.Room
	}
	if c.ListenAddr == "" {
		c.ListenAddr = d.ListenAddr
	}
	if c.HeartbeatMS <= 0 {
		c.HeartbeatMS = d.HeartbeatMS
	}
	if c.SweepMS <= 0 {
		c.SweepMS = d.SweepMS
	}
	if c.StaleAfterMS <= 0 {
		c.StaleAfterMS = d.StaleAfterMS
	}
	if c.ReconnectGraceMS <= 0 {
		c.ReconnectGraceMS = d.ReconnectGraceMS
	}
}

func (c Config) Heartbeat() time.Duration      { return time.Duration(c.HeartbeatMS) * time.Millisecond }
func (c Config) Sweep() time.Duration          { return time.Duration(c.SweepMS) * time.Millisecond }
func (c Config) StaleAfter() time.Duration     { return time.Duration(c.StaleAfterMS) * time.Millisecond }
func (c Config) ReconnectGrace() time.Duration { return time.Duration(c.ReconnectGraceMS) * time.Millisecond }
