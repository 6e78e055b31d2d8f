package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EngineConfig is the content of engine.yaml.
type EngineConfig struct {
	Version int `yaml:"version"`
	Engine  struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"engine"`
	Network struct {
		UIPort   int    `yaml:"ui_port"`
		MQTTPort int    `yaml:"mqtt_port"`
		MQTTHost string `yaml:"mqtt_host"`
		DBPort   int    `yaml:"db_port"`
	} `yaml:"network"`
	Session struct {
		MaxStrikes           int `yaml:"max_strikes"`
		StrikePenaltySeconds int `yaml:"strike_penalty_seconds"`
		IdleExpiryMinutes    int `yaml:"idle_expiry_minutes"`
	} `yaml:"session"`
	Profile struct {
		Path string `yaml:"path"`
	} `yaml:"profile"`
}

// EngineID returns the configured engine ID, defaulting to "defusal".
func (c *EngineConfig) EngineID() string {
	if c.Engine.ID == "" {
		return "defusal"
	}
	return c.Engine.ID
}

// UIPort returns the configured UI port, defaulting to 8080 if not set.
func (c *EngineConfig) UIPort() int {
	if c.Network.UIPort == 0 {
		return 8080
	}
	return c.Network.UIPort
}

// MQTTURL returns the broker URL built from the network section,
// defaulting to tcp://127.0.0.1:1883.
func (c *EngineConfig) MQTTURL() string {
	host, port := c.Network.MQTTHost, c.Network.MQTTPort
	if host == "" {
		host = "127.0.0.1"
	}
	if port == 0 {
		port = 1883
	}
	return fmt.Sprintf("tcp://%s:%d", host, port)
}

// DBPort returns the Postgres port, defaulting to 5432.
func (c *EngineConfig) DBPort() int {
	if c.Network.DBPort == 0 {
		return 5432
	}
	return c.Network.DBPort
}

func (c *EngineConfig) MaxStrikes() int {
	if c.Session.MaxStrikes <= 0 {
		return 3
	}
	return c.Session.MaxStrikes
}

func (c *EngineConfig) StrikePenalty() int {
	if c.Session.StrikePenaltySeconds <= 0 {
		return 30
	}
	return c.Session.StrikePenaltySeconds
}

// IdleExpiry is how long an untouched session is kept, defaulting to 30
// minutes.
func (c *EngineConfig) IdleExpiry() time.Duration {
	if c.Session.IdleExpiryMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Session.IdleExpiryMinutes) * time.Minute
}

// ProfilePath returns where the profile is stored, defaulting to
// data/profile.json.
func (c *EngineConfig) ProfilePath() string {
	if c.Profile.Path == "" {
		return "data/profile.json"
	}
	return c.Profile.Path
}

// Default returns a configuration with every field at its default.
func Default() *EngineConfig {
	cfg := &EngineConfig{Version: 1}
	cfg.Engine.ID = "defusal"
	return cfg
}

// LoadEngineConfig reads and validates engine.yaml.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg EngineConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported engine.yaml version: %d", cfg.Version)
	}

	return &cfg, nil
}
