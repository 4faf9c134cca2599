// Package config handles notifier configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ritsu/mindustry-notifier/internal/detect"
)

// Config holds runtime settings. Precedence: flags (applied by main) over
// environment over file over defaults.
type Config struct {
	Verbose        bool
	Quiet          bool
	StatusInterval time.Duration
	HTTPAddr       string

	// Path of the loaded config file, empty if none.
	Path string
}

// fileConfig mirrors the YAML file; pointers distinguish absent keys.
type fileConfig struct {
	Verbose        *bool   `yaml:"verbose"`
	Quiet          *bool   `yaml:"quiet"`
	StatusInterval *int    `yaml:"status_interval"` // seconds
	HTTPAddr       *string `yaml:"http_addr"`
}

// Load builds a config from defaults, then the optional YAML file at path,
// then environment variables.
func Load(path string) (*Config, error) {
	cfg := &Config{StatusInterval: detect.DefaultStatusInterval}

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
		cfg.Path = path
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if fc.Verbose != nil {
		c.Verbose = *fc.Verbose
	}
	if fc.Quiet != nil {
		c.Quiet = *fc.Quiet
	}
	if fc.StatusInterval != nil {
		c.StatusInterval = time.Duration(*fc.StatusInterval) * time.Second
	}
	if fc.HTTPAddr != nil {
		c.HTTPAddr = *fc.HTTPAddr
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Verbose = getEnvBool("VERBOSE", c.Verbose)
	c.Quiet = getEnvBool("QUIET", c.Quiet)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	if sec := getEnvInt("STATUS_INTERVAL", 0); sec > 0 {
		c.StatusInterval = time.Duration(sec) * time.Second
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Verbose && c.Quiet {
		return errors.New("verbose and quiet are mutually exclusive")
	}
	if c.StatusInterval <= 0 {
		return errors.New("status interval must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
