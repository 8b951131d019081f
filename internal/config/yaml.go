package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the YAML config file layout.
//
//	endpoint: http://example.org/status.php
//	timeout: 5s
//	poll_interval: 1m
//	aliases:
//	  Advanced: ATS
type File struct {
	Endpoint     string            `yaml:"endpoint"`
	Timeout      time.Duration     `yaml:"timeout"`
	PollInterval time.Duration     `yaml:"poll_interval"`
	Aliases      map[string]string `yaml:"aliases"`
}

// LoadFile reads and validates a YAML config file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if file.Endpoint != "" {
		u, err := url.Parse(file.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid endpoint: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("endpoint %q must be http or https", file.Endpoint)
		}
	}
	if file.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative")
	}
	if file.PollInterval < 0 {
		return nil, fmt.Errorf("poll_interval must not be negative")
	}

	return &file, nil
}

// apply copies values that were not set on the command line.
func (f *File) apply(cfg *Config, set map[string]bool) {
	if f.Endpoint != "" && !set["endpoint"] {
		cfg.Endpoint = f.Endpoint
	}
	if f.Timeout > 0 && !set["timeout"] {
		cfg.Timeout = f.Timeout
	}
	if f.PollInterval > 0 && !set["poll-interval"] {
		cfg.PollInterval = f.PollInterval
	}
	// aliases from the file replace the defaults
	if f.Aliases != nil {
		cfg.Aliases = f.Aliases
	}
}
