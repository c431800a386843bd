// Package config loads the daemon's optional on-disk defaults
// (contact directory, social-table refresh cadence and budgets, log
// level) so that cmd/ad's flags only need to override what a deployed
// instance wants different from a shared baseline.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/allnet-io/ad/internal/social"
)

// Config is the daemon's full set of runtime-tunable parameters.
// Every field has a sensible zero-config default (see Default), so a
// missing config file is not an error.
type Config struct {
	ContactsDir        string `yaml:"contacts_dir"`
	UpdateIntervalSecs int    `yaml:"update_interval_seconds"`
	SocialMaxBytes     int    `yaml:"social_max_bytes"`
	SocialMaxChecks    int    `yaml:"social_max_checks"`
	LogLevel           string `yaml:"log_level"`
	LogJSON            bool   `yaml:"log_json"`
	LogFile            string `yaml:"log_file"`
}

// UpdateInterval is UpdateIntervalSecs as a time.Duration.
func (c Config) UpdateInterval() time.Duration {
	return time.Duration(c.UpdateIntervalSecs) * time.Second
}

// Default returns the baseline configuration: a 30-second social
// table refresh, a 30 000-byte snapshot budget, and up to 5 signature
// checks per lookup.
func Default() Config {
	return Config{
		ContactsDir:        "",
		UpdateIntervalSecs: int(social.DefaultUpdatePeriod / time.Second),
		SocialMaxBytes:     social.DefaultMaxBytes,
		SocialMaxChecks:    social.DefaultMaxChecks,
		LogLevel:           "info",
		LogJSON:            false,
		LogFile:            "",
	}
}

// Load reads a YAML config file at path over top of Default(). A
// missing file is not an error — the daemon runs on defaults alone,
// consistent with every flag also being optional.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
