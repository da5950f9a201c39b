package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// envVar maps an environment variable onto a config field.
type envVar struct {
	name  string
	field string
	apply func(cfg *Config, value string) error
}

func envVars() []envVar {
	str := func(set func(*Config, string)) func(*Config, string) error {
		return func(cfg *Config, v string) error {
			set(cfg, v)
			return nil
		}
	}
	return []envVar{
		{"TASKER_TASKS", "task_file", str(func(c *Config, v string) { c.TaskFile = v })},
		{"TASKER_CREDENTIALS", "credential_file", str(func(c *Config, v string) { c.CredentialFile = v })},
		{"TASKER_DATA_DIR", "data_dir", str(func(c *Config, v string) { c.DataDir = v })},
		{"TASKER_LOG_DIR", "log_dir", str(func(c *Config, v string) { c.LogDir = v })},
		{"TASKER_LOG_LEVEL", "log_level", str(func(c *Config, v string) { c.LogLevel = v })},
		{"TASKER_LOG_FORMAT", "log_format", str(func(c *Config, v string) { c.LogFormat = v })},
		{"TASKER_LOG_TIMESTAMPS", "log_timestamps", str(func(c *Config, v string) { c.LogTimestamps = boolFromString(v) })},
		{"TASKER_LOG_CALLER", "log_caller", str(func(c *Config, v string) { c.LogCaller = boolFromString(v) })},
		{"TASKER_BCRYPT_COST", "bcrypt_cost", func(c *Config, v string) error {
			i, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("TASKER_BCRYPT_COST: %w", err)
			}
			c.BcryptCost = i
			return nil
		}},
	}
}

// loadFromEnv overrides config from TASKER_* environment variables. Empty
// variables are ignored.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) error {
	for _, ev := range envVars() {
		v := os.Getenv(ev.name)
		if v == "" {
			continue
		}
		if err := ev.apply(cfg, v); err != nil {
			return err
		}
		if sources != nil {
			sources[ev.field] = SourceEnv
		}
	}
	return nil
}

// boolFromString parses a boolean from common string values.
func boolFromString(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
