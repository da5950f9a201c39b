package config

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/nibzard/tasker/internal/taskerdir"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, lowest priority first.
	Files []string
	// Warnings holds non-fatal problems such as unknown keys in config files.
	Warnings []string
}

// Default values.
const (
	DefaultTaskFile       = taskerdir.DefaultTaskFile
	DefaultCredentialFile = taskerdir.DefaultCredentialFile
	DefaultLogDir         = "~/" + taskerdir.Dir
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultBcryptCost     = bcrypt.DefaultCost
)

// Config holds the full configuration for tasker.
type Config struct {
	// Paths
	TaskFile       string `toml:"task_file"`
	CredentialFile string `toml:"credential_file"`
	DataDir        string `toml:"data_dir"`
	LogDir         string `toml:"log_dir"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Credential hashing
	BcryptCost int `toml:"bcrypt_cost"`
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"task_file",
		"credential_file",
		"data_dir",
		"log_dir",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
		"bcrypt_cost",
	}
}

// Fields returns the configurable field names in display order.
func Fields() []string {
	return configFields()
}

// Value returns the display value of a field by its TOML name.
func (c *Config) Value(field string) string {
	switch field {
	case "task_file":
		return c.TaskFile
	case "credential_file":
		return c.CredentialFile
	case "data_dir":
		return c.DataDir
	case "log_dir":
		return c.LogDir
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "log_timestamps":
		return boolString(c.LogTimestamps)
	case "log_caller":
		return boolString(c.LogCaller)
	case "bcrypt_cost":
		return itoa(c.BcryptCost)
	}
	return ""
}
