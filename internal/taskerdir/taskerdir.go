// Package taskerdir provides constants and helpers for tasker's file layout.
package taskerdir

import "path/filepath"

const (
	// Dir is the name of the per-user tasker directory.
	Dir = ".tasker"

	// DefaultTaskFile is the default task file name.
	DefaultTaskFile = "tasks.csv"

	// DefaultCredentialFile is the default credential file name.
	DefaultCredentialFile = "user.cred"

	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "tasker.toml"

	// HiddenConfigFile is the alternative project config file name.
	HiddenConfigFile = ".tasker.toml"
)

// DirPath returns the tasker directory inside home.
func DirPath(home string) string {
	if home == "" {
		return Dir
	}
	return filepath.Join(home, Dir)
}

// UserConfigPath returns the user-level config file inside home.
func UserConfigPath(home string) string {
	return filepath.Join(DirPath(home), DefaultConfigFile)
}

// Resolve joins name onto dir unless name is already absolute.
func Resolve(dir, name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}
