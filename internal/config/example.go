package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# Tasker configuration file
# Values can be overridden by TASKER_* environment variables or CLI flags

# Task file (relative paths resolve against data_dir)
task_file = "tasks.csv"

# Credential file holding the username and password hash
credential_file = "user.cred"

# Directory for relative task and credential paths (default: current directory)
# data_dir = "~/tasks"

# Log directory (supports ~ expansion and %VAR% on Windows)
log_dir = "~/.tasker"

# Logging: level is debug, info, warn, or error; format is text, json, or logfmt
log_level = "info"
log_format = "text"
log_timestamps = false
log_caller = false

# bcrypt cost for newly stored password hashes (4-31)
bcrypt_cost = 10
`
}
