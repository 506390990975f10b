package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# daily configuration file
# Values can be overridden by DAILY_* environment variables or CLI flags

# Storage backend: file, sqlite or memory
backend = "file"

# Data directory (supports ~ expansion)
data_dir = "~/.daily"

# Key the whole task list is stored under
slot_key = "tasks"

# Where new tasks go: append (bottom) or prepend (top)
insert_order = "append"

# Default list order: insertion, newest or title
sort = "insertion"

# Feedback on toggle/delete: none, bell or hook
feedback = "bell"

# Command run for every change when feedback = "hook".
# Receives DAILY_EVENT, DAILY_TASK_ID, DAILY_TASK_TITLE, DAILY_TASK_COMPLETED.
# feedback_command = "notify-send daily \"$DAILY_EVENT: $DAILY_TASK_TITLE\""

# Logging
log_level = "warn"
log_format = "text"
# log_file = "daily.log"   # relative to data_dir, rotated at 5MB
log_timestamps = false
log_caller = false
`
}
