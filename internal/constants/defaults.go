package constants

// DefaultVersion is the default version of the application
const DefaultVersion = "0.1.0-dev"

// DefaultBuildTime is the default build time when not provided at build time
const DefaultBuildTime = "unknown"

// DefaultGitCommit is the default git commit hash when not provided at build time
const DefaultGitCommit = "unknown"

// DefaultEnvPath is the default path to the .env file
const DefaultEnvPath = "./.env"

// DefaultConfigPath is the default path to the config.toml file
const DefaultConfigPath = "./config.toml"

// ScheduleTimeFormat is the layout operators use for schedule timestamps (UTC).
const ScheduleTimeFormat = "2006-01-02 15:04"

// PostsFile is the filename used to persist scheduled posts.
const PostsFile = "scheduled_posts.json"
