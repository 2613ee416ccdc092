package constants

import "time"

// Frequency represents how often a habit is expected to be done
type Frequency string

const (
	AppName    = "growthtrack"
	Version    = "v0.1.0"
	APIPrefix  = "/api/v1"
	EnvPrefix  = "GROWTH_"
	LogPrefix  = "growth"
	DefaultDir = "~/.config/growthtrack"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Keyring users
	KeyringWebhookUser  = "slack-webhook-url"
	KeyringPostgresUser = "database-connection"

	// Default user id used by the scheduled reminder when the event carries none
	DefaultUserID = "default"

	// Notification constants
	NotifyTimeout = 10 * time.Second

	// Habit defaults
	DefaultHabitColor = "#22c55e"
	MaxNameLength     = 255

	// Table names
	TableGoals     = "personal-growth-tracker-goals"
	TableRoadmaps  = "personal-growth-tracker-roadmaps"
	TableSkills    = "personal-growth-tracker-skills"
	TableHabits    = "personal-growth-tracker-habits"
	TableHabitLogs = "personal-growth-tracker-habit-logs"

	// HabitLogUserIndex is the secondary index on habit logs keyed by (user_id, date)
	HabitLogUserIndex = "user_id-date-index"

	// Storage providers
	ProviderSQLite   = "sqlite"
	ProviderPostgres = "postgres"
	ProviderDynamo   = "dynamodb"
)

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekdays Frequency = "weekdays"
	FrequencyWeekly   Frequency = "weekly"
)

// Goal statuses
const (
	GoalNotStarted = "not_started"
	GoalInProgress = "in_progress"
	GoalCompleted  = "completed"
	GoalOnHold     = "on_hold"
)

// Milestone statuses
const (
	MilestoneNotStarted = "not_started"
	MilestoneInProgress = "in_progress"
	MilestoneCompleted  = "completed"
	MilestoneBlocked    = "blocked"
)
