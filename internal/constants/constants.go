package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// EventWindowCap bounds how many recent completion events are fetched
	// per user. The Codewars API paginates; pages past the cap are dropped.
	EventWindowCap = 100

	// DefaultKataHonor is attributed to a completion event that carries no
	// honor value of its own.
	DefaultKataHonor = 4

	WeeklyWindowDays = 7
	RecentChallenges = 5

	// MemberFetchConcurrency caps parallel upstream fetches inside a group
	// report.
	MemberFetchConcurrency = 4
)
