package domain

import (
	"time"
)

type User struct {
	TelegramID     int64
	Username       string
	CompletedTotal int
	History        []HistoryEntry
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HistoryEntry is one calendar day of aggregated activity. Date is the UTC
// day in YYYY-MM-DD form. ID is empty until the entry is persisted.
type HistoryEntry struct {
	ID             string
	Date           string
	CompletedKatas int
	Honor          int
	Rank           string
}

type Group struct {
	Name      string
	CreatorID int64
	Members   []int64
	ChatID    int64
	IsForum   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile is the upstream view of a Codewars account.
type Profile struct {
	Username       string
	Honor          int
	RankName       string
	TotalCompleted int
}

// CompletionEvent is a single solved challenge. Honor is zero when the
// platform did not report a value for the event.
type CompletionEvent struct {
	Name        string
	CompletedAt time.Time
	Honor       int
}

// ActivityReport holds statistics derived from a daily history.
type ActivityReport struct {
	TotalDays       int
	ActiveDays      int
	CompletionRate  float64
	AvgPerActiveDay float64
	MaxDayDate      string
	MaxDayKatas     int
	TotalKatas      int
	TotalHonor      int
	CumulativeKatas []int
	CumulativeHonor []int
}

// MemberDailyStats is the per-member snapshot ranked on daily leaderboards.
type MemberDailyStats struct {
	Username  string
	Rank      string
	Honor     int
	Today     int
	Yesterday int
}

// MemberWeeklyStats is the per-member snapshot ranked on weekly leaderboards.
// DailyCounts is keyed by YYYY-MM-DD and zero-filled for every day of the
// requested week.
type MemberWeeklyStats struct {
	Username    string
	Rank        string
	Honor       int
	DailyCounts map[string]int
	TotalWeek   int
}

// MemberTotals is the per-member snapshot shown on the overall group report.
type MemberTotals struct {
	Username       string
	CompletedTotal int
	Honor          int
}

// Series is a labeled numeric series handed to the chart renderer.
type Series struct {
	Label  string
	Points []float64
}
