package stats

import (
	"sort"

	"codewars-tracker/internal/domain"
)

// Rank orders snapshots by the given keys, each descending. The sort is
// stable: members with identical keys keep their arrival order, so repeated
// runs over the same input give the same leaderboard.
func Rank[T any](snapshots []T, keys ...func(T) int) []T {
	ranked := make([]T, len(snapshots))
	copy(ranked, snapshots)

	sort.SliceStable(ranked, func(i, j int) bool {
		for _, key := range keys {
			a, b := key(ranked[i]), key(ranked[j])
			if a != b {
				return a > b
			}
		}
		return false
	})

	return ranked
}

// DailyRankKeys orders the daily leaderboard: today's completions, then
// yesterday's, then honor.
func DailyRankKeys() []func(domain.MemberDailyStats) int {
	return []func(domain.MemberDailyStats) int{
		func(m domain.MemberDailyStats) int { return m.Today },
		func(m domain.MemberDailyStats) int { return m.Yesterday },
		func(m domain.MemberDailyStats) int { return m.Honor },
	}
}

// WeeklyRankKeys orders the weekly leaderboard: weekly total, then honor.
func WeeklyRankKeys() []func(domain.MemberWeeklyStats) int {
	return []func(domain.MemberWeeklyStats) int{
		func(m domain.MemberWeeklyStats) int { return m.TotalWeek },
		func(m domain.MemberWeeklyStats) int { return m.Honor },
	}
}
