package stats

import (
	"sort"
	"time"

	"codewars-tracker/internal/constants"
	"codewars-tracker/internal/domain"
)

const dateLayout = "2006-01-02"

// Day returns the UTC calendar day of t in YYYY-MM-DD form.
func Day(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// RebuildFromEvents folds a window of completion events into a fresh daily
// history, ordered by date ascending with one entry per day. Events are
// stable-sorted by completion timestamp first, so ties keep their upstream
// relative order. An event without an honor value contributes the default.
// The result is derived entirely from the window; it is never written back
// to the store.
func RebuildFromEvents(events []domain.CompletionEvent, profile domain.Profile) []domain.HistoryEntry {
	if len(events) == 0 {
		return nil
	}

	sorted := make([]domain.CompletionEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CompletedAt.Before(sorted[j].CompletedAt)
	})

	var history []domain.HistoryEntry
	byDate := make(map[string]int)

	for _, ev := range sorted {
		honor := ev.Honor
		if honor == 0 {
			honor = constants.DefaultKataHonor
		}

		date := Day(ev.CompletedAt)
		if idx, ok := byDate[date]; ok {
			history[idx].CompletedKatas++
			history[idx].Honor += honor
			continue
		}

		byDate[date] = len(history)
		history = append(history, domain.HistoryEntry{
			Date:           date,
			CompletedKatas: 1,
			Honor:          honor,
			Rank:           profile.RankName,
		})
	}

	return history
}

// AppendSnapshot appends one entry for today carrying the profile's
// cumulative completion total and current honor. It does not collapse into
// an existing entry for the same day; registration snapshots live alongside
// whatever the day already holds.
func AppendSnapshot(history []domain.HistoryEntry, profile domain.Profile, now time.Time) []domain.HistoryEntry {
	return append(history, domain.HistoryEntry{
		Date:           Day(now),
		CompletedKatas: profile.TotalCompleted,
		Honor:          profile.Honor,
		Rank:           profile.RankName,
	})
}

// DailyCounts zero-fills a completion count for every requested date, then
// overlays the history. A day absent from the history reports zero, not
// missing.
func DailyCounts(history []domain.HistoryEntry, dates []string) map[string]int {
	counts := make(map[string]int, len(dates))
	for _, d := range dates {
		counts[d] = 0
	}
	for _, entry := range history {
		if _, ok := counts[entry.Date]; ok {
			counts[entry.Date] += entry.CompletedKatas
		}
	}
	return counts
}

// WeekDates returns the last WeeklyWindowDays UTC days ending today, oldest
// to newest.
func WeekDates(now time.Time) []string {
	dates := make([]string, 0, constants.WeeklyWindowDays)
	for i := constants.WeeklyWindowDays - 1; i >= 0; i-- {
		dates = append(dates, Day(now.AddDate(0, 0, -i)))
	}
	return dates
}
