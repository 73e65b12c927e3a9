package stats

import (
	"codewars-tracker/internal/domain"
)

// Aggregate derives activity statistics from a daily history. An empty
// history yields a zero report; callers render that as "no data" rather than
// a 0% rate.
func Aggregate(history []domain.HistoryEntry) domain.ActivityReport {
	report := domain.ActivityReport{
		TotalDays: len(history),
	}
	if len(history) == 0 {
		return report
	}

	report.CumulativeKatas = make([]int, len(history))
	report.CumulativeHonor = make([]int, len(history))

	for i, entry := range history {
		if entry.CompletedKatas > 0 {
			report.ActiveDays++
		}

		report.TotalKatas += entry.CompletedKatas
		report.TotalHonor += entry.Honor
		report.CumulativeKatas[i] = report.TotalKatas
		report.CumulativeHonor[i] = report.TotalHonor

		// Ties go to the earliest date.
		if entry.CompletedKatas > report.MaxDayKatas {
			report.MaxDayKatas = entry.CompletedKatas
			report.MaxDayDate = entry.Date
		}
	}

	report.CompletionRate = float64(report.ActiveDays) / float64(report.TotalDays)
	if report.ActiveDays > 0 {
		report.AvgPerActiveDay = float64(report.TotalKatas) / float64(report.ActiveDays)
	}

	return report
}
