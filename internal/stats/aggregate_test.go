package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"codewars-tracker/internal/domain"
	"codewars-tracker/internal/stats"
)

func TestAggregate_TwoDayHistory(t *testing.T) {
	history := []domain.HistoryEntry{
		{Date: "2024-01-01", CompletedKatas: 2, Honor: 8},
		{Date: "2024-01-02", CompletedKatas: 1, Honor: 6},
	}

	report := stats.Aggregate(history)

	assert.Equal(t, 2, report.TotalDays)
	assert.Equal(t, 2, report.ActiveDays)
	assert.Equal(t, 1.0, report.CompletionRate)
	assert.Equal(t, []int{2, 3}, report.CumulativeKatas)
	assert.Equal(t, []int{8, 14}, report.CumulativeHonor)
	assert.Equal(t, 3, report.TotalKatas)
	assert.Equal(t, 14, report.TotalHonor)
	assert.Equal(t, 1.5, report.AvgPerActiveDay)
	assert.Equal(t, "2024-01-01", report.MaxDayDate)
	assert.Equal(t, 2, report.MaxDayKatas)
}

func TestAggregate_EmptyHistory(t *testing.T) {
	report := stats.Aggregate(nil)

	assert.Equal(t, 0, report.TotalDays)
	assert.Equal(t, 0, report.ActiveDays)
	assert.Equal(t, 0.0, report.CompletionRate)
	assert.Equal(t, 0.0, report.AvgPerActiveDay)
	assert.Empty(t, report.CumulativeKatas)
}

func TestAggregate_CumulativeMonotonic(t *testing.T) {
	history := []domain.HistoryEntry{
		{Date: "2024-01-01", CompletedKatas: 5, Honor: 20},
		{Date: "2024-01-02", CompletedKatas: 0, Honor: 0},
		{Date: "2024-01-03", CompletedKatas: 2, Honor: 8},
		{Date: "2024-01-04", CompletedKatas: 7, Honor: 30},
	}

	report := stats.Aggregate(history)

	prev := 0
	for i, v := range report.CumulativeKatas {
		assert.GreaterOrEqual(t, v, prev, "cumulative series dipped at index %d", i)
		prev = v
	}
	assert.Equal(t, report.TotalKatas, report.CumulativeKatas[len(report.CumulativeKatas)-1])
}

func TestAggregate_InactiveDaysExcluded(t *testing.T) {
	history := []domain.HistoryEntry{
		{Date: "2024-01-01", CompletedKatas: 4},
		{Date: "2024-01-02", CompletedKatas: 0},
	}

	report := stats.Aggregate(history)

	assert.Equal(t, 2, report.TotalDays)
	assert.Equal(t, 1, report.ActiveDays)
	assert.Equal(t, 0.5, report.CompletionRate)
	assert.Equal(t, 4.0, report.AvgPerActiveDay)
}

func TestAggregate_MaxDayTieGoesToEarliest(t *testing.T) {
	history := []domain.HistoryEntry{
		{Date: "2024-01-01", CompletedKatas: 3},
		{Date: "2024-01-05", CompletedKatas: 3},
	}

	report := stats.Aggregate(history)

	assert.Equal(t, "2024-01-01", report.MaxDayDate)
}
