// Package report renders the plain-text bodies of every bot reply. It only
// formats data produced by the services; nothing in here fetches or stores.
package report

import (
	"fmt"
	"strings"
	"time"

	"codewars-tracker/internal/domain"
	"codewars-tracker/internal/service"
)

const dateLayout = "2006-01-02"

func Welcome() string {
	return "Welcome to the Codewars Tracker Bot! 🎯\n\n" +
		"Available commands:\n" +
		"/register [codewars_username] - Register your Codewars account\n" +
		"/joingroup - See available groups to join\n" +
		"/mystats - See your Codewars statistics\n" +
		"/groupstats - See your group's statistics"
}

func Help() string {
	return "🤖 Available Commands:\n\n" +
		"/register [username] - Register your Codewars account\n" +
		"/mystats - View your Codewars statistics\n" +
		"/creategroup [name] - Create a group\n" +
		"/joingroup - Join a group\n" +
		"/groupstats - View group leaderboard\n" +
		"/daily - View today's and yesterday's kata completions\n" +
		"/weekly - View last 7 days of kata completions\n" +
		"/help - Show this help message"
}

func RegisterHelp() string {
	return "📝 How to register:\n\n" +
		"Use the command: /register [username]\n\n" +
		"To find your Codewars username:\n" +
		"1. Log in to codewars.com\n" +
		"2. Click your profile picture\n" +
		"3. Your username is in the URL: codewars.com/users/[username]\n\n" +
		"Note: Use your exact Codewars username, it's case-sensitive!"
}

func RegisterSuccess(username string) string {
	return fmt.Sprintf("✅ Successfully registered with Codewars username: %s\n\n", username) +
		"What's next?\n" +
		"• Use /mystats to see your progress\n" +
		"• Use /joingroup to join a group and compare stats with others\n" +
		"• Complete more katas on codewars.com to see your progress!"
}

// PersonalStats renders the /mystats reply: current profile, recent
// challenges and the derived activity block. An empty rebuilt history stops
// after the profile part; there is no data to compute rates from.
func PersonalStats(s *service.PersonalStats) string {
	sb := strings.Builder{}

	fmt.Fprintf(&sb, "📊 Your Codewars Statistics:\n\n")
	fmt.Fprintf(&sb, "Username: %s\n", s.Profile.Username)
	fmt.Fprintf(&sb, "Rank: %s\n", s.Profile.RankName)
	fmt.Fprintf(&sb, "Honor: %d\n", s.Profile.Honor)
	fmt.Fprintf(&sb, "Total Completed Kata: %d\n", s.Profile.TotalCompleted)

	if len(s.Recent) > 0 {
		sb.WriteString("\nRecent Completed Challenges:\n")
		for _, ev := range s.Recent {
			fmt.Fprintf(&sb, "• %s (%s)\n", ev.Name, ev.CompletedAt.UTC().Format("2006-01-02 15:04"))
		}
	}

	if s.Report.TotalDays == 0 {
		sb.WriteString("\nNo tracked activity yet - solve some katas and check back!")
		return sb.String()
	}

	r := s.Report
	sb.WriteString("\n📈 Activity Statistics:\n\n")
	fmt.Fprintf(&sb, "Total Days Tracked: %d\n", r.TotalDays)
	fmt.Fprintf(&sb, "Active Days: %d\n", r.ActiveDays)
	fmt.Fprintf(&sb, "Completion Rate: %.1f%%\n", r.CompletionRate*100)
	fmt.Fprintf(&sb, "Average Katas per Active Day: %.1f\n", r.AvgPerActiveDay)
	fmt.Fprintf(&sb, "Most Productive Day: %s (%d katas)\n\n", r.MaxDayDate, r.MaxDayKatas)
	sb.WriteString("Progress Summary:\n")
	fmt.Fprintf(&sb, "├ Total Katas Completed: %d\n", r.TotalKatas)
	fmt.Fprintf(&sb, "└ Total Honor Earned: %d (Current: %d)", r.TotalHonor, s.Profile.Honor)

	return sb.String()
}

// GroupOverview renders the /groupstats reply for one group.
func GroupOverview(o service.GroupOverview) string {
	if len(o.Members) == 0 {
		return fmt.Sprintf("No data available for group: %s", o.GroupName)
	}

	sb := strings.Builder{}
	fmt.Fprintf(&sb, "📊 Statistics for group: %s\n", o.GroupName)
	for _, m := range o.Members {
		fmt.Fprintf(&sb, "\n%s: %d katas, %d honor", m.Username, m.CompletedTotal, m.Honor)
	}
	return sb.String()
}

// DailyGroup renders the /daily reply for one group, members already
// ranked.
func DailyGroup(r service.DailyGroupReport) string {
	if len(r.Members) == 0 {
		return fmt.Sprintf("No data available for group: %s", r.GroupName)
	}

	sb := strings.Builder{}
	fmt.Fprintf(&sb, "📊 Daily Statistics for %s\n\n", r.GroupName)
	fmt.Fprintf(&sb, "Date: %s\n\n", r.Date)

	for _, m := range r.Members {
		fmt.Fprintf(&sb, "👤 %s (%s)\n", m.Username, m.Rank)
		fmt.Fprintf(&sb, "├ Today: %d katas\n", m.Today)
		fmt.Fprintf(&sb, "├ Yesterday: %d katas\n", m.Yesterday)
		fmt.Fprintf(&sb, "└ Honor: %d\n\n", m.Honor)
	}

	change := r.TotalToday - r.TotalYesterday
	symbol := "➖"
	if change > 0 {
		symbol = "📈"
	} else if change < 0 {
		symbol = "📉"
	}
	if change < 0 {
		change = -change
	}

	sb.WriteString("📈 Group Summary:\n")
	fmt.Fprintf(&sb, "├ Total Today: %d katas\n", r.TotalToday)
	fmt.Fprintf(&sb, "├ Total Yesterday: %d katas\n", r.TotalYesterday)
	fmt.Fprintf(&sb, "└ Day-over-day change: %s %d katas", symbol, change)

	return sb.String()
}

// WeeklyGroup renders the /weekly reply for one group with a per-day bar
// breakdown per member.
func WeeklyGroup(r service.WeeklyGroupReport) string {
	if len(r.Members) == 0 {
		return fmt.Sprintf("No data available for group: %s", r.GroupName)
	}

	sb := strings.Builder{}
	fmt.Fprintf(&sb, "📊 Weekly Statistics for %s\n\n", r.GroupName)
	fmt.Fprintf(&sb, "Period: %s to %s\n\n", r.Dates[0], r.Dates[len(r.Dates)-1])

	for _, m := range r.Members {
		fmt.Fprintf(&sb, "👤 %s (%s)\n", m.Username, m.Rank)
		fmt.Fprintf(&sb, "├ Total this week: %d katas\n", m.TotalWeek)
		sb.WriteString("├ Daily breakdown:\n")
		for _, date := range r.Dates {
			count := m.DailyCounts[date]
			bar := "░"
			if count > 0 {
				bar = strings.Repeat("█", count)
			}
			fmt.Fprintf(&sb, "│  %s: %s %d\n", dayName(date), bar, count)
		}
		fmt.Fprintf(&sb, "└ Honor: %d\n\n", m.Honor)
	}

	sb.WriteString("📈 Group Summary:\n")
	fmt.Fprintf(&sb, "├ Total Katas This Week: %d\n", r.TotalWeek)
	fmt.Fprintf(&sb, "├ Average per Day: %.1f\n", float64(r.TotalWeek)/float64(len(r.Dates)))
	fmt.Fprintf(&sb, "└ Most Active Day: %s (%d katas)", dayName(r.MaxDate), r.MaxCount)

	return sb.String()
}

// GroupCreated renders the welcome posted after the bot is added to a chat.
func GroupCreated(groupName string) string {
	return fmt.Sprintf("Thanks for adding me to %s! 🎯\n\n", groupName) +
		"Group members can use these commands:\n" +
		"/register [codewars_username] - Register your Codewars account\n" +
		"/mystats - See your Codewars statistics\n" +
		"/groupstats - See this group's statistics"
}

func dayName(date string) string {
	parsed, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return parsed.Format("Mon Jan 02")
}

// ProgressSeries converts a rebuilt history into the chart series for the
// personal progress chart: daily completions plus the running total.
func ProgressSeries(history []domain.HistoryEntry, cumulative []int) (dates []string, series []domain.Series) {
	daily := make([]float64, len(history))
	running := make([]float64, len(history))
	for i, entry := range history {
		dates = append(dates, entry.Date)
		daily[i] = float64(entry.CompletedKatas)
		running[i] = float64(cumulative[i])
	}
	return dates, []domain.Series{
		{Label: "Daily Katas", Points: daily},
		{Label: "Total Katas", Points: running},
	}
}

// ComparisonSeries converts a group overview into the katas-vs-honor bar
// series for the group comparison chart.
func ComparisonSeries(o service.GroupOverview) (labels []string, katas, honor domain.Series) {
	katas = domain.Series{Label: "Katas", Points: make([]float64, len(o.Members))}
	honor = domain.Series{Label: "Honor", Points: make([]float64, len(o.Members))}
	for i, m := range o.Members {
		labels = append(labels, m.Username)
		katas.Points[i] = float64(m.CompletedTotal)
		honor.Points[i] = float64(m.Honor)
	}
	return labels, katas, honor
}

// DailyComparisonSeries converts a daily report into the today-vs-yesterday
// bar series, members in ranked order.
func DailyComparisonSeries(r service.DailyGroupReport) (labels []string, today, yesterday domain.Series) {
	today = domain.Series{Label: "Today", Points: make([]float64, len(r.Members))}
	yesterday = domain.Series{Label: "Yesterday", Points: make([]float64, len(r.Members))}
	for i, m := range r.Members {
		labels = append(labels, m.Username)
		today.Points[i] = float64(m.Today)
		yesterday.Points[i] = float64(m.Yesterday)
	}
	return labels, today, yesterday
}

// WeeklySeries converts a weekly report into one series per member, points
// aligned to the report's date window.
func WeeklySeries(r service.WeeklyGroupReport) (dates []string, series []domain.Series) {
	for _, m := range r.Members {
		points := make([]float64, len(r.Dates))
		for i, d := range r.Dates {
			points[i] = float64(m.DailyCounts[d])
		}
		series = append(series, domain.Series{Label: m.Username, Points: points})
	}
	return r.Dates, series
}
