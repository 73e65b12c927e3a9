package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"codewars-tracker/internal/constants"
	"codewars-tracker/internal/domain"
	"codewars-tracker/internal/stats"
)

type GroupStore interface {
	Get(ctx context.Context, name string) (*domain.Group, error)
	GetByChatID(ctx context.Context, chatID int64) (*domain.Group, error)
	Create(ctx context.Context, group *domain.Group) error
	AddMember(ctx context.Context, name string, telegramID int64) error
	GroupsFor(ctx context.Context, telegramID int64) ([]domain.Group, error)
	ListAll(ctx context.Context) ([]domain.Group, error)
}

// GroupOverview is the overall standing of one group.
type GroupOverview struct {
	GroupName string
	Members   []domain.MemberTotals
}

// DailyGroupReport is one group's daily leaderboard, ranked by today's
// completions, then yesterday's, then honor.
type DailyGroupReport struct {
	GroupName      string
	Date           string
	Members        []domain.MemberDailyStats
	TotalToday     int
	TotalYesterday int
}

// WeeklyGroupReport is one group's weekly leaderboard, ranked by weekly
// total, then honor. Dates run oldest to newest.
type WeeklyGroupReport struct {
	GroupName   string
	Dates       []string
	Members     []domain.MemberWeeklyStats
	TotalWeek   int
	DailyTotals map[string]int
	MaxDate     string
	MaxCount    int
}

type GroupService struct {
	groups   GroupStore
	users    UserStore
	codewars CodewarsAPI
	logger   zerolog.Logger
}

func NewGroupService(groups GroupStore, users UserStore, codewars CodewarsAPI, logger zerolog.Logger) *GroupService {
	return &GroupService{groups: groups, users: users, codewars: codewars, logger: logger}
}

// Create makes a new group owned by the creator. Name collisions report
// ErrGroupExists and leave the existing group untouched.
func (s *GroupService) Create(ctx context.Context, name string, creatorID int64) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if name == "" {
		return domain.ErrInvalidInput
	}

	return s.groups.Create(ctx, &domain.Group{Name: name, CreatorID: creatorID})
}

// Join adds the user to a group. Joining twice is a no-op reported as
// ErrAlreadyMember, which callers render as feedback, not failure.
func (s *GroupService) Join(ctx context.Context, name string, telegramID int64) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.groups.AddMember(ctx, name, telegramID)
}

// AutoCreateOnInvite creates a group for a chat the bot was added to.
// Repeated invite events for the same chat find the existing record and do
// nothing.
func (s *GroupService) AutoCreateOnInvite(ctx context.Context, chatTitle string, chatID int64, isForum bool, inviterID int64) (*domain.Group, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	existing, err := s.groups.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	group := &domain.Group{
		Name:      chatTitle,
		CreatorID: inviterID,
		ChatID:    chatID,
		IsForum:   isForum,
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, false, err
	}

	s.logger.Info().Str("group", chatTitle).Int64("chat_id", chatID).Msg("group auto-created on invite")
	return group, true, nil
}

// ListAll returns every group for the join keyboard.
func (s *GroupService) ListAll(ctx context.Context) ([]domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.groups.ListAll(ctx)
}

// GroupStats builds the overall standing of every group the caller belongs
// to. A member whose upstream fetch fails is logged and dropped from that
// group's report; the report itself still goes out.
func (s *GroupService) GroupStats(ctx context.Context, telegramID int64) ([]GroupOverview, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	groups, err := s.groups.GroupsFor(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	var reports []GroupOverview
	for _, group := range groups {
		reports = append(reports, s.overviewFor(ctx, group))
	}

	return reports, nil
}

// Overview builds the standing of a single group looked up by name.
func (s *GroupService) Overview(ctx context.Context, name string) (GroupOverview, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	group, err := s.groups.Get(ctx, name)
	if err != nil {
		return GroupOverview{}, err
	}
	if group == nil {
		return GroupOverview{}, domain.ErrGroupNotFound
	}
	return s.overviewFor(ctx, *group), nil
}

func (s *GroupService) overviewFor(ctx context.Context, group domain.Group) GroupOverview {
	members := collectMembers(group.Members, func(memberID int64) (domain.MemberTotals, bool) {
		profile, ok := s.memberProfile(ctx, group.Name, memberID)
		if !ok {
			return domain.MemberTotals{}, false
		}
		return domain.MemberTotals{
			Username:       profile.Username,
			CompletedTotal: profile.TotalCompleted,
			Honor:          profile.Honor,
		}, true
	})
	return GroupOverview{GroupName: group.Name, Members: members}
}

// collectMembers fetches per-member data with at most MemberFetchConcurrency
// fetches in flight. Results keep membership order so ranking stays
// deterministic; members whose fetch reports false are dropped.
func collectMembers[T any](memberIDs []int64, fetch func(int64) (T, bool)) []T {
	results := make([]*T, len(memberIDs))

	var g errgroup.Group
	g.SetLimit(constants.MemberFetchConcurrency)
	for i, memberID := range memberIDs {
		g.Go(func() error {
			if v, ok := fetch(memberID); ok {
				results[i] = &v
			}
			return nil
		})
	}
	_ = g.Wait()

	var out []T
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// DailyStats builds today-vs-yesterday leaderboards for the caller's groups.
func (s *GroupService) DailyStats(ctx context.Context, telegramID int64) ([]DailyGroupReport, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	groups, err := s.groups.GroupsFor(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	today := stats.Day(now)
	yesterday := stats.Day(now.AddDate(0, 0, -1))

	var reports []DailyGroupReport
	for _, group := range groups {
		report := DailyGroupReport{GroupName: group.Name, Date: today}

		members := collectMembers(group.Members, func(memberID int64) (domain.MemberDailyStats, bool) {
			profile, events, ok := s.memberActivity(ctx, group.Name, memberID)
			if !ok {
				return domain.MemberDailyStats{}, false
			}

			history := stats.RebuildFromEvents(events, profile)
			counts := stats.DailyCounts(history, []string{today, yesterday})

			return domain.MemberDailyStats{
				Username:  profile.Username,
				Rank:      profile.RankName,
				Honor:     profile.Honor,
				Today:     counts[today],
				Yesterday: counts[yesterday],
			}, true
		})

		report.Members = stats.Rank(members, stats.DailyRankKeys()...)
		for _, m := range report.Members {
			report.TotalToday += m.Today
			report.TotalYesterday += m.Yesterday
		}

		reports = append(reports, report)
	}

	return reports, nil
}

// WeeklyStats builds seven-day leaderboards for the caller's groups, with
// every day of the window zero-filled per member.
func (s *GroupService) WeeklyStats(ctx context.Context, telegramID int64) ([]WeeklyGroupReport, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	groups, err := s.groups.GroupsFor(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	dates := stats.WeekDates(time.Now())

	var reports []WeeklyGroupReport
	for _, group := range groups {
		report := WeeklyGroupReport{
			GroupName:   group.Name,
			Dates:       dates,
			DailyTotals: make(map[string]int, len(dates)),
		}
		for _, d := range dates {
			report.DailyTotals[d] = 0
		}

		members := collectMembers(group.Members, func(memberID int64) (domain.MemberWeeklyStats, bool) {
			profile, events, ok := s.memberActivity(ctx, group.Name, memberID)
			if !ok {
				return domain.MemberWeeklyStats{}, false
			}

			history := stats.RebuildFromEvents(events, profile)
			counts := stats.DailyCounts(history, dates)

			member := domain.MemberWeeklyStats{
				Username:    profile.Username,
				Rank:        profile.RankName,
				Honor:       profile.Honor,
				DailyCounts: counts,
			}
			for _, d := range dates {
				member.TotalWeek += counts[d]
			}
			return member, true
		})
		for _, m := range members {
			for _, d := range dates {
				report.DailyTotals[d] += m.DailyCounts[d]
			}
		}

		report.Members = stats.Rank(members, stats.WeeklyRankKeys()...)
		for _, m := range report.Members {
			report.TotalWeek += m.TotalWeek
		}
		for _, d := range dates {
			if report.DailyTotals[d] > report.MaxCount {
				report.MaxCount = report.DailyTotals[d]
				report.MaxDate = d
			}
		}
		if report.MaxDate == "" && len(dates) > 0 {
			report.MaxDate = dates[0]
		}

		reports = append(reports, report)
	}

	return reports, nil
}

// memberProfile resolves a member to their profile, or reports false when
// the member is unregistered or upstream fails.
func (s *GroupService) memberProfile(ctx context.Context, groupName string, memberID int64) (domain.Profile, bool) {
	user, err := s.users.Get(ctx, memberID)
	if err != nil || user == nil {
		return domain.Profile{}, false
	}

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	profile, err := s.codewars.GetProfile(apiCtx, user.Username)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("group", groupName).
			Str("username", user.Username).
			Msg("member fetch failed, excluded from report")
		return domain.Profile{}, false
	}
	return profile, true
}

// memberActivity resolves a member to their profile plus event window,
// fetched in parallel; false means the member is skipped.
func (s *GroupService) memberActivity(ctx context.Context, groupName string, memberID int64) (domain.Profile, []domain.CompletionEvent, bool) {
	user, err := s.users.Get(ctx, memberID)
	if err != nil || user == nil {
		return domain.Profile{}, nil, false
	}

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	g, gCtx := errgroup.WithContext(apiCtx)
	var profile domain.Profile
	var events []domain.CompletionEvent

	g.Go(func() error {
		var err error
		profile, err = s.codewars.GetProfile(gCtx, user.Username)
		return err
	})

	g.Go(func() error {
		var err error
		events, err = s.codewars.GetCompletedChallenges(gCtx, user.Username)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn().Err(err).
			Str("group", groupName).
			Str("username", user.Username).
			Msg("member fetch failed, excluded from report")
		return domain.Profile{}, nil, false
	}

	return profile, events, true
}
