package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"codewars-tracker/internal/constants"
	"codewars-tracker/internal/domain"
	"codewars-tracker/internal/stats"
)

type UserStore interface {
	Get(ctx context.Context, telegramID int64) (*domain.User, error)
	Upsert(ctx context.Context, user *domain.User) error
}

type CodewarsAPI interface {
	GetProfile(ctx context.Context, username string) (domain.Profile, error)
	GetCompletedChallenges(ctx context.Context, username string) ([]domain.CompletionEvent, error)
}

// PersonalStats is everything a personal stats report is built from. History
// is rebuilt from the live event window and never persisted.
type PersonalStats struct {
	Profile domain.Profile
	Recent  []domain.CompletionEvent
	History []domain.HistoryEntry
	Report  domain.ActivityReport
}

type UserService struct {
	users    UserStore
	codewars CodewarsAPI
	logger   zerolog.Logger
}

func NewUserService(users UserStore, codewars CodewarsAPI, logger zerolog.Logger) *UserService {
	return &UserService{users: users, codewars: codewars, logger: logger}
}

// Register verifies the Codewars username upstream, appends a cumulative
// snapshot for today to the stored history and upserts the user record. If
// the upstream fetch fails nothing is written.
func (s *UserService) Register(ctx context.Context, telegramID int64, username string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if username == "" {
		return nil, domain.ErrInvalidInput
	}

	s.logger.Info().Int64("telegram_id", telegramID).Str("username", username).Msg("registering user")

	apiCtx, apiCancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer apiCancel()

	profile, err := s.codewars.GetProfile(apiCtx, username)
	if err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("profile fetch failed, nothing persisted")
		return nil, err
	}

	user, err := s.users.Get(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &domain.User{TelegramID: telegramID}
	}

	user.Username = profile.Username
	user.CompletedTotal = profile.TotalCompleted
	user.History = stats.AppendSnapshot(user.History, profile, time.Now())

	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("telegram_id", telegramID).Str("username", profile.Username).Msg("user registered")
	return user, nil
}

// MyStats rebuilds the user's daily history from the live event window and
// derives the activity report. The rebuilt history replaces nothing in the
// store.
func (s *UserService) MyStats(ctx context.Context, telegramID int64) (*PersonalStats, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	user, err := s.users.Get(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotRegistered
	}

	profile, events, err := s.fetchActivity(ctx, user.Username)
	if err != nil {
		s.logger.Warn().Err(err).Str("username", user.Username).Msg("upstream fetch failed")
		return nil, err
	}

	history := stats.RebuildFromEvents(events, profile)

	return &PersonalStats{
		Profile: profile,
		Recent:  recentEvents(events, constants.RecentChallenges),
		History: history,
		Report:  stats.Aggregate(history),
	}, nil
}

// fetchActivity pulls the profile and the completed-event window in
// parallel.
func (s *UserService) fetchActivity(ctx context.Context, username string) (domain.Profile, []domain.CompletionEvent, error) {
	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	g, gCtx := errgroup.WithContext(apiCtx)
	var profile domain.Profile
	var events []domain.CompletionEvent

	g.Go(func() error {
		var err error
		profile, err = s.codewars.GetProfile(gCtx, username)
		return err
	})

	g.Go(func() error {
		var err error
		events, err = s.codewars.GetCompletedChallenges(gCtx, username)
		return err
	})

	if err := g.Wait(); err != nil {
		return domain.Profile{}, nil, fmt.Errorf("failed to fetch activity for %s: %w", username, err)
	}

	return profile, events, nil
}

// recentEvents returns the last n events in completion order.
func recentEvents(events []domain.CompletionEvent, n int) []domain.CompletionEvent {
	sorted := make([]domain.CompletionEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CompletedAt.Before(sorted[j].CompletedAt)
	})

	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	return sorted
}
