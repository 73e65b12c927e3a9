package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"codewars-tracker/internal/constants"
	"codewars-tracker/internal/domain"
	"codewars-tracker/internal/service"
)

type mockGroupStore struct {
	groups map[string]*domain.Group
}

func newMockGroupStore() *mockGroupStore {
	return &mockGroupStore{groups: make(map[string]*domain.Group)}
}

func (m *mockGroupStore) Get(ctx context.Context, name string) (*domain.Group, error) {
	return m.groups[name], nil
}

func (m *mockGroupStore) GetByChatID(ctx context.Context, chatID int64) (*domain.Group, error) {
	for _, g := range m.groups {
		if g.ChatID == chatID {
			return g, nil
		}
	}
	return nil, nil
}

func (m *mockGroupStore) Create(ctx context.Context, group *domain.Group) error {
	if _, ok := m.groups[group.Name]; ok {
		return domain.ErrGroupExists
	}
	group.Members = []int64{group.CreatorID}
	m.groups[group.Name] = group
	return nil
}

func (m *mockGroupStore) AddMember(ctx context.Context, name string, telegramID int64) error {
	group, ok := m.groups[name]
	if !ok {
		return domain.ErrGroupNotFound
	}
	for _, id := range group.Members {
		if id == telegramID {
			return domain.ErrAlreadyMember
		}
	}
	group.Members = append(group.Members, telegramID)
	return nil
}

func (m *mockGroupStore) GroupsFor(ctx context.Context, telegramID int64) ([]domain.Group, error) {
	var result []domain.Group
	for _, g := range m.groups {
		for _, id := range g.Members {
			if id == telegramID {
				result = append(result, *g)
				break
			}
		}
	}
	return result, nil
}

func (m *mockGroupStore) ListAll(ctx context.Context) ([]domain.Group, error) {
	var result []domain.Group
	for _, g := range m.groups {
		result = append(result, *g)
	}
	return result, nil
}

func newGroupService(groups *mockGroupStore, users *mockUserStore, codewars *mockCodewars) *service.GroupService {
	return service.NewGroupService(groups, users, codewars, zerolog.Nop())
}

func TestGroupCreate_DuplicateFails(t *testing.T) {
	groups := newMockGroupStore()
	svc := newGroupService(groups, newMockUserStore(), newMockCodewars())
	ctx := context.Background()

	if err := svc.Create(ctx, "team1", 1); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := svc.Create(ctx, "team1", 2)
	if !errors.Is(err, domain.ErrGroupExists) {
		t.Fatalf("expected ErrGroupExists, got %v", err)
	}
	if groups.groups["team1"].CreatorID != 1 {
		t.Errorf("original creator must survive, got %d", groups.groups["team1"].CreatorID)
	}
}

func TestGroupCreate_EmptyName(t *testing.T) {
	svc := newGroupService(newMockGroupStore(), newMockUserStore(), newMockCodewars())

	err := svc.Create(context.Background(), "", 1)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGroupJoin_Idempotent(t *testing.T) {
	groups := newMockGroupStore()
	svc := newGroupService(groups, newMockUserStore(), newMockCodewars())
	ctx := context.Background()

	if err := svc.Create(ctx, "team1", 1); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Join(ctx, "team1", 2); err != nil {
		t.Fatalf("first join: %v", err)
	}

	err := svc.Join(ctx, "team1", 2)
	if !errors.Is(err, domain.ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
	if len(groups.groups["team1"].Members) != 2 {
		t.Errorf("member set must be unchanged: %v", groups.groups["team1"].Members)
	}
}

func TestGroupJoin_Missing(t *testing.T) {
	svc := newGroupService(newMockGroupStore(), newMockUserStore(), newMockCodewars())

	err := svc.Join(context.Background(), "ghost", 2)
	if !errors.Is(err, domain.ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestAutoCreateOnInvite_Idempotent(t *testing.T) {
	groups := newMockGroupStore()
	svc := newGroupService(groups, newMockUserStore(), newMockCodewars())
	ctx := context.Background()

	first, created, err := svc.AutoCreateOnInvite(ctx, "My Chat", -100123, false, 1)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if !created {
		t.Error("first invite should create the group")
	}

	second, created, err := svc.AutoCreateOnInvite(ctx, "My Chat", -100123, false, 7)
	if err != nil {
		t.Fatalf("repeat invite: %v", err)
	}
	if created {
		t.Error("repeat invite must not create again")
	}
	if second.CreatorID != first.CreatorID {
		t.Errorf("repeat invite must return the original record")
	}
}

func seedDailyGroup(t *testing.T) (*service.GroupService, *mockCodewars) {
	t.Helper()

	groups := newMockGroupStore()
	users := newMockUserStore()
	codewars := newMockCodewars()

	groups.groups["team1"] = &domain.Group{Name: "team1", CreatorID: 1, Members: []int64{1, 2}}
	users.users[1] = &domain.User{TelegramID: 1, Username: "a_cw"}
	users.users[2] = &domain.User{TelegramID: 2, Username: "b_cw"}

	now := time.Now().UTC()
	yesterday := now.AddDate(0, 0, -1)

	// A: 3 today, 1 yesterday. B: 3 today, 5 yesterday. Tie on today, B
	// wins on yesterday.
	codewars.profiles["a_cw"] = domain.Profile{Username: "A", RankName: "5 kyu", Honor: 50}
	codewars.profiles["b_cw"] = domain.Profile{Username: "B", RankName: "6 kyu", Honor: 10}

	var aEvents, bEvents []domain.CompletionEvent
	for i := 0; i < 3; i++ {
		aEvents = append(aEvents, domain.CompletionEvent{CompletedAt: now.Add(-time.Duration(i) * time.Minute)})
		bEvents = append(bEvents, domain.CompletionEvent{CompletedAt: now.Add(-time.Duration(i) * time.Minute)})
	}
	aEvents = append(aEvents, domain.CompletionEvent{CompletedAt: yesterday})
	for i := 0; i < 5; i++ {
		bEvents = append(bEvents, domain.CompletionEvent{CompletedAt: yesterday.Add(-time.Duration(i) * time.Minute)})
	}
	codewars.events["a_cw"] = aEvents
	codewars.events["b_cw"] = bEvents

	return newGroupService(groups, users, codewars), codewars
}

func TestDailyStats_TieBrokenByYesterday(t *testing.T) {
	// Skip near the UTC midnight rollover; "yesterday" events would shift
	// days between seeding and the call.
	if h, m, _ := time.Now().UTC().Clock(); h == 23 && m >= 58 {
		t.Skip("too close to UTC midnight")
	}

	svc, _ := seedDailyGroup(t)

	reports, err := svc.DailyStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("daily stats: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected 1 group report, got %d", len(reports))
	}

	report := reports[0]
	if len(report.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(report.Members))
	}
	if report.Members[0].Username != "B" || report.Members[1].Username != "A" {
		t.Errorf("expected order [B, A], got [%s, %s]", report.Members[0].Username, report.Members[1].Username)
	}
	if report.TotalToday != 6 || report.TotalYesterday != 6 {
		t.Errorf("unexpected totals: today=%d yesterday=%d", report.TotalToday, report.TotalYesterday)
	}
}

func TestDailyStats_FailingMemberSkipped(t *testing.T) {
	if h, m, _ := time.Now().UTC().Clock(); h == 23 && m >= 58 {
		t.Skip("too close to UTC midnight")
	}

	svc, codewars := seedDailyGroup(t)
	codewars.failing["b_cw"] = true

	reports, err := svc.DailyStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("one broken member must not abort the report: %v", err)
	}

	report := reports[0]
	if len(report.Members) != 1 || report.Members[0].Username != "A" {
		t.Errorf("expected only A, got %+v", report.Members)
	}
}

func TestWeeklyStats_ZeroFilledWindow(t *testing.T) {
	if h, m, _ := time.Now().UTC().Clock(); h == 23 && m >= 58 {
		t.Skip("too close to UTC midnight")
	}

	groups := newMockGroupStore()
	users := newMockUserStore()
	codewars := newMockCodewars()

	groups.groups["team1"] = &domain.Group{Name: "team1", CreatorID: 1, Members: []int64{1}}
	users.users[1] = &domain.User{TelegramID: 1, Username: "a_cw"}
	codewars.profiles["a_cw"] = domain.Profile{Username: "A", Honor: 50}
	codewars.events["a_cw"] = []domain.CompletionEvent{
		{CompletedAt: time.Now().UTC()},
		{CompletedAt: time.Now().UTC().AddDate(0, 0, -2)},
	}

	svc := newGroupService(groups, users, codewars)
	reports, err := svc.WeeklyStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("weekly stats: %v", err)
	}

	report := reports[0]
	if len(report.Dates) != 7 {
		t.Fatalf("expected 7 dates, got %d", len(report.Dates))
	}

	member := report.Members[0]
	if len(member.DailyCounts) != 7 {
		t.Errorf("every day of the window must be present, got %d", len(member.DailyCounts))
	}
	if member.TotalWeek != 2 {
		t.Errorf("expected weekly total 2, got %d", member.TotalWeek)
	}

	zeroDays := 0
	for _, c := range member.DailyCounts {
		if c == 0 {
			zeroDays++
		}
	}
	if zeroDays != 5 {
		t.Errorf("expected 5 zero-filled days, got %d", zeroDays)
	}
}

func TestWeeklyStats_RankByTotalThenHonor(t *testing.T) {
	groups := newMockGroupStore()
	users := newMockUserStore()
	codewars := newMockCodewars()

	groups.groups["team1"] = &domain.Group{Name: "team1", CreatorID: 1, Members: []int64{1, 2}}
	users.users[1] = &domain.User{TelegramID: 1, Username: "a_cw"}
	users.users[2] = &domain.User{TelegramID: 2, Username: "b_cw"}

	// Equal weekly totals, honor decides.
	now := time.Now().UTC()
	codewars.profiles["a_cw"] = domain.Profile{Username: "A", Honor: 10}
	codewars.profiles["b_cw"] = domain.Profile{Username: "B", Honor: 90}
	codewars.events["a_cw"] = []domain.CompletionEvent{{CompletedAt: now}}
	codewars.events["b_cw"] = []domain.CompletionEvent{{CompletedAt: now}}

	svc := newGroupService(groups, users, codewars)
	reports, err := svc.WeeklyStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("weekly stats: %v", err)
	}

	if reports[0].Members[0].Username != "B" {
		t.Errorf("honor must break the tie, got %s first", reports[0].Members[0].Username)
	}
}

// gatedCodewars counts in-flight profile fetches so tests can observe the
// fetch concurrency bound.
type gatedCodewars struct {
	inner *mockCodewars

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
}

func (g *gatedCodewars) GetProfile(ctx context.Context, username string) (domain.Profile, error) {
	g.mu.Lock()
	g.inFlight++
	if g.inFlight > g.maxInFlight {
		g.maxInFlight = g.inFlight
	}
	g.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	defer func() {
		g.mu.Lock()
		g.inFlight--
		g.mu.Unlock()
	}()
	return g.inner.GetProfile(ctx, username)
}

func (g *gatedCodewars) GetCompletedChallenges(ctx context.Context, username string) ([]domain.CompletionEvent, error) {
	return g.inner.GetCompletedChallenges(ctx, username)
}

func TestGroupStats_MemberFetchBoundedAndOrdered(t *testing.T) {
	groups := newMockGroupStore()
	users := newMockUserStore()
	codewars := &gatedCodewars{inner: newMockCodewars()}

	var memberIDs []int64
	var usernames []string
	for i := 1; i <= 12; i++ {
		id := int64(i)
		name := fmt.Sprintf("user%02d", i)
		memberIDs = append(memberIDs, id)
		usernames = append(usernames, name)
		users.users[id] = &domain.User{TelegramID: id, Username: name}
		codewars.inner.profiles[name] = domain.Profile{Username: name, Honor: i, TotalCompleted: i}
	}
	groups.groups["go-devs"] = &domain.Group{Name: "go-devs", Members: memberIDs}

	svc := service.NewGroupService(groups, users, codewars, zerolog.Nop())
	reports, err := svc.GroupStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 1 || len(reports[0].Members) != len(memberIDs) {
		t.Fatalf("unexpected reports: %+v", reports)
	}

	for i, m := range reports[0].Members {
		if m.Username != usernames[i] {
			t.Errorf("member %d: got %s, want %s (membership order must survive parallel fetch)", i, m.Username, usernames[i])
		}
	}

	if codewars.maxInFlight > constants.MemberFetchConcurrency {
		t.Errorf("observed %d concurrent fetches, cap is %d", codewars.maxInFlight, constants.MemberFetchConcurrency)
	}
	if codewars.maxInFlight < 2 {
		t.Errorf("expected parallel fetches, observed max in-flight %d", codewars.maxInFlight)
	}
}
