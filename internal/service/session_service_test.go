package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/admin-console/internal/dto"
	"github.com/noah-isme/admin-console/internal/listsync"
	"github.com/noah-isme/admin-console/internal/models"
	appErrors "github.com/noah-isme/admin-console/pkg/errors"
)

type recordingFetcher[T listsync.Item] struct {
	mu      sync.Mutex
	queries []listsync.Query
	respond func(q listsync.Query) (listsync.Page[T], error)
}

func (f *recordingFetcher[T]) Fetch(ctx context.Context, q listsync.Query) (listsync.Page[T], error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	return f.respond(q)
}

func (f *recordingFetcher[T]) calls() []listsync.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]listsync.Query(nil), f.queries...)
}

func orderPage(q listsync.Query, total int) listsync.Page[models.Order] {
	start := (q.Page - 1) * q.PerPage
	var orders []models.Order
	for i := start; i < total && i < start+q.PerPage; i++ {
		orders = append(orders, models.Order{ID: int64(i + 1), Number: fmt.Sprintf("SO-%04d", i+1), Status: models.OrderPending})
	}
	return listsync.Page[models.Order]{Data: orders, Meta: listsync.Meta{Total: total}}
}

type auditSpy struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (a *auditSpy) Record(entry models.AuditLog) {
	a.mu.Lock()
	a.entries = append(a.entries, entry)
	a.mu.Unlock()
}

func (a *auditSpy) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type sessionFixture struct {
	svc    *SessionService
	orders *recordingFetcher[models.Order]
	users  *recordingFetcher[models.User]
	live   *LiveCountService
	audit  *auditSpy
}

func newSessionFixture(t *testing.T, cfg SessionConfig) *sessionFixture {
	t.Helper()
	fx := &sessionFixture{
		orders: &recordingFetcher[models.Order]{respond: func(q listsync.Query) (listsync.Page[models.Order], error) {
			return orderPage(q, 40), nil
		}},
		users: &recordingFetcher[models.User]{respond: func(q listsync.Query) (listsync.Page[models.User], error) {
			return listsync.Page[models.User]{Data: []models.User{{ID: 1, Name: "Ada"}}, Meta: listsync.Meta{Total: 1}}, nil
		}},
		audit: &auditSpy{},
	}
	fx.live = NewLiveCountService(nil, nil, zap.NewNop())

	catalog := NewScreenCatalog(
		ScreenSpec{Name: ScreenOrders, Title: "Orders", Build: func(opts listsync.Options) listsync.Screen {
			return listsync.NewController[models.Order](fx.orders, opts)
		}},
		ScreenSpec{Name: ScreenUsers, Title: "Users", LiveCount: true, Build: func(opts listsync.Options) listsync.Screen {
			return listsync.NewController[models.User](fx.users, opts)
		}},
	)
	tokens := NewTokenService(TokenConfig{Secret: "secret", TTL: time.Hour})
	fx.svc = NewSessionService(catalog, tokens, fx.live, fx.audit, NewMetricsService(), nil, zap.NewNop(), cfg)
	t.Cleanup(fx.svc.Shutdown)
	return fx
}

func (fx *sessionFixture) open(t *testing.T) *models.SessionInfo {
	t.Helper()
	info, err := fx.svc.Open(context.Background(), dto.OpenSessionRequest{Operator: "ops@example.com"}, ClientMeta{IP: "10.0.0.1", Client: "Firefox 126 / Linux"})
	require.NoError(t, err)
	return info
}

func TestSessionOpenAuthenticateClose(t *testing.T) {
	fx := newSessionFixture(t, SessionConfig{})
	info := fx.open(t)
	assert.NotEmpty(t, info.Token)
	assert.Equal(t, []string{"orders", "users"}, info.Screens)

	claims, err := fx.svc.Authenticate(info.Token)
	require.NoError(t, err)
	assert.Equal(t, info.ID, claims.SessionID)

	require.NoError(t, fx.svc.Close(info.ID))
	_, err = fx.svc.Authenticate(info.Token)
	assert.ErrorIs(t, err, appErrors.ErrSessionExpired)
	assert.Equal(t, []string{models.AuditActionSessionOpen, models.AuditActionSessionClose}, fx.audit.actions())
}

func TestSessionOpenValidatesAndLimits(t *testing.T) {
	fx := newSessionFixture(t, SessionConfig{MaxSessions: 1})

	_, err := fx.svc.Open(context.Background(), dto.OpenSessionRequest{}, ClientMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	fx.open(t)
	_, err = fx.svc.Open(context.Background(), dto.OpenSessionRequest{Operator: "other"}, ClientMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTooManyRequests.Code, appErrors.FromError(err).Code)
}

func TestDispatchMountsThenAppliesStatus(t *testing.T) {
	fx := newSessionFixture(t, SessionConfig{})
	info := fx.open(t)

	outcome, err := fx.svc.Dispatch(context.Background(), info.ID, ScreenOrders, Intent{Kind: IntentStatus, Status: "shipped"})
	require.NoError(t, err)
	assert.Nil(t, outcome.Notification)

	calls := fx.orders.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, listsync.Query{Page: 1, PerPage: 15}, calls[0])
	assert.Equal(t, listsync.Query{Page: 1, PerPage: 15, Status: "shipped"}, calls[1])

	assert.Equal(t, "shipped", outcome.State.Filter.Status)
	assert.Equal(t, 15, outcome.State.ItemCount)
	assert.True(t, outcome.State.Paging.HasMore)
	assert.Contains(t, fx.audit.actions(), models.AuditActionFilter)
}

func TestDispatchRemoteFailureBecomesNotification(t *testing.T) {
	fx := newSessionFixture(t, SessionConfig{})
	info := fx.open(t)
	_, err := fx.svc.Snapshot(context.Background(), info.ID, ScreenOrders)
	require.NoError(t, err)

	fx.orders.respond = func(q listsync.Query) (listsync.Page[models.Order], error) {
		return listsync.Page[models.Order]{}, appErrors.Clone(appErrors.ErrRemote, "Status filter unavailable")
	}
	outcome, err := fx.svc.Dispatch(context.Background(), info.ID, ScreenOrders, Intent{Kind: IntentStatus, Status: "lost"})
	require.NoError(t, err)
	require.NotNil(t, outcome.Notification)
	assert.Equal(t, "Status filter unavailable", outcome.Notification.Message)
	assert.Equal(t, 15, outcome.State.ItemCount)
	assert.False(t, outcome.State.Loading)
}

func TestDispatchRejectsUnknownScreenAndSession(t *testing.T) {
	fx := newSessionFixture(t, SessionConfig{})
	info := fx.open(t)

	_, err := fx.svc.Dispatch(context.Background(), info.ID, "invoices", Intent{Kind: IntentClear})
	assert.ErrorIs(t, err, appErrors.ErrUnknownScreen)

	_, err = fx.svc.Dispatch(context.Background(), "missing", ScreenOrders, Intent{Kind: IntentClear})
	assert.ErrorIs(t, err, appErrors.ErrSessionExpired)
}

func TestDispatchInvertedRangeIsValidationError(t *testing.T) {
	fx := newSessionFixture(t, SessionConfig{})
	info := fx.open(t)
	start := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	_, err := fx.svc.Dispatch(context.Background(), info.ID, ScreenOrders, Intent{Kind: IntentDateRange, Preset: listsync.PresetCustom, Start: &start, End: &end})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Len(t, fx.orders.calls(), 1)
}

func TestDispatchSentinelLoadsNextPage(t *testing.T) {
	fx := newSessionFixture(t, SessionConfig{})
	info := fx.open(t)

	outcome, err := fx.svc.Snapshot(context.Background(), info.ID, ScreenOrders)
	require.NoError(t, err)
	require.Equal(t, "order-15", outcome.State.Sentinel)

	outcome, err = fx.svc.Dispatch(context.Background(), info.ID, ScreenOrders, Intent{Kind: IntentSentinel, Sentinel: "order-15", Ratio: 0.4})
	require.NoError(t, err)
	assert.True(t, outcome.Triggered)
	assert.Equal(t, 30, outcome.State.ItemCount)
	assert.Equal(t, "order-30", outcome.State.Sentinel)

	outcome, err = fx.svc.Dispatch(context.Background(), info.ID, ScreenOrders, Intent{Kind: IntentSentinel, Sentinel: "order-15", Ratio: 1})
	require.NoError(t, err)
	assert.False(t, outcome.Triggered)

	calls := fx.orders.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 2, calls[1].Page)
}

func TestDispatchSentinelOnLastPageTriggersNothing(t *testing.T) {
	fx := newSessionFixture(t, SessionConfig{})
	info := fx.open(t)
	ctx := context.Background()

	_, err := fx.svc.Snapshot(ctx, info.ID, ScreenOrders)
	require.NoError(t, err)
	for _, sentinel := range []string{"order-15", "order-30"} {
		outcome, err := fx.svc.Dispatch(ctx, info.ID, ScreenOrders, Intent{Kind: IntentSentinel, Sentinel: sentinel, Ratio: 1})
		require.NoError(t, err)
		require.True(t, outcome.Triggered)
	}

	recorded := len(fx.audit.actions())
	outcome, err := fx.svc.Dispatch(ctx, info.ID, ScreenOrders, Intent{Kind: IntentSentinel, Sentinel: "order-40", Ratio: 1})
	require.NoError(t, err)
	assert.False(t, outcome.Triggered)
	assert.False(t, outcome.State.Paging.HasMore)
	assert.Equal(t, "order-40", outcome.State.Sentinel)
	assert.Len(t, fx.audit.actions(), recorded)
	assert.Len(t, fx.orders.calls(), 3)
}

func TestDispatchSentinelReportsLoadFailure(t *testing.T) {
	fx := newSessionFixture(t, SessionConfig{})
	info := fx.open(t)
	_, err := fx.svc.Snapshot(context.Background(), info.ID, ScreenOrders)
	require.NoError(t, err)

	fx.orders.respond = func(q listsync.Query) (listsync.Page[models.Order], error) {
		return listsync.Page[models.Order]{}, errors.New("connection reset")
	}
	outcome, err := fx.svc.Dispatch(context.Background(), info.ID, ScreenOrders, Intent{Kind: IntentSentinel, Sentinel: "order-15", Ratio: 1})
	require.NoError(t, err)
	assert.True(t, outcome.Triggered)
	require.NotNil(t, outcome.Notification)
	assert.Equal(t, listsync.NotifyLoadFailed, outcome.Notification.Kind)
	assert.Equal(t, 15, outcome.State.ItemCount)
}

func TestDispatchDebouncesSearchInput(t *testing.T) {
	fx := newSessionFixture(t, SessionConfig{SearchDebounce: 20 * time.Millisecond})
	info := fx.open(t)
	ctx := context.Background()

	for _, term := range []string{"a", "ac", "acme"} {
		_, err := fx.svc.Dispatch(ctx, info.ID, ScreenOrders, Intent{Kind: IntentSearchInput, Term: term})
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return len(fx.orders.calls()) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	calls := fx.orders.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "acme", calls[1].Search)
}

func TestDispatchSubmittedSearchInputAppliesAtOnce(t *testing.T) {
	fx := newSessionFixture(t, SessionConfig{SearchDebounce: time.Hour})
	info := fx.open(t)
	ctx := context.Background()

	_, err := fx.svc.Dispatch(ctx, info.ID, ScreenOrders, Intent{Kind: IntentSearchInput, Term: "ac"})
	require.NoError(t, err)
	outcome, err := fx.svc.Dispatch(ctx, info.ID, ScreenOrders, Intent{Kind: IntentSearchInput, Term: "acme", Submit: true})
	require.NoError(t, err)

	assert.Equal(t, "acme", outcome.State.Applied.SearchTerm)
	calls := fx.orders.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "acme", calls[1].Search)
}

func TestLiveCountReachesUsersScreenOnly(t *testing.T) {
	fx := newSessionFixture(t, SessionConfig{})
	info := fx.open(t)
	ctx := context.Background()

	_, err := fx.svc.Snapshot(ctx, info.ID, ScreenOrders)
	require.NoError(t, err)
	outcome, err := fx.svc.Snapshot(ctx, info.ID, ScreenUsers)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.State.HeadlineTotal)

	total := 99
	require.NoError(t, fx.live.Publish(ctx, &total))

	users, err := fx.svc.Snapshot(ctx, info.ID, ScreenUsers)
	require.NoError(t, err)
	assert.Equal(t, 99, users.State.HeadlineTotal)
	assert.Equal(t, 1, users.State.Paging.TotalCount)

	orders, err := fx.svc.Snapshot(ctx, info.ID, ScreenOrders)
	require.NoError(t, err)
	assert.Equal(t, 40, orders.State.HeadlineTotal)
	assert.Nil(t, orders.State.LiveCount)
}

func TestWatchStreamsCommittedStates(t *testing.T) {
	fx := newSessionFixture(t, SessionConfig{})
	info := fx.open(t)

	events, stop, err := fx.svc.Watch(context.Background(), info.ID, ScreenOrders)
	require.NoError(t, err)
	defer stop()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-events:
			if e.State != nil && !e.State.Loading && e.State.ItemCount == 15 {
				return
			}
		case <-deadline:
			t.Fatal("mount state not streamed")
		}
	}
}

func TestDatasetRequiresMountedScreen(t *testing.T) {
	fx := newSessionFixture(t, SessionConfig{})
	info := fx.open(t)

	_, _, err := fx.svc.Dataset(info.ID, ScreenOrders)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, err = fx.svc.Snapshot(context.Background(), info.ID, ScreenOrders)
	require.NoError(t, err)
	dataset, title, err := fx.svc.Dataset(info.ID, ScreenOrders)
	require.NoError(t, err)
	assert.Equal(t, "Orders", title)
	assert.Equal(t, 15, dataset.Len())
	assert.Equal(t, "SO-0001", dataset.Rows[0]["Number"])
}

func TestEvictExpiredClosesIdleSessions(t *testing.T) {
	fx := newSessionFixture(t, SessionConfig{TTL: time.Minute})
	now := time.Date(2024, time.May, 15, 10, 0, 0, 0, time.UTC)
	fx.svc.now = func() time.Time { return now }
	info := fx.open(t)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 0, fx.svc.EvictExpired())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, fx.svc.EvictExpired())
	assert.Equal(t, 0, fx.svc.Count())

	_, err := fx.svc.Dispatch(context.Background(), info.ID, ScreenOrders, Intent{})
	assert.ErrorIs(t, err, appErrors.ErrSessionExpired)
}
