package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/admin-console/internal/dto"
	"github.com/noah-isme/admin-console/internal/listsync"
	"github.com/noah-isme/admin-console/internal/models"
	appErrors "github.com/noah-isme/admin-console/pkg/errors"
	"github.com/noah-isme/admin-console/pkg/export"
)

// IntentKind names a user action on a list screen.
type IntentKind string

const (
	IntentMount       IntentKind = "mount"
	IntentStatus      IntentKind = "status"
	IntentDateRange   IntentKind = "date_range"
	IntentSearch      IntentKind = "search"
	IntentSearchInput IntentKind = "search_input"
	IntentRole        IntentKind = "role"
	IntentClear       IntentKind = "clear"
	IntentLoadMore    IntentKind = "load_more"
	IntentSentinel    IntentKind = "sentinel"
)

// Intent is one user action forwarded by the view layer.
type Intent struct {
	Kind     IntentKind
	Status   string
	Role     string
	Term     string
	Preset   listsync.DatePreset
	Start    *time.Time
	End      *time.Time
	Sentinel string
	Ratio    float64
	// Submit applies a search input immediately.
	Submit bool
}

// Outcome is the committed state after an intent. A failed remote fetch is
// reported through Notification rather than an error.
type Outcome struct {
	State        listsync.State
	Notification *listsync.Notification
	Triggered    bool
}

// ClientMeta identifies the browser that opened a session.
type ClientMeta struct {
	IP     string
	Client string
}

// SessionConfig tunes the session service.
type SessionConfig struct {
	TTL            time.Duration
	MaxSessions    int
	PerPage        int
	SearchDebounce time.Duration
	RequestTimeout time.Duration
	Location       *time.Location
}

type sessionTokens interface {
	Issue(sessionID, operator string) (string, time.Time, error)
	Validate(token string) (*models.SessionClaims, error)
}

type liveCountHub interface {
	Register(sink listsync.LiveCountSink) func()
}

type auditRecorder interface {
	Record(entry models.AuditLog)
}

type sessionMetrics interface {
	listsync.Observer
	SessionOpened()
	SessionClosed()
}

// SessionService hosts one controller per dashboard session and screen.
type SessionService struct {
	catalog   *ScreenCatalog
	tokens    sessionTokens
	live      liveCountHub
	audit     auditRecorder
	metrics   sessionMetrics
	validator *validator.Validate
	logger    *zap.Logger
	cfg       SessionConfig
	now       func() time.Time

	baseCtx context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*consoleSession
}

type consoleSession struct {
	id       string
	operator string
	meta     ClientMeta

	mu       sync.Mutex
	lastSeen time.Time
	screens  map[string]*screenHandle
}

type screenHandle struct {
	name     string
	spec     ScreenSpec
	screen   listsync.Screen
	scroll   *listsync.ScrollCoordinator
	debounce *listsync.Debouncer
	release  []func()
}

// NewSessionService wires the service. live, audit and metrics are optional.
func NewSessionService(catalog *ScreenCatalog, tokens sessionTokens, live liveCountHub, audit auditRecorder, metrics sessionMetrics, validate *validator.Validate, logger *zap.Logger, cfg SessionConfig) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = listsync.DefaultPerPage
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionService{
		catalog:   catalog,
		tokens:    tokens,
		live:      live,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		baseCtx:   ctx,
		cancel:    cancel,
		sessions:  make(map[string]*consoleSession),
	}
}

// Open starts a dashboard session and issues its token.
func (s *SessionService) Open(ctx context.Context, req dto.OpenSessionRequest, meta ClientMeta) (*models.SessionInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.From(appErrors.ErrValidation, err, "invalid session payload")
	}

	s.mu.Lock()
	if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrTooManyRequests, "too many open console sessions")
	}
	sess := &consoleSession{
		id:       uuid.NewString(),
		operator: req.Operator,
		meta:     meta,
		lastSeen: s.now(),
		screens:  make(map[string]*screenHandle),
	}
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	token, expiresAt, err := s.tokens.Issue(sess.id, sess.operator)
	if err != nil {
		s.mu.Lock()
		delete(s.sessions, sess.id)
		s.mu.Unlock()
		return nil, appErrors.From(appErrors.ErrInternal, err, "failed to issue session token")
	}

	if s.metrics != nil {
		s.metrics.SessionOpened()
	}
	s.record(sess, models.AuditActionSessionOpen, "", "", "ok", listsync.State{})
	s.logger.Info("console session opened", zap.String("session_id", sess.id), zap.String("operator", sess.operator), zap.String("client", meta.Client))

	return &models.SessionInfo{
		ID:        sess.id,
		Operator:  sess.operator,
		Token:     token,
		ExpiresAt: expiresAt,
		Screens:   s.catalog.Names(),
	}, nil
}

// Authenticate validates token and confirms its session is still open.
func (s *SessionService) Authenticate(token string) (*models.SessionClaims, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	if _, err := s.session(claims.SessionID); err != nil {
		return nil, err
	}
	return claims, nil
}

// Close unmounts every screen of the session and forgets it.
func (s *SessionService) Close(sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()
	if !ok {
		return appErrors.ErrSessionExpired
	}
	s.closeSession(sess, "closed")
	return nil
}

// Dispatch applies intent to the named screen, mounting it on first use.
func (s *SessionService) Dispatch(ctx context.Context, sessionID, name string, intent Intent) (Outcome, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return Outcome{}, err
	}
	h, created, err := s.handle(sess, name)
	if err != nil {
		return Outcome{}, err
	}

	var outcome Outcome
	if created || intent.Kind == IntentMount {
		notification, err := absorb(h.screen.Mount(ctx))
		if err != nil {
			return Outcome{}, err
		}
		outcome.Notification = notification
		s.recordIntent(sess, h, IntentMount, notification)
		if intent.Kind == IntentMount {
			outcome.State = h.screen.State()
			return outcome, nil
		}
	}

	var opErr error
	switch intent.Kind {
	case IntentStatus:
		opErr = h.screen.ApplyStatusFilter(ctx, intent.Status)
	case IntentDateRange:
		opErr = h.screen.ApplyDateRangeFilter(ctx, intent.Preset, intent.Start, intent.End)
	case IntentSearch:
		h.debounce.Cancel()
		opErr = h.screen.ApplySearch(ctx, intent.Term)
	case IntentSearchInput:
		h.debounce.Push(intent.Term)
		if intent.Submit {
			h.debounce.Flush()
		}
	case IntentRole:
		opErr = h.screen.ApplyRoleFilter(ctx, intent.Role)
	case IntentClear:
		h.debounce.Cancel()
		opErr = h.screen.ClearFilters(ctx)
	case IntentLoadMore:
		opErr = h.screen.LoadMore(ctx)
	case IntentSentinel:
		var slot loadResult
		outcome.Triggered = h.scroll.Intersect(withLoadResult(ctx, &slot), intent.Sentinel, intent.Ratio)
		opErr = slot.err
	case "":
		// snapshot read
	default:
		return Outcome{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown intent %q", intent.Kind))
	}

	notification, err := absorb(opErr)
	if err != nil {
		return Outcome{}, err
	}
	if notification != nil {
		outcome.Notification = notification
	}
	if intent.Kind != "" && intent.Kind != IntentSearchInput && (intent.Kind != IntentSentinel || outcome.Triggered) {
		s.recordIntent(sess, h, intent.Kind, notification)
	}
	outcome.State = h.screen.State()
	return outcome, nil
}

// Snapshot returns the committed state of a screen, mounting it if needed.
func (s *SessionService) Snapshot(ctx context.Context, sessionID, name string) (Outcome, error) {
	return s.Dispatch(ctx, sessionID, name, Intent{})
}

// Watch streams the events of a screen until the returned stop function is
// called. Slow readers miss intermediate events, never the newest state
// they later read through Snapshot.
func (s *SessionService) Watch(ctx context.Context, sessionID, name string) (<-chan listsync.Event, func(), error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, nil, err
	}
	h, created, err := s.handle(sess, name)
	if err != nil {
		return nil, nil, err
	}

	events := make(chan listsync.Event, 32)
	unsubscribe := h.screen.Subscribe(func(e listsync.Event) {
		select {
		case events <- e:
		default:
		}
	})
	if created {
		go func() {
			mountCtx, cancel := context.WithTimeout(s.baseCtx, s.cfg.RequestTimeout)
			defer cancel()
			notification, _ := absorb(h.screen.Mount(mountCtx))
			s.recordIntent(sess, h, IntentMount, notification)
		}()
	}
	return events, unsubscribe, nil
}

// Dataset returns the displayed rows of a screen ready for export.
func (s *SessionService) Dataset(sessionID, name string) (export.Dataset, string, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	sess.mu.Lock()
	h, ok := sess.screens[name]
	sess.mu.Unlock()
	if !ok {
		if _, known := s.catalog.Lookup(name); !known {
			return export.Dataset{}, "", appErrors.ErrUnknownScreen
		}
		return export.Dataset{}, "", appErrors.Clone(appErrors.ErrPreconditionFailed, "screen is not mounted")
	}
	headers, rows := h.screen.Dataset()
	state := h.screen.State()
	s.record(sess, models.AuditActionExport, name, "", "ok", state)
	return export.Dataset{Headers: headers, Rows: rows}, h.spec.Title, nil
}

// Count returns the number of open sessions.
func (s *SessionService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// RunJanitor evicts idle sessions every interval until ctx ends.
func (s *SessionService) RunJanitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.EvictExpired(); n > 0 {
				s.logger.Info("evicted idle console sessions", zap.Int("count", n))
			}
		}
	}
}

// EvictExpired closes sessions idle for longer than the TTL.
func (s *SessionService) EvictExpired() int {
	cutoff := s.now().Add(-s.cfg.TTL)
	var expired []*consoleSession

	s.mu.Lock()
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		s.closeSession(sess, "expired")
	}
	return len(expired)
}

// Shutdown closes every session and cancels debounced work.
func (s *SessionService) Shutdown() {
	s.cancel()
	s.mu.Lock()
	sessions := make([]*consoleSession, 0, len(s.sessions))
	for id, sess := range s.sessions {
		sessions = append(sessions, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		s.closeSession(sess, "shutdown")
	}
}

func (s *SessionService) session(id string) (*consoleSession, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, appErrors.ErrSessionExpired
	}

	now := s.now()
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if now.Sub(sess.lastSeen) > s.cfg.TTL {
		return nil, appErrors.ErrSessionExpired
	}
	sess.lastSeen = now
	return sess, nil
}

// handle returns the screen of sess named name, building it on first use.
func (s *SessionService) handle(sess *consoleSession, name string) (*screenHandle, bool, error) {
	spec, ok := s.catalog.Lookup(name)
	if !ok {
		return nil, false, appErrors.ErrUnknownScreen
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if h, ok := sess.screens[name]; ok {
		return h, false, nil
	}

	screen := spec.Build(listsync.Options{
		Resource: name,
		PerPage:  s.cfg.PerPage,
		Location: s.cfg.Location,
		Logger:   s.logger.With(zap.String("session_id", sess.id)),
		Observer: s.observer(),
	})
	h := &screenHandle{
		name:   name,
		spec:   spec,
		screen: screen,
		scroll: listsync.NewScrollCoordinator(nil),
	}

	loadMore := func(ctx context.Context) {
		err := screen.LoadMore(ctx)
		if slot := loadResultFrom(ctx); slot != nil {
			slot.err = err
		}
	}
	h.release = append(h.release, screen.Subscribe(func(e listsync.Event) {
		if e.State != nil && !e.State.Loading {
			h.scroll.RenderState(e.State.Seq, e.State.Sentinel, e.State.Paging.HasMore, loadMore)
		}
	}))

	h.debounce = listsync.NewDebouncer(s.cfg.SearchDebounce, func(term string) {
		ctx, cancel := context.WithTimeout(s.baseCtx, s.cfg.RequestTimeout)
		defer cancel()
		notification, err := absorb(screen.ApplySearch(ctx, term))
		if err != nil {
			s.logger.Warn("debounced search rejected", zap.String("screen", name), zap.Error(err))
			return
		}
		s.recordIntent(sess, h, IntentSearch, notification)
	})

	if spec.LiveCount && s.live != nil {
		h.release = append(h.release, s.live.Register(screen))
	}

	sess.screens[name] = h
	return h, true, nil
}

func (s *SessionService) observer() listsync.Observer {
	if s.metrics == nil {
		return nil
	}
	return s.metrics
}

func (s *SessionService) closeSession(sess *consoleSession, reason string) {
	sess.mu.Lock()
	handles := make([]*screenHandle, 0, len(sess.screens))
	for name, h := range sess.screens {
		handles = append(handles, h)
		delete(sess.screens, name)
	}
	sess.mu.Unlock()

	sort.Slice(handles, func(i, j int) bool { return handles[i].name < handles[j].name })
	for _, h := range handles {
		h.close()
	}
	if s.metrics != nil {
		s.metrics.SessionClosed()
	}
	s.record(sess, models.AuditActionSessionClose, "", reason, "ok", listsync.State{})
	s.logger.Info("console session closed", zap.String("session_id", sess.id), zap.String("reason", reason))
}

func (h *screenHandle) close() {
	h.debounce.Stop()
	for _, release := range h.release {
		release()
	}
	h.scroll.Close()
	h.screen.Close()
}

func (s *SessionService) recordIntent(sess *consoleSession, h *screenHandle, kind IntentKind, notification *listsync.Notification) {
	outcome := "ok"
	if notification != nil {
		outcome = "failed"
	}
	action := models.AuditActionFilter
	switch kind {
	case IntentMount:
		action = models.AuditActionMount
	case IntentClear:
		action = models.AuditActionClear
	case IntentLoadMore, IntentSentinel:
		action = models.AuditActionLoadMore
	}
	s.record(sess, action, h.name, string(kind), outcome, h.screen.State())
}

func (s *SessionService) record(sess *consoleSession, action, screen, operation, outcome string, state listsync.State) {
	if s.audit == nil {
		return
	}
	var filter []byte
	if screen != "" {
		filter, _ = json.Marshal(state.Applied)
	}
	s.audit.Record(models.AuditLog{
		SessionID:  sess.id,
		Operator:   sess.operator,
		Action:     action,
		Screen:     screen,
		Operation:  operation,
		Filter:     filter,
		Outcome:    outcome,
		Generation: int64(state.Generation),
		IPAddress:  sess.meta.IP,
		Client:     sess.meta.Client,
		CreatedAt:  s.now().UTC(),
	})
}

// absorb turns a recovered list operation failure into its notification.
// Any other error is returned unchanged.
func absorb(err error) (*listsync.Notification, error) {
	if err == nil {
		return nil, nil
	}
	var opErr *listsync.OperationError
	if errors.As(err, &opErr) {
		n := opErr.Notification
		return &n, nil
	}
	return nil, err
}

type loadResult struct {
	err error
}

type loadResultKey struct{}

func withLoadResult(ctx context.Context, slot *loadResult) context.Context {
	return context.WithValue(ctx, loadResultKey{}, slot)
}

func loadResultFrom(ctx context.Context) *loadResult {
	slot, _ := ctx.Value(loadResultKey{}).(*loadResult)
	return slot
}
