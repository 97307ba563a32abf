package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/office-admin/internal/apiclient"
	"github.com/noah-isme/office-admin/internal/entities"
	"github.com/noah-isme/office-admin/internal/querycache"
	"github.com/noah-isme/office-admin/internal/records"
	appErrors "github.com/noah-isme/office-admin/pkg/errors"
)

// Gauge reports how many sessions are live.
type Gauge interface {
	SetActiveSessions(n int)
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	API       *apiclient.Client
	IdleTTL   time.Duration
	StaleTime time.Duration
	Store     querycache.SnapshotStore
	Publisher querycache.Publisher
	Cache     querycache.Metrics
	Dangling  records.DanglingRecorder
	Gauge     Gauge
	// Mutations hear every mutation of every session.
	Mutations []querycache.MutationObserver
	Validator *validator.Validate
	Logger    *zap.Logger
	Clock     func() time.Time
}

// Entry is one signed-in credential with everything its pages share.
type Entry struct {
	Fingerprint string
	Session     *Session
	Cache       *querycache.Client
	API         *apiclient.Client
	Entities    *entities.Set
	// Flash carries notices across a redirect.
	Flash *records.Flash

	dangling records.DanglingRecorder
	logger   *zap.Logger
	lastSeen time.Time
}

// Env is what pages of this entry render with.
func (e *Entry) Env() records.Env {
	return records.Env{Cache: e.Cache, Dangling: e.dangling, Logger: e.logger}
}

// Manager keeps the sessions of the web console, keyed by credential
// fingerprint. Idle entries are evicted and their caches dropped.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*Entry
	opts    ManagerOptions
	logger  *zap.Logger
	now     func() time.Time
}

// NewManager constructs an empty manager.
func NewManager(opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 12 * time.Hour
	}
	if opts.Validator == nil {
		opts.Validator = validator.New()
	}
	return &Manager{entries: make(map[string]*Entry), opts: opts, logger: logger, now: now}
}

// Login signs in and returns the new entry. The caller seals Token() of the
// entry's session into the cookie.
func (m *Manager) Login(ctx context.Context, email, password string) (*Entry, error) {
	entry := m.newEntry("")
	if err := entry.Session.Login(ctx, email, password); err != nil {
		return nil, err
	}
	return m.register(entry), nil
}

// Resume returns the live entry for token, verifying it with the API when
// this process has not seen it yet.
func (m *Manager) Resume(ctx context.Context, token string) (*Entry, error) {
	if token == "" {
		return nil, appErrors.ErrNotAuthenticated
	}
	fp := Fingerprint(token)

	m.mu.Lock()
	entry, ok := m.entries[fp]
	if ok && entry.Session.Authenticated() {
		entry.lastSeen = m.now()
		m.mu.Unlock()
		return entry, nil
	}
	m.mu.Unlock()

	entry = m.newEntry(token)
	if err := entry.Session.Start(ctx); err != nil {
		return nil, err
	}
	return m.register(entry), nil
}

// Logout ends the session of token.
func (m *Manager) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	fp := Fingerprint(token)
	m.mu.Lock()
	entry, ok := m.entries[fp]
	m.mu.Unlock()
	if !ok {
		entry = m.newEntry(token)
		entry.Session.transition(StateAuthenticated, token)
	}
	err := entry.Session.Logout(ctx)
	m.remove(fp)
	return err
}

// ApplyRemoteInvalidation marks key stale in the session whose cache scope
// is scope. Unknown scopes are ignored.
func (m *Manager) ApplyRemoteInvalidation(scope, key string) {
	m.mu.Lock()
	entry, ok := m.entries[scope]
	m.mu.Unlock()
	if ok {
		entry.Cache.ApplyRemoteInvalidation(key)
	}
}

// Active counts live sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Fingerprints lists live sessions in stable order.
func (m *Manager) Fingerprints() []string {
	m.mu.Lock()
	out := make([]string, 0, len(m.entries))
	for fp := range m.entries {
		out = append(out, fp)
	}
	m.mu.Unlock()
	sort.Strings(out)
	return out
}

// Evict drops entries idle for longer than the idle TTL and returns how many.
func (m *Manager) Evict() int {
	cutoff := m.now().Add(-m.opts.IdleTTL)
	var idle []*Entry
	m.mu.Lock()
	for fp, entry := range m.entries {
		if entry.lastSeen.Before(cutoff) {
			idle = append(idle, entry)
			delete(m.entries, fp)
		}
	}
	n := len(m.entries)
	m.mu.Unlock()

	for _, entry := range idle {
		entry.Cache.Clear()
	}
	if len(idle) > 0 {
		m.logger.Info("evicted idle sessions", zap.Int("count", len(idle)))
	}
	m.report(n)
	return len(idle)
}

// Run evicts idle sessions every interval until ctx ends.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Evict()
		}
	}
}

func (m *Manager) newEntry(token string) *Entry {
	entry := &Entry{Flash: &records.Flash{}, dangling: m.opts.Dangling, logger: m.logger}
	sess, api := Bind(m.opts.API, NewMemoryStore(token), Options{
		Validator: m.opts.Validator,
		Logger:    m.logger,
		Clock:     m.now,
		OnChange: func(state State) {
			if state == StateUnauthenticated && entry.Fingerprint != "" {
				m.remove(entry.Fingerprint)
			}
		},
	})

	entry.Session = sess
	entry.API = api
	entry.Entities = entities.NewSet(api)
	return entry
}

func (m *Manager) register(entry *Entry) *Entry {
	token := entry.Session.Token()
	entry.Fingerprint = Fingerprint(token)
	entry.lastSeen = m.now()
	entry.Cache = querycache.New(querycache.Options{
		StaleTime: m.opts.StaleTime,
		Scope:     entry.Fingerprint,
		Store:     m.opts.Store,
		Publisher: m.opts.Publisher,
		Metrics:   m.opts.Cache,
		Logger:    m.logger,
		Clock:     m.now,
	})
	for _, fn := range m.opts.Mutations {
		entry.Cache.OnMutation(fn)
	}
	entry.Session.AttachCache(entry.Cache)

	m.mu.Lock()
	if existing, ok := m.entries[entry.Fingerprint]; ok && existing.Session.Authenticated() {
		existing.lastSeen = entry.lastSeen
		m.mu.Unlock()
		return existing
	}
	m.entries[entry.Fingerprint] = entry
	n := len(m.entries)
	m.mu.Unlock()
	m.report(n)
	return entry
}

func (m *Manager) remove(fp string) {
	m.mu.Lock()
	_, ok := m.entries[fp]
	delete(m.entries, fp)
	n := len(m.entries)
	m.mu.Unlock()
	if ok {
		m.report(n)
	}
}

func (m *Manager) report(n int) {
	if m.opts.Gauge != nil {
		m.opts.Gauge.SetActiveSessions(n)
	}
}

// Bind creates a session over api. The returned client sends the session's
// credential and rejects the session on any 401.
func Bind(api *apiclient.Client, store Store, opts Options) (*Session, *apiclient.Client) {
	sess := New(nil, store, opts)
	bound := api.WithSession(sess, sess.Reject)
	sess.auth = apiclient.NewAuthAPI(bound)
	return sess, bound
}
