// Package querycache mediates every read and write between console pages and
// the remote API. Collections are cached per key; concurrent reads of a key
// share one fetch, and successful mutations mark the keys they touch as stale
// so the next read goes back to the API.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	appErrors "github.com/noah-isme/office-admin/pkg/errors"
)

// Status is the read state of a key.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// EventKind tells subscribers what happened to a key.
type EventKind int

const (
	EventInvalidated EventKind = iota + 1
	EventUpdated
	EventFailed
)

// Event is delivered to key subscribers.
type Event struct {
	Key  string
	Kind EventKind
}

// MutationEvent reports a settled mutation to observers.
type MutationEvent struct {
	Name     string
	Action   string
	RecordID int64
	Keys     []string
	Err      error
	Duration time.Duration
}

// Mutation is a create, update or delete against the API. Name is usually
// the collection; Keys are the cache keys it makes stale when it succeeds.
type Mutation struct {
	Name     string
	Action   string
	RecordID int64
	Keys     []string
	Run      func(ctx context.Context) error
}

// MutationObserver is told about every settled mutation.
type MutationObserver func(ctx context.Context, ev MutationEvent)

// Metrics receives cache lookups.
type Metrics interface {
	RecordCacheOperation(key string, hit bool)
}

// SnapshotStore is an optional second level shared between console replicas.
type SnapshotStore interface {
	Load(ctx context.Context, key string, dest interface{}) (time.Time, error)
	Save(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}

// Publisher broadcasts invalidations to other replicas.
type Publisher interface {
	Publish(ctx context.Context, scope, key string) error
}

// Options configures a Client.
type Options struct {
	// StaleTime is how long a snapshot is served without refetching. Zero
	// keeps snapshots fresh until invalidated.
	StaleTime time.Duration
	// Scope namespaces shared snapshots, typically one per credential.
	Scope     string
	Store     SnapshotStore
	Publisher Publisher
	Metrics   Metrics
	Logger    *zap.Logger
	Clock     func() time.Time
}

type entry struct {
	data       interface{}
	hasData    bool
	err        error
	fetchedAt  time.Time
	stale      bool
	generation uint64
	// settled is the generation of the fetch behind data or err.
	settled  uint64
	inFlight int
}

// Client is a goroutine-safe collection cache. One Client serves every page
// of a session.
type Client struct {
	mu      sync.Mutex
	entries map[string]*entry
	// epoch changes on Clear so fetches started before it never land.
	epoch uint64
	group singleflight.Group

	subMu         sync.Mutex
	subs          map[string]map[uint64]func(Event)
	mutationSubs  map[uint64]MutationObserver
	nextSubscribe uint64

	staleTime time.Duration
	scope     string
	store     SnapshotStore
	publisher Publisher
	metrics   Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// New constructs a cache client.
func New(opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Client{
		entries:      make(map[string]*entry),
		subs:         make(map[string]map[uint64]func(Event)),
		mutationSubs: make(map[uint64]MutationObserver),
		staleTime:    opts.StaleTime,
		scope:        opts.Scope,
		store:        opts.Store,
		publisher:    opts.Publisher,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		now:          opts.Clock,
	}
}

// Scope returns the namespace of the client.
func (c *Client) Scope() string { return c.scope }

// Read returns the collection under key, fetching it when there is no fresh
// snapshot. Concurrent reads of the same key share one fetch. On failure the
// last good snapshot, if any, is returned together with the error. Callers
// must not modify the returned slice. A caller whose ctx ends first gets
// ctx.Err() while the fetch carries on for everyone else.
func Read[T any](ctx context.Context, c *Client, key string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if data, ok := c.fresh(key); ok {
		c.record(key, true)
		return data.([]T), nil
	}
	c.record(key, false)

	epoch, gen := c.beginFetch(key)
	ch := c.group.DoChan(fmt.Sprintf("%s#%d#%d", key, epoch, gen), func() (interface{}, error) {
		// The fetch outlives the caller that started it; later callers of the
		// same generation still want the result.
		fetchCtx := context.WithoutCancel(ctx)
		tracked := c.markInFlight(key, epoch)
		items, err := loadShared(fetchCtx, c, key, fetch)
		if err != nil {
			if tracked {
				c.settle(key, epoch, gen, nil, err)
			}
			return nil, err
		}
		if items == nil {
			items = []T{}
		}
		if tracked {
			c.settle(key, epoch, gen, items, nil)
		}
		return items, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if prev, ok := Peek[T](c, key); ok {
				return prev, res.Err
			}
			return nil, res.Err
		}
		return res.Val.([]T), nil
	}
}

// Peek returns the cached snapshot of key without fetching, fresh or not.
func Peek[T any](c *Client, key string) ([]T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.hasData {
		return nil, false
	}
	data, ok := e.data.([]T)
	return data, ok
}

// Status reports the read state of key.
func (c *Client) Status(key string) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	switch {
	case !ok:
		return StatusIdle
	case e.inFlight > 0:
		return StatusPending
	case e.err != nil:
		return StatusError
	case e.hasData:
		return StatusSuccess
	default:
		return StatusIdle
	}
}

// Err returns the error of the last fetch of key, if it failed.
func (c *Client) Err(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.err
	}
	return nil
}

// IsStale reports whether the next read of key will fetch.
func (c *Client) IsStale(key string) bool {
	_, fresh := c.fresh(key)
	return !fresh
}

// Invalidate marks key stale, drops any shared snapshot and tells other
// replicas. A fetch already in flight for key settles as stale.
func (c *Client) Invalidate(ctx context.Context, key string) {
	c.invalidateLocal(key)

	if c.store != nil {
		if err := c.store.Delete(ctx, c.storeKey(key)); err != nil {
			c.logger.Warn("drop shared snapshot failed", zap.String("key", key), zap.Error(err))
		}
	}
	if c.publisher != nil {
		if err := c.publisher.Publish(ctx, c.scope, key); err != nil {
			c.logger.Warn("publish invalidation failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// ApplyRemoteInvalidation marks key stale because another replica changed it.
func (c *Client) ApplyRemoteInvalidation(key string) {
	c.invalidateLocal(key)
}

// Clear forgets every key. Used when the session ends.
func (c *Client) Clear() {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	c.entries = make(map[string]*entry)
	c.epoch++
	c.mu.Unlock()

	sort.Strings(keys)
	for _, key := range keys {
		c.emit(Event{Key: key, Kind: EventInvalidated})
	}
}

// Mutate runs m. When it succeeds every key in m.Keys is invalidated exactly
// once; when it fails nothing is invalidated. Mutation observers hear about
// both outcomes.
func (c *Client) Mutate(ctx context.Context, m Mutation) error {
	if m.Run == nil {
		return appErrors.Clone(appErrors.ErrInternal, "mutation has nothing to run")
	}
	start := c.now()
	err := m.Run(ctx)

	keys := unique(m.Keys)
	if err == nil {
		for _, key := range keys {
			c.Invalidate(ctx, key)
		}
	}

	c.emitMutation(ctx, MutationEvent{
		Name:     m.Name,
		Action:   m.Action,
		RecordID: m.RecordID,
		Keys:     keys,
		Err:      err,
		Duration: c.now().Sub(start),
	})
	return err
}

// Subscribe registers fn for events on key and returns a function that
// removes it.
func (c *Client) Subscribe(key string, fn func(Event)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.nextSubscribe++
	id := c.nextSubscribe
	if c.subs[key] == nil {
		c.subs[key] = make(map[uint64]func(Event))
	}
	c.subs[key][id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs[key], id)
		if len(c.subs[key]) == 0 {
			delete(c.subs, key)
		}
	}
}

// OnMutation registers fn for every settled mutation.
func (c *Client) OnMutation(fn MutationObserver) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.nextSubscribe++
	id := c.nextSubscribe
	c.mutationSubs[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.mutationSubs, id)
	}
}

func (c *Client) fresh(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.hasData || e.err != nil || e.stale {
		return nil, false
	}
	if c.staleTime > 0 && c.now().Sub(e.fetchedAt) >= c.staleTime {
		return nil, false
	}
	return e.data, true
}

func (c *Client) beginFetch(key string) (epoch, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(key)
	return c.epoch, e.generation
}

// markInFlight reports false when the client was cleared after the fetch was
// scheduled; such a fetch must not settle.
func (c *Client) markInFlight(key string, epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return false
	}
	c.entryLocked(key).inFlight++
	return true
}

func (c *Client) settle(key string, epoch, gen uint64, data interface{}, err error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || c.epoch != epoch {
		// cleared while the request was out
		c.mu.Unlock()
		return
	}
	e.inFlight--
	if gen < e.settled {
		// a fetch started after this one already landed
		c.mu.Unlock()
		return
	}
	e.settled = gen
	kind := EventUpdated
	if err != nil {
		e.err = err
		kind = EventFailed
	} else {
		e.data = data
		e.hasData = true
		e.err = nil
		e.fetchedAt = c.now()
		// invalidated while the request was out: keep the data but refetch next time
		e.stale = e.generation != gen
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug("collection fetch failed", zap.String("key", key), zap.Error(err))
	}
	c.emit(Event{Key: key, Kind: kind})
}

func (c *Client) invalidateLocal(key string) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.stale = true
	e.generation++
	c.mu.Unlock()

	c.emit(Event{Key: key, Kind: EventInvalidated})
}

func (c *Client) entryLocked(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

// loadShared consults the shared store before fetching and writes fresh
// results back to it.
func loadShared[T any](ctx context.Context, c *Client, key string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if c.store != nil {
		var cached []T
		storedAt, err := c.store.Load(ctx, c.storeKey(key), &cached)
		switch {
		case err == nil && !c.expired(storedAt):
			return cached, nil
		case err != nil && !errors.Is(err, appErrors.ErrCacheMiss):
			c.logger.Warn("load shared snapshot failed", zap.String("key", key), zap.Error(err))
		}
	}

	items, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if c.store != nil {
		if err := c.store.Save(ctx, c.storeKey(key), items); err != nil {
			c.logger.Warn("save shared snapshot failed", zap.String("key", key), zap.Error(err))
		}
	}
	return items, nil
}

func (c *Client) expired(storedAt time.Time) bool {
	return c.staleTime > 0 && c.now().Sub(storedAt) >= c.staleTime
}

func (c *Client) storeKey(key string) string {
	return c.scope + ":" + key
}

func (c *Client) record(key string, hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCacheOperation(key, hit)
	}
}

func (c *Client) emit(ev Event) {
	c.subMu.Lock()
	fns := make([]func(Event), 0, len(c.subs[ev.Key]))
	for _, fn := range c.subs[ev.Key] {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (c *Client) emitMutation(ctx context.Context, ev MutationEvent) {
	c.subMu.Lock()
	fns := make([]MutationObserver, 0, len(c.mutationSubs))
	for _, fn := range c.mutationSubs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(ctx, ev)
	}
}

func unique(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok || k == "" {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
