package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/office-admin/pkg/errors"
)

type row struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

type stubMetrics struct {
	hits, misses int32
}

func (s *stubMetrics) RecordCacheOperation(_ string, hit bool) {
	if hit {
		atomic.AddInt32(&s.hits, 1)
	} else {
		atomic.AddInt32(&s.misses, 1)
	}
}

func counting(rows []row, calls *int32) func(context.Context) ([]row, error) {
	return func(context.Context) ([]row, error) {
		atomic.AddInt32(calls, 1)
		return rows, nil
	}
}

func TestReadServesFreshSnapshot(t *testing.T) {
	metrics := &stubMetrics{}
	c := New(Options{Metrics: metrics})
	var calls int32
	fetch := counting([]row{{ID: 1, Name: "Ali"}}, &calls)

	first, err := Read(context.Background(), c, "staffs", fetch)
	require.NoError(t, err)
	second, err := Read(context.Background(), c, "staffs", fetch)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, calls)
	assert.EqualValues(t, 1, metrics.hits)
	assert.EqualValues(t, 1, metrics.misses)
	assert.Equal(t, StatusSuccess, c.Status("staffs"))
}

func TestConcurrentReadsShareOneFetch(t *testing.T) {
	c := New(Options{})
	release := make(chan struct{})
	var calls int32
	fetch := func(context.Context) ([]row, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []row{{ID: 1}}, nil
	}

	var wg sync.WaitGroup
	results := make([][]row, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Read(context.Background(), c, "tasks", fetch)
		}(i)
	}

	require.Eventually(t, func() bool { return c.Status("tasks") == StatusPending }, time.Second, time.Millisecond)
	// give the remaining readers time to join the in-flight call
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, []row{{ID: 1}}, r)
	}
}

func TestStaleTimeExpiresSnapshot(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	c := New(Options{StaleTime: time.Minute, Clock: clock.Now})
	var calls int32
	fetch := counting([]row{{ID: 1}}, &calls)

	_, err := Read(context.Background(), c, "projects", fetch)
	require.NoError(t, err)
	clock.Advance(30 * time.Second)
	_, _ = Read(context.Background(), c, "projects", fetch)
	assert.EqualValues(t, 1, calls)

	clock.Advance(31 * time.Second)
	assert.True(t, c.IsStale("projects"))
	_, _ = Read(context.Background(), c, "projects", fetch)
	assert.EqualValues(t, 2, calls)
}

func TestInvalidateForcesRefetchAndNotifies(t *testing.T) {
	c := New(Options{})
	var calls int32
	fetch := counting([]row{{ID: 1}}, &calls)

	var events []Event
	unsubscribe := c.Subscribe("mails", func(ev Event) { events = append(events, ev) })

	_, _ = Read(context.Background(), c, "mails", fetch)
	c.Invalidate(context.Background(), "mails")
	_, _ = Read(context.Background(), c, "mails", fetch)

	assert.EqualValues(t, 2, calls)
	require.Len(t, events, 3)
	assert.Equal(t, EventUpdated, events[0].Kind)
	assert.Equal(t, EventInvalidated, events[1].Kind)
	assert.Equal(t, EventUpdated, events[2].Kind)

	unsubscribe()
	c.Invalidate(context.Background(), "mails")
	assert.Len(t, events, 3)
}

func TestInvalidationDuringFetchStoresStaleResult(t *testing.T) {
	c := New(Options{})
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	fetch := func(context.Context) ([]row, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-release
			return []row{{ID: 1, Name: "old"}}, nil
		}
		return []row{{ID: 1, Name: "new"}}, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = Read(context.Background(), c, "staffs", fetch)
	}()
	<-started
	c.Invalidate(context.Background(), "staffs")
	close(release)
	<-done

	assert.True(t, c.IsStale("staffs"))
	got, err := Read(context.Background(), c, "staffs", fetch)
	require.NoError(t, err)
	assert.Equal(t, "new", got[0].Name)
	assert.EqualValues(t, 2, calls)
}

func TestReadErrorKeepsLastSnapshotAndDoesNotRetry(t *testing.T) {
	c := New(Options{})
	boom := errors.New("500")
	var calls int32
	fail := false
	fetch := func(context.Context) ([]row, error) {
		atomic.AddInt32(&calls, 1)
		if fail {
			return nil, boom
		}
		return []row{{ID: 1}}, nil
	}

	_, err := Read(context.Background(), c, "tasks", fetch)
	require.NoError(t, err)

	fail = true
	c.Invalidate(context.Background(), "tasks")
	got, err := Read(context.Background(), c, "tasks", fetch)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []row{{ID: 1}}, got)
	assert.Equal(t, StatusError, c.Status("tasks"))
	assert.ErrorIs(t, c.Err("tasks"), boom)
	assert.EqualValues(t, 2, calls)

	fail = false
	got, err = Read(context.Background(), c, "tasks", fetch)
	require.NoError(t, err)
	assert.Equal(t, []row{{ID: 1}}, got)
	assert.Equal(t, StatusSuccess, c.Status("tasks"))
}

func TestReadErrorWithoutSnapshot(t *testing.T) {
	c := New(Options{})
	got, err := Read(context.Background(), c, "tasks", func(context.Context) ([]row, error) {
		return nil, errors.New("down")
	})
	assert.Error(t, err)
	assert.Nil(t, got)
	_, ok := Peek[row](c, "tasks")
	assert.False(t, ok)
}

func TestMutateInvalidatesOnlyOnSuccess(t *testing.T) {
	c := New(Options{})
	invalidations := 0
	c.Subscribe("tasks", func(ev Event) {
		if ev.Kind == EventInvalidated {
			invalidations++
		}
	})
	var settled []MutationEvent
	c.OnMutation(func(_ context.Context, ev MutationEvent) { settled = append(settled, ev) })

	err := c.Mutate(context.Background(), Mutation{
		Name:   "tasks",
		Action: "create",
		Keys:   []string{"tasks", "tasks"},
		Run:    func(context.Context) error { return nil },
	})
	require.NoError(t, err)
	assert.Equal(t, 1, invalidations)

	boom := errors.New("500")
	err = c.Mutate(context.Background(), Mutation{
		Name:     "tasks",
		Action:   "delete",
		RecordID: 7,
		Keys:     []string{"tasks"},
		Run:      func(context.Context) error { return boom },
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, invalidations)

	require.Len(t, settled, 2)
	assert.NoError(t, settled[0].Err)
	assert.Equal(t, []string{"tasks"}, settled[0].Keys)
	assert.ErrorIs(t, settled[1].Err, boom)
	assert.EqualValues(t, 7, settled[1].RecordID)
	assert.Equal(t, "delete", settled[1].Action)
}

func TestReadReturnsWhenCallerGivesUp(t *testing.T) {
	c := New(Options{})
	release := make(chan struct{})
	fetch := func(context.Context) ([]row, error) {
		<-release
		return []row{{ID: 9}}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := Read(ctx, c, "messages", fetch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatusPending, c.Status("messages"))

	close(release)
	require.Eventually(t, func() bool { return c.Status("messages") == StatusSuccess }, time.Second, time.Millisecond)
	got, ok := Peek[row](c, "messages")
	require.True(t, ok)
	assert.Equal(t, []row{{ID: 9}}, got)
}

func TestMutateWithoutRun(t *testing.T) {
	c := New(Options{})
	assert.Error(t, c.Mutate(context.Background(), Mutation{Name: "noop"}))
}

func TestClearForgetsEverything(t *testing.T) {
	c := New(Options{})
	var calls int32
	_, _ = Read(context.Background(), c, "staffs", counting([]row{{ID: 1}}, &calls))
	c.Clear()

	assert.Equal(t, StatusIdle, c.Status("staffs"))
	_, ok := Peek[row](c, "staffs")
	assert.False(t, ok)
}

type memoryStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	at      map[string]time.Time
	deleted []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}, at: map[string]time.Time{}}
}

func (m *memoryStore) Load(_ context.Context, key string, dest interface{}) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return time.Time{}, appErrors.ErrCacheMiss
	}
	return m.at[key], json.Unmarshal(raw, dest)
}

func (m *memoryStore) Save(_ context.Context, key string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	m.data[key] = raw
	m.at[key] = time.Now()
	return err
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

type recordingPublisher struct{ published []string }

func (p *recordingPublisher) Publish(_ context.Context, scope, key string) error {
	p.published = append(p.published, scope+"/"+key)
	return nil
}

func TestSharedStoreIsConsultedBeforeFetching(t *testing.T) {
	store := newMemoryStore()
	pub := &recordingPublisher{}
	replicaA := New(Options{Scope: "s1", Store: store, Publisher: pub})
	replicaB := New(Options{Scope: "s1", Store: store})

	var calls int32
	fetch := counting([]row{{ID: 3, Name: "Sara"}}, &calls)

	_, err := Read(context.Background(), replicaA, "staffs", fetch)
	require.NoError(t, err)
	got, err := Read(context.Background(), replicaB, "staffs", fetch)
	require.NoError(t, err)

	assert.EqualValues(t, 1, calls)
	assert.Equal(t, []row{{ID: 3, Name: "Sara"}}, got)

	replicaA.Invalidate(context.Background(), "staffs")
	assert.Equal(t, []string{"s1:staffs"}, store.deleted)
	assert.Equal(t, []string{"s1/staffs"}, pub.published)

	replicaB.ApplyRemoteInvalidation("staffs")
	assert.True(t, replicaB.IsStale("staffs"))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "success", StatusSuccess.String())
	assert.Equal(t, "error", StatusError.String())
}

func TestClearDuringFetchDiscardsResult(t *testing.T) {
	c := New(Options{})
	_, err := Read(context.Background(), c, "staffs", func(context.Context) ([]row, error) {
		c.Clear()
		return []row{{ID: 1}}, nil
	})
	require.NoError(t, err)

	assert.Equal(t, StatusIdle, c.Status("staffs"))
	_, ok := Peek[row](c, "staffs")
	assert.False(t, ok)
}

func TestReadAfterClearDoesNotJoinEarlierFetch(t *testing.T) {
	c := New(Options{})
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	fetch := func(context.Context) ([]row, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-release
			return []row{{ID: 1, Name: "previous user"}}, nil
		}
		return []row{{ID: 2, Name: "current user"}}, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = Read(context.Background(), c, "staffs", fetch)
	}()
	<-started
	c.Clear()

	got, err := Read(context.Background(), c, "staffs", fetch)
	require.NoError(t, err)
	assert.Equal(t, "current user", got[0].Name)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	close(release)
	<-done

	cached, ok := Peek[row](c, "staffs")
	require.True(t, ok)
	assert.Equal(t, "current user", cached[0].Name)
	assert.Equal(t, StatusSuccess, c.Status("staffs"))
}

func TestLateSettleKeepsNewerSnapshot(t *testing.T) {
	c := New(Options{})
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	fetch := func(context.Context) ([]row, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-release
			return []row{{ID: 1, Name: "older"}}, nil
		}
		return []row{{ID: 1, Name: "newer"}}, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = Read(context.Background(), c, "staffs", fetch)
	}()
	<-started
	c.Invalidate(context.Background(), "staffs")

	got, err := Read(context.Background(), c, "staffs", fetch)
	require.NoError(t, err)
	assert.Equal(t, "newer", got[0].Name)

	close(release)
	<-done

	cached, ok := Peek[row](c, "staffs")
	require.True(t, ok)
	assert.Equal(t, "newer", cached[0].Name)
	assert.False(t, c.IsStale("staffs"))
	assert.Equal(t, StatusSuccess, c.Status("staffs"))
}
