package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/office-admin/internal/apiclient"
	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/querycache"
	appErrors "github.com/noah-isme/office-admin/pkg/errors"
)

// upstream accepts one token and rejects everything else with 401.
type upstream struct {
	mu      sync.Mutex
	valid   string
	logouts int
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/auth/login/":
		var req models.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"bad credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": u.token()})
		return
	case "/api/auth/logout/":
		u.mu.Lock()
		u.logouts++
		u.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+u.token() {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid token."}`))
		return
	}
	if r.URL.Path == "/api/auth/verify/" {
		_, _ = w.Write([]byte(`{}`))
		return
	}
	_, _ = w.Write([]byte(`[{"id":1,"name":"Ali","family":"Rezai"}]`))
}

func (u *upstream) token() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.valid
}

func (u *upstream) revoke() {
	u.mu.Lock()
	u.valid = "rotated"
	u.mu.Unlock()
}

type gauge struct{ last int }

func (g *gauge) SetActiveSessions(n int) { g.last = n }

func newManager(t *testing.T, clock func() time.Time) (*Manager, *upstream, *gauge) {
	t.Helper()
	up := &upstream{valid: "tok-1"}
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)
	g := &gauge{}
	m := NewManager(ManagerOptions{
		API:     apiclient.New(apiclient.Options{BaseURL: srv.URL}),
		IdleTTL: time.Hour,
		Gauge:   g,
		Clock:   clock,
	})
	return m, up, g
}

func TestManagerLoginAndResume(t *testing.T) {
	m, _, g := newManager(t, nil)

	entry, err := m.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", entry.Session.Token())
	assert.Equal(t, Fingerprint("tok-1"), entry.Fingerprint)
	assert.Equal(t, entry.Fingerprint, entry.Cache.Scope())
	assert.Equal(t, 1, g.last)

	again, err := m.Resume(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Same(t, entry, again)
	assert.Equal(t, 1, m.Active())
}

func TestManagerLoginRejected(t *testing.T) {
	m, _, _ := newManager(t, nil)
	_, err := m.Login(context.Background(), "a@b.c", "wrong")
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	assert.Zero(t, m.Active())
}

func TestManagerResumeVerifiesUnknownToken(t *testing.T) {
	m, _, _ := newManager(t, nil)

	entry, err := m.Resume(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.True(t, entry.Session.Authenticated())

	_, err = m.Resume(context.Background(), "forged")
	assert.ErrorIs(t, err, appErrors.ErrNotAuthenticated)
	assert.Equal(t, 1, m.Active())
}

func TestManagerDropsRejectedSession(t *testing.T) {
	m, up, g := newManager(t, nil)
	entry, err := m.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)

	staff, _ := entry.Entities.Collection("staffs")
	listing := staff.Load(context.Background(), entry.Env(), "")
	require.NoError(t, listing.Err)
	assert.Equal(t, 1, listing.Total)

	up.revoke()
	entry.Cache.Invalidate(context.Background(), "staffs")
	listing = staff.Load(context.Background(), entry.Env(), "")
	assert.ErrorIs(t, listing.Err, appErrors.ErrUnauthorized)
	assert.False(t, entry.Session.Authenticated())
	assert.Zero(t, m.Active())
	assert.Zero(t, g.last)
	assert.Equal(t, querycache.StatusIdle, entry.Cache.Status("staffs"))
}

func TestManagerLogout(t *testing.T) {
	m, up, _ := newManager(t, nil)
	_, err := m.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)

	require.NoError(t, m.Logout(context.Background(), "tok-1"))
	assert.Zero(t, m.Active())
	assert.Equal(t, 1, up.logouts)
}

func TestManagerEvictsIdleSessions(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	m, _, _ := newManager(t, clock)
	_, err := m.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)

	assert.Zero(t, m.Evict())

	mu.Lock()
	now = now.Add(2 * time.Hour)
	mu.Unlock()
	assert.Equal(t, 1, m.Evict())
	assert.Zero(t, m.Active())
}

func TestManagerRemoteInvalidation(t *testing.T) {
	m, _, _ := newManager(t, nil)
	entry, err := m.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	staff, _ := entry.Entities.Collection("staffs")
	staff.Load(context.Background(), entry.Env(), "")
	require.False(t, entry.Cache.IsStale("staffs"))

	m.ApplyRemoteInvalidation("other-scope", "staffs")
	assert.False(t, entry.Cache.IsStale("staffs"))

	m.ApplyRemoteInvalidation(entry.Fingerprint, "staffs")
	assert.True(t, entry.Cache.IsStale("staffs"))
	assert.Equal(t, []string{entry.Fingerprint}, m.Fingerprints())
}
