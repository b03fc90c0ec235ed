package httpapi

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/dmitrijs2005/mediminder/internal/api"
	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuckets_RefillOverWindow(t *testing.T) {
	b := newBuckets(3, time.Minute)
	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for want := 2; want >= 0; want-- {
		ok, left := b.take("ip:1.2.3.4", t0)
		require.True(t, ok)
		assert.Equal(t, want, left)
	}
	ok, left := b.take("ip:1.2.3.4", t0)
	assert.False(t, ok)
	assert.Zero(t, left)

	ok, _ = b.take("ip:5.6.7.8", t0)
	assert.True(t, ok, "other clients keep their own budget")

	// one token comes back every window/limit
	ok, _ = b.take("ip:1.2.3.4", t0.Add(20*time.Second))
	assert.True(t, ok)
}

func TestBuckets_IdleClientsAreSwept(t *testing.T) {
	b := newBuckets(1, time.Minute)
	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	b.take("user:a", t0)
	b.take("user:b", t0.Add(90*time.Second))
	b.take("user:c", t0.Add(160*time.Second))

	_, hasA := b.entries["user:a"]
	_, hasB := b.entries["user:b"]
	assert.False(t, hasA)
	assert.True(t, hasB)
}

func TestBuckets_FullTableEvictsOldest(t *testing.T) {
	b := newBuckets(1, time.Hour)
	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for i := range maxTrackedClients {
		b.take("ip:"+strconv.Itoa(i), t0.Add(time.Duration(i)*time.Millisecond))
	}

	ok, _ := b.take("ip:new", t0.Add(time.Minute))
	assert.True(t, ok)
	assert.Len(t, b.entries, maxTrackedClients)
	_, has0 := b.entries["ip:0"]
	assert.False(t, has0)
}

func TestRateLimit_AnonymousRoutesByIP(t *testing.T) {
	s := newLimitedTestServer(t, &RateLimits{Authenticated: 100, Anonymous: 2, Window: time.Hour})

	for range 2 {
		status, _ := s.call(t, http.MethodPost, api.AuthLoginPath, "", api.AuthRequest{Email: "x@example.com", Password: "pw"})
		assert.Equal(t, http.StatusUnauthorized, status)
	}
	status, body := s.call(t, http.MethodPost, api.AuthLoginPath, "", api.AuthRequest{Email: "x@example.com", Password: "pw"})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, rateLimitMessage, errorOf(t, body))

	status, _ = s.call(t, http.MethodGet, api.HealthPath, "", nil)
	assert.Equal(t, http.StatusOK, status, "health is not limited")
}

func TestRateLimit_AuthenticatedRoutesByUser(t *testing.T) {
	s := newLimitedTestServer(t, &RateLimits{Authenticated: 2, Anonymous: 10, Window: time.Hour})
	anna := s.register(t, "anna@example.com")
	bob := s.register(t, "bob@example.com")
	path := api.CollectionPath(models.Medications.Path())

	for range 2 {
		status, _ := s.call(t, http.MethodGet, path, anna.Token, nil)
		require.Equal(t, http.StatusOK, status)
	}
	status, _ := s.call(t, http.MethodGet, path, anna.Token, nil)
	assert.Equal(t, http.StatusTooManyRequests, status)

	status, _ = s.call(t, http.MethodGet, path, bob.Token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestRateLimit_Headers(t *testing.T) {
	s := newLimitedTestServer(t, &RateLimits{Authenticated: 5, Anonymous: 1, Window: time.Minute})

	req, err := http.NewRequest(http.MethodPost, s.URL+MountPoint+api.AuthLoginPath, nil)
	require.NoError(t, err)
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

	resp, err = s.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
}
