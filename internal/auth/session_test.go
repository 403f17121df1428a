package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phu-boop/ev-dealer-platform/internal/apperr"
	"github.com/phu-boop/ev-dealer-platform/internal/logger"
	"github.com/phu-boop/ev-dealer-platform/internal/model"
	"github.com/phu-boop/ev-dealer-platform/internal/restclient"
)

var testNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func signToken(t *testing.T, exp time.Time, extra map[string]any) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "u-1", "exp": exp.Unix()}
	for k, v := range extra {
		claims[k] = v
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

type fakeRefresher struct {
	mu    sync.Mutex
	calls int
	pair  *TokenPair
	err   error
}

func (f *fakeRefresher) Refresh(_ context.Context, _ string) (*TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.pair, nil
}

func newTestContext(store Store, r Refresher) *Context {
	c := NewContext(store, r, logger.NewNop())
	c.now = func() time.Time { return testNow }
	return c
}

func TestExpired(t *testing.T) {
	c := newTestContext(NewMemoryStore(), nil)

	assert.False(t, c.Expired(signToken(t, testNow.Add(time.Hour), nil)))
	assert.True(t, c.Expired(signToken(t, testNow.Add(-time.Minute), nil)))
	assert.True(t, c.Expired(signToken(t, testNow.Add(10*time.Second), nil)), "inside leeway")
	assert.False(t, c.Expired("opaque-token"))
}

func TestGetWithoutSession(t *testing.T) {
	c := newTestContext(NewMemoryStore(), nil)

	_, err := c.Get(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
	assert.True(t, apperr.IsAuth(err))
}

func TestStartFillsClaims(t *testing.T) {
	store := NewMemoryStore()
	c := newTestContext(store, nil)
	tok := signToken(t, testNow.Add(time.Hour), map[string]any{"role": "DEALER_MANAGER", "dealerId": "12"})

	require.NoError(t, c.Start(context.Background(), &Session{AccessToken: tok}))

	s, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u-1", s.UserID)
	assert.Equal(t, "12", s.DealerID)

	ctx := WithUser(context.Background(), s.User())
	assert.Equal(t, model.ActorDealer, ActorFrom(ctx))
	assert.Equal(t, "12", GetDealerID(ctx))
}

func TestGetRefreshesExpiredToken(t *testing.T) {
	store := NewMemoryStore()
	fresh := signToken(t, testNow.Add(time.Hour), nil)
	r := &fakeRefresher{pair: &TokenPair{AccessToken: fresh, RefreshToken: "r2"}}
	c := newTestContext(store, r)
	require.NoError(t, store.Save(context.Background(), &Session{
		AccessToken:  signToken(t, testNow.Add(-time.Hour), nil),
		RefreshToken: "r1",
	}))

	tok, err := c.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, tok)
	assert.Equal(t, 1, r.calls)

	s, _ := store.Load(context.Background())
	assert.Equal(t, "r2", s.RefreshToken)
}

func TestRefreshCollapsesConcurrentCallers(t *testing.T) {
	store := NewMemoryStore()
	fresh := signToken(t, testNow.Add(time.Hour), nil)
	r := &fakeRefresher{pair: &TokenPair{AccessToken: fresh}}
	c := newTestContext(store, r)
	stale := "stale-opaque"
	require.NoError(t, store.Save(context.Background(), &Session{AccessToken: stale, RefreshToken: "r1"}))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := c.RefreshToken(context.Background(), stale)
			assert.NoError(t, err)
			assert.Equal(t, fresh, tok)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, r.calls)
}

func TestRefreshFailureClearsSession(t *testing.T) {
	store := NewMemoryStore()
	r := &fakeRefresher{err: errors.New("refresh token revoked")}
	c := newTestContext(store, r)
	require.NoError(t, store.Save(context.Background(), &Session{AccessToken: "a", RefreshToken: "r"}))

	_, err := c.Refresh(context.Background(), "a")
	require.Error(t, err)
	assert.True(t, apperr.IsAuth(err))

	s, _ := store.Load(context.Background())
	assert.Nil(t, s)
}

func TestRefreshWithoutRefreshToken(t *testing.T) {
	store := NewMemoryStore()
	c := newTestContext(store, &fakeRefresher{})
	require.NoError(t, store.Save(context.Background(), &Session{AccessToken: "a"}))

	_, err := c.Refresh(context.Background(), "a")
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestHTTPClientLoginUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":1001,"message":"Bad credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"code":1000,"message":"ok","data":{"accessToken":"A","refreshToken":"R","role":"EVM_STAFF"}}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(restclient.New(restclient.Config{Service: "identity", BaseURL: srv.URL, HTTPClient: srv.Client()}))

	s, err := client.Login(context.Background(), "staff@evm.vn", "secret")
	require.NoError(t, err)
	assert.Equal(t, "A", s.AccessToken)
	assert.Equal(t, "R", s.RefreshToken)
	assert.Equal(t, "EVM_STAFF", s.Role)

	_, err = client.Login(context.Background(), "staff@evm.vn", "wrong")
	require.Error(t, err)
	assert.True(t, apperr.IsAuth(err))
	assert.Equal(t, "Bad credentials", err.Error())

	_, err = client.Login(context.Background(), "", "x")
	assert.True(t, apperr.IsValidation(err))
}
