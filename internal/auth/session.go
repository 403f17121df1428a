package auth

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/phu-boop/ev-dealer-platform/internal/apperr"
	"github.com/phu-boop/ev-dealer-platform/internal/logger"
)

// Session is the signed-in state kept between invocations.
type Session struct {
	AccessToken  string `db:"access_token"`
	RefreshToken string `db:"refresh_token"`
	UserID       string `db:"user_id"`
	Role         string `db:"role"`
	DealerID     string `db:"dealer_id"`
}

func (s *Session) User() UserContext {
	return UserContext{UserID: s.UserID, Role: s.Role, DealerID: s.DealerID}
}

// Store persists at most one session.
type Store interface {
	// Load returns nil, nil when nobody is signed in.
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context) error
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}

var (
	ErrNoSession      = apperr.Auth("not signed in", nil)
	ErrSessionExpired = apperr.Auth("session expired, please sign in again", nil)
)

// expiryLeeway treats tokens about to expire as expired.
const expiryLeeway = 30 * time.Second

// Context owns the session: every request reads its token through Get or
// Token, and a rejected token goes through Refresh exactly once.
type Context struct {
	store     Store
	refresher Refresher
	logger    logger.ZapLogger
	now       func() time.Time

	mu sync.Mutex
}

func NewContext(store Store, refresher Refresher, log logger.ZapLogger) *Context {
	return &Context{
		store:     store,
		refresher: refresher,
		logger:    log,
		now:       time.Now,
	}
}

// Start replaces the stored session, typically after a login.
func (c *Context) Start(ctx context.Context, s *Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fillFromClaims(s)
	return c.store.Save(ctx, s)
}

// Get returns the current session, refreshing it first when the access
// token has expired.
func (c *Context) Get(ctx context.Context) (*Session, error) {
	s, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil || s.AccessToken == "" {
		return nil, ErrNoSession
	}
	if c.Expired(s.AccessToken) {
		return c.Refresh(ctx, s.AccessToken)
	}
	return s, nil
}

// Token returns the bearer token for the next request.
func (c *Context) Token(ctx context.Context) (string, error) {
	s, err := c.Get(ctx)
	if err != nil {
		return "", err
	}
	return s.AccessToken, nil
}

// Refresh exchanges the refresh token for a new access token. stale is the
// token that was rejected; when another caller already replaced it the
// stored session is returned without a second exchange. Any failure clears
// the session.
func (c *Context) Refresh(ctx context.Context, stale string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNoSession
	}
	if s.AccessToken != stale && s.AccessToken != "" && !c.Expired(s.AccessToken) {
		return s, nil
	}
	if s.RefreshToken == "" || c.refresher == nil {
		c.clearLocked(ctx)
		return nil, ErrSessionExpired
	}

	pair, err := c.refresher.Refresh(ctx, s.RefreshToken)
	if err != nil {
		c.logger.Warn("token refresh failed", zap.String("user_id", s.UserID), zap.Error(err))
		c.clearLocked(ctx)
		return nil, apperr.Auth(ErrSessionExpired.Message, err)
	}

	s.AccessToken = pair.AccessToken
	if pair.RefreshToken != "" {
		s.RefreshToken = pair.RefreshToken
	}
	if err := c.store.Save(ctx, s); err != nil {
		return nil, err
	}
	c.logger.Debug("access token refreshed", zap.String("user_id", s.UserID))
	return s, nil
}

// RefreshToken is Refresh reduced to the new bearer token.
func (c *Context) RefreshToken(ctx context.Context, stale string) (string, error) {
	s, err := c.Refresh(ctx, stale)
	if err != nil {
		return "", err
	}
	return s.AccessToken, nil
}

func (c *Context) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Clear(ctx)
}

func (c *Context) clearLocked(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error("failed to clear session", zap.Error(err))
	}
}

// Expired is the single expiry check. Tokens that are not JWTs, or carry no
// exp claim, are left for the server to judge.
func (c *Context) Expired(token string) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !c.now().Add(expiryLeeway).Before(claims.ExpiresAt.Time)
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Role     string `json:"role"`
	DealerID string `json:"dealerId"`
	UserID   string `json:"userId"`
}

// fillFromClaims completes missing session fields from the access token.
func fillFromClaims(s *Session) {
	var claims sessionClaims
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, &claims); err != nil {
		return
	}
	if s.UserID == "" {
		s.UserID = claims.UserID
		if s.UserID == "" {
			s.UserID = claims.Subject
		}
	}
	if s.Role == "" {
		s.Role = claims.Role
	}
	if s.DealerID == "" {
		s.DealerID = claims.DealerID
	}
}
