package auth

import (
	"context"
	"strings"

	"github.com/phu-boop/ev-dealer-platform/internal/apperr"
	"github.com/phu-boop/ev-dealer-platform/internal/restclient"
)

// HTTPClient talks to the identity service over an anonymous REST client.
type HTTPClient struct {
	rest *restclient.Client
}

func NewHTTPClient(rest *restclient.Client) *HTTPClient {
	return &HTTPClient{rest: rest}
}

// Login exchanges credentials for a session.
func (h *HTTPClient) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}
	var resp struct {
		TokenPair
		UserID   string `json:"userId"`
		Role     string `json:"role"`
		DealerID string `json:"dealerId"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := h.rest.Post(ctx, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, apperr.Auth("login response carried no access token", nil)
	}
	return &Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		UserID:       resp.UserID,
		Role:         resp.Role,
		DealerID:     resp.DealerID,
	}, nil
}

func (h *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair TokenPair
	if err := h.rest.Post(ctx, "/auth/refresh", map[string]string{"refreshToken": refreshToken}, &pair); err != nil {
		return nil, err
	}
	if pair.AccessToken == "" {
		return nil, apperr.Auth("refresh response carried no access token", nil)
	}
	return &pair, nil
}
