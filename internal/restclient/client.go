// Package restclient is the JSON-over-HTTP transport used by every backend
// client. It attaches the bearer token, retries once after refreshing a
// rejected token, and maps failures onto the apperr taxonomy. It never
// retries anything else.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phu-boop/ev-dealer-platform/internal/apperr"
	"github.com/phu-boop/ev-dealer-platform/internal/logger"
	"github.com/phu-boop/ev-dealer-platform/internal/metrics"
)

// Authenticator supplies bearer tokens. *auth.Context implements it.
type Authenticator interface {
	Token(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context, stale string) (string, error)
	Clear(ctx context.Context) error
}

type Config struct {
	Service    string // label used in logs and metrics
	BaseURL    string
	HTTPClient *http.Client
	Auth       Authenticator // nil sends anonymous requests
	Logger     logger.ZapLogger
	Metrics    *metrics.Registry
}

type Client struct {
	service string
	baseURL string
	http    *http.Client
	auth    Authenticator
	logger  logger.ZapLogger
	metrics *metrics.Registry
}

func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		service: cfg.Service,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		auth:    cfg.Auth,
		logger:  log,
		metrics: cfg.Metrics,
	}
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Do sends one request and decodes a 2xx JSON body into out (nil skips
// decoding). A 401 triggers one token refresh and one retry; a second 401 or
// a failed refresh clears the session.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		payload = b
	}

	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	status, respBody, err := c.send(ctx, method, path, query, payload, token)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && c.auth != nil {
		c.logger.Debug("access token rejected, refreshing", zap.String("service", c.service), zap.String("path", path))
		fresh, err := c.auth.RefreshToken(ctx, token)
		c.metrics.ObserveRefresh(err == nil)
		if err != nil {
			return err
		}
		status, respBody, err = c.send(ctx, method, path, query, payload, fresh)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			if err := c.auth.Clear(ctx); err != nil {
				c.logger.Error("failed to clear session", zap.Error(err))
			}
			return apperr.Auth("session expired, please sign in again", apperr.FromResponse(status, respBody))
		}
	}

	if status < 200 || status > 299 {
		e := apperr.FromResponse(status, respBody)
		c.logger.Warn("backend rejected request",
			zap.String("service", c.service),
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.String("message", e.Message),
		)
		return e
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := decode(respBody, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.auth == nil {
		return "", nil
	}
	return c.auth.Token(ctx)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, token string) (int, []byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(c.service, method, 0, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, ctxErr
		}
		c.logger.Error("backend unreachable", zap.String("service", c.service), zap.String("path", path), zap.Error(err))
		return 0, nil, apperr.Transient(fmt.Sprintf("%s service unreachable", c.service), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.metrics.ObserveRequest(c.service, method, resp.StatusCode, time.Since(start))
	if err != nil {
		return 0, nil, apperr.Transient(fmt.Sprintf("read %s response", c.service), err)
	}
	return resp.StatusCode, respBody, nil
}

// decode accepts both bare JSON and the {code, message, data} envelope some
// services wrap their payloads in.
func decode(body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err == nil {
			data, hasData := probe["data"]
			_, hasCode := probe["code"]
			_, hasMessage := probe["message"]
			if hasData && (hasCode || hasMessage) {
				if string(data) == "null" {
					return nil
				}
				return json.Unmarshal(data, out)
			}
		}
	}
	return json.Unmarshal(trimmed, out)
}

// IsCanceled reports whether err came from the caller's context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
