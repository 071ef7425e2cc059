// REST client for the trading-execution engine.
// RESTY ONLY + INTERNAL RETRY
package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"

	"operatorpanel/src/model"
)

// -----------------------------
// CONFIG
// -----------------------------
const (
	// Default retry configuration
	defaultRetryAttempts   = 5
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second
)

// TokenSource lends the current bearer token per request. The session store
// satisfies it; the client never writes the credential.
type TokenSource interface {
	Token() string
}

type EngineClient struct {
	http   *resty.Client
	tokens TokenSource

	mu             sync.RWMutex
	onUnauthorized func()
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}

	code := r.StatusCode()

	if code >= 500 && code <= 599 {
		return true
	}
	if code == 429 {
		return true
	}
	if code == 408 {
		return true
	}
	return false
}

func NewEngineClient(baseURL string, tokens TokenSource) *EngineClient {
	retryCount := defaultRetryAttempts - 1

	if strings.TrimSpace(baseURL) == "" {
		baseURL = GetConfig().EngineBaseURL
		logger.Warnf("No base URL provided, using default: %s", baseURL)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(GetConfig().RequestTimeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	c := &EngineClient{
		http:   httpClient,
		tokens: tokens,
	}

	httpClient.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if r.Header.Get("Authorization") != "" {
			return nil
		}
		if tok := c.tokens.Token(); tok != "" {
			r.SetHeader("Authorization", "Bearer "+tok)
		}
		return nil
	})

	return c
}

// SetUnauthorizedHook wires the session gate's logout path. It fires on any
// 401 response to an authenticated endpoint.
func (c *EngineClient) SetUnauthorizedHook(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

func (c *EngineClient) fireUnauthorized() {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// do executes one request and folds the engine's error taxonomy into typed
// errors. authed marks endpoints where a 401 means the session died, as
// opposed to /token where it just means bad credentials.
func (c *EngineClient) do(req *resty.Request, authed bool, method, path string, out any) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	status := resp.StatusCode()
	if status == http.StatusUnauthorized && authed {
		logger.WithField("path", path).Warn("engine returned 401, dropping session")
		c.fireUnauthorized()
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	if status >= 400 {
		var body detailBody
		_ = json.Unmarshal(resp.Body(), &body)
		return &APIError{Status: status, Detail: body.Detail}
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// -----------------------------
// AUTH / USERS
// -----------------------------

// LoginToken posts form-encoded credentials to /token.
func (c *EngineClient) LoginToken(ctx context.Context, username, password string) (model.Token, error) {
	var token model.Token
	req := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"username": username,
			"password": password,
		})
	if err := c.do(req, false, http.MethodPost, "/token", &token); err != nil {
		return model.Token{}, err
	}
	return token, nil
}

func (c *EngineClient) CreateUser(ctx context.Context, create model.UserCreate) (model.User, error) {
	var user model.User
	req := c.http.R().SetContext(ctx).SetBody(create)
	if err := c.do(req, false, http.MethodPost, "/users/", &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// -----------------------------
// API KEYS
// -----------------------------

func (c *EngineClient) ListAPIKeys(ctx context.Context) ([]model.ApiKey, error) {
	var keys []model.ApiKey
	req := c.http.R().SetContext(ctx)
	if err := c.do(req, true, http.MethodGet, "/api-keys/", &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

func (c *EngineClient) CreateAPIKey(ctx context.Context, create model.ApiKeyCreate) (model.ApiKey, error) {
	var key model.ApiKey
	req := c.http.R().SetContext(ctx).SetBody(create)
	if err := c.do(req, true, http.MethodPost, "/api-keys/", &key); err != nil {
		return model.ApiKey{}, err
	}
	return key, nil
}

func (c *EngineClient) UpdateAPIKey(ctx context.Context, id uint, update model.ApiKeyUpdate) (model.ApiKey, error) {
	var key model.ApiKey
	req := c.http.R().SetContext(ctx).SetBody(update)
	path := "/api-keys/" + strconv.FormatUint(uint64(id), 10)
	if err := c.do(req, true, http.MethodPut, path, &key); err != nil {
		return model.ApiKey{}, err
	}
	return key, nil
}

func (c *EngineClient) DeleteAPIKey(ctx context.Context, id uint) error {
	req := c.http.R().SetContext(ctx)
	path := "/api-keys/" + strconv.FormatUint(uint64(id), 10)
	return c.do(req, true, http.MethodDelete, path, nil)
}

// CheckAPIKeyName asks the engine whether a key name is already taken.
func (c *EngineClient) CheckAPIKeyName(ctx context.Context, name string) (bool, error) {
	var check model.NameCheck
	req := c.http.R().SetContext(ctx).SetQueryParam("name", name)
	if err := c.do(req, true, http.MethodGet, "/api-keys/check-name/", &check); err != nil {
		return false, err
	}
	return check.Exists, nil
}

// -----------------------------
// READ VIEWS
// -----------------------------

func (c *EngineClient) PositionGroups(ctx context.Context) ([]model.PositionGroup, error) {
	var groups []model.PositionGroup
	req := c.http.R().SetContext(ctx)
	if err := c.do(req, true, http.MethodGet, "/position-groups/", &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (c *EngineClient) DashboardMetrics(ctx context.Context) (model.DashboardMetrics, error) {
	var metrics model.DashboardMetrics
	req := c.http.R().SetContext(ctx)
	if err := c.do(req, true, http.MethodGet, "/dashboard-metrics/", &metrics); err != nil {
		return model.DashboardMetrics{}, err
	}
	return metrics, nil
}

func (c *EngineClient) WebhookLogs(ctx context.Context, skip, limit int) (model.WebhookLogPage, error) {
	var page model.WebhookLogPage
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("skip", strconv.Itoa(skip)).
		SetQueryParam("limit", strconv.Itoa(limit))
	if err := c.do(req, true, http.MethodGet, "/webhooks/logs/", &page); err != nil {
		return model.WebhookLogPage{}, err
	}
	return page, nil
}

func (c *EngineClient) SystemLogs(ctx context.Context) ([]string, error) {
	var logs model.SystemLogs
	req := c.http.R().SetContext(ctx)
	if err := c.do(req, true, http.MethodGet, "/logs/", &logs); err != nil {
		return nil, err
	}
	return logs.Logs, nil
}

// -----------------------------
// CONFIG DOCUMENT
// -----------------------------

func (c *EngineClient) GetEngineConfig(ctx context.Context) (model.EngineConfig, error) {
	var cfg model.EngineConfig
	req := c.http.R().SetContext(ctx)
	if err := c.do(req, true, http.MethodGet, "/config/", &cfg); err != nil {
		return model.EngineConfig{}, err
	}
	return cfg, nil
}

// SaveEngineConfig submits the whole document and returns the engine's
// canonical copy, which callers must reload instead of trusting their own.
func (c *EngineClient) SaveEngineConfig(ctx context.Context, cfg model.EngineConfig) (model.EngineConfig, error) {
	var saved model.EngineConfig
	req := c.http.R().SetContext(ctx).SetBody(cfg)
	if err := c.do(req, true, http.MethodPost, "/config/", &saved); err != nil {
		return model.EngineConfig{}, err
	}
	return saved, nil
}
