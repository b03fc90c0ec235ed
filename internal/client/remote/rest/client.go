// Package rest is the HTTP transport: JSON collections behind bearer-token
// endpoints, with a bounded timeout and a small retry budget for idempotent
// calls.
package rest

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

	"github.com/dmitrijs2005/mediminder/internal/api"
	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/client/remote"
	"github.com/dmitrijs2005/mediminder/internal/common"
	"github.com/dmitrijs2005/mediminder/internal/logging"
	"github.com/sethvargo/go-retry"
)

const maxBodySize = 8 << 20

type Config struct {
	// BaseURL is the API mount point, e.g. http://127.0.0.1:8080/api.
	BaseURL string
	Timeout time.Duration
	// Retries is the number of extra attempts for idempotent calls.
	Retries uint64
	Backoff time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	retries uint64
	backoff time.Duration
	logger  logging.Logger
}

func New(cfg Config, logger logging.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		timeout: cfg.Timeout,
		retries: cfg.Retries,
		backoff: cfg.Backoff,
		logger:  logger.With("component", "rest"),
	}
}

// APIError is a non-2xx answer. Message comes from the body's "error"
// field when present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return common.ErrUnauthorized
	case http.StatusForbidden:
		return common.ErrForbidden
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusConflict:
		return common.ErrAlreadyExists
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var er api.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		return &APIError{Status: status, Message: er.Error}
	}
	return &APIError{Status: status}
}

func retryable(status int) bool {
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}

// do sends one request, retrying transient failures when idempotent is set.
func (c *Client) do(ctx context.Context, method, path, token string, in any, idempotent bool) ([]byte, error) {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = b
	}

	retries := uint64(0)
	if idempotent {
		retries = c.retries
	}
	backoff := retry.WithMaxRetries(retries, retry.NewExponential(c.backoff))

	var out []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: %v", common.ErrUnavailable, err))
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: read body: %v", common.ErrUnavailable, err))
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := newAPIError(resp.StatusCode, data)
			if retryable(resp.StatusCode) {
				return retry.RetryableError(apiErr)
			}
			return apiErr
		}
		out = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return out, nil
}

func (c *Client) LoadCollection(ctx context.Context, id remote.Identity, col models.Collection) ([]remote.Record, error) {
	data, err := c.do(ctx, http.MethodGet, api.CollectionPath(col.Path()), id.Token, nil, true)
	if err != nil {
		return nil, err
	}
	return remote.RecordsFromJSON(data)
}

// OverwriteCollection posts the whole array; the server replaces the
// collection, so repeating the call is safe.
func (c *Client) OverwriteCollection(ctx context.Context, id remote.Identity, col models.Collection, recs []remote.Record) error {
	_, err := c.do(ctx, http.MethodPost, api.CollectionPath(col.Path()), id.Token, remote.Items(recs), true)
	return err
}

// DeleteCollection removes every record of col.
func (c *Client) DeleteCollection(ctx context.Context, id remote.Identity, col models.Collection) error {
	_, err := c.do(ctx, http.MethodDelete, api.CollectionPath(col.Path()), id.Token, nil, true)
	return err
}

func (c *Client) LoadProfile(ctx context.Context, id remote.Identity) (*models.UserProfile, error) {
	data, err := c.do(ctx, http.MethodGet, api.ProfilePath, id.Token, nil, true)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p models.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

func (c *Client) SaveProfile(ctx context.Context, id remote.Identity, p models.UserProfile) error {
	_, err := c.do(ctx, http.MethodPut, api.ProfilePath, id.Token, p, true)
	return err
}

// ListAllProfiles answers empty for non-admin identities and for servers
// that refuse or lack the admin routes.
func (c *Client) ListAllProfiles(ctx context.Context, id remote.Identity) ([]models.UserProfile, error) {
	if !id.Admin {
		return []models.UserProfile{}, nil
	}
	data, err := c.do(ctx, http.MethodGet, api.AdminUsersPath, id.Token, nil, true)
	if adminUnsupported(err) {
		return []models.UserProfile{}, nil
	}
	if err != nil {
		return nil, err
	}
	var ps []models.UserProfile
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return ps, nil
}

func (c *Client) LoadCollectionForUser(ctx context.Context, id remote.Identity, userID string, col models.Collection) ([]remote.Record, error) {
	if !id.Admin {
		return []remote.Record{}, nil
	}
	path := api.AdminUsersPath + "/" + url.PathEscape(userID) + "/" + col.Path()
	data, err := c.do(ctx, http.MethodGet, path, id.Token, nil, true)
	if adminUnsupported(err) {
		return []remote.Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	return remote.RecordsFromJSON(data)
}

func adminUnsupported(err error) bool {
	return errors.Is(err, common.ErrForbidden) || errors.Is(err, common.ErrNotFound)
}

// Register creates an account. Not retried: a lost response would turn the
// retry into a conflict.
func (c *Client) Register(ctx context.Context, email string, password []byte, fullName string) (api.AuthResponse, error) {
	return c.auth(ctx, api.AuthRegisterPath, api.AuthRequest{Email: email, Password: string(password), FullName: fullName})
}

func (c *Client) Login(ctx context.Context, email string, password []byte) (api.AuthResponse, error) {
	return c.auth(ctx, api.AuthLoginPath, api.AuthRequest{Email: email, Password: string(password)})
}

func (c *Client) auth(ctx context.Context, path string, req api.AuthRequest) (api.AuthResponse, error) {
	var resp api.AuthResponse
	data, err := c.do(ctx, http.MethodPost, path, "", req, false)
	if err != nil {
		return resp, err
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return resp, fmt.Errorf("decode auth response: %w", err)
	}
	return resp, nil
}

// Ping checks the health endpoint once.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, api.HealthPath, "", nil, false)
	return err
}

// Identity turns an auth response into the identity the transports expect.
func Identity(r api.AuthResponse) remote.Identity {
	return remote.Identity{UserID: r.UserID, Email: r.Email, Token: r.Token, Admin: r.IsAdmin()}
}
