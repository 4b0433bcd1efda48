package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// TokenProvider supplies bearer credentials for backend requests. Refresh is
// called when the backend answers with an auth-shaped failure; it must return
// a credential that is fresh at call time.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// StaticTokenProvider serves a fixed token. Refresh returns the same token;
// an auth failure with a static credential is terminal.
type StaticTokenProvider struct {
	token string
}

func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

func (p *StaticTokenProvider) Token(ctx context.Context) (string, error) {
	return p.token, nil
}

func (p *StaticTokenProvider) Refresh(ctx context.Context) (string, error) {
	return p.token, nil
}

// APIError carries the HTTP status and raw payload of a failed backend call.
// Status 0 means the request never produced a response (connectivity).
type APIError struct {
	Status int
	Body   string
	cause  error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("network error: %v", e.cause)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
}

func (e *APIError) Unwrap() error { return e.cause }

// authBodyPattern matches 400 payloads that are really auth failures in
// disguise (expired/invalid token reported as a bad request).
var authBodyPattern = regexp.MustCompile(`(?i)(token|credential|auth|unauthorized|expired|signature)`)

func (e *APIError) isAuthShaped() bool {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return true
	}
	return e.Status == http.StatusBadRequest && authBodyPattern.MatchString(e.Body)
}

// IsNetworkError reports whether err is a connectivity failure (status 0).
func IsNetworkError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 0
}

// IsAuthError reports whether err is an authentication/authorization failure.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.isAuthShaped()
}

// IsValidationError reports whether err is a non-auth 4xx from the backend.
func IsValidationError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status >= 400 && apiErr.Status < 500 && !apiErr.isAuthShaped()
}

// IsServerError reports whether err is a backend 5xx.
func IsServerError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 500
}

// StatusOf returns the HTTP status carried by err, or -1 if err is not an
// APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return -1
}

// Client is the authenticated request/response primitive every repository is
// built on. Implementations retry exactly once on an auth-shaped failure
// after forcing a fresh credential, and otherwise propagate.
type Client interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body any, out any) error
	Do(ctx context.Context, method, path string, query url.Values, body, out any) error
}

type httpClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
}

// NewClient builds a Client for the backend at baseURL (scheme://host[/prefix]).
func NewClient(baseURL string, tokens TokenProvider, timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

func (c *httpClient) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *httpClient) Post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *httpClient) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.do(ctx, method, path, query, body, out)
}

func (c *httpClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	err := c.doOnce(ctx, method, path, query, body, out, false)
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status != 0 && apiErr.isAuthShaped() {
		log.Warn().Int("status", apiErr.Status).Str("path", path).Msg("Auth-shaped backend failure, refreshing credential and retrying once")
		return c.doOnce(ctx, method, path, query, body, out, true)
	}
	return err
}

func (c *httpClient) doOnce(ctx context.Context, method, path string, query url.Values, body, out any, refresh bool) error {
	var token string
	var err error
	if refresh {
		token, err = c.tokens.Refresh(ctx)
	} else {
		token, err = c.tokens.Token(ctx)
	}
	if err != nil {
		return fmt.Errorf("acquiring backend credential: %w", err)
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body for %s: %w", path, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Status: 0, cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: 0, cause: err}
	}

	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding response from %s: %w", path, err)
		}
	}
	return nil
}
