// Copyright 2024 THEMA Consulting Group

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package outlook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/stockparfait/fetch"
)

type contextKey int

const (
	clientContextKey contextKey = iota
)

// URL is the default base URL of the server. It may be overwritten in tests
// before creating a new client.
var URL = "https://portal.thema.no/customer-api"

const (
	tokenValidity  = 600 * time.Second // how long an issued token stays valid
	tokenSlack     = 20 * time.Second  // refresh this long before expiry
	defaultTimeout = time.Minute
)

// Config is the user-visible configuration of a Client.
type Config struct {
	URL      string        // base URL; default: the package-level URL
	Username string        // web portal username
	Password string        // web portal password
	Timeout  time.Duration // HTTP request timeout; default: 1 minute
	// Retry is the policy for transient (5xx) failures of authorized calls.
	// The default is a single attempt; the caller owns the retry policy.
	Retry     *fetch.Params
	Transport *http.Client // overrides Timeout when set; primarily for tests
}

// Client holds the session with the API: the credentials and the current
// bearer token. The token is exchanged lazily on the first authorized call
// and refreshed shortly before it expires.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	retry    *fetch.Params

	mu      sync.Mutex // guards token and tokenAt
	token   string
	tokenAt time.Time
	now     func() time.Time // overridden in tests
}

func newClient(c Config) *Client {
	baseURL := c.URL
	if baseURL == "" {
		baseURL = URL
	}
	httpClient := c.Transport
	if httpClient == nil {
		timeout := c.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	retry := c.Retry
	if retry == nil {
		retry = fetch.NewParams().Retries(0).MinWait(0)
	}
	return &Client{
		baseURL:  baseURL,
		username: c.Username,
		password: c.Password,
		http:     httpClient,
		retry:    retry,
		now:      time.Now,
	}
}

// UseClient creates a new client from the config and injects it into the
// context.
func UseClient(ctx context.Context, c Config) context.Context {
	return context.WithValue(ctx, clientContextKey, newClient(c))
}

// GetClient extracts the Client from the context, if any.
func GetClient(ctx context.Context) *Client {
	c, ok := ctx.Value(clientContextKey).(*Client)
	if !ok {
		return nil
	}
	return c
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	JWT string `json:"jwt"`
}

// authorize returns the Authorization header for the current session,
// exchanging the credentials for a fresh token when the cached one is within
// tokenSlack of expiry. Concurrent callers serialize here; the rest of the
// client is read-only.
func (c *Client) authorize(ctx context.Context) (http.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Add(tokenSlack).Before(c.tokenAt.Add(tokenValidity)) {
		return c.bearer(), nil
	}
	body, err := json.Marshal(authRequest{Username: c.username, Password: c.password})
	if err != nil {
		return nil, &TransportError{Op: "authorization token", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/authenticate", bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Op: "authorization token", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "authorization token", Err: err}
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &AuthError{Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, &TransportError{Op: "authorization token", Status: resp.StatusCode}
	}
	var ar authResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, &TransportError{Op: "authorization token", Err: err}
	}
	if ar.JWT == "" {
		return nil, &AuthError{Status: resp.StatusCode}
	}
	c.token = ar.JWT
	c.tokenAt = c.now()
	return c.bearer(), nil
}

// bearer must be called with c.mu held.
func (c *Client) bearer() http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+c.token)
	return h
}

// get performs an authorized GET of baseURL/path and returns the raw response
// body. op names the call in errors. The caller decodes and classifies the
// body itself, so a malformed 200 response is never mistaken for a transport
// failure. Transient server failures (5xx) follow the configured retry
// policy.
func (c *Client) get(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	header, err := c.authorize(ctx)
	if err != nil {
		return nil, err
	}
	uri := c.baseURL + "/" + path
	var body []byte
	var failure *TransportError // returned as is, without Retry's annotations
	attempt := func(int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			failure = &TransportError{Op: op, Err: err}
			return failure
		}
		req.Header = header
		if query != nil {
			req.URL.RawQuery = query.Encode()
		}
		resp, err := c.http.Do(req)
		if err != nil {
			failure = &TransportError{Op: op, Err: err}
			return failure
		}
		defer resp.Body.Close()
		if !fetch.ResponseOK(resp) {
			failure = &TransportError{Op: op, Status: resp.StatusCode}
			if fetch.ResponseRetriable(resp) {
				return fetch.NewRetriableError(failure)
			}
			return failure
		}
		if body, err = io.ReadAll(resp.Body); err != nil {
			failure = &TransportError{Op: op, Err: err}
			return failure
		}
		failure = nil
		return nil
	}
	if err := fetch.Retry(ctx, c.retry, attempt); err != nil {
		if failure != nil {
			return nil, failure
		}
		// The context closed before the first attempt.
		return nil, &TransportError{Op: op, Err: err}
	}
	return body, nil
}
