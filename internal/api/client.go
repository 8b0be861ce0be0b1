// Package api provides the HTTP client for the remote sync service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/quizpath/syncengine/internal/apperr"
	"github.com/quizpath/syncengine/internal/logging"
)

// Config holds client connection configuration.
type Config struct {
	BaseURL string
	Token   string // bearer credential from the auth provider
	Timeout time.Duration
}

// Client talks to the remote sync service. All methods classify
// transport-level failures (no network, refused, timed out) as
// connectivity errors, which the engine treats as retryable.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *logging.Logger
}

// NewClient creates a new Client. A nil logger discards output.
func NewClient(cfg Config, log *logging.Logger) *Client {
	if log == nil {
		log = logging.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		log: log,
	}
}

// BatchSync uploads pending progress records in one exchange.
func (c *Client) BatchSync(ctx context.Context, req *BatchSyncRequest) (*BatchSyncResponse, error) {
	var resp BatchSyncResponse
	if err := c.post(ctx, "/v1/sync/batch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchContentVersion returns the latest remote content version tag.
func (c *Client) FetchContentVersion(ctx context.Context) (*ContentVersionInfo, error) {
	var info ContentVersionInfo
	if err := c.get(ctx, "/v1/content/version", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// FetchQuestions returns the full ordered question set for a version.
func (c *Client) FetchQuestions(ctx context.Context, version string) (*QuestionSet, error) {
	var set QuestionSet
	query := url.Values{"version": {version}}
	if err := c.get(ctx, "/v1/content/questions", query, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// FetchLeaderboard returns the ranked leaderboard plus the user's rank.
func (c *Client) FetchLeaderboard(ctx context.Context, userID string) (*LeaderboardPayload, error) {
	var lb LeaderboardPayload
	query := url.Values{"userId": {userID}}
	if err := c.get(ctx, "/v1/leaderboard", query, &lb); err != nil {
		return nil, err
	}
	return &lb, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do executes the request, decoding a JSON body into out on success.
// Errors from the transport itself never reach the caller untyped: they
// come back carrying the connectivity code.
func (c *Client) do(req *http.Request, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts, refused connections, DNS failures, cancelled
		// contexts: all transport level, all retryable.
		c.log.Debug("request transport failure",
			"method", req.Method, "url", req.URL.String(), "err", err)
		return apperr.Wrap(apperr.CodeConnectivity,
			fmt.Sprintf("%s %s", req.Method, req.URL.Path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperr.New(apperr.CodeRemote,
			fmt.Sprintf("%s %s: status %d: %s",
				req.Method, req.URL.Path, resp.StatusCode, string(body)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.CodeRemote,
			fmt.Sprintf("%s %s: malformed response", req.Method, req.URL.Path), err)
	}
	return nil
}
