package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"faves_sorter/internal/domain"
)

const (
	favoritesEndpoint = "favorites/list"
	usersShowEndpoint = "users/show"
	verifyEndpoint    = "account/verify_credentials"
)

// Config holds remote API settings. Transport failures and 5xx answers are
// retried up to MaxAttempts times with exponential backoff.
type Config struct {
	BaseURL        string
	PageSize       int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// APIError is a non-2xx answer from the remote API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: unexpected status: %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status: %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return domain.ErrRemote
}

// Client performs single, signed calls against the remote API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

// NewClient wraps an already authorized http.Client.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger,
	}
}

// Favorites returns one page of liked items, newest-first.
func (c *Client) Favorites(ctx context.Context, q domain.FetchQuery) ([]Tweet, error) {
	params := url.Values{}
	params.Set("screen_name", q.ScreenName)
	params.Set("tweet_mode", "extended")
	if q.Count > 0 {
		params.Set("count", strconv.Itoa(q.Count))
	}
	if q.SinceID != "" {
		params.Set("since_id", q.SinceID)
	}
	if q.MaxID != "" {
		params.Set("max_id", q.MaxID)
	}

	var tweets []Tweet
	if err := c.get(ctx, favoritesEndpoint, params, &tweets); err != nil {
		return nil, err
	}
	return tweets, nil
}

func (c *Client) ShowUser(ctx context.Context, screenName string) (*Profile, error) {
	var p Profile
	if err := c.get(ctx, usersShowEndpoint, url.Values{"screen_name": {screenName}}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) VerifyCredentials(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.get(ctx, verifyEndpoint, url.Values{}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	u := fmt.Sprintf("%s/%s.json", c.baseURL, endpoint)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err = c.do(ctx, endpoint, u, out)
		if err == nil || !retryable(err) || attempt == c.maxAttempts || ctx.Err() != nil {
			break
		}

		backoff := c.calculateBackoff(attempt)
		c.logger.Warn("request failed, retrying",
			"endpoint", endpoint,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", domain.ErrRemote, ctx.Err())
		case <-time.After(backoff):
		}
	}
	return err
}

// retryable reports whether err is a transport failure or a 5xx answer.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	var tErr *transportError
	return errors.As(err, &tErr)
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if c.maxBackoff > 0 && backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	return backoff
}

type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return "execute request: " + e.err.Error()
}

func (e *transportError) Unwrap() []error {
	return []error{domain.ErrRemote, e.err}
}

func (c *Client) do(ctx context.Context, endpoint, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "FavesSorter/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var eb apiErrorBody
		if json.Unmarshal(body, &eb) == nil && len(eb.Errors) > 0 {
			apiErr.Message = eb.Errors[0].Message
		}
		c.logger.Warn("remote call failed",
			"endpoint", endpoint,
			"status", resp.StatusCode,
			"message", apiErr.Message,
		)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrRemote, err)
	}

	return nil
}
