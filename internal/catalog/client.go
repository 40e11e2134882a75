package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/shadow/practice"
)

const (
	// DefaultRate is the default number of requests per second.
	DefaultRate = 2.0

	defaultTimeout = 15 * time.Second
	maxErrorBody   = 4 << 10
)

// ErrNotFound matches API errors for unknown shows or episodes.
var ErrNotFound = errors.New("not found")

// APIError is returned for non-2xx responses.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s: %s", e.Status, http.StatusText(e.Status), e.Body)
}

// Is reports 404 responses as ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL string
	Token   string
	Rate    float64 // requests per second, DefaultRate when zero
	Timeout time.Duration
}

// Client fetches scenes from the platform REST API.
type Client struct {
	base    *url.URL
	token   string
	http    *http.Client
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewClient creates an API client.
func NewClient(cfg ClientConfig, logger *log.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("api url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", cfg.BaseURL)
	}
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRate
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Client{
		base:    base,
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), 1),
		logger:  logger,
	}, nil
}

// ScenesURL returns the endpoint listing the scenes of an episode.
func (c *Client) ScenesURL(showID, episodeID string) string {
	return c.base.JoinPath("shows", showID, "episodes", episodeID, "scenes").String()
}

// Scenes fetches the scenes of an episode.
func (c *Client) Scenes(ctx context.Context, showID, episodeID string) ([]practice.Scene, error) {
	if err := checkEpisode(showID, episodeID); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.ScenesURL(showID, episodeID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scenes: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	c.logger.Debug("fetched scenes", "url", endpoint, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var scenes []practice.Scene
	if err := json.NewDecoder(resp.Body).Decode(&scenes); err != nil {
		return nil, fmt.Errorf("failed to decode scenes: %w", err)
	}
	return normalize(showID+"/"+episodeID, scenes), nil
}
