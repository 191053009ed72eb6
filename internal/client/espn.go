package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"fantasy_nhl/ingestion/internal/metrics"
	"fantasy_nhl/ingestion/internal/models"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ErrUpstreamUnavailable reports that the league provider could not be reached or
// rejected the configured credentials. A sync that sees it must not touch storage.
var ErrUpstreamUnavailable = errors.New("upstream league provider unavailable")

var errAuthFailed = errors.New("authentication failed")

// Config holds the league identity and transport settings
type Config struct {
	BaseURL   string
	LeagueID  int
	Season    int
	SWID      string
	ESPNS2    string
	Timeout   time.Duration
	RateLimit float64 // requests per second
}

// Client is the ESPN Fantasy Hockey league API client
type Client struct {
	baseURL    string
	leagueID   int
	season     int
	swid       string
	espnS2     string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration

	mu        sync.Mutex
	connected bool
}

// NewClient creates a new league API client. No request is made until Connect or a fetch.
func NewClient(cfg Config) *Client {
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 5
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		leagueID:   cfg.LeagueID,
		season:     cfg.Season,
		swid:       cfg.SWID,
		espnS2:     cfg.ESPNS2,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries: 3,
		retryDelay: 1 * time.Second,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Season returns the configured season year
func (c *Client) Season() int {
	return c.season
}

// Connect validates the league identity and credentials against the provider.
// Once a session has been validated later calls are no-ops until an auth failure resets it.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	if c.leagueID <= 0 {
		return fmt.Errorf("%w: LEAGUE_ID is not configured", ErrUpstreamUnavailable)
	}
	if c.swid == "" || c.espnS2 == "" {
		return fmt.Errorf("%w: ESPN_SWID and ESPN_S2 are required", ErrUpstreamUnavailable)
	}

	if _, err := c.get(ctx, []string{"mStatus"}, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	c.connected = true
	log.Info().
		Int("league_id", c.leagueID).
		Int("season", c.season).
		Msg("Connected to league provider")

	return nil
}

func (c *Client) ensureConnected(ctx context.Context) error {
	return c.Connect(ctx)
}

func (c *Client) resetOnAuthFailure(err error) {
	if errors.Is(err, errAuthFailed) {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}
}

func (c *Client) leagueURL() string {
	return fmt.Sprintf("%s/seasons/%d/segments/0/leagues/%d", c.baseURL, c.season, c.leagueID)
}

// get performs a GET request against the league endpoint with retry logic and rate limiting
func (c *Client) get(ctx context.Context, views []string, headers map[string]string) ([]byte, error) {
	params := url.Values{}
	for _, v := range views {
		params.Add("view", v)
	}
	u := c.leagueURL()
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	endpoint := "league"
	if len(views) > 0 {
		endpoint = views[0]
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("endpoint", endpoint).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying API request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		body, retry, err := c.do(ctx, u, endpoint, attempt, headers)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || attempt == c.maxRetries {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// do runs a single request attempt and reports whether a failure is worth retrying
func (c *Client) do(ctx context.Context, u, endpoint string, attempt int, headers map[string]string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "fantasy-nhl-sync/1.0")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if c.swid != "" {
		req.AddCookie(&http.Cookie{Name: "swid", Value: c.swid})
	}
	if c.espnS2 != "" {
		req.AddCookie(&http.Cookie{Name: "espn_s2", Value: c.espnS2})
	}

	log.Debug().
		Str("endpoint", endpoint).
		Int("attempt", attempt+1).
		Msg("Making API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPICall(endpoint, "network_error", time.Since(start).Seconds())
		// Retry on network errors
		return nil, ctx.Err() == nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	metrics.RecordAPICall(endpoint, fmt.Sprintf("%d", resp.StatusCode), time.Since(start).Seconds())
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	// Handle different status codes
	switch resp.StatusCode {
	case http.StatusOK:
		log.Debug().
			Str("endpoint", endpoint).
			Int("size", len(body)).
			Msg("API request successful")
		return body, false, nil

	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusBadGateway:
		log.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Int("attempt", attempt+1).
			Msg("Received retryable error, will retry")
		return nil, true, fmt.Errorf("API returned retryable status %d", resp.StatusCode)

	case http.StatusUnauthorized, http.StatusForbidden:
		// Don't retry auth errors
		return nil, false, fmt.Errorf("%w (status %d)", errAuthFailed, resp.StatusCode)

	default:
		return nil, false, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(body, 200))
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// fetch performs a connected request and decodes the JSON body into v
func (c *Client) fetch(ctx context.Context, views []string, headers map[string]string, v any) error {
	if err := c.ensureConnected(ctx); err != nil {
		return err
	}

	body, err := c.get(ctx, views, headers)
	if err != nil {
		c.resetOnAuthFailure(err)
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to unmarshal %v response: %w", views, err)
	}

	return nil
}

// ScoringItems fetches the league's scoring settings
func (c *Client) ScoringItems(ctx context.Context) ([]models.ScoringItem, error) {
	var resp leagueResponse
	if err := c.fetch(ctx, []string{"mSettings"}, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch scoring settings: %w", err)
	}
	if resp.Settings == nil {
		return nil, fmt.Errorf("league settings missing from response")
	}

	return resp.Settings.ScoringSettings.ScoringItems, nil
}

// Teams fetches every fantasy team with standings, aggregate stats and roster
func (c *Client) Teams(ctx context.Context) ([]models.TeamInput, error) {
	var resp leagueResponse
	if err := c.fetch(ctx, []string{"mTeam", "mRoster", "mStandings"}, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch teams: %w", err)
	}

	teams := make([]models.TeamInput, 0, len(resp.Teams))
	for _, t := range resp.Teams {
		teams = append(teams, t.toInput(c.season))
	}

	log.Debug().Int("count", len(teams)).Msg("Teams fetched")
	return teams, nil
}

// FreeAgents fetches the top n unrostered players ranked by ownership
func (c *Client) FreeAgents(ctx context.Context, n int) ([]models.PlayerInput, error) {
	filter, err := playerFilter(n, []string{"FREEAGENT", "WAIVERS"})
	if err != nil {
		return nil, err
	}

	var resp playersResponse
	if err := c.fetch(ctx, []string{"kona_player_info"}, map[string]string{"x-fantasy-filter": filter}, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch free agents: %w", err)
	}

	players := make([]models.PlayerInput, 0, len(resp.Players))
	for _, entry := range resp.Players {
		if entry.OnTeamID != 0 {
			continue
		}
		players = append(players, entry.Player.toInput(c.season, ""))
		if len(players) == n {
			break
		}
	}

	return players, nil
}

// OwnershipEntries fetches percent-owned for the most owned players in one bulk request
func (c *Client) OwnershipEntries(ctx context.Context, limit int) (map[int]float64, error) {
	filter, err := playerFilter(limit, nil)
	if err != nil {
		return nil, err
	}

	var resp playersResponse
	if err := c.fetch(ctx, []string{"kona_player_info"}, map[string]string{"x-fantasy-filter": filter}, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch ownership: %w", err)
	}

	owned := make(map[int]float64, len(resp.Players))
	for _, entry := range resp.Players {
		id := entry.Player.ID
		if id == 0 {
			id = entry.ID
		}
		if id == 0 || entry.Player.Ownership == nil {
			continue
		}
		owned[id] = entry.Player.Ownership.PercentOwned
	}

	return owned, nil
}

func playerFilter(limit int, statuses []string) (string, error) {
	players := map[string]any{
		"limit": limit,
		"sortPercOwned": map[string]any{
			"sortPriority": 1,
			"sortAsc":      false,
		},
	}
	if len(statuses) > 0 {
		players["filterStatus"] = map[string]any{"value": statuses}
	}

	b, err := json.Marshal(map[string]any{"players": players})
	if err != nil {
		return "", fmt.Errorf("failed to encode player filter: %w", err)
	}
	return string(b), nil
}
