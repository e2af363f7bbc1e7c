// Package osuapi is the crawler's client for the osu! v2 API and website.
// It owns the request-rate ceiling: callers never see 429s because every
// request first waits on the shared token bucket.
package osuapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/osumedals/crawler/internal/models"
)

const (
	defaultBaseURL = "https://osu.ppy.sh"

	// tokenSlack renews the OAuth token a bit before the API would
	// reject it.
	tokenSlack = 2 * time.Minute
)

// ClientConfig carries the credentials and throttle settings.
type ClientConfig struct {
	ClientID          int
	ClientSecret      string
	BaseURL           string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	Logger            *zap.Logger
}

// Client talks to the osu! API with OAuth client credentials and a token
// bucket shared across all requests.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.SugaredLogger

	clientID     int
	clientSecret string
	baseURL      string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		http:         &http.Client{Timeout: cfg.Timeout},
		limiter:      rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:       cfg.Logger.Sugar(),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// User fetches one user's data for one mode.
func (c *Client) User(ctx context.Context, userID uint32, mode models.Mode) (*UserData, error) {
	endpoint := fmt.Sprintf("%s/api/v2/users/%d/%s?key=id", c.baseURL, userID, mode)

	body, err := c.getAuthorized(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch user %d (%s): %w", userID, mode, err)
	}

	var user UserData
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("decode user %d (%s): %w", userID, mode, err)
	}

	return &user, nil
}

// leaderboardPage is the wire shape of one performance-ranking page.
type leaderboardPage struct {
	Ranking []struct {
		User struct {
			ID uint32 `json:"id"`
		} `json:"user"`
	} `json:"ranking"`
}

// LeaderboardPage returns the user ids on one page of the performance
// ranking for a mode (50 per page).
func (c *Client) LeaderboardPage(ctx context.Context, mode models.Mode, page int) ([]uint32, error) {
	endpoint := fmt.Sprintf("%s/api/v2/rankings/%s/performance?cursor[page]=%d", c.baseURL, mode, page)

	body, err := c.getAuthorized(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard %s page %d: %w", mode, page, err)
	}

	var decoded leaderboardPage
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode leaderboard %s page %d: %w", mode, page, err)
	}

	ids := make([]uint32, 0, len(decoded.Ranking))
	for _, entry := range decoded.Ranking {
		ids = append(ids, entry.User.ID)
	}

	return ids, nil
}

func (c *Client) getAuthorized(ctx context.Context, endpoint string) ([]byte, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{Status: resp.StatusCode, URL: endpoint}
	}

	return io.ReadAll(resp.Body)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// token returns a valid bearer token, requesting a fresh one via the
// client-credentials grant when the cached one is close to expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Until(c.tokenExpiry) > tokenSlack {
		return c.accessToken, nil
	}

	form := url.Values{
		"client_id":     {fmt.Sprint(c.clientID)},
		"client_secret": {c.clientSecret},
		"grant_type":    {"client_credentials"},
		"scope":         {"public"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request oauth token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request oauth token: unexpected status %d", resp.StatusCode)
	}

	var decoded tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode oauth token: %w", err)
	}

	c.accessToken = decoded.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(decoded.ExpiresIn) * time.Second)

	c.logger.Infow("Refreshed osu!api token", "expiresIn", decoded.ExpiresIn)

	return c.accessToken, nil
}
