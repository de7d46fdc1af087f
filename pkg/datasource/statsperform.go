package datasource

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/richard-senior/matchboard/internal/config"
	"github.com/richard-senior/matchboard/internal/logger"
	"github.com/richard-senior/matchboard/pkg/transport"
)

const (
	userAgent = "matchboard/1.0"
	accept    = "application/json, application/xml;q=0.9, */*;q=0.8"
	// tokens live for a minute, refresh a little early
	tokenTTL = 55 * time.Second
)

var (
	// ErrFeed is returned when the feed answers with an errorCode payload
	ErrFeed = errors.New("feed returned an error payload")
	// ErrNoToken is returned when the token endpoint answers without a token
	ErrNoToken = errors.New("no access token in OAuth response")
)

// StatsPerform is a client for the Stats Perform soccer feeds.
// Requests are authorised with a short lived OAuth bearer token obtained
// from the outlet key and secret.
type StatsPerform struct {
	outlet   string
	secret   string
	baseURL  string
	oauthURL string
	http     *transport.Client
	now      func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewStatsPerform builds a client from the feed settings in c
func NewStatsPerform(c *config.Config) (*StatsPerform, error) {
	if err := c.RequireCredentials(); err != nil {
		return nil, err
	}
	return &StatsPerform{
		outlet:   c.OutletKey,
		secret:   c.SecretKey,
		baseURL:  strings.TrimRight(c.BaseURL, "/"),
		oauthURL: strings.TrimRight(c.OAuthURL, "/"),
		http: transport.NewClient(transport.ClientOptions{
			Timeout:    c.Timeout,
			MaxRetries: c.MaxRetries,
			Backoff:    c.Backoff,
			MaxBackoff: c.MaxBackoff,
		}),
		now: time.Now,
	}, nil
}

// tokenHash is sha512(outlet + timestamp + secret) in lowercase hex
func tokenHash(outlet string, timestamp int64, secret string) string {
	sum := sha512.Sum512([]byte(outlet + strconv.FormatInt(timestamp, 10) + secret))
	return hex.EncodeToString(sum[:])
}

// Token returns a cached bearer token, fetching a new one once it expires
func (s *StatsPerform) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.tokenExpiry) {
		return s.token, nil
	}

	endpoint := fmt.Sprintf("%s/%s?_fmt=json&_rt=b", s.oauthURL, s.outlet)
	form := url.Values{"grant_type": {"client_credentials"}, "scope": {"b2b-feeds-auth"}}.Encode()

	body, err := s.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		// each attempt signs a fresh timestamp
		ts := s.now().UnixMilli()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Basic "+tokenHash(s.outlet, ts, s.secret))
		req.Header.Set("Timestamp", strconv.FormatInt(ts, 10))
		req.Header.Set("User-Agent", userAgent)
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to obtain access token: %w", err)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", ErrNoToken
	}

	s.token = tokenResp.AccessToken
	s.tokenExpiry = s.now().Add(tokenTTL)
	logger.Debug("Obtained new access token, valid until", s.tokenExpiry.Format(time.RFC3339))
	return s.token, nil
}

func (s *StatsPerform) get(ctx context.Context, feed string, params url.Values) ([]byte, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	params.Set("_fmt", "json")
	params.Set("_rt", "b")
	endpoint := fmt.Sprintf("%s/soccerdata/%s/%s?%s", s.baseURL, feed, s.outlet, params.Encode())

	return s.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", accept)
		return req, nil
	})
}

// TournamentSchedule fetches every fixture of a tournament calendar
func (s *StatsPerform) TournamentSchedule(ctx context.Context, calendarID string) (*Schedule, error) {
	body, err := s.get(ctx, "tournamentschedule", url.Values{"tmcl": {calendarID}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule %s: %w", calendarID, err)
	}
	return ParseSchedule(body)
}

// MatchStats fetches the raw match stats payload of one fixture.
// A payload carrying an errorCode yields ErrFeed.
func (s *StatsPerform) MatchStats(ctx context.Context, matchID string) ([]byte, error) {
	body, err := s.get(ctx, "matchstats", url.Values{"fx": {matchID}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch match %s: %w", matchID, err)
	}
	var fe feedError
	if err := json.Unmarshal(body, &fe); err != nil {
		return nil, fmt.Errorf("match %s is not JSON: %w", matchID, err)
	}
	if fe.failed() {
		return nil, fmt.Errorf("match %s: %w (errorCode %s)", matchID, ErrFeed, fe.ErrorCode)
	}
	return body, nil
}
