package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pickem-go/logging"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"
)

const (
	defaultSportsAPIBaseURL = "https://v1.baseball.api-sports.io/"
	sportsAPIKeyHeader      = "X-APISports-Key"
	maxRedirects            = 10
)

var apiJSON = jsoniter.ConfigCompatibleWithStandardLibrary

type SportsAPIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Retries int
	// RequestsPerMinute throttles outbound calls; zero disables throttling
	RequestsPerMinute int
}

// SportsAPIService talks to the api-sports.io baseball API
type SportsAPIService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	retry   *RetryPolicy
	limiter *rate.Limiter
	logger  *logging.Logger
}

func NewSportsAPIService(config SportsAPIConfig) *SportsAPIService {
	baseURL := strings.TrimSpace(config.BaseURL)
	if baseURL == "" {
		baseURL = defaultSportsAPIBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := config.Retries
	if attempts <= 0 {
		attempts = 2
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1)
	}

	return &SportsAPIService{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
		baseURL: baseURL,
		apiKey:  config.APIKey,
		retry:   NewRetryPolicy(attempts, time.Second),
		limiter: limiter,
		logger:  logging.WithPrefix("SportsAPI"),
	}
}

// API response structures

type apiEnvelope struct {
	Errors   json.RawMessage `json:"errors"`
	Response json.RawMessage `json:"response"`
}

// APIGame is one game record as reported by the API
type APIGame struct {
	ID     int           `json:"id"`
	Date   string        `json:"date"`
	Status APIGameStatus `json:"status"`
	Teams  struct {
		Home APITeamRef `json:"home"`
		Away APITeamRef `json:"away"`
	} `json:"teams"`
	Scores struct {
		Home APILineScore `json:"home"`
		Away APILineScore `json:"away"`
	} `json:"scores"`
}

type APIGameStatus struct {
	Long  string `json:"long"`
	Short string `json:"short"`
}

type APITeamRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

type APILineScore struct {
	Total  *int `json:"total"`
	Hits   *int `json:"hits"`
	Errors *int `json:"errors"`
}

// StartTime parses the ISO-8601 date of the game
func (g *APIGame) StartTime() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, g.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("game %d has invalid date %q: %w", g.ID, g.Date, err)
	}
	return t, nil
}

// APITeam is one team record from the teams endpoint
type APITeam struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Logo     string `json:"logo"`
	National bool   `json:"national"`
	Country  struct {
		Code string `json:"code"`
	} `json:"country"`
}

// GameQuery selects games; zero fields are left out of the request
type GameQuery struct {
	Date     time.Time
	League   int
	Season   int
	Timezone string
}

func (q GameQuery) values() url.Values {
	v := url.Values{}
	if !q.Date.IsZero() {
		v.Set("date", q.Date.Format("2006-01-02"))
	}
	if q.League != 0 {
		v.Set("league", strconv.Itoa(q.League))
	}
	if q.Season != 0 {
		v.Set("season", strconv.Itoa(q.Season))
	}
	if q.Timezone != "" {
		v.Set("timezone", q.Timezone)
	}
	return v
}

// GetGames fetches games matching q
func (s *SportsAPIService) GetGames(ctx context.Context, q GameQuery) ([]APIGame, error) {
	var games []APIGame
	if err := s.get(ctx, "games", q.values(), &games); err != nil {
		return nil, err
	}
	s.logger.Debugf("Fetched %d games for %s", len(games), q.values().Encode())
	return games, nil
}

// GetTeams fetches every team in a league season
func (s *SportsAPIService) GetTeams(ctx context.Context, league, season int) ([]APITeam, error) {
	v := url.Values{}
	v.Set("league", strconv.Itoa(league))
	v.Set("season", strconv.Itoa(season))

	var teams []APITeam
	if err := s.get(ctx, "teams", v, &teams); err != nil {
		return nil, err
	}
	s.logger.Debugf("Fetched %d teams for league %d season %d", len(teams), league, season)
	return teams, nil
}

// HealthCheck calls the status endpoint
func (s *SportsAPIService) HealthCheck(ctx context.Context) error {
	var status json.RawMessage
	return s.get(ctx, "status", nil, &status)
}

// get performs one API call with retries. Every failure is wrapped in ErrFetchFailed.
func (s *SportsAPIService) get(ctx context.Context, endpoint string, params url.Values, target interface{}) error {
	fullURL := s.baseURL + endpoint
	if encoded := params.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	err := s.retry.Execute(ctx, func() error {
		return s.do(ctx, fullURL, target)
	})
	if err != nil {
		s.logger.Warnf("Request to %s failed: %v", endpoint, err)
		return fmt.Errorf("%w: %s: %v", ErrFetchFailed, endpoint, err)
	}
	return nil
}

func (s *SportsAPIService) do(ctx context.Context, fullURL string, target interface{}) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return permanent(fmt.Errorf("building request: %w", err))
	}
	req.Header.Set(sportsAPIKeyHeader, s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return permanent(err)
		}
		return err
	}

	var envelope apiEnvelope
	if err := apiJSON.Unmarshal(body, &envelope); err != nil {
		return permanent(fmt.Errorf("malformed response: %w", err))
	}
	if apiErrorsPresent(envelope.Errors) {
		return permanent(fmt.Errorf("API reported errors: %s", string(envelope.Errors)))
	}
	if len(envelope.Response) == 0 || string(envelope.Response) == "null" {
		return permanent(errors.New("malformed response: missing response field"))
	}
	if err := apiJSON.Unmarshal(envelope.Response, target); err != nil {
		return permanent(fmt.Errorf("malformed response: %w", err))
	}
	return nil
}

// apiErrorsPresent reports whether the errors field holds anything. The API
// sends an empty array when all is well and an object or array otherwise.
func apiErrorsPresent(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "[]", "{}":
		return false
	}
	return true
}
