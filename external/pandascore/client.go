package pandascore

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"github.com/LZ26/esports-analytics/internal/domain/match"
	"github.com/LZ26/esports-analytics/internal/platform/cache"
	"github.com/LZ26/esports-analytics/internal/platform/logging"
	"github.com/LZ26/esports-analytics/internal/platform/resilience"
	"github.com/LZ26/esports-analytics/internal/usecase"
)

const (
	defaultBaseURL = "https://api.pandascore.co"

	liveStatuses = "running,not_started"
	livePageSize = 20

	historyPageSize = 10

	rateLimitResetHeader = "X-Rate-Limit-Reset"
	defaultRateLimitWait = 60 * time.Second
)

var bearerTokenRegex = regexp.MustCompile(`(?i)bearer\s+\S+`)
var errPandaScoreTransient = crerr.New("pandascore transient failure")

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Token      string
	Timeout    time.Duration
	// MaxRetries caps the TOTAL attempts per logical call, rate-limit
	// pauses excluded. Defaults to 3.
	MaxRetries int
	// RateLimitMaxPauses bounds how many provider-directed rate-limit
	// pauses one request may sit through before failing.
	RateLimitMaxPauses int
	// RateLimitRPS throttles outbound requests; zero disables the local
	// throttle and leaves only the provider-directed pauses.
	RateLimitRPS    float64
	HistoryCacheTTL time.Duration
	Logger          *logging.Logger
	CircuitBreaker  resilience.CircuitBreakerConfig
}

// Client talks to the PandaScore matches endpoints. One client is safe for
// concurrent use; the pause gate and limiter are shared across all calls so
// a 429 on any request quiets the whole client.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxRetries     int
	maxPauses      int
	limiter        *rate.Limiter
	gate           *resilience.PauseGate
	historyCache   *cache.Store
	historyTTL     time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 3
	}

	maxPauses := cfg.RateLimitMaxPauses
	if maxPauses <= 0 {
		maxPauses = 5
	}
	historyTTL := cfg.HistoryCacheTTL
	if historyTTL <= 0 {
		historyTTL = 6 * time.Hour
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		maxRetries:     maxRetries,
		maxPauses:      maxPauses,
		limiter:        limiter,
		gate:           resilience.NewPauseGate(),
		historyCache:   cache.NewStore(historyTTL, 4096),
		historyTTL:     historyTTL,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// FetchLiveMatches returns the current running and upcoming matches for one
// game, soonest first. Records the provider sends without opponents or a
// start time pass through untouched; the caller decides what to skip.
func (c *Client) FetchLiveMatches(ctx context.Context, game string) ([]usecase.ExternalLiveMatch, error) {
	game = strings.ToLower(strings.TrimSpace(game))
	if !match.IsKnownGame(game) {
		return nil, fmt.Errorf("unsupported game %q", game)
	}

	path := fmt.Sprintf("/%s/matches", game)
	query := map[string]string{
		"filter[status]": liveStatuses,
		"sort":           "begin_at",
		"page[size]":     strconv.Itoa(livePageSize),
	}

	var payload []matchPayload
	if err := c.doJSON(ctx, path, query, &payload); err != nil {
		return nil, fmt.Errorf("fetch live matches game=%s: %w", game, err)
	}

	out := make([]usecase.ExternalLiveMatch, 0, len(payload))
	for _, item := range payload {
		if item.ID <= 0 {
			continue
		}
		out = append(out, mapLiveMatch(game, item))
	}
	return out, nil
}

// FetchTeamHistory returns the team's finished matches, newest first.
// Responses are cached per team so repeated refreshes inside the cache
// window reuse one upstream call.
func (c *Client) FetchTeamHistory(ctx context.Context, teamExternalID int64) ([]usecase.ExternalHistoricalMatch, error) {
	if teamExternalID <= 0 {
		return nil, fmt.Errorf("team external id must be greater than zero")
	}

	key := fmt.Sprintf("team_history_%d", teamExternalID)
	out, err := c.historyCache.GetOrLoad(ctx, key, c.historyTTL, func(ctx context.Context) (any, error) {
		return c.fetchTeamHistory(ctx, teamExternalID)
	})
	if err != nil {
		return nil, err
	}

	records, ok := out.([]usecase.ExternalHistoricalMatch)
	if !ok {
		return nil, fmt.Errorf("unexpected cached payload type %T", out)
	}
	return records, nil
}

func (c *Client) fetchTeamHistory(ctx context.Context, teamExternalID int64) ([]usecase.ExternalHistoricalMatch, error) {
	path := fmt.Sprintf("/teams/%d/matches", teamExternalID)
	query := map[string]string{
		"filter[status]": match.StatusFinished,
		"sort":           "-begin_at",
		"page[size]":     strconv.Itoa(historyPageSize),
	}

	var payload []matchPayload
	if err := c.doJSON(ctx, path, query, &payload); err != nil {
		return nil, fmt.Errorf("fetch team history team_id=%d: %w", teamExternalID, err)
	}

	out := make([]usecase.ExternalHistoricalMatch, 0, len(payload))
	for _, item := range payload {
		if item.ID <= 0 {
			continue
		}
		record, ok := mapHistoricalMatch(item)
		if !ok {
			c.logger.DebugContext(ctx, "dropping historical match without a played-at time", "match_id", item.ID)
			continue
		}
		out = append(out, record)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PlayedAt.After(out[j].PlayedAt)
	})
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "pandascore circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: match data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errPandaScoreTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

// executeRequest issues the request with at most maxRetries total attempts.
// Rate-limit responses are not attempts: each 429 arms the shared pause
// gate for the window the provider names and the request reissues after the
// wait, up to maxPauses times before failing.
func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	pauses := 0
	for attempt := 0; attempt < c.maxRetries; {
		if err := c.gate.Wait(ctx); err != nil {
			return nil, err
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errPandaScoreTransient, sanitizeSensitiveText(err.Error(), c.token))
			attempt++
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errPandaScoreTransient, readErr)
				attempt++
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusTooManyRequests:
				pauses++
				if pauses > c.maxPauses {
					return nil, fmt.Errorf("%w: rate limited %d times in one request", errPandaScoreTransient, pauses-1)
				}
				wait := parseRateLimitReset(resp.Header.Get(rateLimitResetHeader))
				c.logger.WarnContext(ctx, "pandascore rate limited, pausing all requests",
					"wait", wait.String(),
					"pause", pauses,
					"max_pauses", c.maxPauses,
				)
				c.gate.PauseFor(wait)
				continue
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errPandaScoreTransient, resp.StatusCode, abbreviateBody(raw))
				attempt++
			default:
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt >= c.maxRetries {
			break
		}
		backoff := time.Duration(float64(time.Second) * math.Pow(1.5, float64(attempt)))
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "pandascore request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func mapLiveMatch(game string, item matchPayload) usecase.ExternalLiveMatch {
	out := usecase.ExternalLiveMatch{
		ExternalID: item.ID,
		Name:       strings.TrimSpace(item.Name),
		Status:     item.Status,
		Game:       game,
		NextMap:    nextMapName(item.Games),
	}
	if item.League != nil {
		out.Tournament = strings.TrimSpace(item.League.Name)
	}
	if parsed := parseProviderDateTime(item.BeginAt); parsed != nil {
		out.StartTime = parsed
	}

	teams := opponentTeams(item.Opponents)
	if len(teams) > 0 {
		out.Team1 = &teams[0]
	}
	if len(teams) > 1 {
		out.Team2 = &teams[1]
	}
	return out
}

func mapHistoricalMatch(item matchPayload) (usecase.ExternalHistoricalMatch, bool) {
	playedAt := parseProviderDateTime(item.BeginAt)
	if playedAt == nil {
		return usecase.ExternalHistoricalMatch{}, false
	}

	out := usecase.ExternalHistoricalMatch{
		ExternalID: strconv.FormatInt(item.ID, 10),
		PlayedAt:   *playedAt,
	}
	if item.League != nil {
		out.Tournament = strings.TrimSpace(item.League.Name)
	}

	teams := opponentTeams(item.Opponents)
	out.TeamIDs = make([]int64, 0, len(teams))
	for _, teamItem := range teams {
		out.TeamIDs = append(out.TeamIDs, teamItem.ExternalID)
	}

	switch {
	case item.Winner != nil && item.Winner.ID > 0:
		out.WinnerID = item.Winner.ID
	case item.WinnerID != nil:
		out.WinnerID = *item.WinnerID
	}
	return out, true
}

func opponentTeams(opponents []opponentPayload) []usecase.ExternalTeam {
	out := make([]usecase.ExternalTeam, 0, len(opponents))
	for _, wrapper := range opponents {
		if wrapper.Opponent == nil || wrapper.Opponent.ID <= 0 {
			continue
		}
		out = append(out, usecase.ExternalTeam{
			ExternalID: wrapper.Opponent.ID,
			Name:       strings.TrimSpace(wrapper.Opponent.Name),
			Slug:       strings.TrimSpace(wrapper.Opponent.Slug),
			ImageURL:   strings.TrimSpace(wrapper.Opponent.ImageURL),
		})
	}
	return out
}

func nextMapName(games []gamePayload) string {
	for _, game := range games {
		if game.Status != match.StatusScheduled {
			continue
		}
		if game.Map == nil {
			return ""
		}
		return strings.TrimSpace(game.Map.Name)
	}
	return ""
}

func parseProviderDateTime(value *string) *time.Time {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil
	}
	parsed = parsed.UTC()
	return &parsed
}

func parseRateLimitReset(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds <= 0 {
		return defaultRateLimitWait
	}
	return time.Duration(seconds) * time.Second
}

func isRetryableStatus(status int) bool {
	return status >= 500
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return bearerTokenRegex.ReplaceAllString(value, "Bearer REDACTED")
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}
