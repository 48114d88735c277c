// Package fpl is a client for the public Fantasy Premier League API.
package fpl

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/fpl-datasync/internal/platform/logging"
	"github.com/riskibarqy/fpl-datasync/internal/platform/resilience"
	"github.com/riskibarqy/fpl-datasync/internal/usecase"
)

const (
	defaultBaseURL      = "https://fantasy.premierleague.com/api"
	defaultUserAgent    = "fpl-datasync/1.0"
	defaultRetryBackoff = time.Second
	maxResponseBytes    = 16 << 20

	pathBootstrapStatic = "/bootstrap-static/"
	pathFixtures        = "/fixtures/"
)

var errFPLTransient = crerr.New("fpl transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	userAgent      string
	maxRetries     int
	retryBackoff   time.Duration
	logger         *logging.Logger
	validator      *validator.Validate
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight[[]byte]
}

var _ usecase.RemoteDataSource = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("fpl")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	retryBackoff := cfg.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = defaultRetryBackoff
	}

	breakerCfg := cfg.CircuitBreaker
	breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
		logger.Warn("fpl circuit breaker state changed", "from", from, "to", to)
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		userAgent:      userAgent,
		maxRetries:     max(cfg.MaxRetries, 0),
		retryBackoff:   retryBackoff,
		logger:         logger,
		validator:      validator.New(),
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) FetchBootstrapStaticInfo(ctx context.Context) (usecase.BootstrapStaticInfo, error) {
	var payload bootstrapStaticPayload
	if err := c.doJSON(ctx, pathBootstrapStatic, &payload); err != nil {
		return usecase.BootstrapStaticInfo{}, err
	}
	if err := c.validator.Struct(&payload); err != nil {
		return usecase.BootstrapStaticInfo{}, crerr.Wrap(err, "validate bootstrap-static payload")
	}
	return payload.toDTO(), nil
}

func (c *Client) FetchFixtures(ctx context.Context) ([]usecase.FixtureDTO, error) {
	var payload fixturesPayload
	if err := c.doJSON(ctx, pathFixtures, &payload.Items); err != nil {
		return nil, err
	}
	if err := c.validator.Struct(&payload); err != nil {
		return nil, crerr.Wrap(err, "validate fixtures payload")
	}
	return payload.toDTO(), nil
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	fetch := func() ([]byte, error) {
		return c.executeRequest(ctx, c.baseURL+path)
	}
	if c.circuitEnabled {
		fetch = func() ([]byte, error) {
			var raw []byte
			err := c.breaker.Execute(func() error {
				var reqErr error
				raw, reqErr = c.executeRequest(ctx, c.baseURL+path)
				return reqErr
			}, isFPLCircuitFailure)
			if stderrors.Is(err, resilience.ErrCircuitOpen) {
				c.logger.WarnContext(ctx, "fpl circuit breaker rejected request", "path", path, "state", c.breaker.State())
				return nil, fmt.Errorf("%w: fpl api is temporarily unavailable", usecase.ErrDependencyUnavailable)
			}
			return raw, err
		}
	}

	raw, err, _ := c.flight.Do(path, fetch)
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return crerr.Wrapf(err, "decode %s payload", strings.Trim(path, "/"))
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, crerr.Wrap(err, "build request")
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("user-agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = crerr.Mark(crerr.Wrap(err, "send request"), errFPLTransient)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = crerr.Mark(crerr.Wrap(readErr, "read response body"), errFPLTransient)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = crerr.Mark(crerr.Newf("fpl status=%d body=%s", resp.StatusCode, abbreviateBody(raw)), errFPLTransient)
			default:
				return nil, crerr.Newf("fpl status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * c.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = crerr.New("fpl request failed")
	}
	c.logger.WarnContext(ctx, "fpl request failed", "url", fullURL, "attempts", c.maxRetries+1, "error", lastErr)
	return nil, lastErr
}

func isFPLCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return crerr.Is(err, errFPLTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
