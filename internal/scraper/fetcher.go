package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"ruokalista/internal/config"
	"ruokalista/internal/logging"
	"ruokalista/internal/menu"
	"ruokalista/internal/metrics"
	"ruokalista/internal/services"
)

const (
	breakerName          = "menu-source"
	breakerTripThreshold = 5
	breakerOpenTimeout   = 5 * time.Minute
	maxBodyBytes         = 4 << 20
)

// Fetcher downloads and parses the menu listing.
type Fetcher struct {
	url       string
	userAgent string
	timeout   time.Duration
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[menu.Record]
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithClock overrides the FetchedAt time source.
func WithClock(clock menu.Clock) Option {
	return func(f *Fetcher) {
		if clock != nil {
			f.now = clock.Now
		}
	}
}

// New constructs a fetcher for the configured source.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Fetcher {
	logger = logging.NewComponentLogger(logger, "scraper")
	f := &Fetcher{
		url:       cfg.Source.URL,
		userAgent: cfg.Source.UserAgent,
		timeout:   cfg.FetchTimeout(),
		client:    &http.Client{},
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	f.breaker = gobreaker.NewCircuitBreaker[menu.Record](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state change",
				logging.String("from", from.String()),
				logging.String("to", to.String()),
				logging.String(logging.FieldEventType, "breaker_transition"),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	return f
}

// Fetch performs one bounded GET of the source URL and parses the listing.
// Every failure is returned wrapped in services.ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context) (menu.Record, error) {
	start := time.Now()
	rec, err := f.breaker.Execute(func() (menu.Record, error) {
		return f.fetch(ctx)
	})
	metrics.RecordFetch(time.Since(start), rec.Len(), err)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
			err = services.Wrap(services.ErrFetch, "scraper", "breaker", "source temporarily disabled", err)
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		}
		logging.WarnWithContext(logging.WithContext(ctx, f.logger), "menu fetch failed", "fetch_failed",
			logging.String("url", f.url),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network access to the source site"),
			logging.String(logging.FieldImpact, "serving cached menu if available"),
		)
		return menu.Record{}, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	f.logger.Info("menu fetched",
		logging.Int("days", rec.Len()),
		logging.Duration("duration", time.Since(start)),
		logging.String(logging.FieldEventType, "fetch_complete"),
	)
	return rec, nil
}

func (f *Fetcher) fetch(ctx context.Context) (menu.Record, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return menu.Record{}, services.Wrap(services.ErrFetch, "scraper", "build request", "", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return menu.Record{}, services.Wrap(services.ErrFetch, "scraper", "get", "request timed out", fmt.Errorf("%w: %w", services.ErrTimeout, err))
		}
		return menu.Record{}, services.Wrap(services.ErrFetch, "scraper", "get", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return menu.Record{}, services.Wrap(services.ErrFetch, "scraper", "get", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	days, err := Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return menu.Record{}, services.Wrap(services.ErrFetch, "scraper", "parse", "", err)
	}
	return menu.Record{
		Days:      days,
		FetchedAt: f.now(),
		Source:    f.url,
	}, nil
}

// BreakerState reports the circuit breaker state for status output.
func (f *Fetcher) BreakerState() string {
	return f.breaker.State().String()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
