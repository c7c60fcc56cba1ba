package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"golang.org/x/time/rate"

	"mediasort/internal/logging"
	"mediasort/internal/services"
)

// RetryPolicy bounds how often a failing request is re-issued.
type RetryPolicy struct {
	Attempts    int
	BackoffUnit time.Duration
}

// DefaultRetryPolicy is five attempts with one second back-off units.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 5, BackoffUnit: time.Second}
}

// Backoff returns the wait after the zero-based attempt n: (n+1)² units.
func (p RetryPolicy) Backoff(n uint) time.Duration {
	step := time.Duration(n+1) * time.Duration(n+1)
	return step * p.BackoffUnit
}

func (p RetryPolicy) attempts() uint {
	if p.Attempts < 1 {
		return 1
	}
	return uint(p.Attempts)
}

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	Service           string
	UserAgent         string
	RequestsPerSecond float64
	Retry             RetryPolicy
	HTTPClient        *http.Client
	Logger            *slog.Logger
}

// Fetcher performs rate limited, retried JSON GETs against one service.
type Fetcher struct {
	service   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	retry     RetryPolicy
	logger    *slog.Logger
}

// NewFetcher builds a fetcher. A non-positive request rate disables limiting.
func NewFetcher(opts FetcherOptions) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	policy := opts.Retry
	if policy.Attempts == 0 && policy.BackoffUnit == 0 {
		policy = DefaultRetryPolicy()
	}
	service := strings.TrimSpace(opts.Service)
	if service == "" {
		service = "metadata"
	}
	return &Fetcher{
		service:   service,
		userAgent: strings.TrimSpace(opts.UserAgent),
		client:    client,
		limiter:   limiter,
		retry:     policy,
		logger:    logging.NewComponentLogger(opts.Logger, service),
	}
}

// StatusError describes a non-200 response.
type StatusError struct {
	Service    string
	StatusCode int
	RetryAfter time.Duration
	marker     error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d", e.Service, e.StatusCode)
}

// Unwrap exposes the services marker chosen for the status code.
func (e *StatusError) Unwrap() error {
	return e.marker
}

// GetJSON issues a GET for endpoint and decodes the JSON body into dst.
//
// Rate-limit (429) and transient (network, 5xx, truncated body) failures are
// retried within the attempt budget. A 404 returns services.ErrNotFound, other
// client errors fail at once. Exhausting the budget returns an error marked
// services.ErrResolution whose cause keeps the transient or rate-limit marker.
func (f *Fetcher) GetJSON(ctx context.Context, endpoint string, dst any) error {
	var attempt uint
	err := retry.Do(
		func() error {
			attempt++
			return f.once(ctx, endpoint, dst)
		},
		retry.Context(ctx),
		retry.Attempts(f.retry.attempts()),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.DelayType(f.delay),
		retry.OnRetry(func(n uint, err error) {
			if !isRetryable(err) || n+1 >= f.retry.attempts() {
				return
			}
			event := "metadata_request_retry"
			if errors.Is(err, services.ErrRateLimited) {
				event = "metadata_rate_limited"
			}
			logging.WarnWithContext(logging.WithContext(ctx, f.logger), "metadata request failed; backing off", event,
				logging.Int("attempt", int(n)+1),
				logging.Int("max_attempts", int(f.retry.attempts())),
				logging.Duration("backoff", f.delay(n, err, nil)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the service will be retried automatically"),
				logging.String(logging.FieldImpact, "lookup delayed"),
			)
		}),
	)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if isRetryable(err) {
		return services.Wrap(services.ErrResolution, f.service, "fetch",
			fmt.Sprintf("gave up after %d attempts", attempt), err)
	}
	return err
}

func (f *Fetcher) delay(n uint, err error, _ *retry.Config) time.Duration {
	wait := f.retry.Backoff(n)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > wait {
		wait = statusErr.RetryAfter
	}
	return wait
}

func (f *Fetcher) once(ctx context.Context, endpoint string, dst any) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return retry.Unrecoverable(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return retry.Unrecoverable(services.Wrap(services.ErrValidation, f.service, "build request", "", err))
	}
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	requestStart := time.Now()
	resp, err := f.client.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return retry.Unrecoverable(ctxErr)
		}
		return services.Wrap(services.ErrTransient, f.service, "execute request",
			fmt.Sprintf("latency=%v", latency), err)
	}
	defer resp.Body.Close()

	f.logger.Debug("metadata request",
		logging.String("url", redactQuery(endpoint)),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", latency),
	)

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return f.statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return services.Wrap(services.ErrTransient, f.service, "decode response", "", err)
	}
	return nil
}

func (f *Fetcher) statusError(resp *http.Response) error {
	statusErr := &StatusError{Service: f.service, StatusCode: resp.StatusCode}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		statusErr.marker = services.ErrRateLimited
		statusErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		return statusErr
	case resp.StatusCode >= 500:
		statusErr.marker = services.ErrTransient
		return statusErr
	case resp.StatusCode == http.StatusNotFound:
		statusErr.marker = services.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		statusErr.marker = services.ErrConfiguration
	default:
		statusErr.marker = services.ErrResolution
	}
	return retry.Unrecoverable(statusErr)
}

func isRetryable(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	return errors.Is(err, services.ErrTransient) || errors.Is(err, services.ErrRateLimited)
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}
	return 0
}

// redactQuery hides the api_key parameter in logged URLs.
func redactQuery(endpoint string) string {
	idx := strings.Index(endpoint, "api_key=")
	if idx < 0 {
		return endpoint
	}
	end := strings.IndexByte(endpoint[idx:], '&')
	if end < 0 {
		return endpoint[:idx] + "api_key=REDACTED"
	}
	return endpoint[:idx] + "api_key=REDACTED" + endpoint[idx+end:]
}
