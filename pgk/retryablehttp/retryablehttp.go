package retryablehttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"
)

type RetryConfig struct {
	MaxRetries int           // Retries after the first attempt (default 5)
	BaseDelay  time.Duration // Unit doubled on every retry (default 1s)
	MaxDelay   time.Duration // Cap for a single wait, jitter included (default 60s)
	MaxJitter  time.Duration // Upper bound of the random jitter (default 1s)
	Timeout    time.Duration // Per attempt timeout (default 30s)

	// RetryStatuses overrides which response codes are retried.
	// Nil means 408, 429 and 5xx.
	RetryStatuses []int
}

// Outcome is the classification of a single attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRetry
	OutcomeTerminal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetry:
		return "retry"
	default:
		return "terminal"
	}
}

// RetriesExhaustedError is returned when every attempt ended in a retryable failure.
// StatusCode is the last response code, zero when the last failure was a transport error.
type RetriesExhaustedError struct {
	Attempts   int
	StatusCode int
	Err        error
}

func (e *RetriesExhaustedError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("last attempt (%d) failed: %d %s", e.Attempts, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("last attempt (%d) failed: %v", e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Err }

// Throttled reports whether the budget was spent on rate limit responses.
func (e *RetriesExhaustedError) Throttled() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

type RetryableClient struct {
	client      *http.Client
	retryConfig RetryConfig

	// BeforeAttempt runs before every attempt, retries included.
	BeforeAttempt func(ctx context.Context) error
	// OnRetry is called before sleeping for delay ahead of retry number retry (1-based).
	OnRetry func(retry int, delay time.Duration, statusCode int, err error)

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(max time.Duration) time.Duration
}

func NewRetryableClient(config RetryConfig) *RetryableClient {
	if config.MaxRetries == 0 {
		config.MaxRetries = 5
	}
	if config.BaseDelay == 0 {
		config.BaseDelay = time.Second
	}
	if config.MaxDelay == 0 {
		config.MaxDelay = 60 * time.Second
	}
	if config.MaxJitter == 0 {
		config.MaxJitter = time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &RetryableClient{
		client:      &http.Client{Timeout: config.Timeout},
		retryConfig: config,
		sleep:       sleepContext,
		jitter:      randomJitter,
	}
}

// classify turns the result of one round trip into an Outcome.
func (c *RetryableClient) classify(ctx context.Context, resp *http.Response, err error) Outcome {
	if err != nil {
		// the caller gave up, retrying would only repeat the same error
		if ctx.Err() != nil {
			return OutcomeTerminal
		}
		return OutcomeRetry
	}

	if resp == nil {
		return OutcomeTerminal
	}

	if c.isRetryableStatus(resp.StatusCode) {
		return OutcomeRetry
	}

	return OutcomeSuccess
}

func (c *RetryableClient) isRetryableStatus(statusCode int) bool {
	if c.retryConfig.RetryStatuses != nil {
		for _, code := range c.retryConfig.RetryStatuses {
			if code == statusCode {
				return true
			}
		}
		return false
	}

	return statusCode == 0 || // Unknown failure
		(statusCode >= 500 && statusCode <= 599) ||
		statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusRequestTimeout
}

// Do sends req until it succeeds, fails terminally or the retry budget is spent.
// Responses with a non-retryable status are returned as is, the caller owns the body.
func (c *RetryableClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if c.BeforeAttempt != nil {
			if err := c.BeforeAttempt(ctx); err != nil {
				return nil, err
			}
		}

		if attempt > 0 {
			if err := rewindBody(req); err != nil {
				return nil, err
			}
		}

		resp, err := c.client.Do(req.WithContext(ctx))

		switch c.classify(ctx, resp, err) {
		case OutcomeSuccess:
			return resp, nil
		case OutcomeTerminal:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}

		statusCode := 0
		if resp != nil {
			statusCode = resp.StatusCode
			if resp.Body != nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
		}

		if attempt == c.retryConfig.MaxRetries {
			return nil, &RetriesExhaustedError{
				Attempts:   attempt + 1,
				StatusCode: statusCode,
				Err:        err,
			}
		}

		retry := attempt + 1
		delay := c.backoffDelay(retry)
		if c.OnRetry != nil {
			c.OnRetry(retry, delay, statusCode, err)
		}

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// backoffDelay returns min(MaxDelay, BaseDelay*2^retry + jitter), retry is 1-based.
func (c *RetryableClient) backoffDelay(retry int) time.Duration {
	backoff := time.Duration(1<<uint(retry)) * c.retryConfig.BaseDelay
	if backoff > c.retryConfig.MaxDelay {
		return c.retryConfig.MaxDelay
	}

	delay := backoff + c.jitter(c.retryConfig.MaxJitter)
	if delay > c.retryConfig.MaxDelay {
		delay = c.retryConfig.MaxDelay
	}

	return delay
}

// IsTimeout reports whether err is a transport timeout.
func IsTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func rewindBody(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody {
		return nil
	}
	if req.GetBody == nil {
		return errors.New("request body cannot be replayed")
	}

	body, err := req.GetBody()
	if err != nil {
		return err
	}
	req.Body = body

	return nil
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
