package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ibeloyar/fulfillsync/internal/model"
	"github.com/ibeloyar/fulfillsync/pgk/retryablehttp"
)

const maxErrorBodySize = 1024

// Recorder receives fetcher telemetry. Implemented by metrics.Registry.
type Recorder interface {
	ObserveThrottle(available, maximum float64)
	ObserveThrottleWait(d time.Duration)
	IncFetchRetry(reason string)
	IncPagesFetched()
}

type Config struct {
	Endpoint           string
	Token              string
	EstimatedQueryCost float64
	Retry              retryablehttp.RetryConfig
}

// Client pages through Admin API orders. Not safe for concurrent use.
type Client struct {
	endpoint      string
	token         string
	estimatedCost float64

	http *retryablehttp.RetryableClient
	lg   *zap.SugaredLogger
	rec  Recorder

	throttle *ThrottleState

	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg Config, lg *zap.SugaredLogger, rec Recorder) *Client {
	if cfg.EstimatedQueryCost <= 0 {
		cfg.EstimatedQueryCost = DefaultEstimatedQueryCost
	}
	// only rate limiting is retried on a response, other statuses are final
	if cfg.Retry.RetryStatuses == nil {
		cfg.Retry.RetryStatuses = []int{http.StatusTooManyRequests}
	}
	if rec == nil {
		rec = nopRecorder{}
	}

	c := &Client{
		endpoint:      cfg.Endpoint,
		token:         cfg.Token,
		estimatedCost: cfg.EstimatedQueryCost,
		http:          retryablehttp.NewRetryableClient(cfg.Retry),
		lg:            lg,
		rec:           rec,
		sleep:         sleepContext,
	}

	c.http.BeforeAttempt = c.waitForBudget
	c.http.OnRetry = c.logRetry

	return c
}

// Throttle returns the last observed bucket state.
func (c *Client) Throttle() (ThrottleState, bool) {
	if c.throttle == nil {
		return ThrottleState{}, false
	}
	return *c.throttle, true
}

// Orders lazily yields every order matching filter, one page at a time.
// The sequence stops after the first error. It cannot be restarted.
func (c *Client) Orders(ctx context.Context, filter string) iter.Seq2[model.RawOrder, error] {
	return func(yield func(model.RawOrder, error) bool) {
		var (
			cursor *string
			pages  int
			total  int
		)

		for {
			page, err := c.fetchPage(ctx, cursor, filter)
			if err != nil {
				yield(model.RawOrder{}, err)
				return
			}
			pages++
			c.rec.IncPagesFetched()

			c.lg.Debugw("Fetched orders page", "page", pages, "orders", len(page.Orders.Edges))

			for _, edge := range page.Orders.Edges {
				total++
				if !yield(edge.Node, nil) {
					return
				}
			}

			info := page.Orders.PageInfo
			if !info.HasNextPage {
				c.lg.Infow("Completed fetching orders", "total", total, "pages", pages)
				return
			}
			if info.EndCursor == "" {
				yield(model.RawOrder{}, ErrMissingCursor)
				return
			}

			next := info.EndCursor
			cursor = &next
		}
	}
}

// FetchOrders collects every unfulfilled paid order of the last lookbackDays.
func (c *Client) FetchOrders(ctx context.Context, lookbackDays int) ([]model.RawOrder, error) {
	filter := BuildOrdersFilter(lookbackDays, time.Now())
	c.lg.Infow("Fetching orders", "filter", filter)

	var orders []model.RawOrder
	for order, err := range c.Orders(ctx, filter) {
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, nil
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type ordersPage struct {
	Orders struct {
		PageInfo pageInfo `json:"pageInfo"`
		Edges    []struct {
			Node model.RawOrder `json:"node"`
		} `json:"edges"`
	} `json:"orders"`
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLResponse struct {
	Data       json.RawMessage `json:"data"`
	Errors     []GraphQLError  `json:"errors"`
	Extensions *struct {
		Cost *costExtension `json:"cost"`
	} `json:"extensions"`
}

func (c *Client) fetchPage(ctx context.Context, cursor *string, filter string) (*ordersPage, error) {
	body, err := json.Marshal(graphQLRequest{
		Query: OrdersQuery,
		Variables: map[string]any{
			"first":  PageSize,
			"cursor": cursor,
			"query":  filter,
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, c.wrapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	var gr graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decode orders response: %w", err)
	}

	if gr.Extensions != nil && gr.Extensions.Cost != nil {
		c.updateThrottle(newThrottleState(gr.Extensions.Cost))
	}

	if len(gr.Errors) > 0 {
		return nil, &APIError{Errors: gr.Errors}
	}

	var page ordersPage
	if len(gr.Data) > 0 && string(gr.Data) != "null" {
		if err := json.Unmarshal(gr.Data, &page); err != nil {
			return nil, fmt.Errorf("decode orders page: %w", err)
		}
	}

	return &page, nil
}

func (c *Client) wrapTransportError(err error) error {
	var exhausted *retryablehttp.RetriesExhaustedError
	if !errors.As(err, &exhausted) {
		return err
	}

	if exhausted.Throttled() {
		c.lg.Errorw("Max retries exceeded due to rate limiting", "attempts", exhausted.Attempts)
		return fmt.Errorf("%w: %w", ErrThrottled, err)
	}

	c.lg.Errorw("Request failed after retries", "attempts", exhausted.Attempts, "error", exhausted.Err)
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

func (c *Client) updateThrottle(s ThrottleState) {
	c.throttle = &s

	c.rec.ObserveThrottle(s.CurrentlyAvailable, s.MaximumAvailable)
	c.lg.Debugw("Query cost", "requested", s.RequestedCost, "actual", s.ActualCost, "available", s.CurrentlyAvailable)
}

// waitForBudget sleeps until the bucket is expected to cover the next query.
func (c *Client) waitForBudget(ctx context.Context) error {
	state, ok := c.Throttle()
	if !ok {
		return nil
	}

	wait := state.WaitTime(c.estimatedCost)
	if wait <= 0 {
		return nil
	}

	c.lg.Infow("Proactive throttle",
		"available", state.CurrentlyAvailable,
		"needed", c.estimatedCost,
		"wait", wait.Round(10*time.Millisecond).String(),
	)
	c.rec.ObserveThrottleWait(wait)

	return c.sleep(ctx, wait)
}

func (c *Client) logRetry(retry int, delay time.Duration, statusCode int, err error) {
	reason := "transport"
	switch {
	case statusCode == http.StatusTooManyRequests:
		reason = "rate_limited"
		c.lg.Warnw("Rate limited by Shopify API, backing off", "retry", retry, "delay", delay.String())
	case retryablehttp.IsTimeout(err):
		reason = "timeout"
		c.lg.Warnw("Request timeout, retrying", "retry", retry, "delay", delay.String())
	default:
		c.lg.Warnw("Request error, retrying", "retry", retry, "delay", delay.String(), "error", err)
	}

	c.rec.IncFetchRetry(reason)
}

type nopRecorder struct{}

func (nopRecorder) ObserveThrottle(float64, float64)  {}
func (nopRecorder) ObserveThrottleWait(time.Duration) {}
func (nopRecorder) IncFetchRetry(string)              {}
func (nopRecorder) IncPagesFetched()                  {}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
