package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ibeloyar/fulfillsync/internal/model"
)

const (
	OrdersEndpoint = "/orders"

	DefaultTimeout    = 30 * time.Second
	DefaultSendRate   = 5
	DefaultRetryAfter = 60 * time.Second

	maxResponseSize = 1 << 20
)

// Recorder receives send outcomes. Implemented by metrics.Registry.
type Recorder interface {
	IncProviderRequest(status string)
}

type Config struct {
	BaseURL  string
	Token    string
	DryRun   bool
	SendRate float64 // requests per second, zero means DefaultSendRate
	Timeout  time.Duration
}

// APIError is a provider response with an error status. Body is the decoded
// JSON error document, or nil when the body was not JSON.
type APIError struct {
	OrderNumber string
	StatusCode  int
	Body        json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("failed to create order %s: %d", e.OrderNumber, e.StatusCode)
}

// CreateResult describes a create-order call. In dry-run mode it is simulated.
type CreateResult struct {
	Success          bool                `json:"success"`
	DryRun           bool                `json:"dry_run"`
	OrderNumber      string              `json:"order_number"`
	Status           model.RequestStatus `json:"status"`
	ValidationErrors []string            `json:"validation_errors"`
	Message          string              `json:"message"`
	RequestURL       string              `json:"request_url"`
	ItemsCount       int                 `json:"items_count"`
	Response         json.RawMessage     `json:"response,omitempty"`
}

// SendSummary counts the outcome of ExecuteBatch.
type SendSummary struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type Client struct {
	ordersURL string
	token     string
	dryRun    bool

	client  *http.Client
	limiter *rate.Limiter
	lg      *zap.SugaredLogger
	rec     Recorder

	pauseMu    sync.Mutex
	pauseUntil time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg Config, lg *zap.SugaredLogger, rec Recorder) *Client {
	if cfg.SendRate <= 0 {
		cfg.SendRate = DefaultSendRate
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if rec == nil {
		rec = nopRecorder{}
	}

	return &Client{
		ordersURL: strings.TrimRight(cfg.BaseURL, "/") + OrdersEndpoint,
		token:     cfg.Token,
		dryRun:    cfg.DryRun,
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.SendRate), 1),
		lg:        lg,
		rec:       rec,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

func (c *Client) DryRun() bool {
	return c.dryRun
}

// CreateOrder prepares payload and, outside dry-run mode, sends it.
func (c *Client) CreateOrder(ctx context.Context, payload model.Payload) (*CreateResult, error) {
	req := c.Prepare(payload)

	result := &CreateResult{
		DryRun:           c.dryRun,
		OrderNumber:      req.OrderNumber,
		ValidationErrors: req.ValidationErrors,
		RequestURL:       req.URL,
		ItemsCount:       len(payload.OrderItems),
	}

	if c.dryRun {
		result.Success = req.Status == model.RequestStatusValid
		result.Status = req.Status
		result.Message = "Order would be created (dry-run mode)"
		if !result.Success {
			result.Message = "Order has validation errors: " + strings.Join(req.ValidationErrors, ", ")
		}

		c.lg.Infow("DRY RUN: Would create order",
			"order", req.OrderNumber,
			"items", result.ItemsCount,
			"status", req.Status,
			"validation_errors", req.ValidationErrors,
		)

		return result, nil
	}

	err := c.Execute(ctx, req)
	result.Status = req.Status
	result.Response = req.Response
	if err != nil {
		result.Message = err.Error()
		return result, err
	}

	result.Success = true
	result.Message = "Order created"

	return result, nil
}

// Execute sends a valid prepared request. The request status becomes sent or
// failed and the provider response is stored on it.
func (c *Client) Execute(ctx context.Context, req *model.PreparedRequest) error {
	if c.dryRun {
		return model.ErrDryRun
	}

	switch req.Status {
	case model.RequestStatusValid:
	case model.RequestStatusSent, model.RequestStatusFailed:
		return fmt.Errorf("%w: %s", model.ErrAlreadyHandled, req.OrderNumber)
	default:
		return fmt.Errorf("%w for %s: %s", model.ErrInvalidRequest, req.OrderNumber, strings.Join(req.ValidationErrors, ", "))
	}

	if err := c.waitPause(ctx); err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(req.Payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.lg.Infow("Creating order", "order", req.OrderNumber, "url", req.URL)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		req.Status = model.RequestStatusFailed
		c.rec.IncProviderRequest(string(req.Status))
		c.lg.Errorw("Request error creating order", "order", req.OrderNumber, "error", err)
		return fmt.Errorf("create order %s: %w", req.OrderNumber, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))

	if resp.StatusCode >= http.StatusBadRequest {
		req.Status = model.RequestStatusFailed
		req.Response = jsonOrNil(raw)
		c.rec.IncProviderRequest(string(req.Status))

		if resp.StatusCode == http.StatusTooManyRequests {
			c.pause(getRetryAfter(resp))
		}

		c.lg.Errorw("Provider API error", "order", req.OrderNumber, "status_code", resp.StatusCode, "body", string(raw))

		return &APIError{OrderNumber: req.OrderNumber, StatusCode: resp.StatusCode, Body: req.Response}
	}

	req.Status = model.RequestStatusSent
	req.Response = jsonOrNil(raw)
	c.rec.IncProviderRequest(string(req.Status))

	var created struct {
		ID any `json:"id"`
	}
	_ = json.Unmarshal(raw, &created)
	c.lg.Infow("Order created", "order", req.OrderNumber, "provider_id", created.ID)

	return nil
}

// ExecuteBatch sends every valid request in order. A failed order does not stop
// the batch, a cancelled context does.
func (c *Client) ExecuteBatch(ctx context.Context, requests []*model.PreparedRequest) (SendSummary, error) {
	var summary SendSummary

	for _, req := range requests {
		if !req.Executable() {
			summary.Skipped++
			continue
		}

		err := c.Execute(ctx, req)
		switch {
		case err == nil:
			summary.Sent++
		case ctx.Err() != nil:
			return summary, ctx.Err()
		default:
			summary.Failed++
		}
	}

	c.lg.Infow("Batch sent", "sent", summary.Sent, "failed", summary.Failed, "skipped", summary.Skipped)

	return summary, nil
}

// pause - блокирует отправку до истечения Retry-After
func (c *Client) pause(d time.Duration) {
	c.pauseMu.Lock()
	defer c.pauseMu.Unlock()

	until := c.now().Add(d)
	if until.After(c.pauseUntil) {
		c.pauseUntil = until
	}

	c.lg.Warnw("Rate limited by provider, pausing sends", "retry_after", d.String())
}

func (c *Client) waitPause(ctx context.Context) error {
	c.pauseMu.Lock()
	wait := c.pauseUntil.Sub(c.now())
	c.pauseMu.Unlock()

	if wait <= 0 {
		return nil
	}
	return c.sleep(ctx, wait)
}

func getRetryAfter(resp *http.Response) time.Duration {
	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return DefaultRetryAfter
}

func jsonOrNil(raw []byte) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !json.Valid(raw) {
		return nil
	}
	return json.RawMessage(raw)
}

// IsRateLimited reports whether err is a provider 429.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

type nopRecorder struct{}

func (nopRecorder) IncProviderRequest(string) {}

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
