package fulfillment

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ibeloyar/fulfillsync/internal/model"
)

// Validate checks every rule, collects all violations in order and moves the
// request from pending to valid or invalid. Requests past pending keep their
// status and errors.
func Validate(req *model.PreparedRequest) bool {
	if req.Status != model.RequestStatusPending {
		return req.Status == model.RequestStatusValid
	}

	p := req.Payload
	errs := make([]string, 0)

	required := []struct {
		name  string
		value string
	}{
		{"shop_instance_id", p.ShopInstanceID},
		{"order_number", p.OrderNumber},
		{"order_date", p.OrderDate},
	}
	for _, f := range required {
		if f.value == "" {
			errs = append(errs, fmt.Sprintf(model.ErrMissingFieldMessage, f.name))
		}
	}

	if len(p.OrderItems) == 0 {
		errs = append(errs, model.ErrNoOrderItemsMessage)
	}
	for i, item := range p.OrderItems {
		if item.Product.SKU == "" {
			errs = append(errs, fmt.Sprintf(model.ErrItemMissingSKUMessage, i+1))
		}
		if item.Quantity <= 0 {
			errs = append(errs, fmt.Sprintf(model.ErrItemInvalidQuantityMessage, i+1))
		}
	}

	if p.ShippingAddress == nil {
		errs = append(errs, model.ErrMissingShippingMessage)
	}

	if p.ShopInstanceID == model.PlaceholderShopInstanceID {
		errs = append(errs, model.ErrPlaceholderShopIDMessage)
	}

	req.ValidationErrors = errs
	if len(errs) > 0 {
		req.Status = model.RequestStatusInvalid
		return false
	}

	req.Status = model.RequestStatusValid
	return true
}

// Prepare builds and validates the create-order request for payload. Nothing is sent.
// Headers never carry the API token so the request is safe to log and export.
func (c *Client) Prepare(payload model.Payload) *model.PreparedRequest {
	req := &model.PreparedRequest{
		OrderNumber: payload.OrderNumber,
		Method:      http.MethodPost,
		URL:         c.ordersURL,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
		Payload:   payload,
		Status:    model.RequestStatusPending,
		CreatedAt: c.now().UTC(),
	}

	Validate(req)

	c.lg.Debugw("Prepared order request",
		"order", req.OrderNumber,
		"status", req.Status,
		"validation_errors", req.ValidationErrors,
	)

	return req
}

// PrepareBatch prepares every payload in input order and aggregates the results.
func (c *Client) PrepareBatch(payloads []model.Payload) ([]*model.PreparedRequest, model.BatchSummary) {
	requests := make([]*model.PreparedRequest, 0, len(payloads))
	for _, p := range payloads {
		requests = append(requests, c.Prepare(p))
	}

	summary := Summarize(requests, c.now().UTC())

	c.lg.Infow("Prepared batch of orders",
		"total", summary.TotalOrders,
		"valid", summary.ValidOrders,
		"invalid", summary.InvalidOrders,
	)

	return requests, summary
}

func Summarize(requests []*model.PreparedRequest, preparedAt time.Time) model.BatchSummary {
	summary := model.BatchSummary{
		Currencies:       []string{},
		ValidationIssues: []model.ValidationIssue{},
		PreparedAt:       preparedAt,
	}

	total := decimal.Zero
	for _, req := range requests {
		summary.TotalOrders++
		summary.TotalItems += len(req.Payload.OrderItems)
		total = total.Add(decimal.NewFromFloat(req.Payload.OrderTotals.TotalGross))
		summary.AddCurrency(req.Payload.Currency)

		switch req.Status {
		case model.RequestStatusValid:
			summary.ValidOrders++
		case model.RequestStatusInvalid:
			summary.InvalidOrders++
			summary.ValidationIssues = append(summary.ValidationIssues, model.ValidationIssue{
				OrderNumber: req.OrderNumber,
				Issues:      req.ValidationErrors,
			})
		}
	}
	summary.TotalValue = total.InexactFloat64()

	return summary
}
