package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

type RequestStatus string

const (
	RequestStatusPending RequestStatus = "pending"
	RequestStatusValid   RequestStatus = "valid"
	RequestStatusInvalid RequestStatus = "invalid"
	RequestStatusSent    RequestStatus = "sent"
	RequestStatusFailed  RequestStatus = "failed"
)

// PreparedRequest is a create-order call that has been built but not necessarily sent.
type PreparedRequest struct {
	OrderNumber      string            `json:"order_number"`
	Method           string            `json:"method"`
	URL              string            `json:"url"`
	Headers          map[string]string `json:"headers"`
	Payload          Payload           `json:"payload"`
	Status           RequestStatus     `json:"status"`
	ValidationErrors []string          `json:"validation_errors"`
	CreatedAt        time.Time         `json:"created_at"`
	Response         json.RawMessage   `json:"response"`
}

type ValidationIssue struct {
	OrderNumber string   `json:"order"`
	Issues      []string `json:"issues"`
}

type BatchSummary struct {
	TotalOrders      int               `json:"total_orders"`
	ValidOrders      int               `json:"valid_orders"`
	InvalidOrders    int               `json:"invalid_orders"`
	TotalItems       int               `json:"total_items"`
	TotalValue       float64           `json:"total_value"`
	Currencies       []string          `json:"currencies"`
	ValidationIssues []ValidationIssue `json:"validation_issues"`
	PreparedAt       time.Time         `json:"prepared_at"`
}

// AddCurrency records a currency once, keeping first-seen order.
func (s *BatchSummary) AddCurrency(currency string) {
	if currency == "" {
		return
	}
	for _, c := range s.Currencies {
		if c == currency {
			return
		}
	}
	s.Currencies = append(s.Currencies, currency)
}

// Exclusion is an order dropped before transformation together with the reason.
type Exclusion struct {
	Order  RawOrder `json:"order"`
	Reason string   `json:"reason"`
}

// Curl renders the request as an equivalent curl command line.
func (r *PreparedRequest) Curl() string {
	keys := make([]string, 0, len(r.Headers))
	for k := range r.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]string, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, fmt.Sprintf(`-H "%s: %s"`, k, r.Headers[k]))
	}

	payload, err := json.Marshal(r.Payload)
	if err != nil {
		payload = []byte("{}")
	}

	return fmt.Sprintf("curl -X %s %s -d '%s' '%s'", r.Method, strings.Join(headers, " "), shellQuoteEscape(string(payload)), shellQuoteEscape(r.URL))
}

// shellQuoteEscape makes s safe inside a single quoted shell word.
func shellQuoteEscape(s string) string {
	return strings.ReplaceAll(s, "'", `'\''`)
}

// Executable reports whether the request passed validation and was not sent yet.
func (r *PreparedRequest) Executable() bool {
	return r.Status == RequestStatusValid
}
