package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RunRecord is the stored outcome of one sync run. It never holds order data.
type RunRecord struct {
	ID         uuid.UUID `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DryRun     bool      `json:"dry_run"`
	Fetched    int       `json:"fetched"`
	Included   int       `json:"included"`
	Excluded   int       `json:"excluded"`
	Valid      int       `json:"valid"`
	Invalid    int       `json:"invalid"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	TotalValue float64   `json:"total_value"`
	Error      string    `json:"error,omitempty"`
}

func (r RunRecord) Succeeded() bool {
	return r.Error == ""
}

// RequestRecord is the stored outcome of one prepared request.
type RequestRecord struct {
	RunID            uuid.UUID       `json:"run_id"`
	OrderNumber      string          `json:"order_number"`
	Status           RequestStatus   `json:"status"`
	ValidationErrors []string        `json:"validation_errors"`
	Response         json.RawMessage `json:"response,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ExcludedOrder is the order number and reason of one exclusion.
type ExcludedOrder struct {
	OrderNumber string `json:"order"`
	Reason      string `json:"reason"`
}

// RunDetails is the admin view of a run kept in memory.
type RunDetails struct {
	RunRecord
	Filter         string          `json:"filter"`
	IncludedOrders []string        `json:"included_orders"`
	Exclusions     []ExcludedOrder `json:"exclusions"`
	Summary        BatchSummary    `json:"summary"`
	Requests       []RequestRecord `json:"requests"`
}

// Operator is the identity carried by admin API tokens.
type Operator struct {
	Name string `json:"name"`
}
