package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/ibeloyar/fulfillsync/internal/fulfillment"
	"github.com/ibeloyar/fulfillsync/internal/metrics"
	"github.com/ibeloyar/fulfillsync/internal/model"
)

// Report is everything one sync run produced.
type Report struct {
	ID         uuid.UUID `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DryRun     bool      `json:"dry_run"`
	Filter     string    `json:"filter"`
	Fetched    int       `json:"fetched"`

	Included []model.RawOrder         `json:"-"`
	Excluded []model.Exclusion        `json:"-"`
	Payloads []model.Payload          `json:"-"`
	Requests []*model.PreparedRequest `json:"-"`
	Summary  model.BatchSummary       `json:"summary"`
	Sent     fulfillment.SendSummary  `json:"sent"`

	Err string `json:"error,omitempty"`
}

func (r *Report) IncludedOrders() []string {
	names := make([]string, 0, len(r.Included))
	for _, o := range r.Included {
		names = append(names, o.Name)
	}
	return names
}

func (r *Report) Exclusions() []model.ExcludedOrder {
	out := make([]model.ExcludedOrder, 0, len(r.Excluded))
	for _, e := range r.Excluded {
		out = append(out, model.ExcludedOrder{OrderNumber: e.Order.Name, Reason: e.Reason})
	}
	return out
}

func (r *Report) Stats() metrics.RunStats {
	return metrics.RunStats{
		Fetched:  r.Fetched,
		Included: len(r.Included),
		Excluded: len(r.Excluded),
		Valid:    r.Summary.ValidOrders,
		Invalid:  r.Summary.InvalidOrders,
		Sent:     r.Sent.Sent,
		Failed:   r.Sent.Failed,
	}
}

// Record strips the report down to its stored outcome.
func (r *Report) Record() model.RunRecord {
	return model.RunRecord{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		DryRun:     r.DryRun,
		Fetched:    r.Fetched,
		Included:   len(r.Included),
		Excluded:   len(r.Excluded),
		Valid:      r.Summary.ValidOrders,
		Invalid:    r.Summary.InvalidOrders,
		Sent:       r.Sent.Sent,
		Failed:     r.Sent.Failed,
		TotalValue: r.Summary.TotalValue,
		Error:      r.Err,
	}
}

func (r *Report) RequestRecords() []model.RequestRecord {
	out := make([]model.RequestRecord, 0, len(r.Requests))
	for _, req := range r.Requests {
		out = append(out, model.RequestRecord{
			RunID:            r.ID,
			OrderNumber:      req.OrderNumber,
			Status:           req.Status,
			ValidationErrors: req.ValidationErrors,
			Response:         req.Response,
			CreatedAt:        req.CreatedAt,
		})
	}
	return out
}

// Details is the admin view of the report, without raw order data.
func (r *Report) Details() model.RunDetails {
	return model.RunDetails{
		RunRecord:      r.Record(),
		Filter:         r.Filter,
		IncludedOrders: r.IncludedOrders(),
		Exclusions:     r.Exclusions(),
		Summary:        r.Summary,
		Requests:       r.RequestRecords(),
	}
}
