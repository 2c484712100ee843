package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ibeloyar/fulfillsync/internal/filter"
	"github.com/ibeloyar/fulfillsync/internal/fulfillment"
	"github.com/ibeloyar/fulfillsync/internal/metrics"
	"github.com/ibeloyar/fulfillsync/internal/model"
	"github.com/ibeloyar/fulfillsync/internal/shopify"
	"github.com/ibeloyar/fulfillsync/internal/transform"
)

// Fetcher yields the raw orders matching a search filter.
type Fetcher interface {
	Orders(ctx context.Context, filter string) iter.Seq2[model.RawOrder, error]
}

// Sender prepares create-order requests and, in live mode, sends them.
type Sender interface {
	DryRun() bool
	PrepareBatch(payloads []model.Payload) ([]*model.PreparedRequest, model.BatchSummary)
	ExecuteBatch(ctx context.Context, requests []*model.PreparedRequest) (fulfillment.SendSummary, error)
}

type Options struct {
	LookbackDays int
	OutputPath   string
}

type Pipeline struct {
	newFetcher  func() Fetcher
	tags        *filter.TagFilter
	transformer *transform.Transformer
	sender      Sender
	opts        Options
	metrics     *metrics.Registry
	lg          *zap.SugaredLogger

	now func() time.Time
}

// New builds a pipeline. newFetcher is called once per run so every run starts
// with a fresh cursor chain and throttle state.
func New(
	newFetcher func() Fetcher,
	tags *filter.TagFilter,
	transformer *transform.Transformer,
	sender Sender,
	opts Options,
	m *metrics.Registry,
	lg *zap.SugaredLogger,
) *Pipeline {
	return &Pipeline{
		newFetcher:  newFetcher,
		tags:        tags,
		transformer: transformer,
		sender:      sender,
		opts:        opts,
		metrics:     m,
		lg:          lg,
		now:         time.Now,
	}
}

// Run executes one sync. The report is returned even when the run fails.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		ID:        uuid.New(),
		StartedAt: p.now().UTC(),
		DryRun:    p.sender.DryRun(),
		Filter:    shopify.BuildOrdersFilter(p.opts.LookbackDays, p.now()),
	}

	err := p.run(ctx, report)

	report.FinishedAt = p.now().UTC()
	outcome := "success"
	if err != nil {
		report.Err = err.Error()
		outcome = "error"
		p.lg.Errorw("Sync run failed", "run", report.ID, "error", err)
	} else {
		p.lg.Infow("Sync run finished",
			"run", report.ID,
			"fetched", report.Fetched,
			"included", len(report.Included),
			"excluded", len(report.Excluded),
			"valid", report.Summary.ValidOrders,
			"invalid", report.Summary.InvalidOrders,
			"sent", report.Sent.Sent,
			"failed", report.Sent.Failed,
		)
	}

	p.metrics.ObserveRun(outcome, report.StartedAt, report.FinishedAt.Sub(report.StartedAt), report.Stats())

	return report, err
}

func (p *Pipeline) run(ctx context.Context, report *Report) error {
	p.lg.Infow("Starting sync run", "run", report.ID, "filter", report.Filter, "dry_run", report.DryRun, "tag_filter", p.tags.String())

	fetcher := p.newFetcher()
	for order, err := range fetcher.Orders(ctx, report.Filter) {
		if err != nil {
			return fmt.Errorf("fetch orders: %w", err)
		}
		report.Fetched++
		p.classify(report, order)
	}

	report.Payloads = p.transformer.TransformBatch(report.Included)
	report.Requests, report.Summary = p.sender.PrepareBatch(report.Payloads)

	for _, req := range report.Requests {
		if req.Status == model.RequestStatusValid {
			p.lg.Debugw("Sample request", "order", req.OrderNumber, "curl", req.Curl())
			break
		}
	}

	if !report.DryRun {
		sent, err := p.sender.ExecuteBatch(ctx, report.Requests)
		report.Sent = sent
		if err != nil {
			return fmt.Errorf("send orders: %w", err)
		}
	}

	if p.opts.OutputPath != "" {
		if err := WriteOutput(p.opts.OutputPath, report); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		p.lg.Infow("Output written", "path", p.opts.OutputPath)
	}

	return nil
}

// classify applies the tag filter and the remaining quantity check.
func (p *Pipeline) classify(report *Report, order model.RawOrder) {
	include, reason := p.tags.ShouldInclude(order.Tags)
	if include && !transform.HasFulfillableItems(order) {
		include, reason = false, model.ReasonNoFulfillableItems
	}

	if !include {
		p.lg.Debugw("Order excluded", "order", order.Name, "reason", reason)
		report.Excluded = append(report.Excluded, model.Exclusion{Order: order, Reason: reason})
		return
	}

	p.lg.Debugw("Order included", "order", order.Name, "reason", reason)
	report.Included = append(report.Included, order)
}

type output struct {
	Summary          model.BatchSummary       `json:"summary"`
	Payloads         []model.Payload          `json:"payloads"`
	PreparedRequests []*model.PreparedRequest `json:"prepared_requests"`
}

// WriteOutput stores the payloads and prepared requests of a run as indented JSON.
func WriteOutput(path string, report *Report) error {
	doc := output{
		Summary:          report.Summary,
		Payloads:         report.Payloads,
		PreparedRequests: report.Requests,
	}
	if doc.Payloads == nil {
		doc.Payloads = []model.Payload{}
	}
	if doc.PreparedRequests == nil {
		doc.PreparedRequests = []*model.PreparedRequest{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
