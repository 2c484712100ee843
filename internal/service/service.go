package service

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ibeloyar/fulfillsync/internal/model"
	"github.com/ibeloyar/fulfillsync/internal/pipeline"
)

const DefaultHistorySize = 20

type LedgerRepo interface {
	SaveRun(ctx context.Context, run model.RunRecord, requests []model.RequestRecord) error
	GetRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
	GetRun(ctx context.Context, id uuid.UUID) (*model.RunRecord, error)
	Ping(ctx context.Context) error
}

// Service keeps the recent run history and serves it to the admin API.
// The ledger is optional, without it only the in-memory history is used.
type Service struct {
	ledger LedgerRepo
	lg     *zap.SugaredLogger

	mu      sync.RWMutex
	history []model.RunDetails // oldest first
	size    int

	trigger chan struct{}
}

func New(ledger LedgerRepo, historySize int, lg *zap.SugaredLogger) *Service {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}

	return &Service{
		ledger:  ledger,
		lg:      lg,
		history: make([]model.RunDetails, 0, historySize),
		size:    historySize,
		trigger: make(chan struct{}, 1),
	}
}

// RecordRun stores the outcome of a finished run in memory and in the ledger.
func (s *Service) RecordRun(ctx context.Context, report *pipeline.Report) error {
	details := report.Details()

	s.mu.Lock()
	if len(s.history) == s.size {
		s.history = append(s.history[:0], s.history[1:]...)
	}
	s.history = append(s.history, details)
	s.mu.Unlock()

	if s.ledger == nil {
		return nil
	}

	return s.ledger.SaveRun(ctx, details.RunRecord, details.Requests)
}

func (s *Service) GetRuns(ctx context.Context, limit string) ([]model.RunRecord, *model.APIError) {
	n, apiErr := validateRunsLimit(limit)
	if apiErr != nil {
		return nil, apiErr
	}

	if s.ledger != nil {
		runs, err := s.ledger.GetRuns(ctx, n)
		if err != nil {
			s.lg.Errorf("getting runs from ledger error: %v", err)
			return nil, &model.APIError{
				Code:    http.StatusInternalServerError,
				Message: model.ErrInternalServerMessage,
			}
		}
		return runs, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, min(n, len(s.history)))
	for i := len(s.history) - 1; i >= 0 && len(runs) < n; i-- {
		runs = append(runs, s.history[i].RunRecord)
	}

	return runs, nil
}

func (s *Service) GetLastRun(_ context.Context) (*model.RunDetails, *model.APIError) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.history) == 0 {
		return nil, &model.APIError{
			Code:    http.StatusNotFound,
			Message: model.ErrRunsNotFoundMessage,
		}
	}

	last := s.history[len(s.history)-1]
	return &last, nil
}

// GetRun looks in memory first, older runs are only known to the ledger.
func (s *Service) GetRun(ctx context.Context, rawID string) (*model.RunDetails, *model.APIError) {
	id, apiErr := validateRunID(rawID)
	if apiErr != nil {
		return nil, apiErr
	}

	s.mu.RLock()
	for i := range s.history {
		if s.history[i].ID == id {
			details := s.history[i]
			s.mu.RUnlock()
			return &details, nil
		}
	}
	s.mu.RUnlock()

	notFound := &model.APIError{
		Code:    http.StatusNotFound,
		Message: model.ErrRunNotFoundMessage,
	}

	if s.ledger == nil {
		return nil, notFound
	}

	run, err := s.ledger.GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrRunNotFound) {
			return nil, notFound
		}
		s.lg.Errorf("getting run %s from ledger error: %v", id, err)
		return nil, &model.APIError{
			Code:    http.StatusInternalServerError,
			Message: model.ErrInternalServerMessage,
		}
	}

	return &model.RunDetails{RunRecord: *run}, nil
}

// TriggerRun queues one manual run. Only one run can be queued at a time.
func (s *Service) TriggerRun() *model.APIError {
	select {
	case s.trigger <- struct{}{}:
		return nil
	default:
		return &model.APIError{
			Code:    http.StatusConflict,
			Message: model.ErrRunAlreadyQueuedMessage,
		}
	}
}

// Triggers delivers manual run requests to the scheduler.
func (s *Service) Triggers() <-chan struct{} {
	return s.trigger
}

func (s *Service) Ping(ctx context.Context) *model.APIError {
	if s.ledger == nil {
		return nil
	}

	if err := s.ledger.Ping(ctx); err != nil {
		s.lg.Errorf("ledger ping error: %v", err)
		return &model.APIError{
			Code:    http.StatusServiceUnavailable,
			Message: model.ErrLedgerUnavailableMessage,
		}
	}

	return nil
}
