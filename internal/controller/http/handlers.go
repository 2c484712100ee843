package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ibeloyar/fulfillsync/internal/model"
	"github.com/ibeloyar/fulfillsync/pgk/auth"
)

type Service interface {
	GetRuns(ctx context.Context, limit string) ([]model.RunRecord, *model.APIError)
	GetRun(ctx context.Context, id string) (*model.RunDetails, *model.APIError)
	GetLastRun(ctx context.Context) (*model.RunDetails, *model.APIError)
	TriggerRun() *model.APIError
	Ping(ctx context.Context) *model.APIError
}

type Controller struct {
	service Service
	lg      *zap.SugaredLogger
}

func New(s Service, lg *zap.SugaredLogger) *Controller {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}

	return &Controller{
		lg:      lg,
		service: s,
	}
}

func (c *Controller) Ping(w http.ResponseWriter, r *http.Request) {
	if apiErr := c.service.Ping(r.Context()); apiErr != nil {
		http.Error(w, apiErr.Message, apiErr.Code)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (c *Controller) GetRuns(w http.ResponseWriter, r *http.Request) {
	runs, apiErr := c.service.GetRuns(r.Context(), r.URL.Query().Get("limit"))
	if apiErr != nil {
		http.Error(w, apiErr.Message, apiErr.Code)
		return
	}

	if len(runs) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, c.lg, runs, http.StatusOK)
}

func (c *Controller) GetLastRun(w http.ResponseWriter, r *http.Request) {
	details, apiErr := c.service.GetLastRun(r.Context())
	if apiErr != nil {
		http.Error(w, apiErr.Message, apiErr.Code)
		return
	}

	writeJSON(w, c.lg, details, http.StatusOK)
}

func (c *Controller) GetRun(w http.ResponseWriter, r *http.Request) {
	details, apiErr := c.service.GetRun(r.Context(), chi.URLParam(r, "id"))
	if apiErr != nil {
		http.Error(w, apiErr.Message, apiErr.Code)
		return
	}

	writeJSON(w, c.lg, details, http.StatusOK)
}

// TriggerRun - ставит внеочередной запуск синхронизации в очередь
func (c *Controller) TriggerRun(w http.ResponseWriter, r *http.Request) {
	if apiErr := c.service.TriggerRun(); apiErr != nil {
		http.Error(w, apiErr.Message, apiErr.Code)
		return
	}

	if operator := auth.GetTokenInfo[model.Operator](r); operator != nil {
		c.lg.Infof("manual run queued by %s", operator.Name)
	}

	w.WriteHeader(http.StatusAccepted)
}
