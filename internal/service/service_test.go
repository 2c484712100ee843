package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ibeloyar/fulfillsync/internal/model"
	"github.com/ibeloyar/fulfillsync/internal/pipeline"

	mockPG "github.com/ibeloyar/fulfillsync/internal/repository/pg/mocks"
)

func newReport(fetched int) *pipeline.Report {
	started := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	return &pipeline.Report{
		ID:         uuid.New(),
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
		DryRun:     true,
		Fetched:    fetched,
		Requests: []*model.PreparedRequest{
			{OrderNumber: "#1", Status: model.RequestStatusValid, ValidationErrors: []string{}},
		},
		Summary: model.BatchSummary{TotalOrders: 1, ValidOrders: 1},
	}
}

func TestService_RecordRun_MemoryOnly(t *testing.T) {
	svc := New(nil, 3, zap.NewNop().Sugar())

	var last *pipeline.Report
	for i := 1; i <= 5; i++ {
		last = newReport(i)
		require.NoError(t, svc.RecordRun(context.Background(), last))
	}

	runs, apiErr := svc.GetRuns(context.Background(), "")
	require.Nil(t, apiErr)
	require.Len(t, runs, 3)
	assert.Equal(t, 5, runs[0].Fetched)
	assert.Equal(t, 3, runs[2].Fetched)

	runs, apiErr = svc.GetRuns(context.Background(), "2")
	require.Nil(t, apiErr)
	assert.Len(t, runs, 2)

	details, apiErr := svc.GetLastRun(context.Background())
	require.Nil(t, apiErr)
	assert.Equal(t, last.ID, details.ID)
	require.Len(t, details.Requests, 1)
	assert.Equal(t, "#1", details.Requests[0].OrderNumber)

	byID, apiErr := svc.GetRun(context.Background(), last.ID.String())
	require.Nil(t, apiErr)
	assert.Equal(t, 5, byID.Fetched)
}

func TestService_RecordRun_Ledger(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mockPG.NewMockLedgerRepo(ctrl)
	svc := New(mockLedger, 0, zap.NewNop().Sugar())

	report := newReport(4)

	mockLedger.EXPECT().
		SaveRun(gomock.Any(), report.Record(), report.RequestRecords()).
		Return(nil).
		Times(1)

	require.NoError(t, svc.RecordRun(context.Background(), report))
}

func TestService_RecordRun_LedgerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mockPG.NewMockLedgerRepo(ctrl)
	svc := New(mockLedger, 0, zap.NewNop().Sugar())

	mockLedger.EXPECT().
		SaveRun(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("connection refused"))

	err := svc.RecordRun(context.Background(), newReport(1))
	require.Error(t, err)

	// memory history is kept even when the ledger fails
	_, apiErr := svc.GetLastRun(context.Background())
	assert.Nil(t, apiErr)
}

func TestService_GetRuns_FromLedger(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mockPG.NewMockLedgerRepo(ctrl)
	svc := New(mockLedger, 0, zap.NewNop().Sugar())

	want := []model.RunRecord{{ID: uuid.New(), Fetched: 7}}
	mockLedger.EXPECT().GetRuns(gomock.Any(), 20).Return(want, nil)

	runs, apiErr := svc.GetRuns(context.Background(), "")
	require.Nil(t, apiErr)
	assert.Equal(t, want, runs)
}

func TestService_GetRuns_LedgerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mockPG.NewMockLedgerRepo(ctrl)
	svc := New(mockLedger, 0, zap.NewNop().Sugar())

	mockLedger.EXPECT().GetRuns(gomock.Any(), 5).Return(nil, errors.New("db down"))

	runs, apiErr := svc.GetRuns(context.Background(), "5")
	assert.Nil(t, runs)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Code)
	assert.Equal(t, model.ErrInternalServerMessage, apiErr.Message)
}

func TestService_GetRuns_InvalidLimit(t *testing.T) {
	svc := New(nil, 0, zap.NewNop().Sugar())

	for _, limit := range []string{"abc", "0", "101", "-1"} {
		t.Run(limit, func(t *testing.T) {
			_, apiErr := svc.GetRuns(context.Background(), limit)
			require.NotNil(t, apiErr)
			assert.Equal(t, http.StatusBadRequest, apiErr.Code)
			assert.Equal(t, model.ErrInvalidLimitMessage, apiErr.Message)
		})
	}
}

func TestService_GetLastRun_Empty(t *testing.T) {
	svc := New(nil, 0, zap.NewNop().Sugar())

	details, apiErr := svc.GetLastRun(context.Background())
	assert.Nil(t, details)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Code)
	assert.Equal(t, model.ErrRunsNotFoundMessage, apiErr.Message)
}

func TestService_GetRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mockPG.NewMockLedgerRepo(ctrl)
	svc := New(mockLedger, 0, zap.NewNop().Sugar())

	stored := uuid.New()
	missing := uuid.New()
	broken := uuid.New()

	mockLedger.EXPECT().GetRun(gomock.Any(), stored).Return(&model.RunRecord{ID: stored, Sent: 2}, nil)
	mockLedger.EXPECT().GetRun(gomock.Any(), missing).Return(nil, model.ErrRunNotFound)
	mockLedger.EXPECT().GetRun(gomock.Any(), broken).Return(nil, errors.New("timeout"))

	details, apiErr := svc.GetRun(context.Background(), stored.String())
	require.Nil(t, apiErr)
	assert.Equal(t, 2, details.Sent)

	_, apiErr = svc.GetRun(context.Background(), missing.String())
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Code)

	_, apiErr = svc.GetRun(context.Background(), broken.String())
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Code)

	_, apiErr = svc.GetRun(context.Background(), "not-a-uuid")
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Code)
	assert.Equal(t, model.ErrInvalidRunIDMessage, apiErr.Message)
}

func TestService_GetRun_NoLedger(t *testing.T) {
	svc := New(nil, 0, zap.NewNop().Sugar())

	_, apiErr := svc.GetRun(context.Background(), uuid.NewString())
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Code)
	assert.Equal(t, model.ErrRunNotFoundMessage, apiErr.Message)
}

func TestService_TriggerRun(t *testing.T) {
	svc := New(nil, 0, zap.NewNop().Sugar())

	assert.Nil(t, svc.TriggerRun())

	apiErr := svc.TriggerRun()
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Code)

	select {
	case <-svc.Triggers():
	default:
		t.Fatal("expected a queued trigger")
	}

	assert.Nil(t, svc.TriggerRun())
}

func TestService_Ping(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	assert.Nil(t, New(nil, 0, zap.NewNop().Sugar()).Ping(context.Background()))

	mockLedger := mockPG.NewMockLedgerRepo(ctrl)
	svc := New(mockLedger, 0, zap.NewNop().Sugar())

	mockLedger.EXPECT().Ping(gomock.Any()).Return(nil)
	assert.Nil(t, svc.Ping(context.Background()))

	mockLedger.EXPECT().Ping(gomock.Any()).Return(errors.New("down"))
	apiErr := svc.Ping(context.Background())
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Code)
}
