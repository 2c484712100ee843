package service

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/ibeloyar/fulfillsync/internal/model"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// validateRunsLimit - пустой limit означает значение по умолчанию
func validateRunsLimit(raw string) (int, *model.APIError) {
	if raw == "" {
		return defaultRunsLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxRunsLimit {
		return 0, &model.APIError{
			Code:    http.StatusBadRequest,
			Message: model.ErrInvalidLimitMessage,
		}
	}

	return limit, nil
}

func validateRunID(raw string) (uuid.UUID, *model.APIError) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &model.APIError{
			Code:    http.StatusBadRequest,
			Message: model.ErrInvalidRunIDMessage,
		}
	}

	return id, nil
}
