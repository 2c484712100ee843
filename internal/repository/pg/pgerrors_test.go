package pg

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestPostgresErrorClassifier_Classify_Nil(t *testing.T) {
	classifier := NewPostgresErrorClassifier()

	assert.Equal(t, NonRetriable, classifier.Classify(nil))
}

func TestPostgresErrorClassifier_Classify_NonPostgresError(t *testing.T) {
	classifier := NewPostgresErrorClassifier()

	assert.Equal(t, NonRetriable, classifier.Classify(errors.New("custom error")))
}

func TestPostgresErrorClassifier_Classify_Codes(t *testing.T) {
	tests := []struct {
		name  string
		codes []string
		want  ErrorClassification
	}{
		{name: "connection", codes: []string{"08000", "08001", "08003", "08004", "08006", "08007"}, want: Retriable},
		{name: "transaction rollback", codes: []string{"40000", "40001", "40P01"}, want: Retriable},
		{name: "operator intervention", codes: []string{"57P01", "57P03"}, want: Retriable},
		{name: "insufficient resources", codes: []string{"53000", "53300"}, want: Retriable},
		{name: "data", codes: []string{"22000", "22004"}, want: NonRetriable},
		{name: "integrity", codes: []string{"23000", "23502", "23503", ErrIsExistCode, "23514"}, want: NonRetriable},
		{name: "syntax", codes: []string{"42601", "42P01", "42703"}, want: NonRetriable},
		{name: "unknown", codes: []string{"00000", "12345", "ABCDE"}, want: NonRetriable},
	}

	classifier := NewPostgresErrorClassifier()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, code := range tt.codes {
				assert.Equal(t, tt.want, classifier.Classify(&pgconn.PgError{Code: code}), "pgx %s", code)
				assert.Equal(t, tt.want, classifier.Classify(&pq.Error{Code: pq.ErrorCode(code)}), "pq %s", code)
			}
		})
	}
}

func TestPostgresErrorClassifier_Classify_Wrapped(t *testing.T) {
	classifier := NewPostgresErrorClassifier()

	err := fmt.Errorf("insert run: %w", &pgconn.PgError{Code: "40001"})

	assert.Equal(t, Retriable, classifier.Classify(err))
}
