package pg

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

type ErrorClassification int

const (
	NonRetriable ErrorClassification = iota
	Retriable

	ErrIsExistCode = "23505"
)

type PostgresErrorClassifier struct{}

func NewPostgresErrorClassifier() *PostgresErrorClassifier {
	return &PostgresErrorClassifier{}
}

// Classify understands both pgx (*pgconn.PgError) and lib/pq (*pq.Error) errors.
func (c *PostgresErrorClassifier) Classify(err error) ErrorClassification {
	if err == nil {
		return NonRetriable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyCode(pgErr.Code)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyCode(string(pqErr.Code))
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return Retriable
	}

	// По умолчанию считаем ошибку неповторяемой
	return NonRetriable
}

func classifyCode(code string) ErrorClassification {
	// Коды ошибок PostgreSQL: https://www.postgresql.org/docs/current/errcodes-appendix.html

	switch code {
	// Класс 08 - Ошибки соединения
	case "08000", "08001", "08003", "08004", "08006", "08007":
		return Retriable

	// Класс 40 - Откат транзакции
	case "40000", "40001", "40P01":
		return Retriable

	// Класс 57 - Ошибка оператора
	case "57P01", "57P02", "57P03":
		return Retriable

	// Класс 53 - Недостаточно ресурсов
	case "53000", "53300":
		return Retriable
	}

	return NonRetriable
}
