package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Generation request statuses recorded in the audit log.
const (
	RequestStatusPending   = "pending"
	RequestStatusCompleted = "completed"
	RequestStatusTimeout   = "timeout"
	RequestStatusFailed    = "failed"
)

// RequestRepository is the audit log of outbound generation calls. Rows are
// written for operations visibility only; the funnel never reads them back.
type RequestRepository interface {
	Create(ctx context.Context, telegramID int64, requestID, userAnswer string) error
	SetStatus(ctx context.Context, requestID, status string) error
}

type requestRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewRequestRepository creates a SQL-backed generation request audit log.
func NewRequestRepository(db *sql.DB, log *slog.Logger) RequestRepository {
	if log == nil {
		log = slog.Default()
	}

	return &requestRepository{
		db:  db,
		log: log,
	}
}

func (r *requestRepository) Create(ctx context.Context, telegramID int64, requestID, userAnswer string) error {
	const query = `
		INSERT INTO n8n_requests (telegram_id, request_id, user_answer, status, created_at)
		VALUES ($1, $2, $3, $4, now())`

	if _, err := r.db.ExecContext(ctx, query, telegramID, requestID, userAnswer, RequestStatusPending); err != nil {
		r.log.Error("failed to record generation request",
			slog.String("request_id", requestID),
			slog.Any("error", err))
		return fmt.Errorf("insert generation request: %w", err)
	}

	return nil
}

func (r *requestRepository) SetStatus(ctx context.Context, requestID, status string) error {
	const query = `UPDATE n8n_requests SET status = $2 WHERE request_id = $1`

	if _, err := r.db.ExecContext(ctx, query, requestID, status); err != nil {
		return fmt.Errorf("update generation request status: %w", err)
	}

	return nil
}
