package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"surplus-saver-api/internal/model"
)

// CreateReport inserts a pending report row.
func (s *SQLStore) CreateReport(ctx context.Context, r model.Report) error {
	const query = `
		INSERT INTO reports (id, store_id, status, payload, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.exec(ctx, query, r.ID, r.StoreID, string(r.Status), r.Payload, r.Error, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// GetReport fetches a report by id.
func (s *SQLStore) GetReport(ctx context.Context, id string) (model.Report, error) {
	const query = `
		SELECT id, store_id, status, payload, COALESCE(error, ''), created_at, completed_at
		FROM reports WHERE id = ?`

	return s.scanReport(s.queryRow(ctx, query, id))
}

// GetReportOwned fetches a report only if the store owns it.
func (s *SQLStore) GetReportOwned(ctx context.Context, id string, storeID int64) (model.Report, error) {
	const query = `
		SELECT id, store_id, status, payload, COALESCE(error, ''), created_at, completed_at
		FROM reports WHERE id = ? AND store_id = ?`

	return s.scanReport(s.queryRow(ctx, query, id, storeID))
}

// CompleteReport stores the generated payload and marks the report done.
func (s *SQLStore) CompleteReport(ctx context.Context, id string, payload []byte) error {
	const query = `
		UPDATE reports SET status = 'completed', payload = ?, completed_at = ?
		WHERE id = ?`

	res, err := s.exec(ctx, query, payload, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to complete report: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

// FailReport records a terminal failure after retries are exhausted.
func (s *SQLStore) FailReport(ctx context.Context, id string, errMsg string) error {
	const query = `
		UPDATE reports SET status = 'failed', error = ?, completed_at = ?
		WHERE id = ?`

	res, err := s.exec(ctx, query, errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark report failed: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *SQLStore) scanReport(row *sql.Row) (model.Report, error) {
	var r model.Report
	var status string
	var completedAt sql.NullTime
	err := row.Scan(&r.ID, &r.StoreID, &status, &r.Payload, &r.Error, &r.CreatedAt, &completedAt)
	if err == sql.ErrNoRows {
		return model.Report{}, model.ErrNotFound
	}
	if err != nil {
		return model.Report{}, fmt.Errorf("failed to scan report: %w", err)
	}
	r.Status = model.ReportStatus(status)
	if completedAt.Valid {
		r.CompletedAt = &completedAt.Time
	}
	return r, nil
}
