package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/mtr-normalizer/internal/common"
	"github.com/Veraticus/mtr-normalizer/internal/model"
	"github.com/Veraticus/mtr-normalizer/internal/service"
)

// SaveRun stores a run summary and its products in one transaction.
// Saving a run with an existing ID replaces it.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *service.Run, products []*model.Product) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run, products); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to clear run products: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, source_file, started_at, finished_at, total, successful, rejected, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.SourceFile, run.StartedAt, run.FinishedAt, run.Total, run.Successful, run.Rejected, run.Failed)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (
			id, run_id, position, sheet_row, internal_code, original_name, original_unit,
			category_name, category, detection_confidence, specifications, okpd2_code,
			normalized_unit, confidence, status, comment, error_message, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, p := range products {
		specs, err := json.Marshal(p.Specifications)
		if err != nil {
			return fmt.Errorf("failed to marshal specifications: %w", err)
		}

		var processedAt any
		if !p.ProcessedAt.IsZero() {
			processedAt = p.ProcessedAt
		}

		_, err = stmt.ExecContext(ctx,
			p.ID, run.ID, i, p.Row, p.InternalCode, p.OriginalName, p.OriginalUnit,
			p.CategoryName, string(p.Category), p.DetectionConfidence, string(specs), p.OKPD2Code,
			p.NormalizedUnit, p.ConfidenceScore, string(p.Status), p.Comment, p.ErrorMessage, processedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save product %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun returns a run summary or common.ErrNotFound.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*service.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	run, err := scanRun(s.db.QueryRowContext(ctx, `
		SELECT id, source_file, started_at, finished_at, total, successful, rejected, failed
		FROM runs WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit means all.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]service.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_file, started_at, finished_at, total, successful, rejected, failed
		FROM runs ORDER BY started_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []service.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRunProducts returns the products of a run in their original order.
func (s *SQLiteStorage) GetRunProducts(ctx context.Context, runID string) ([]*model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sheet_row, internal_code, original_name, original_unit, category_name,
			category, detection_confidence, specifications, okpd2_code, normalized_unit,
			confidence, status, comment, error_message, processed_at
		FROM products WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var products []*model.Product
	for rows.Next() {
		var (
			p           model.Product
			category    string
			status      string
			specs       string
			processedAt sql.NullTime
		)
		err := rows.Scan(
			&p.ID, &p.Row, &p.InternalCode, &p.OriginalName, &p.OriginalUnit, &p.CategoryName,
			&category, &p.DetectionConfidence, &specs, &p.OKPD2Code, &p.NormalizedUnit,
			&p.ConfidenceScore, &status, &p.Comment, &p.ErrorMessage, &processedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p.Category = model.Category(category)
		p.Status = model.ProcessingStatus(status)
		if processedAt.Valid {
			p.ProcessedAt = processedAt.Time
		}
		if err := json.Unmarshal([]byte(specs), &p.Specifications); err != nil {
			return nil, fmt.Errorf("%w: product %s specifications: %w", common.ErrDatabaseCorrupted, p.ID, err)
		}
		if p.Specifications == nil {
			p.Specifications = make(map[string]string)
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*service.Run, error) {
	var run service.Run
	err := row.Scan(&run.ID, &run.SourceFile, &run.StartedAt, &run.FinishedAt,
		&run.Total, &run.Successful, &run.Rejected, &run.Failed)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
