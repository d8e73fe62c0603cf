package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/mtr-normalizer/internal/common"
	"github.com/Veraticus/mtr-normalizer/internal/model"
)

// GetResearch returns the cached research for a product name and bumps its
// use count. A miss is common.ErrNotFound.
func (s *SQLiteStorage) GetResearch(ctx context.Context, originalName string) (*model.ResearchOutcome, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(originalName, "originalName"); err != nil {
		return nil, err
	}

	research, err := getResearchTx(ctx, s.db, originalName)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, `
		UPDATE research_cache SET use_count = use_count + 1, last_used = CURRENT_TIMESTAMP
		WHERE original_name = ?
	`, originalName); err != nil {
		return nil, fmt.Errorf("failed to update research use count: %w", err)
	}
	return research, nil
}

func getResearchTx(ctx context.Context, q queryable, originalName string) (*model.ResearchOutcome, error) {
	var (
		research model.ResearchOutcome
		specs    string
		sources  string
	)
	err := q.QueryRowContext(ctx, `
		SELECT manufacturer, model, product_type, specifications, sources, confidence
		FROM research_cache WHERE original_name = ?
	`, originalName).Scan(&research.Manufacturer, &research.Model, &research.ProductType, &specs, &sources, &research.Confidence)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get research: %w", err)
	}

	if err := json.Unmarshal([]byte(specs), &research.Specifications); err != nil {
		return nil, fmt.Errorf("%w: research specifications: %w", common.ErrDatabaseCorrupted, err)
	}
	if err := json.Unmarshal([]byte(sources), &research.Sources); err != nil {
		return nil, fmt.Errorf("%w: research sources: %w", common.ErrDatabaseCorrupted, err)
	}
	return &research, nil
}

// SaveResearch stores or replaces the research for a product name,
// preserving its use count.
func (s *SQLiteStorage) SaveResearch(ctx context.Context, originalName string, category model.Category, research *model.ResearchOutcome) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(originalName, "originalName"); err != nil {
		return err
	}
	if research == nil {
		return fmt.Errorf("%w: research", ErrNilParameter)
	}

	specs := research.Specifications
	if specs == nil {
		specs = map[string]string{}
	}
	specsJSON, err := json.Marshal(specs)
	if err != nil {
		return fmt.Errorf("failed to marshal specifications: %w", err)
	}
	sources := research.Sources
	if sources == nil {
		sources = []string{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO research_cache (original_name, category, manufacturer, model, product_type, specifications, sources, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(original_name) DO UPDATE SET
			category = excluded.category,
			manufacturer = excluded.manufacturer,
			model = excluded.model,
			product_type = excluded.product_type,
			specifications = excluded.specifications,
			sources = excluded.sources,
			confidence = excluded.confidence,
			last_used = CURRENT_TIMESTAMP
	`, originalName, string(category), research.Manufacturer, research.Model, research.ProductType,
		string(specsJSON), string(sourcesJSON), research.Confidence)
	if err != nil {
		return fmt.Errorf("failed to save research: %w", err)
	}
	return nil
}

// ResearchUseCount reports how often cached research was served.
func (s *SQLiteStorage) ResearchUseCount(ctx context.Context, originalName string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT use_count FROM research_cache WHERE original_name = ?`, originalName).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, common.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get use count: %w", err)
	}
	return count, nil
}
