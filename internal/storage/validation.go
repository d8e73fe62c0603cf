package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/mtr-normalizer/internal/model"
	"github.com/Veraticus/mtr-normalizer/internal/service"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidRun   = errors.New("invalid run")
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateRun(run *service.Run, products []*model.Product) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if err := validateString(run.ID, "run.ID"); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRun, err)
	}
	if run.Total < 0 || run.Successful < 0 || run.Rejected < 0 || run.Failed < 0 {
		return fmt.Errorf("%w: negative counters", ErrInvalidRun)
	}
	if run.Successful+run.Rejected+run.Failed > run.Total {
		return fmt.Errorf("%w: outcome counters exceed total", ErrInvalidRun)
	}
	for i, p := range products {
		if p == nil {
			return fmt.Errorf("%w: product at index %d", ErrNilParameter, i)
		}
		if err := validateString(p.ID, "product.ID"); err != nil {
			return fmt.Errorf("product at index %d: %w", i, err)
		}
	}
	return nil
}
