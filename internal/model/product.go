// Package model defines the core domain models used throughout the application.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProcessingStatus tracks where a product is in the normalization pipeline.
type ProcessingStatus string

// Processing status constants.
const (
	StatusPending    ProcessingStatus = "PENDING"
	StatusProcessing ProcessingStatus = "PROCESSING"
	StatusCompleted  ProcessingStatus = "COMPLETED"
	StatusFailed     ProcessingStatus = "FAILED"
	StatusRejected   ProcessingStatus = "REJECTED"
)

// CommentNormalized is written to the comment column of completed products.
const CommentNormalized = "Успешно нормализовано"

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// IsTerminal reports whether no further transitions are possible.
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusRejected
}

// Product is one procurement line item.
type Product struct {
	ProcessedAt         time.Time
	Specifications      map[string]string
	ID                  string
	InternalCode        string
	OriginalName        string
	OriginalUnit        string
	CategoryName        string
	Category            Category
	NormalizedUnit      string
	OKPD2Code           string
	Comment             string
	Status              ProcessingStatus
	ErrorMessage        string
	DetectionConfidence float64
	ConfidenceScore     float64
	Row                 int
}

// NewProduct creates a pending product with a fresh identifier.
func NewProduct(internalCode, name, unit, categoryName string) *Product {
	return &Product{
		ID:             uuid.NewString(),
		InternalCode:   internalCode,
		OriginalName:   name,
		OriginalUnit:   unit,
		CategoryName:   categoryName,
		Category:       CategoryUnknown,
		Specifications: make(map[string]string),
		Status:         StatusPending,
	}
}

// Transition moves the product to the next status.
// Allowed: PENDING→PROCESSING and PROCESSING→{COMPLETED, REJECTED, FAILED}.
func (p *Product) Transition(to ProcessingStatus) error {
	switch {
	case p.Status == StatusPending && to == StatusProcessing:
	case p.Status == StatusProcessing && to.IsTerminal():
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, to)
	}
	p.Status = to
	return nil
}

// Complete marks the product as normalized.
func (p *Product) Complete(code, unit string) error {
	if code == "" || unit == "" {
		return fmt.Errorf("completed product requires okpd2 code and unit (code=%q, unit=%q)", code, unit)
	}
	if err := p.Transition(StatusCompleted); err != nil {
		return err
	}
	p.OKPD2Code = code
	p.NormalizedUnit = unit
	p.Comment = CommentNormalized
	return nil
}

// Reject marks the product as not subject to normalization.
// The issue list is kept in ErrorMessage for the audit trail.
func (p *Product) Reject(reason string, issues []string) error {
	if reason == "" {
		return errors.New("rejected product requires a reason")
	}
	if err := p.Transition(StatusRejected); err != nil {
		return err
	}
	p.Comment = reason
	p.ErrorMessage = strings.Join(issues, "; ")
	return nil
}

// Fail marks the product as failed with the error text captured verbatim.
// A product that is still pending is moved through PROCESSING first.
func (p *Product) Fail(err error) {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	if p.Status == StatusPending {
		p.Status = StatusProcessing
	}
	if p.Status.IsTerminal() {
		return
	}
	p.Status = StatusFailed
	p.ErrorMessage = msg
}

// SetSpecification stores a non-empty specification value.
func (p *Product) SetSpecification(key, value string) {
	if key == "" || value == "" {
		return
	}
	if p.Specifications == nil {
		p.Specifications = make(map[string]string)
	}
	p.Specifications[key] = value
}
