// Package repository stores hotspot rankings and assessment history.
package repository

import (
	"context"

	"github.com/okian/firewatch/internal/domain/model"
)

// Entry represents a ranked cell.
type Entry struct {
	Rank int
	model.CellScore
}

// Store provides read/write access to the hotspot ranking.
type Store interface {
	// Record replaces the cell's entry with the latest assessment.
	Record(ctx context.Context, score model.CellScore) error

	// Rank returns the current rank and score for a cell.
	// Returns ErrNotFound if the cell is unknown.
	Rank(ctx context.Context, cell string) (Entry, error)

	// TopN returns the top-N entries ordered by probability desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of cells tracked.
	Count(ctx context.Context) int
}

// History is an append-only log of assessments.
type History interface {
	Append(ctx context.Context, a model.Assessment) error

	// ListByCell returns up to limit assessments for cell, newest first.
	ListByCell(ctx context.Context, cell string, limit int) ([]model.Assessment, error)
}
