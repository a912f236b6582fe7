// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/firewatch/internal/domain/model"
)

// HistoryDependencies defines the interface for history reads.
type HistoryDependencies interface {
	History(ctx context.Context, cell string, limit int) ([]model.Assessment, error)
	HistoryEnabled() bool
}

// HistoryHandler handles history requests.
type HistoryHandler struct {
	deps     HistoryDependencies
	maxLimit int
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies, maxLimit int) *HistoryHandler {
	return &HistoryHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetHistory handles GET /history/{cell}?limit=N requests.
func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if !h.deps.HistoryEnabled() {
		writeFailure(w, NewKind(op, ErrNotFound))
		return
	}
	cell, err := cellParam(op, r, "/history/")
	if err != nil {
		writeFailure(w, err)
		return
	}
	n, err := parseLimit(op, r, h.maxLimit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	past, err := h.deps.History(r.Context(), cell, n)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, renderAssessments(past))
}
