// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// HotspotDependencies defines the interface for hotspot ranking reads.
type HotspotDependencies interface {
	Hotspots(ctx context.Context, n int) ([]Entry, error)
	Location(ctx context.Context, cell string) (Entry, error)
}

// HotspotsHandler handles hotspot ranking requests.
type HotspotsHandler struct {
	deps     HotspotDependencies
	maxLimit int
}

// NewHotspotsHandler creates a new hotspots handler.
func NewHotspotsHandler(deps HotspotDependencies, maxLimit int) *HotspotsHandler {
	return &HotspotsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetHotspots handles GET /hotspots?limit=N requests.
func (h *HotspotsHandler) HandleGetHotspots(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_hotspots"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	n, err := parseLimit(op, r, h.maxLimit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	entries, err := h.deps.Hotspots(r.Context(), n)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetLocation handles GET /hotspots/{cell} requests.
func (h *HotspotsHandler) HandleGetLocation(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_hotspot"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	cell, err := cellParam(op, r, "/hotspots/")
	if err != nil {
		writeFailure(w, err)
		return
	}
	entry, err := h.deps.Location(r.Context(), cell)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
