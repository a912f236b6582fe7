// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/firewatch/internal/domain/model"
	"github.com/okian/firewatch/internal/domain/reading"
	"github.com/okian/firewatch/internal/domain/types"
)

// AssessDependencies defines the interface for assessments.
type AssessDependencies interface {
	Assess(ctx context.Context, r reading.Reading) (model.Assessment, error)
}

// AssessHandler handles assessment requests.
type AssessHandler struct {
	deps AssessDependencies
}

// NewAssessHandler creates a new assessment handler.
func NewAssessHandler(deps AssessDependencies) *AssessHandler {
	return &AssessHandler{deps: deps}
}

// HandleAssess handles POST /assess requests. Fields missing from the body
// take their default values. With ?clamp=true out-of-range values are
// clamped to their bounds instead of being rejected.
func (h *AssessHandler) HandleAssess(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_assess"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	in, err := decodeReading(op, w, r)
	if err != nil {
		writeFailure(w, err)
		return
	}

	if raw := r.URL.Query().Get("clamp"); raw != "" {
		clamp, err := strconv.ParseBool(raw)
		if err != nil {
			writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("clamp must be a boolean")))
			return
		}
		if clamp {
			in = in.Clamp()
		}
	}

	a, err := h.deps.Assess(r.Context(), in)
	if err != nil {
		if errors.Is(err, reading.ErrOutOfRange) {
			writeFailure(w, WrapKind(op, ErrBadRequest, err))
			return
		}
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.NewAssessment(a))
}

// HandleDefaults handles GET /assess/defaults requests.
func (h *AssessHandler) HandleDefaults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, reading.Default())
}

func decodeReading(op string, w http.ResponseWriter, r *http.Request) (reading.Reading, error) {
	in := reading.Default()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		if errors.Is(err, io.EOF) {
			return in, nil
		}
		if tooLarge := new(http.MaxBytesError); errors.As(err, &tooLarge) {
			return reading.Reading{}, WrapKind(op, ErrTooLarge, err)
		}
		return reading.Reading{}, WrapKind(op, ErrBadRequest, err)
	}
	if dec.More() {
		return reading.Reading{}, WrapKind(op, ErrBadRequest, errors.New("body must contain a single JSON object"))
	}
	return in, nil
}
