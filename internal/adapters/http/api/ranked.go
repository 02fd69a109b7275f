package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/spotrank/internal/adapters/repository"
	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/scoring"
	"github.com/okian/spotrank/internal/domain/types"
)

// MissingCoordinatesMessage is returned when lat or lon is absent or not a number.
const MissingCoordinatesMessage = "Please provide lat and lon query parameters, e.g. /ranked?lat=42.35&lon=-71.11"

// RankedDependencies defines the interface for ranking operations.
type RankedDependencies interface {
	Rank(ctx context.Context, q model.Query) ([]types.Entry, error)
	Explain(ctx context.Context, q model.Query) ([]types.Explained, error)
}

// RankedHandler handles ranking requests.
type RankedHandler struct {
	deps RankedDependencies
}

// NewRankedHandler creates a new ranked handler.
func NewRankedHandler(deps RankedDependencies) *RankedHandler {
	return &RankedHandler{deps: deps}
}

// HandleRanked handles GET /ranked?lat=..&lon=.. requests. The body is a JSON
// array of [record, score] pairs, highest score first.
func (h *RankedHandler) HandleRanked(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ranked"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, ok := parseQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New(MissingCoordinatesMessage))
		return
	}
	entries, err := h.deps.Rank(r.Context(), q)
	if err != nil {
		writeRankingError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleExplain handles GET /ranked/explain?lat=..&lon=.. requests.
func (h *RankedHandler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ranked_explain"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, ok := parseQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request",
			errors.New(strings.Replace(MissingCoordinatesMessage, "/ranked?", "/ranked/explain?", 1)))
		return
	}
	explained, err := h.deps.Explain(r.Context(), q)
	if err != nil {
		writeRankingError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, explained)
}

func parseQuery(r *http.Request) (model.Query, bool) {
	values := r.URL.Query()
	lat, err := strconv.ParseFloat(strings.TrimSpace(values.Get("lat")), 64)
	if err != nil {
		return model.Query{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(values.Get("lon")), 64)
	if err != nil {
		return model.Query{}, false
	}
	return model.Query{Latitude: lat, Longitude: lon}, true
}

func writeRankingError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, scoring.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, repository.ErrNotLoaded):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
