package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/spotrank/internal/adapters/repository"
	"github.com/okian/spotrank/internal/domain/types"
)

// LocationsDependencies defines the interface for dataset listing.
type LocationsDependencies interface {
	Locations(ctx context.Context) ([]types.Record, error)
}

// LocationsHandler handles dataset listing requests.
type LocationsHandler struct {
	deps LocationsDependencies
}

// NewLocationsHandler creates a new locations handler.
func NewLocationsHandler(deps LocationsDependencies) *LocationsHandler {
	return &LocationsHandler{deps: deps}
}

// HandleLocations handles GET /locations requests.
func (h *LocationsHandler) HandleLocations(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_locations"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	records, err := h.deps.Locations(r.Context())
	if errors.Is(err, repository.ErrNotLoaded) {
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, records)
}
