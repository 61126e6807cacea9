package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ExpertsDependencies lists registry entries.
type ExpertsDependencies interface {
	Experts(ctx context.Context, site string) ([]Entry, error)
}

// ExpertsHandler handles registry listing requests.
type ExpertsHandler struct {
	deps ExpertsDependencies
}

// NewExpertsHandler creates a new experts handler.
func NewExpertsHandler(deps ExpertsDependencies) *ExpertsHandler {
	return &ExpertsHandler{deps: deps}
}

// HandleGetExperts handles GET /experts?site=S requests.
func (h *ExpertsHandler) HandleGetExperts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	entries, err := h.deps.Experts(r.Context(), r.URL.Query().Get("site"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// ExpertDependencies looks up one expert id.
type ExpertDependencies interface {
	Expert(ctx context.Context, id int) ([]Entry, error)
}

// ExpertHandler handles single expert requests.
type ExpertHandler struct {
	deps ExpertDependencies
}

// NewExpertHandler creates a new expert handler.
func NewExpertHandler(deps ExpertDependencies) *ExpertHandler {
	return &ExpertHandler{deps: deps}
}

// HandleGetExpert handles GET /experts/{expert_id} requests. The response
// lists every identity recorded under the id.
func (h *ExpertHandler) HandleGetExpert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/experts/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	id, err := strconv.Atoi(path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: expert id %q", ErrBadRequest, path))
		return
	}
	entries, err := h.deps.Expert(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
