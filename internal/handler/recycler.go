package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/solarcycle/internal/model"
	"github.com/sakif/solarcycle/internal/service"
)

type DirectoryService interface {
	List(ctx context.Context, location, serviceType string) ([]model.Recycler, error)
}

var _ DirectoryService = (*service.DirectoryService)(nil)

// RecyclerHandler serves the public recycler directory.
type RecyclerHandler struct {
	directory DirectoryService
	logger    *slog.Logger
}

func NewRecyclerHandler(directory DirectoryService, logger *slog.Logger) *RecyclerHandler {
	return &RecyclerHandler{directory: directory, logger: logger}
}

// HandleList returns verified recyclers.
//
// HTTP: GET /api/recyclers?location=york&service=recycling
//
// Both query parameters are optional.
func (h *RecyclerHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	recyclers, err := h.directory.List(r.Context(), q.Get("location"), q.Get("service"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recyclers)
}
