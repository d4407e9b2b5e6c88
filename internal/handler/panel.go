package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/solarcycle/internal/auth"
	"github.com/sakif/solarcycle/internal/model"
	"github.com/sakif/solarcycle/internal/service"
)

// PanelService is the slice of service.PanelService the handler needs.
type PanelService interface {
	Create(ctx context.Context, ownerID string, in service.CreatePanelInput) (*service.CreatePanelResult, error)
	Dashboard(ctx context.Context, ownerID string) (*service.Dashboard, error)
	Delete(ctx context.Context, ownerID, id string) error
}

var _ PanelService = (*service.PanelService)(nil)

// PanelHandler serves the owner's panels. Every route is behind RequireAuth
// and scoped to the authenticated user.
type PanelHandler struct {
	panels PanelService
	logger *slog.Logger
}

func NewPanelHandler(panels PanelService, logger *slog.Logger) *PanelHandler {
	return &PanelHandler{panels: panels, logger: logger}
}

// createPanelRequest accepts capacity either as a JSON number or a numeric
// string; json.Number keeps the text so the service parses it once.
type createPanelRequest struct {
	InstallationDate string      `json:"installation_date"`
	Brand            string      `json:"brand"`
	CapacityKW       json.Number `json:"capacity_kw"`
	Location         string      `json:"location"`
	SerialNumber     string      `json:"serial_number"`
}

type createPanelResponse struct {
	Panel       model.PanelView `json:"panel"`
	AlertNeeded bool            `json:"alertNeeded"`
	AlertSent   bool            `json:"alertSent"`
}

// HandleDashboard returns the owner's panels with derived fields and the summary.
//
// HTTP: GET /api/dashboard
func (h *PanelHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	d, err := h.panels.Dashboard(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("dashboard failed",
			slog.String("userID", ownerID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// HandleCreate records a panel for the owner.
//
// HTTP: POST /api/panels
// REQUEST BODY: {"installation_date": "2015-03-01", "brand": "SunPower", "capacity_kw": 4.2, "location": "Rooftop"}
//
// The response says whether an expiry alert was due and whether it went out.
// A failed email never fails the request.
func (h *PanelHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req createPanelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.panels.Create(r.Context(), ownerID, service.CreatePanelInput{
		InstallationDate: req.InstallationDate,
		Brand:            req.Brand,
		CapacityKW:       req.CapacityKW.String(),
		Location:         req.Location,
		SerialNumber:     req.SerialNumber,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createPanelResponse{
		Panel:       res.Panel,
		AlertNeeded: res.AlertNeeded,
		AlertSent:   res.AlertSent,
	})
}

// HandleDelete removes one of the owner's panels.
//
// HTTP: DELETE /api/panels/{id}
//
// Deleting an unknown panel, or somebody else's, still answers 204.
func (h *PanelHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if err := h.panels.Delete(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
	}
	return ownerID, ok
}
