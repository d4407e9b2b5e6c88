package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/solarcycle/internal/alert"
	"github.com/sakif/solarcycle/internal/apperror"
	"github.com/sakif/solarcycle/internal/clock"
	"github.com/sakif/solarcycle/internal/lifecycle"
	"github.com/sakif/solarcycle/internal/model"
	"github.com/sakif/solarcycle/internal/notify"
	"github.com/sakif/solarcycle/internal/repository"
)

// DateLayout is the accepted installation date format.
const DateLayout = "2006-01-02"

const MaxFieldLength = 200

// PanelService records panels and builds the owner's dashboard.
type PanelService struct {
	panels   repository.PanelRepository
	users    repository.UserRepository
	notifier notify.Notifier
	clock    clock.Clock
	logger   *slog.Logger
}

func NewPanelService(
	panels repository.PanelRepository,
	users repository.UserRepository,
	notifier notify.Notifier,
	clk clock.Clock,
	logger *slog.Logger,
) *PanelService {
	return &PanelService{
		panels:   panels,
		users:    users,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
	}
}

// CreatePanelInput is the raw form of a new panel. Capacity and date arrive
// as text and are parsed here so every caller gets the same validation.
type CreatePanelInput struct {
	InstallationDate string
	Brand            string
	CapacityKW       string
	Location         string
	SerialNumber     string
}

// CreatePanelResult reports the stored panel and what happened to the alert.
type CreatePanelResult struct {
	Panel       model.PanelView
	AlertNeeded bool // the panel was already near expiry or expired
	AlertSent   bool
}

// Create validates and stores a panel for ownerID. If the panel is already
// alert-eligible an expiry email is sent; a delivery failure is logged and
// reported in the result but does not fail the call.
func (s *PanelService) Create(ctx context.Context, ownerID string, in CreatePanelInput) (*CreatePanelResult, error) {
	now := s.clock.Now()

	p, err := validatePanel(in, now)
	if err != nil {
		return nil, err
	}
	p.OwnerID = ownerID

	if err := s.panels.Insert(ctx, p); err != nil {
		s.logger.Error("failed to create panel",
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/panel: creating panel: %w", err)
	}

	s.logger.Info("panel created",
		slog.String("id", p.ID),
		slog.String("owner_id", ownerID),
		slog.String("status", string(lifecycle.Status(*p, now))),
	)

	result := &CreatePanelResult{Panel: lifecycle.Derive(*p, now)}
	if !alert.Eligible(*p, now) {
		return result, nil
	}
	result.AlertNeeded = true

	owner, err := s.users.GetUserByID(ctx, ownerID)
	if err != nil {
		s.logger.Warn("expiry alert skipped: owner lookup failed",
			slog.String("panel_id", p.ID),
			slog.String("error", err.Error()),
		)
		return result, nil
	}

	a, _ := alert.NewSingle(owner.Email, *p, now)
	res := s.notifier.SendExpiryAlert(ctx, a)
	if res.Err != nil {
		s.logger.Warn("expiry alert not delivered",
			slog.String("panel_id", p.ID),
			slog.String("error", res.Err.Error()),
		)
	}
	result.AlertSent = res.Delivered
	return result, nil
}

func validatePanel(in CreatePanelInput, now time.Time) (*model.Panel, error) {
	brand := strings.TrimSpace(in.Brand)
	location := strings.TrimSpace(in.Location)
	serial := strings.TrimSpace(in.SerialNumber)

	capacity, err := strconv.ParseFloat(strings.TrimSpace(in.CapacityKW), 64)
	if err != nil {
		return nil, apperror.ValidationFailed("capacity_kw", "capacity must be a number")
	}
	if !(capacity > 0) || math.IsInf(capacity, 0) {
		return nil, apperror.ValidationFailed("capacity_kw", "capacity must be greater than zero")
	}

	installed, err := time.ParseInLocation(DateLayout, strings.TrimSpace(in.InstallationDate), time.UTC)
	if err != nil {
		return nil, apperror.ValidationFailed("installation_date", "installation date must be formatted YYYY-MM-DD")
	}
	if installed.After(now) {
		return nil, apperror.ValidationFailed("installation_date", "installation date cannot be in the future")
	}

	if brand == "" {
		return nil, apperror.ValidationFailed("brand", "brand is required")
	}
	if location == "" {
		return nil, apperror.ValidationFailed("location", "location is required")
	}
	for _, f := range []struct{ name, value string }{
		{"brand", brand}, {"location", location}, {"serial_number", serial},
	} {
		if len(f.value) > MaxFieldLength {
			return nil, apperror.ValidationFailed(f.name,
				fmt.Sprintf("%s must be %d characters or less", f.name, MaxFieldLength))
		}
	}

	return &model.Panel{
		InstallationDate: installed,
		Brand:            brand,
		CapacityKW:       capacity,
		Location:         location,
		SerialNumber:     serial,
	}, nil
}

// Dashboard is the owner's panel list with derived fields and the summary.
type Dashboard struct {
	Panels  []model.PanelView `json:"panels"`
	Summary lifecycle.Summary `json:"summary"`
}

func (s *PanelService) Dashboard(ctx context.Context, ownerID string) (*Dashboard, error) {
	panels, err := s.panels.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service/panel: listing panels: %w", err)
	}

	now := s.clock.Now()
	return &Dashboard{
		Panels:  lifecycle.DeriveAll(panels, now),
		Summary: lifecycle.Summarize(panels, now),
	}, nil
}

// Delete removes one of the owner's panels. Unknown or foreign IDs are ignored.
func (s *PanelService) Delete(ctx context.Context, ownerID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "panel id is required")
	}

	if err := s.panels.DeleteByIDAndOwner(ctx, id, ownerID); err != nil {
		return fmt.Errorf("service/panel: deleting panel %s: %w", id, err)
	}

	s.logger.Info("panel deleted", slog.String("id", id), slog.String("owner_id", ownerID))
	return nil
}
