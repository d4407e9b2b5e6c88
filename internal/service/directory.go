package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/solarcycle/internal/directory"
	"github.com/sakif/solarcycle/internal/model"
	"github.com/sakif/solarcycle/internal/repository"
)

// DirectoryService serves the public recycler directory.
type DirectoryService struct {
	recyclers repository.RecyclerRepository
	logger    *slog.Logger
}

func NewDirectoryService(recyclers repository.RecyclerRepository, logger *slog.Logger) *DirectoryService {
	return &DirectoryService{recyclers: recyclers, logger: logger}
}

// List returns verified recyclers matching the optional location and
// service filters. Service types match exactly; a value no recycler offers
// still matches entries that provide both.
func (s *DirectoryService) List(ctx context.Context, location, service string) ([]model.Recycler, error) {
	q := directory.Query{
		Location:    strings.TrimSpace(location),
		ServiceType: model.ServiceType(strings.TrimSpace(service)),
	}

	all, err := s.recyclers.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/directory: listing recyclers: %w", err)
	}
	return directory.Filter(all, q), nil
}

// Seed installs the default directory entries into an empty store.
func (s *DirectoryService) Seed(ctx context.Context) error {
	n, err := s.recyclers.SeedIfEmpty(ctx, model.SeedRecyclers())
	if err != nil {
		return fmt.Errorf("service/directory: seeding recyclers: %w", err)
	}
	if n > 0 {
		s.logger.Info("recycler directory seeded", slog.Int("count", n))
	}
	return nil
}
