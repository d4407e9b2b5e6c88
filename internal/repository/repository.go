// Package repository defines the storage contracts the services depend on.
// internal/repository/sqlite and internal/repository/jsonfile implement them.
package repository

import (
	"context"

	"github.com/sakif/solarcycle/internal/model"
)

// PanelRepository stores panels. Every read and delete is scoped to an owner.
type PanelRepository interface {
	// FindByOwner returns the owner's panels in insertion order.
	FindByOwner(ctx context.Context, ownerID string) ([]model.Panel, error)
	// Insert assigns ID and CreatedAt and stores the panel.
	Insert(ctx context.Context, p *model.Panel) error
	// DeleteByIDAndOwner removes the panel if it exists and belongs to
	// ownerID. A missing or foreign panel is not an error.
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error
}

type UserRepository interface {
	// CreateUser returns apperror.ErrConflict if the username is taken.
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

type RecyclerRepository interface {
	FindAll(ctx context.Context) ([]model.Recycler, error)
	// SeedIfEmpty inserts seed only when no recycler exists yet and reports
	// how many rows were written.
	SeedIfEmpty(ctx context.Context, seed []model.Recycler) (int, error)
}

// Store is everything a storage backend provides to the application.
type Store interface {
	PanelRepository
	UserRepository
	RecyclerRepository
	Ping(ctx context.Context) error
	Close() error
}
