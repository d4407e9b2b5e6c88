package jsonfile

import (
	"context"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/solarcycle/internal/apperror"
	"github.com/sakif/solarcycle/internal/model"
)

func (s *Store) FindByOwner(ctx context.Context, ownerID string) ([]model.Panel, error) {
	panels := []model.Panel{}
	err := s.view(ctx, func(doc *document) error {
		for _, r := range doc.Panels {
			if r.User == ownerID {
				panels = append(panels, r.toModel())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return panels, nil
}

func (s *Store) Insert(ctx context.Context, p *model.Panel) error {
	p.ID = xid.New().String()
	p.CreatedAt = time.Now().UTC()

	return s.update(ctx, func(doc *document) (bool, error) {
		doc.Panels = append(doc.Panels, panelRecord{
			ID:               p.ID,
			User:             p.OwnerID,
			InstallationDate: p.InstallationDate.UTC(),
			Brand:            p.Brand,
			CapacityKW:       p.CapacityKW,
			Location:         p.Location,
			SerialNumber:     p.SerialNumber,
			CreatedAt:        p.CreatedAt,
		})
		return true, nil
	})
}

func (s *Store) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error {
	return s.update(ctx, func(doc *document) (bool, error) {
		for i, r := range doc.Panels {
			if r.ID == id && r.User == ownerID {
				doc.Panels = append(doc.Panels[:i], doc.Panels[i+1:]...)
				return true, nil
			}
		}
		return false, nil
	})
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	return s.update(ctx, func(doc *document) (bool, error) {
		for _, r := range doc.Users {
			if r.Username == u.Username {
				return false, apperror.Conflict("user", u.Username)
			}
		}
		u.ID = xid.New().String()
		u.CreatedAt = time.Now().UTC()
		doc.Users = append(doc.Users, userRecord{
			ID:           u.ID,
			Username:     u.Username,
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			CreatedAt:    u.CreatedAt,
		})
		return true, nil
	})
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, id, func(r userRecord) bool { return r.ID == id })
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findUser(ctx, username, func(r userRecord) bool { return r.Username == username })
}

func (s *Store) findUser(ctx context.Context, key string, match func(userRecord) bool) (*model.User, error) {
	var found *model.User
	err := s.view(ctx, func(doc *document) error {
		for _, r := range doc.Users {
			if match(r) {
				u := r.toModel()
				found = &u
				return nil
			}
		}
		return apperror.NotFound("user", key)
	})
	return found, err
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	err := s.view(ctx, func(doc *document) error {
		for _, r := range doc.Users {
			users = append(users, r.toModel())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) FindAll(ctx context.Context) ([]model.Recycler, error) {
	recyclers := []model.Recycler{}
	err := s.view(ctx, func(doc *document) error {
		for _, r := range doc.Recyclers {
			recyclers = append(recyclers, r.toModel())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recyclers, nil
}

func (s *Store) SeedIfEmpty(ctx context.Context, seed []model.Recycler) (int, error) {
	var n int
	err := s.update(ctx, func(doc *document) (bool, error) {
		if len(doc.Recyclers) > 0 {
			return false, nil
		}
		now := time.Now().UTC()
		for _, r := range seed {
			doc.Recyclers = append(doc.Recyclers, recyclerRecord{
				ID:            xid.New().String(),
				Name:          r.Name,
				ContactNumber: r.ContactNumber,
				Email:         r.Email,
				Location:      r.Location,
				ServiceType:   r.ServiceType,
				Verified:      r.Verified,
				CreatedAt:     now,
			})
		}
		n = len(seed)
		return n > 0, nil
	})
	return n, err
}

func (r panelRecord) toModel() model.Panel {
	return model.Panel{
		ID:               r.ID,
		OwnerID:          r.User,
		InstallationDate: r.InstallationDate.UTC(),
		Brand:            r.Brand,
		CapacityKW:       r.CapacityKW,
		Location:         r.Location,
		SerialNumber:     r.SerialNumber,
		CreatedAt:        r.CreatedAt.UTC(),
	}
}

func (r userRecord) toModel() model.User {
	return model.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

func (r recyclerRecord) toModel() model.Recycler {
	return model.Recycler{
		ID:            r.ID,
		Name:          r.Name,
		ContactNumber: r.ContactNumber,
		Email:         r.Email,
		Location:      r.Location,
		ServiceType:   r.ServiceType,
		Verified:      r.Verified,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}
