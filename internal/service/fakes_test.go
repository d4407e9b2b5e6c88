package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/solarcycle/internal/alert"
	"github.com/sakif/solarcycle/internal/apperror"
	"github.com/sakif/solarcycle/internal/model"
	"github.com/sakif/solarcycle/internal/notify"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// Fakes, not a mock framework: each one is a small in-memory store whose
// behaviour is visible right here. Set the *Err fields to simulate failures.

var testNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  []model.User
	nextID int

	createErr error
	getErr    error
	listErr   error
}

func newFakeUserRepo() *fakeUserRepo { return &fakeUserRepo{} }

func (f *fakeUserRepo) CreateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return apperror.Conflict("user", u.Username)
		}
	}
	f.nextID++
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	u.CreatedAt = time.Now()
	f.users = append(f.users, *u)
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	return f.find(func(u model.User) bool { return u.ID == id }, id)
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return f.find(func(u model.User) bool { return u.Username == username }, username)
}

func (f *fakeUserRepo) find(match func(model.User) bool, key string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, apperror.NotFound("user", key)
}

func (f *fakeUserRepo) ListUsers(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.User(nil), f.users...), nil
}

// add stores a user directly, bypassing validation.
func (f *fakeUserRepo) add(username, email string) model.User {
	u := &model.User{Username: username, Email: email}
	f.CreateUser(context.Background(), u)
	return *u
}

type fakePanelRepo struct {
	mu     sync.Mutex
	panels []model.Panel
	nextID int

	insertErr error
	findErr   map[string]error // by owner
	deleteErr error
}

func newFakePanelRepo() *fakePanelRepo { return &fakePanelRepo{findErr: map[string]error{}} }

func (f *fakePanelRepo) FindByOwner(_ context.Context, ownerID string) ([]model.Panel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.findErr[ownerID]; err != nil {
		return nil, err
	}
	out := []model.Panel{}
	for _, p := range f.panels {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePanelRepo) Insert(_ context.Context, p *model.Panel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.nextID++
	p.ID = fmt.Sprintf("panel-%d", f.nextID)
	p.CreatedAt = time.Now()
	f.panels = append(f.panels, *p)
	return nil
}

func (f *fakePanelRepo) DeleteByIDAndOwner(_ context.Context, id, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, p := range f.panels {
		if p.ID == id && p.OwnerID == ownerID {
			f.panels = append(f.panels[:i], f.panels[i+1:]...)
			return nil
		}
	}
	return nil
}

// add stores a panel directly, bypassing validation.
func (f *fakePanelRepo) add(ownerID string, installed time.Time, kw float64) model.Panel {
	p := &model.Panel{OwnerID: ownerID, InstallationDate: installed, Brand: "Acme", CapacityKW: kw, Location: "Roof"}
	f.Insert(context.Background(), p)
	return *p
}

type fakeRecyclerRepo struct {
	recyclers []model.Recycler
	findErr   error
	seedErr   error
}

func (f *fakeRecyclerRepo) FindAll(_ context.Context) ([]model.Recycler, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.recyclers, nil
}

func (f *fakeRecyclerRepo) SeedIfEmpty(_ context.Context, seed []model.Recycler) (int, error) {
	if f.seedErr != nil {
		return 0, f.seedErr
	}
	if len(f.recyclers) > 0 {
		return 0, nil
	}
	for i, r := range seed {
		r.ID = fmt.Sprintf("rec-%d", i+1)
		f.recyclers = append(f.recyclers, r)
	}
	return len(seed), nil
}

// fakeNotifier records every call. Set fail to make deliveries fail.
type fakeNotifier struct {
	mu      sync.Mutex
	singles []alert.Single
	batches []alert.Batch
	welcome []notify.Welcome
	fail    bool
}

func (f *fakeNotifier) result() notify.Result {
	if f.fail {
		return notify.Result{Err: apperror.DeliveryFailed(fmt.Errorf("smtp down"))}
	}
	return notify.Result{Delivered: true}
}

func (f *fakeNotifier) SendExpiryAlert(_ context.Context, a alert.Single) notify.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.singles = append(f.singles, a)
	return f.result()
}

func (f *fakeNotifier) SendBatchExpiryAlert(_ context.Context, b alert.Batch) notify.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, b)
	return f.result()
}

func (f *fakeNotifier) SendWelcome(_ context.Context, w notify.Welcome) notify.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcome = append(f.welcome, w)
	return f.result()
}
