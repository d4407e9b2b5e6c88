// Package jsonfile is a single-file JSON store for small deployments.
//
// The whole dataset lives in one document of the form
//
//	{"users": [...], "panels": [...], "recyclers": [...]}
//
// Every operation reads the file, changes the in-memory copy and writes it
// back. A mutex serialises those read-modify-write cycles and writes go to a
// temp file that is renamed over the original, so a crash never leaves a
// half-written document behind.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sakif/solarcycle/internal/model"
	"github.com/sakif/solarcycle/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// document is the on-disk layout.
type document struct {
	Users     []userRecord     `json:"users"`
	Panels    []panelRecord    `json:"panels"`
	Recyclers []recyclerRecord `json:"recyclers"`
}

type userRecord struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type panelRecord struct {
	ID               string    `json:"id"`
	User             string    `json:"user"`
	InstallationDate time.Time `json:"installation_date"`
	Brand            string    `json:"brand"`
	CapacityKW       float64   `json:"capacity_kw"`
	Location         string    `json:"location"`
	SerialNumber     string    `json:"serial_number"`
	CreatedAt        time.Time `json:"created_at"`
}

type recyclerRecord struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	ContactNumber string            `json:"contact_number"`
	Email         string            `json:"email"`
	Location      string            `json:"location"`
	ServiceType   model.ServiceType `json:"service_type"`
	Verified      bool              `json:"verified"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Store implements repository.Store on top of one JSON file.
type Store struct {
	path string
	log  *slog.Logger

	mu sync.Mutex
}

// New returns a store backed by path. The file is created with empty
// collections if it does not exist yet.
func New(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{path: path, log: logger}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("jsonfile: creating directory %s: %w", dir, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := s.write(&document{}); err != nil {
			return nil, err
		}
		logger.Info("created data file", slog.String("path", path))
	} else if err != nil {
		return nil, fmt.Errorf("jsonfile: checking %s: %w", path, err)
	}
	return s, nil
}

// Ping checks that the data file is still readable and well-formed.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.read()
	return err
}

// Close is a no-op; nothing is held open between operations.
func (s *Store) Close() error { return nil }

// view runs fn against a fresh copy of the document.
func (s *Store) view(ctx context.Context, fn func(*document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	return fn(doc)
}

// update runs fn and persists the document if fn succeeds and reports a change.
func (s *Store) update(ctx context.Context, fn func(*document) (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	changed, err := fn(doc)
	if err != nil || !changed {
		return err
	}
	return s.write(doc)
}

func (s *Store) read() (*document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: reading %s: %w", s.path, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("jsonfile: decoding %s: %w", s.path, err)
	}
	return &doc, nil
}

func (s *Store) write(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: encoding: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("jsonfile: creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("jsonfile: writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("jsonfile: syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("jsonfile: closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("jsonfile: replacing %s: %w", s.path, err)
	}
	return nil
}
