package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/xid"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/solarcycle/internal/apperror"
	"github.com/sakif/solarcycle/internal/model"
)

var userColumns = []string{"id", "username", "email", "password_hash", "created_at"}

// CreateUser inserts a new account. The username column is UNIQUE, so a
// duplicate surfaces as a constraint error which is mapped to ErrConflict.
func (db *DB) CreateUser(ctx context.Context, u *model.User) error {
	u.ID = xid.New().String()
	u.CreatedAt = time.Now().UTC()

	q := sq.Insert("users").
		Columns(userColumns...).
		Values(u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt)

	if _, err := db.exec(ctx, q); err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", u.Username)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", u.Username, err)
	}
	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, "id", id)
}

// GetUserByUsername is used by login.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, "username", username)
}

func (db *DB) getUser(ctx context.Context, column, value string) (*model.User, error) {
	var u model.User
	q := sq.Select(userColumns...).From("users").Where(sq.Eq{column: value})

	if err := db.getOne(ctx, &u, q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s %s: %w", column, value, err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// ListUsers returns every account, oldest first. The batch sweep walks it.
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	q := sq.Select(userColumns...).From("users").OrderBy("rowid")

	if err := db.selectAll(ctx, &users, q); err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	return users, nil
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
