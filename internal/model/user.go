package model

import "time"

// User represents a registered account.
//
// PasswordHash holds the bcrypt output (salt and cost included) and is never
// serialised to JSON; the `json:"-"` tag drops it from every API response.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"` // unique
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
