// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. Behaviour that depends on the
// current time lives in the lifecycle package, not on these types, so a Panel
// is a plain value that can be copied and compared freely.
package model

import "time"

// ExpiryStatus classifies where a panel sits in its service life.
type ExpiryStatus string

const (
	StatusSafe       ExpiryStatus = "safe"
	StatusNearExpiry ExpiryStatus = "near_expiry"
	StatusExpired    ExpiryStatus = "expired"
)

// Label returns the upper-case status text used in alerts.
func (s ExpiryStatus) Label() string {
	switch s {
	case StatusExpired:
		return "EXPIRED"
	case StatusNearExpiry:
		return "NEAR EXPIRY"
	default:
		return "SAFE"
	}
}

// Panel is a single solar-panel installation owned by one user.
//
// InstallationDate is a calendar date stored at midnight UTC. ID, OwnerID and
// CreatedAt are set once by the repository on insert and never change.
type Panel struct {
	ID               string    `json:"id"               db:"id"`
	OwnerID          string    `json:"ownerId"          db:"owner_id"`
	InstallationDate time.Time `json:"installationDate" db:"installation_date"`
	Brand            string    `json:"brand"            db:"brand"`
	CapacityKW       float64   `json:"capacityKw"       db:"capacity_kw"`
	Location         string    `json:"location"         db:"location"`
	SerialNumber     string    `json:"serialNumber"     db:"serial_number"` // optional, empty when unknown
	CreatedAt        time.Time `json:"createdAt"        db:"created_at"`
}

// PanelView is a Panel together with the fields derived from it at a given
// moment. It is never stored.
type PanelView struct {
	Panel
	AgeYears             float64      `json:"ageYears"`
	ExpiryDate           time.Time    `json:"expiryDate"`
	DaysLeft             float64      `json:"daysLeft"`
	Status               ExpiryStatus `json:"expiryStatus"`
	RemainingLifePercent float64      `json:"remainingLifePercentage"`
	EstimatedWasteKg     float64      `json:"estimatedWasteKg"`
}
