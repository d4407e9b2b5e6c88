package model

import "time"

// ServiceType is what a recycler offers.
type ServiceType string

const (
	ServiceRecycling    ServiceType = "recycling"
	ServiceRefurbishing ServiceType = "refurbishing"
	ServiceBoth         ServiceType = "both"
)

// Recycler is a directory entry for a recycling or refurbishing service.
// Only Verified entries are ever listed publicly.
type Recycler struct {
	ID            string      `json:"id"            db:"id"`
	Name          string      `json:"name"          db:"name"`
	ContactNumber string      `json:"contactNumber" db:"contact_number"`
	Email         string      `json:"email"         db:"email"`
	Location      string      `json:"location"      db:"location"`
	ServiceType   ServiceType `json:"serviceType"   db:"service_type"`
	Verified      bool        `json:"verified"      db:"verified"`
	CreatedAt     time.Time   `json:"createdAt"     db:"created_at"`
}

// SeedRecyclers returns the fixed directory entries installed into an empty
// recycler collection at start-up. IDs and timestamps are assigned by the
// repository.
func SeedRecyclers() []Recycler {
	return []Recycler{
		{
			Name:          "Green Solar Recycling",
			ContactNumber: "+1-555-0101",
			Email:         "contact@greensolar.com",
			Location:      "New York",
			ServiceType:   ServiceBoth,
			Verified:      true,
		},
		{
			Name:          "EcoPanel Solutions",
			ContactNumber: "+1-555-0202",
			Email:         "info@ecopanel.com",
			Location:      "California",
			ServiceType:   ServiceRecycling,
			Verified:      true,
		},
	}
}
