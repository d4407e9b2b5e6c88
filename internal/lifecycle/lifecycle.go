// Package lifecycle computes a panel's end-of-life figures.
//
// Every function here is pure: it takes a model.Panel value and, where the
// answer depends on the date, an explicit "now". Nothing reads the system
// clock or touches storage, so the same inputs always give the same output.
//
// TWO NOTIONS OF A YEAR:
// ExpiryDate advances the installation date by 25 calendar years
// (time.AddDate), so the expiry falls on the same month and day. AgeYears
// divides elapsed time by a fixed 365.25-day year, which keeps the
// remaining-life percentage smooth from day to day. Status is driven only by
// ExpiryDate.
package lifecycle

import (
	"math"
	"time"

	"github.com/sakif/solarcycle/internal/model"
)

const (
	// LifespanYears is the rated service life of a panel.
	LifespanYears = 25
	// NearExpiryDays is the window before expiry in which a panel is flagged.
	NearExpiryDays = 730
	// WasteKgPerKW is the recyclable mass per kW of installed capacity.
	WasteKgPerKW = 75.0
	// DaysPerYear is the average year length used for age.
	DaysPerYear = 365.25
)

const day = 24 * time.Hour

// AgeYears returns the fractional years elapsed since installation.
//
// The result is NOT clamped: a panel whose installation date is after now has
// a negative age. Only RemainingLifePercent applies a floor.
func AgeYears(p model.Panel, now time.Time) float64 {
	return days(now.Sub(p.InstallationDate)) / DaysPerYear
}

// ExpiryDate returns the installation date advanced by LifespanYears calendar
// years. A Feb 29 installation expires on Mar 1 of a non-leap year.
func ExpiryDate(p model.Panel) time.Time {
	return p.InstallationDate.AddDate(LifespanYears, 0, 0)
}

// DaysLeft returns the fractional days from now until expiry. Negative once
// the panel has expired.
func DaysLeft(p model.Panel, now time.Time) float64 {
	return days(ExpiryDate(p).Sub(now))
}

// Status classifies the panel. Every panel falls into exactly one bucket.
func Status(p model.Panel, now time.Time) model.ExpiryStatus {
	left := DaysLeft(p, now)
	switch {
	case left < 0:
		return model.StatusExpired
	case left < NearExpiryDays:
		return model.StatusNearExpiry
	default:
		return model.StatusSafe
	}
}

// RemainingLifePercent returns how much of the rated life is left, floored at
// zero. There is no ceiling: a future installation date yields more than 100.
func RemainingLifePercent(p model.Panel, now time.Time) float64 {
	pct := (LifespanYears - AgeYears(p, now)) / LifespanYears * 100
	return math.Max(0, pct)
}

// EstimatedWasteKg returns the recyclable mass for the panel's capacity.
func EstimatedWasteKg(p model.Panel) float64 {
	return p.CapacityKW * WasteKgPerKW
}

// Derive bundles the panel with all derived fields at now.
func Derive(p model.Panel, now time.Time) model.PanelView {
	return model.PanelView{
		Panel:                p,
		AgeYears:             AgeYears(p, now),
		ExpiryDate:           ExpiryDate(p),
		DaysLeft:             DaysLeft(p, now),
		Status:               Status(p, now),
		RemainingLifePercent: RemainingLifePercent(p, now),
		EstimatedWasteKg:     EstimatedWasteKg(p),
	}
}

// DeriveAll maps Derive over panels, preserving order.
func DeriveAll(panels []model.Panel, now time.Time) []model.PanelView {
	views := make([]model.PanelView, 0, len(panels))
	for _, p := range panels {
		views = append(views, Derive(p, now))
	}
	return views
}

func days(d time.Duration) float64 {
	return float64(d) / float64(day)
}
