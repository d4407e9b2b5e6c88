// Package alert decides which panels warrant an expiry email and builds the
// payload for it.
//
// Nothing here sends mail. The builders return plain structs that a
// notify.Notifier renders and delivers. Given the same panels and the same
// "now", every function returns the same result.
package alert

import (
	"fmt"
	"math"
	"time"

	"github.com/sakif/solarcycle/internal/lifecycle"
	"github.com/sakif/solarcycle/internal/model"
)

// Eligible reports whether a panel is near expiry or already expired.
func Eligible(p model.Panel, now time.Time) bool {
	switch lifecycle.Status(p, now) {
	case model.StatusNearExpiry, model.StatusExpired:
		return true
	}
	return false
}

// SelectEligible returns the eligible panels in their original order.
func SelectEligible(panels []model.Panel, now time.Time) []model.Panel {
	var out []model.Panel
	for _, p := range panels {
		if Eligible(p, now) {
			out = append(out, p)
		}
	}
	return out
}

// DaysLeft rounds the fractional days until expiry up to a whole number.
// Negative values mean the panel has expired. Because of the rounding, a
// panel less than one day past expiry reports 0 while its status is already
// expired.
func DaysLeft(p model.Panel, now time.Time) int {
	return int(math.Ceil(lifecycle.DaysLeft(p, now)))
}

// StatusText is the per-panel line shown in alerts: "EXPIRED" once past
// expiry, otherwise "N days left". It keys off the rounded days, so the day
// after expiry still reads "0 days left".
func StatusText(daysLeft int) string {
	if daysLeft < 0 {
		return "EXPIRED"
	}
	return fmt.Sprintf("%d days left", daysLeft)
}

// Single is the alert sent when a newly registered panel is already eligible.
type Single struct {
	Recipient        string
	Brand            string
	CapacityKW       float64
	Location         string
	InstallationDate time.Time
	EstimatedWasteKg float64
	Status           model.ExpiryStatus
	StatusLabel      string // "EXPIRED" or "NEAR EXPIRY"
	DaysLeft         int
}

// Expired reports whether the panel in the alert is past expiry.
func (s Single) Expired() bool { return s.Status == model.StatusExpired }

// NewSingle builds the alert for a just-created panel. ok is false when the
// panel is not eligible and nothing should be sent.
func NewSingle(recipient string, p model.Panel, now time.Time) (a Single, ok bool) {
	if !Eligible(p, now) {
		return Single{}, false
	}
	status := lifecycle.Status(p, now)
	return Single{
		Recipient:        recipient,
		Brand:            p.Brand,
		CapacityKW:       p.CapacityKW,
		Location:         p.Location,
		InstallationDate: p.InstallationDate,
		EstimatedWasteKg: lifecycle.EstimatedWasteKg(p),
		Status:           status,
		StatusLabel:      status.Label(),
		DaysLeft:         DaysLeft(p, now),
	}, true
}

// Line is one panel row in a batch alert. Status comes from the exact
// remaining time; DaysLeft and StatusText from the rounded value, so they can
// disagree for the first day after expiry.
type Line struct {
	PanelID    string
	Brand      string
	CapacityKW float64
	Location   string
	DaysLeft   int
	Status     model.ExpiryStatus
	StatusText string
}

// Batch summarises every eligible panel of one user.
type Batch struct {
	Recipient       string
	Username        string
	ExpiredCount    int
	NearExpiryCount int
	TotalWasteKg    float64
	Lines           []Line
}

// PanelCount is the number of panels listed in the batch.
func (b Batch) PanelCount() int { return len(b.Lines) }

// NewBatch builds the periodic summary for one user's panels. Panels that
// are still safe are left out. ok is false when no panel is eligible.
func NewBatch(recipient, username string, panels []model.Panel, now time.Time) (b Batch, ok bool) {
	eligible := SelectEligible(panels, now)
	if len(eligible) == 0 {
		return Batch{}, false
	}

	sum := lifecycle.Summarize(eligible, now)
	b = Batch{
		Recipient:       recipient,
		Username:        username,
		ExpiredCount:    sum.ExpiredCount,
		NearExpiryCount: sum.NearExpiryCount,
		TotalWasteKg:    sum.TotalWasteKg,
		Lines:           make([]Line, 0, len(eligible)),
	}
	for _, p := range eligible {
		days := DaysLeft(p, now)
		b.Lines = append(b.Lines, Line{
			PanelID:    p.ID,
			Brand:      p.Brand,
			CapacityKW: p.CapacityKW,
			Location:   p.Location,
			DaysLeft:   days,
			Status:     lifecycle.Status(p, now),
			StatusText: StatusText(days),
		})
	}
	return b, true
}
