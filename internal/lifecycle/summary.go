package lifecycle

import (
	"time"

	"github.com/sakif/solarcycle/internal/model"
)

// Summary is the dashboard roll-up of one user's panels.
type Summary struct {
	TotalPanels     int     `json:"totalPanels"`
	SafeCount       int     `json:"safeCount"`
	NearExpiryCount int     `json:"nearExpiryCount"`
	ExpiredCount    int     `json:"expiredCount"`
	TotalWasteKg    float64 `json:"totalWaste"`
}

// Summarize counts panels per status and sums their waste. The three counts
// always add up to TotalPanels; an empty slice gives the zero Summary.
func Summarize(panels []model.Panel, now time.Time) Summary {
	var s Summary
	for _, p := range panels {
		s.TotalPanels++
		s.TotalWasteKg += EstimatedWasteKg(p)
		switch Status(p, now) {
		case model.StatusExpired:
			s.ExpiredCount++
		case model.StatusNearExpiry:
			s.NearExpiryCount++
		default:
			s.SafeCount++
		}
	}
	return s
}
