// Package notify delivers owner notifications: the single expiry alert sent
// when a panel is registered, the batch summary sent by the sweep, and the
// welcome email.
//
// A Notifier never returns an error directly. It reports the outcome in a
// Result so callers can log a failure and carry on; a lost email must not
// undo the request that triggered it.
package notify

import (
	"context"
	"log/slog"

	"github.com/sakif/solarcycle/internal/alert"
)

// Result is the outcome of one delivery attempt.
type Result struct {
	Delivered bool
	Err       error // wraps apperror.ErrDelivery when Delivered is false
}

// Welcome is sent once after registration.
type Welcome struct {
	Recipient string
	Username  string
}

type Notifier interface {
	SendExpiryAlert(ctx context.Context, a alert.Single) Result
	SendBatchExpiryAlert(ctx context.Context, b alert.Batch) Result
	SendWelcome(ctx context.Context, w Welcome) Result
}

// LogNotifier writes notifications to the log instead of sending them. It is
// used when mail is disabled.
type LogNotifier struct {
	log *slog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{log: logger}
}

func (n *LogNotifier) SendExpiryAlert(ctx context.Context, a alert.Single) Result {
	n.log.InfoContext(ctx, "expiry alert (mail disabled)",
		slog.String("to", a.Recipient),
		slog.String("brand", a.Brand),
		slog.String("status", a.StatusLabel),
		slog.Int("days_left", a.DaysLeft),
	)
	return Result{Delivered: true}
}

func (n *LogNotifier) SendBatchExpiryAlert(ctx context.Context, b alert.Batch) Result {
	n.log.InfoContext(ctx, "batch expiry alert (mail disabled)",
		slog.String("to", b.Recipient),
		slog.Int("panels", b.PanelCount()),
		slog.Int("expired", b.ExpiredCount),
		slog.Int("near_expiry", b.NearExpiryCount),
		slog.Float64("total_waste_kg", b.TotalWasteKg),
	)
	return Result{Delivered: true}
}

func (n *LogNotifier) SendWelcome(ctx context.Context, w Welcome) Result {
	n.log.InfoContext(ctx, "welcome email (mail disabled)",
		slog.String("to", w.Recipient),
		slog.String("username", w.Username),
	)
	return Result{Delivered: true}
}
