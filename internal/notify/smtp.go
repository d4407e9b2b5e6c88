package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
	"golang.org/x/oauth2"

	"github.com/sakif/solarcycle/internal/alert"
	"github.com/sakif/solarcycle/internal/apperror"
)

// Supported SMTP authentication modes.
const (
	AuthPlain   = "plain"
	AuthXOAUTH2 = "xoauth2"
)

// SMTPConfig describes the outbound mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string // ignored for xoauth2
	From     string
	Auth     string // AuthPlain or AuthXOAUTH2
	Timeout  time.Duration
	OAuth    OAuthConfig
}

// sender is the part of *mail.Client the mailer uses.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPMailer sends notifications through an SMTP server using go-mail.
type SMTPMailer struct {
	cfg    SMTPConfig
	render *Renderer
	tokens oauth2.TokenSource
	log    *slog.Logger

	// dial builds a client authenticated with secret (password or access token).
	dial func(secret string) (sender, error)
}

var _ Notifier = (*SMTPMailer)(nil)

// NewSMTPMailer validates cfg and prepares a mailer. No connection is made
// until the first message is sent. For xoauth2 the access token is fetched
// from tokens before every send; oauth2 caches it until it expires.
func NewSMTPMailer(cfg SMTPConfig, render *Renderer, tokens oauth2.TokenSource, logger *slog.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("notify: smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("notify: sender address is required")
	}
	switch cfg.Auth {
	case "", AuthPlain:
		cfg.Auth = AuthPlain
	case AuthXOAUTH2:
		if tokens == nil {
			return nil, errors.New("notify: xoauth2 requires a token source")
		}
	default:
		return nil, fmt.Errorf("notify: unknown smtp auth mode %q", cfg.Auth)
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	m := &SMTPMailer{cfg: cfg, render: render, tokens: tokens, log: logger}
	m.dial = m.newClient
	return m, nil
}

func (m *SMTPMailer) newClient(secret string) (sender, error) {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(m.cfg.Timeout),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		authType := mail.SMTPAuthPlain
		if m.cfg.Auth == AuthXOAUTH2 {
			authType = mail.SMTPAuthXOAUTH2
		}
		opts = append(opts,
			mail.WithSMTPAuth(authType),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(secret),
		)
	}
	return mail.NewClient(m.cfg.Host, opts...)
}

func (m *SMTPMailer) SendExpiryAlert(ctx context.Context, a alert.Single) Result {
	msg, err := m.render.ExpiryAlert(a)
	if err != nil {
		return failed(err)
	}
	return m.send(ctx, "expiry_alert", msg)
}

func (m *SMTPMailer) SendBatchExpiryAlert(ctx context.Context, b alert.Batch) Result {
	msg, err := m.render.BatchExpiryAlert(b)
	if err != nil {
		return failed(err)
	}
	return m.send(ctx, "batch_expiry_alert", msg)
}

func (m *SMTPMailer) SendWelcome(ctx context.Context, w Welcome) Result {
	msg, err := m.render.Welcome(w)
	if err != nil {
		return failed(err)
	}
	return m.send(ctx, "welcome", msg)
}

func (m *SMTPMailer) send(ctx context.Context, kind string, msg Message) Result {
	start := time.Now()

	built, err := m.buildMsg(msg)
	if err != nil {
		return failed(err)
	}

	secret := m.cfg.Password
	if m.cfg.Auth == AuthXOAUTH2 {
		tok, err := m.tokens.Token()
		if err != nil {
			return failed(fmt.Errorf("notify: fetching oauth2 token: %w", err))
		}
		secret = tok.AccessToken
	}

	client, err := m.dial(secret)
	if err != nil {
		return failed(fmt.Errorf("notify: creating smtp client: %w", err))
	}
	if err := client.DialAndSendWithContext(ctx, built); err != nil {
		return failed(fmt.Errorf("notify: sending %s: %w", kind, err))
	}

	m.log.InfoContext(ctx, "email sent",
		slog.String("kind", kind),
		slog.String("to", msg.To),
		slog.Duration("duration", time.Since(start)),
	)
	return Result{Delivered: true}
}

func (m *SMTPMailer) buildMsg(msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("notify: invalid sender %q: %w", m.cfg.From, err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("notify: invalid recipient %q: %w", msg.To, err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextPlain, msg.Text)
	out.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	return out, nil
}

func failed(err error) Result {
	return Result{Err: apperror.DeliveryFailed(err)}
}
