package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"

	"github.com/sakif/solarcycle/internal/auth"
	"github.com/sakif/solarcycle/internal/clock"
	"github.com/sakif/solarcycle/internal/config"
	"github.com/sakif/solarcycle/internal/notify"
	"github.com/sakif/solarcycle/internal/repository"
	"github.com/sakif/solarcycle/internal/repository/jsonfile"
	"github.com/sakif/solarcycle/internal/repository/sqlite"
	"github.com/sakif/solarcycle/internal/server"
	"github.com/sakif/solarcycle/internal/service"
)

// app is the composition root shared by every command: one store, one
// notifier and the services built on top of them.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  repository.Store
	tokens *auth.TokenService

	auth      *service.AuthService
	panels    *service.PanelService
	directory *service.DirectoryService
	sweep     *service.SweepService
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	a, err := wire(ctx, cfg, logger, store)
	if err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

func wire(ctx context.Context, cfg *config.Config, logger *slog.Logger, store repository.Store) (*app, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	passwords, err := auth.NewPasswordService(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("creating password service: %w", err)
	}
	notifier, err := buildNotifier(ctx, cfg.Mail, logger)
	if err != nil {
		return nil, err
	}

	clk := clock.Real{}
	directory := service.NewDirectoryService(store, logger)
	if err := directory.Seed(ctx); err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		tokens:    tokens,
		auth:      service.NewAuthService(store, tokens, passwords, notifier, logger),
		panels:    service.NewPanelService(store, store, notifier, clk, logger),
		directory: directory,
		sweep:     service.NewSweepService(store, store, notifier, clk, logger, cfg.Sweep.Concurrency),
	}, nil
}

// openStore opens the configured backend. The SQLite store migrates itself
// on open.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (repository.Store, error) {
	switch cfg.Driver {
	case "jsonfile":
		store, err := jsonfile.New(cfg.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("opening json store: %w", err)
		}
		return store, nil
	default:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqlite.New(ctx, cfg.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return db, nil
	}
}

// buildNotifier returns an SMTP mailer when mail is enabled and a logging
// notifier otherwise.
func buildNotifier(ctx context.Context, cfg config.MailConfig, logger *slog.Logger) (notify.Notifier, error) {
	if !cfg.Enabled {
		logger.Warn("mail disabled: notifications are logged only")
		return notify.NewLogNotifier(logger), nil
	}

	render, err := notify.NewRenderer(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("loading email templates: %w", err)
	}

	smtpCfg := notify.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		Auth:     strings.ToLower(cfg.Auth),
		Timeout:  cfg.Timeout,
		OAuth: notify.OAuthConfig{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			RefreshToken: cfg.OAuth.RefreshToken,
			TokenURL:     cfg.OAuth.TokenURL,
		},
	}

	var tokens oauth2.TokenSource
	if smtpCfg.Auth == notify.AuthXOAUTH2 {
		tokens, err = notify.NewTokenSource(ctx, smtpCfg.OAuth)
		if err != nil {
			return nil, err
		}
	}

	mailer, err := notify.NewSMTPMailer(smtpCfg, render, tokens, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("mail enabled",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("auth", smtpCfg.Auth),
	)
	return mailer, nil
}

func (a *app) server() (*server.Server, error) {
	interval := a.cfg.Sweep.Interval
	if !a.cfg.Sweep.Enabled {
		interval = 0
	}

	return server.New(server.Config{
		Port:            a.cfg.Server.Port,
		ReadTimeout:     a.cfg.Server.ReadTimeout,
		WriteTimeout:    a.cfg.Server.WriteTimeout,
		IdleTimeout:     a.cfg.Server.IdleTimeout,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
		SecureCookies:   a.cfg.Server.SecureCookies,
		SweepInterval:   interval,
	}, server.Deps{
		Store:     a.store,
		Tokens:    a.tokens,
		Auth:      a.auth,
		Panels:    a.panels,
		Directory: a.directory,
		Sweep:     a.sweep,
	}, a.logger)
}
