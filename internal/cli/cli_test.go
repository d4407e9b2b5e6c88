package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/solarcycle/internal/config"
	"github.com/sakif/solarcycle/internal/model"
	"github.com/sakif/solarcycle/internal/notify"
	"github.com/sakif/solarcycle/internal/service"
)

const testSecret = "test-secret-at-least-16-chars!!"

func writeConfig(t *testing.T, dir, driver, dbPath string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	body := "database:\n  driver: " + driver + "\n  path: " + dbPath + "\n" +
		"auth:\n  jwt_secret: \"" + testSecret + "\"\n  bcrypt_cost: 4\n" +
		"logging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "solarcycle", cmd.Use)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "sweep", "migrate"} {
		assert.Contains(t, names, want)
	}
}

func TestMigrateCommand_SQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nested", "solarcycle.db")
	cfgPath := writeConfig(t, dir, "sqlite", dbPath)

	out, err := run(t, "migrate", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")
	assert.FileExists(t, dbPath)

	// Second run finds nothing pending.
	_, err = run(t, "migrate", "--config", cfgPath)
	require.NoError(t, err)
}

func TestMigrateCommand_JSONFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "jsonfile", filepath.Join(dir, "database.json"))

	out, err := run(t, "migrate", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to migrate")
}

func TestSweepCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "database.json")
	cfgPath := writeConfig(t, dir, "jsonfile", dbPath)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	a, err := buildApp(context.Background(), cfg, discardLogger())
	require.NoError(t, err)

	ctx := context.Background()
	reg, err := a.auth.Register(ctx, "alice", "alice@example.com", "s3cret!")
	require.NoError(t, err)
	_, err = a.panels.Create(ctx, reg.User.ID, service.CreatePanelInput{
		InstallationDate: "1990-01-01", Brand: "Acme", CapacityKW: "2", Location: "Roof",
	})
	require.NoError(t, err)
	_, err = a.auth.Register(ctx, "bob", "bob@example.com", "s3cret!")
	require.NoError(t, err)
	require.NoError(t, a.store.Close())

	out, err := run(t, "sweep", "--config", cfgPath)
	require.NoError(t, err)

	var report service.SweepReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Users)
	assert.Equal(t, 1, report.Notified)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)
}

func TestBuildApp_SeedsDirectory(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(writeConfig(t, dir, "sqlite", filepath.Join(dir, "s.db")))
	require.NoError(t, err)

	a, err := buildApp(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	defer a.store.Close()

	recyclers, err := a.directory.List(context.Background(), "", "")
	require.NoError(t, err)
	assert.Len(t, recyclers, len(model.SeedRecyclers()))

	srv, err := a.server()
	require.NoError(t, err)
	assert.NotNil(t, srv.Handler())
}

func TestBuildNotifier(t *testing.T) {
	t.Run("disabled logs only", func(t *testing.T) {
		n, err := buildNotifier(context.Background(), config.MailConfig{}, discardLogger())
		require.NoError(t, err)
		assert.IsType(t, &notify.LogNotifier{}, n)
	})

	t.Run("plain smtp", func(t *testing.T) {
		n, err := buildNotifier(context.Background(), config.MailConfig{
			Enabled: true, Host: "smtp.example.com", Port: 587, From: "alerts@example.com",
			Auth: "PLAIN", Timeout: time.Second, BaseURL: "http://localhost:8080",
		}, discardLogger())
		require.NoError(t, err)
		assert.IsType(t, &notify.SMTPMailer{}, n)
	})

	t.Run("xoauth2 needs credentials", func(t *testing.T) {
		_, err := buildNotifier(context.Background(), config.MailConfig{
			Enabled: true, Host: "smtp.gmail.com", From: "alerts@example.com", Auth: "xoauth2",
		}, discardLogger())
		assert.Error(t, err)
	})

	t.Run("xoauth2", func(t *testing.T) {
		n, err := buildNotifier(context.Background(), config.MailConfig{
			Enabled: true, Host: "smtp.gmail.com", From: "alerts@example.com", Auth: "xoauth2",
			OAuth: config.OAuthConfig{ClientID: "id", ClientSecret: "secret", RefreshToken: "refresh"},
		}, discardLogger())
		require.NoError(t, err)
		assert.IsType(t, &notify.SMTPMailer{}, n)
	})
}
