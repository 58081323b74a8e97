package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
log_level: debug
open_project:
  base_url: https://op.example.com
  api_token: file-token
  project_ids: [3, 5]
  page_size: 50
board:
  phase_types: [Phase]
  match_by_parent_id: false
telegram_bot:
  token: "123:abc"
  chat_id: -100
  message: Daily board
daily_job:
  hour: 8
  minute: 15
http_server:
  address: ":9090"
storage:
  db_path: /tmp/op/bot.db
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Setenv("OPENPROJECT_URL", "")
	os.Unsetenv("OPENPROJECT_URL")
	t.Setenv("OPENPROJECT_API_KEY", "")
	os.Unsetenv("OPENPROJECT_API_KEY")
	t.Setenv("OPENPROJECT_PROJECT_IDS", "")
	os.Unsetenv("OPENPROJECT_PROJECT_IDS")
}

func TestNewManager_LoadsFileWithDefaults(t *testing.T) {
	clearEnv(t)

	m, err := NewManager(writeConfig(t, sampleConfig), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	cfg := m.Current()
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, "https://op.example.com", cfg.OpenProject.BaseURL)
	assert.Equal(t, []int{3, 5}, cfg.OpenProject.ProjectIDs)
	assert.Equal(t, 50, cfg.OpenProject.PageSize)
	assert.Equal(t, 30, cfg.OpenProject.TimeoutSeconds)
	assert.Equal(t, "reports", cfg.OpenProject.SaveDir)
	assert.Equal(t, "Week", cfg.Board.PhaseMarker)
	require.NotNil(t, cfg.Board.MatchByParentID)
	assert.False(t, *cfg.Board.MatchByParentID)
	assert.Equal(t, int64(-100), cfg.TelegramBot.ChatID)
	assert.Equal(t, 8, cfg.DailyJob.Hour)
	assert.Equal(t, ":9090", cfg.HttpServer.Address)
	assert.Equal(t, "/tmp/op/bot.db", cfg.Storage.DBPath)

	opts := cfg.Board.Options()
	assert.Equal(t, []string{"Phase"}, opts.PhaseRule.Types)
	assert.False(t, opts.MatchByParentID)
}

func TestNewManager_RejectsInvalidConfig(t *testing.T) {
	clearEnv(t)

	_, err := NewManager(writeConfig(t, "open_project:\n  base_url: not a url\n"), nil)
	assert.Error(t, err)
}

func TestNewManager_ReloadNotifiesSubscribers(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, sampleConfig)

	m, err := NewManager(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	var got []Config
	m.OnChange(func(c Config) { got = append(got, c) })

	m.v.Set("daily_job.hour", 11)
	m.reload()

	require.Len(t, got, 1)
	assert.Equal(t, 11, got[0].DailyJob.Hour)
	assert.Equal(t, 11, m.Current().DailyJob.Hour)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("OPENPROJECT_URL", "https://env.example.com")
	t.Setenv("OPENPROJECT_API_KEY", "env-token")
	t.Setenv("OPENPROJECT_PROJECT_IDS", "7,8")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.OpenProject.BaseURL)
	assert.Equal(t, "env-token", cfg.OpenProject.APIToken)
	assert.Equal(t, []int{7, 8}, cfg.OpenProject.ProjectIDs)
	assert.Equal(t, 50, cfg.OpenProject.PageSize)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("OPENPROJECT_URL", "http://localhost:8080")
	t.Setenv("OPENPROJECT_API_KEY", "token")
	os.Unsetenv("OPENPROJECT_PROJECT_IDS")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.OpenProject.BaseURL)
	assert.Equal(t, 100, cfg.OpenProject.PageSize)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_MissingCredentials(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	assert.Error(t, err)
}

func TestNewManager_ReloadKeepsConfigOnInvalidChange(t *testing.T) {
	clearEnv(t)

	m, err := NewManager(writeConfig(t, sampleConfig), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	called := false
	m.OnChange(func(Config) { called = true })

	m.v.Set("daily_job.hour", 30)
	m.reload()

	assert.False(t, called)
	assert.Equal(t, 8, m.Current().DailyJob.Hour)
}
