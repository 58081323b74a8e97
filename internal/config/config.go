package config

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/DevN0mad/OpenProjectBoard/internal/server"
	"github.com/DevN0mad/OpenProjectBoard/internal/services"
	"github.com/DevN0mad/OpenProjectBoard/internal/storage"
)

// Config представляет конфигурацию приложения.
type Config struct {
	LogLevel    string                   `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	OpenProject services.OpenProjectOpts `mapstructure:"open_project"`
	Board       services.BoardOpts       `mapstructure:"board"`
	TelegramBot services.TelegramOpts    `mapstructure:"telegram_bot"`
	DailyJob    services.DailyJobOpts    `mapstructure:"daily_job"`
	HttpServer  server.AdminServerOpts   `mapstructure:"http_server"`
	Storage     storage.StorageOpts      `mapstructure:"storage"`
}

// SlogLevel уровень логирования из log_level; неизвестное значение дает Info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Manager управляет конфигурацией приложения, обеспечивая загрузку,
// валидацию и перезагрузку при изменении файла.
type Manager struct {
	mu          sync.RWMutex
	cfg         *Config
	logger      *slog.Logger
	v           *viper.Viper
	subscribers []func(Config)
	validate    *validator.Validate
}

// NewManager создает новый менеджер конфигурации, загружая конфигурацию из указанного пути.
func NewManager(path string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:      &cfg,
		logger:   logger,
		v:        v,
		validate: validator.New(),
	}
	err = m.validate.Struct(&cfg)
	if err != nil {
		logger.Error("Validate config", "error", err)
		return nil, fmt.Errorf("validate config: %w", err)
	}

	logger.Info("Config loaded", "path", path)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		logger.Info("Config file changed", "name", e.Name, "op", e.Op.String())
		m.reload()
	})

	return m, nil
}

func (m *Manager) reload() {
	newCfg, err := decode(m.v)
	if err != nil {
		m.logger.Error("Failed to reload config", "error", err)
		return
	}

	if err := m.validate.Struct(&newCfg); err != nil {
		m.logger.Error("Validate reloaded config", "error", err)
		return
	}

	m.mu.Lock()
	m.cfg = &newCfg
	subs := append([]func(Config){}, m.subscribers...)
	m.mu.Unlock()

	m.logger.Info("Config reloaded successfully")

	for _, fn := range subs {
		fn(newCfg)
	}
}

// Current возвращает текущую конфигурацию.
func (m *Manager) Current() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.cfg
}

// OnChange регистрирует функцию обратного вызова, которая будет вызвана при изменении конфигурации.
func (m *Manager) OnChange(fn func(Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// Load читает конфигурацию один раз, без отслеживания изменений. Без пути
// конфигурация собирается из значений по умолчанию и переменных окружения.
// Проверяется только секция open_project.
func Load(path string) (Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return Config{}, err
	}

	if err := validator.New().Struct(&cfg.OpenProject); err != nil {
		return Config{}, fmt.Errorf("validate open_project config: %w", err)
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("log_level", "info")
	v.SetDefault("open_project.timeout_seconds", 30)
	v.SetDefault("open_project.page_size", 100)
	v.SetDefault("open_project.cache_ttl_seconds", 300)
	v.SetDefault("open_project.save_dir", "reports")
	v.SetDefault("board.phase_marker", "Week")
	v.SetDefault("daily_job.hour", 9)
	v.SetDefault("daily_job.minute", 0)
	v.SetDefault("http_server.address", ":8080")
	v.SetDefault("storage.db_path", "data/bot.db")
	return v
}

// decode разбирает конфигурацию viper и применяет переменные окружения поверх файла.
func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
