package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DevN0mad/OpenProjectBoard/internal/config"
	"github.com/DevN0mad/OpenProjectBoard/internal/server"
	"github.com/DevN0mad/OpenProjectBoard/internal/services"
	"github.com/DevN0mad/OpenProjectBoard/internal/storage"
)

// App представляет основное приложение, управляющее сервисами.
type App struct {
	logger  *slog.Logger
	rootCtx context.Context

	mu             sync.Mutex
	tg             *services.TelegramBotService
	opSrv          *services.OpenProjectService
	boards         *services.BoardService
	reports        *services.ReportService
	chats          *storage.ChatStorage
	dailyJob       *services.DailyJobService
	adminSrv       *server.AdminServer
	servicesCancel context.CancelFunc
	// running горутины текущего набора сервисов; хранилище закрывается после их завершения
	running sync.WaitGroup
}

// NewApp создает новый экземпляр приложения с заданным логгером и корневым контекстом.
func NewApp(ctx context.Context, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &App{
		logger:  logger,
		rootCtx: ctx,
	}
}

// ApplyConfig применяет конфигурацию к приложению, инициализируя/переинициализируя сервисы.
func (a *App) ApplyConfig(cfg config.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()

	opSrv, err := services.NewOpenProjectService(cfg.OpenProject, a.logger)
	if err != nil {
		return fmt.Errorf("init open project service: %w", err)
	}

	boards, err := services.NewBoardService(opSrv, cfg.Board.Options(), a.logger)
	if err != nil {
		return fmt.Errorf("init board service: %w", err)
	}

	reports, err := services.NewReportService(boards, services.ReportOpts{SaveDir: cfg.OpenProject.SaveDir}, a.logger)
	if err != nil {
		return fmt.Errorf("init report service: %w", err)
	}

	chats, err := storage.NewChatStorage(cfg.Storage.DBPath, a.logger)
	if err != nil {
		return fmt.Errorf("init chat storage: %w", err)
	}

	tg, err := services.NewTelegramBot(cfg.TelegramBot, chats, boards, a.logger)
	if err != nil {
		_ = chats.Close()
		return fmt.Errorf("init telegram bot: %w", err)
	}

	var dailyJob *services.DailyJobService
	if len(opSrv.ProjectIDs()) > 0 {
		dailyJob, err = services.NewDailyJobService(reports, tg, opSrv.ProjectIDs(), cfg.DailyJob, a.logger)
		if err != nil {
			_ = chats.Close()
			return fmt.Errorf("init daily job: %w", err)
		}
	} else {
		a.logger.Warn("No project ids configured, daily job disabled")
	}

	adminSrv := server.NewAdminServer(&cfg.HttpServer, boards, reports, opSrv, a.logger)

	ctx, cancel := context.WithCancel(a.rootCtx)

	a.goService(func() { a.checkConnection(ctx, opSrv) })
	a.goService(func() { tg.Start(ctx) })
	if dailyJob != nil {
		a.goService(func() { dailyJob.Start(ctx) })
	}
	a.goService(func() {
		if err := adminSrv.Start(ctx); err != nil {
			a.logger.Error("Admin server exited with error", "error", err)
		}
	})

	a.tg = tg
	a.opSrv = opSrv
	a.boards = boards
	a.reports = reports
	a.chats = chats
	a.dailyJob = dailyJob
	a.adminSrv = adminSrv
	a.servicesCancel = cancel

	a.logger.Info("Services reinitialized successfully with configuration")
	return nil
}

// checkConnection проверяет доступность OpenProject при старте; ошибка только логируется.
func (a *App) checkConnection(ctx context.Context, opSrv *services.OpenProjectService) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	root, err := opSrv.TestConnection(ctx)
	if err != nil {
		a.logger.Warn("OpenProject is not reachable", "url", opSrv.BaseURL(), "error", err)
		return
	}
	a.logger.Info("Connected to OpenProject", "instance", root.InstanceName, "version", root.CoreVersion)
}

func (a *App) goService(fn func()) {
	a.running.Add(1)
	go func() {
		defer a.running.Done()
		fn()
	}()
}

// stopLocked отменяет сервисы, ждет их остановки и только затем закрывает хранилище.
func (a *App) stopLocked() {
	if a.servicesCancel != nil {
		a.logger.Info("Stopping previous services")
		a.servicesCancel()
		a.servicesCancel = nil
	}
	a.running.Wait()

	if a.chats != nil {
		if err := a.chats.Close(); err != nil {
			a.logger.Error("Close chat storage", "error", err)
		}
		a.chats = nil
	}
}

// Shutdown останавливает все запущенные сервисы приложения.
func (a *App) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.logger.Info("Stopping services on shutdown")
	a.stopLocked()
}
