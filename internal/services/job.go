package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DailyJobOpts параметры необходимые для работы сервиса.
type DailyJobOpts struct {
	Hour   int `yaml:"hour" mapstructure:"hour" validate:"min=0,max=23"`
	Minute int `yaml:"minute" mapstructure:"minute" validate:"min=0,max=59"`
}

// BoardReporter создает файл отчета по доске проекта.
type BoardReporter interface {
	GenerateBoardReport(ctx context.Context, projectID int) (string, error)
}

// FileBroadcaster рассылает файл подписчикам.
type FileBroadcaster interface {
	Broadcast(ctx context.Context, path string) (int, error)
}

// DailyJobService каждый день в заданное время строит отчеты по проектам и рассылает их.
type DailyJobService struct {
	reporter   BoardReporter
	sender     FileBroadcaster
	projectIDs []int
	hour       int
	minute     int
	timezone   *time.Location
	logger     *slog.Logger
}

// NewDailyJobService создаёт сервис для ежедневной рассылки отчетов.
func NewDailyJobService(
	reporter BoardReporter,
	sender FileBroadcaster,
	projectIDs []int,
	opts DailyJobOpts,
	logger *slog.Logger,
) (*DailyJobService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if reporter == nil {
		return nil, fmt.Errorf("report service is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("bot service is required")
	}
	if len(projectIDs) == 0 {
		return nil, fmt.Errorf("at least one project id is required")
	}
	if opts.Hour < 0 || opts.Hour > 23 || opts.Minute < 0 || opts.Minute > 59 {
		return nil, fmt.Errorf("invalid schedule %02d:%02d", opts.Hour, opts.Minute)
	}

	logger.Info("Daily job configured",
		"hour", opts.Hour,
		"minute", opts.Minute,
		"timezone", time.Local.String(),
		"projects", projectIDs)

	return &DailyJobService{
		reporter:   reporter,
		sender:     sender,
		projectIDs: append([]int(nil), projectIDs...),
		hour:       opts.Hour,
		minute:     opts.Minute,
		timezone:   time.Local,
		logger:     logger,
	}, nil
}

// Start запускает цикл отправки.
func (d *DailyJobService) Start(ctx context.Context) {
	nextRun := d.nextRunTime(time.Now())
	timer := time.NewTimer(time.Until(nextRun))
	d.logger.Info("Next run scheduled", "at", nextRun.Format(time.RFC3339))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Shutdown requested")
			timer.Stop()
			return
		case <-timer.C:
			if err := d.RunOnce(ctx); err != nil {
				d.logger.Error("Daily report sending failed", "error", err)
			} else {
				d.logger.Info("Daily report sent successfully")
			}

			nextRun = d.nextRunTime(time.Now())
			timer.Reset(time.Until(nextRun))
			d.logger.Info("Next run scheduled", "at", nextRun.Format(time.RFC3339))
		}
	}
}

// RunOnce строит и рассылает отчет по каждому проекту. Ошибка одного проекта
// не останавливает остальные.
func (d *DailyJobService) RunOnce(ctx context.Context) error {
	var errs []error
	for _, projectID := range d.projectIDs {
		path, err := d.reporter.GenerateBoardReport(ctx, projectID)
		if err != nil {
			errs = append(errs, fmt.Errorf("project %d: %w", projectID, err))
			continue
		}

		sent, err := d.sender.Broadcast(ctx, path)
		if err != nil {
			errs = append(errs, fmt.Errorf("project %d: %w", projectID, err))
		}
		d.logger.Info("Project report delivered", "project_id", projectID, "path", path, "chats", sent)
	}
	return errors.Join(errs...)
}

// nextRunTime вычисляет ближайшее время
func (d *DailyJobService) nextRunTime(now time.Time) time.Time {
	now = now.In(d.timezone)
	today := time.Date(now.Year(), now.Month(), now.Day(), d.hour, d.minute, 0, 0, d.timezone)

	if now.After(today) {
		return today.AddDate(0, 0, 1)
	}
	return today
}
