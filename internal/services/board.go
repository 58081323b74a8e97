package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DevN0mad/OpenProjectBoard/internal/board"
	"github.com/DevN0mad/OpenProjectBoard/internal/models"
)

// RecordFetcher источник записей задач проекта.
type RecordFetcher interface {
	FetchRecords(ctx context.Context, projectID int) ([]models.WorkPackageRecord, error)
}

// BoardBuilder строит доску проекта.
type BoardBuilder interface {
	Build(ctx context.Context, projectID int) (*BoardView, error)
}

// BoardOpts параметры раскладки доски из конфигурации.
type BoardOpts struct {
	PhaseMarker     string   `yaml:"phase_marker" mapstructure:"phase_marker"`
	PhaseTypes      []string `yaml:"phase_types" mapstructure:"phase_types"`
	MatchByParentID *bool    `yaml:"match_by_parent_id" mapstructure:"match_by_parent_id"`
}

// Options переводит настройки в параметры раскладки; незаданные поля берутся по умолчанию.
func (o BoardOpts) Options() board.Options {
	opts := board.DefaultOptions()
	if o.PhaseMarker != "" {
		opts.PhaseRule.SubjectMarker = o.PhaseMarker
	}
	if len(o.PhaseTypes) > 0 {
		opts.PhaseRule.Types = append([]string(nil), o.PhaseTypes...)
	}
	if o.MatchByParentID != nil {
		opts.MatchByParentID = *o.MatchByParentID
	}
	return opts
}

// BoardView доска проекта на момент построения.
type BoardView struct {
	ProjectID    int                        `json:"project_id"`
	Organization board.Organization         `json:"organization"`
	Board        board.Board                `json:"board"`
	Summary      []board.PhaseSummary       `json:"summary"`
	GeneratedAt  time.Time                  `json:"generated_at"`
	Records      []models.WorkPackageRecord `json:"-"`
}

// BoardService собирает доску: загрузка задач, раскладка по фазам, колонки.
type BoardService struct {
	fetcher RecordFetcher
	opts    board.Options
	logger  *slog.Logger
	now     func() time.Time
}

// NewBoardService создает сервис доски.
func NewBoardService(fetcher RecordFetcher, opts board.Options, logger *slog.Logger) (*BoardService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if fetcher == nil {
		return nil, fmt.Errorf("record fetcher is required")
	}
	return &BoardService{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Build загружает задачи проекта и строит доску. Ошибка загрузки возвращается
// как есть, частичные данные не раскладываются.
func (s *BoardService) Build(ctx context.Context, projectID int) (*BoardView, error) {
	records, err := s.fetcher.FetchRecords(ctx, projectID)
	if err != nil {
		s.logger.Error("Failed to fetch work packages", "project_id", projectID, "error", err)
		return nil, fmt.Errorf("fetch work packages: %w", err)
	}

	org := board.Organize(records, s.opts)
	view := &BoardView{
		ProjectID:    projectID,
		Organization: org,
		Board:        board.BuildBoard(org),
		Summary:      board.Summarize(org, s.opts.PhaseRule.SubjectMarker),
		GeneratedAt:  s.now().UTC(),
		Records:      records,
	}

	s.logger.Info("Board built",
		"project_id", projectID,
		"total", org.TotalCount,
		"phases", len(org.Phases),
		"standalone", len(org.StandaloneTasks))
	return view, nil
}
