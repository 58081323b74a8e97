package services

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/DevN0mad/OpenProjectBoard/internal/board"
	"github.com/DevN0mad/OpenProjectBoard/internal/models"
)

const (
	SheetBoard    = "Board"
	SheetPhases   = "Phases"
	SheetWorkload = "Workload"

	unassignedName = "Unassigned"
)

// ReportOpts параметры генерации отчета.
type ReportOpts struct {
	SaveDir string
}

// ReportService строит Excel-отчет по доске проекта.
type ReportService struct {
	boards BoardBuilder
	opts   ReportOpts
	logger *slog.Logger
	now    func() time.Time
}

// NewReportService создает сервис отчетов.
func NewReportService(boards BoardBuilder, opts ReportOpts, logger *slog.Logger) (*ReportService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if boards == nil {
		return nil, fmt.Errorf("board builder is required")
	}
	if opts.SaveDir == "" {
		opts.SaveDir = "."
	}
	return &ReportService{
		boards: boards,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}, nil
}

// GenerateBoardReport собирает доску проекта и сохраняет ее в xlsx.
// Возвращает путь к созданному файлу.
func (s *ReportService) GenerateBoardReport(ctx context.Context, projectID int) (string, error) {
	view, err := s.boards.Build(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("build board: %w", err)
	}

	if err := os.MkdirAll(s.opts.SaveDir, 0o755); err != nil {
		s.logger.Error("Failed to create report dir", "dir", s.opts.SaveDir, "error", err)
		return "", fmt.Errorf("create report dir: %w", err)
	}

	name := fmt.Sprintf("board_%d_%s.xlsx", projectID, s.now().Format("20060102_150405"))
	path := filepath.Join(s.opts.SaveDir, name)

	s.logger.Info("Creating Excel file",
		"project_id", projectID,
		"phases", len(view.Organization.Phases),
		"total", view.Organization.TotalCount)

	if err := s.writeWorkbook(path, view); err != nil {
		return "", err
	}
	return path, nil
}

func (s *ReportService) writeWorkbook(path string, view *BoardView) error {
	f := excelize.NewFile()
	defer f.Close()

	// Дефолтный лист становится листом доски
	if err := f.SetSheetName("Sheet1", SheetBoard); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}

	var boardRows [][]any
	for _, col := range view.Board.Columns {
		for _, e := range col.Entries {
			kind := "Task"
			if e.IsPhase {
				kind = "Phase"
			}
			boardRows = append(boardRows, []any{string(col.Column), e.ID, e.Subject, kind, e.Status, e.Parent})
		}
	}
	if err := writeSheet(f, SheetBoard, []string{"Column", "ID", "Subject", "Kind", "Status", "Parent"}, boardRows, 20); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetPhases); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetPhases, err)
	}
	var phaseRows [][]any
	for _, p := range view.Organization.Phases {
		done := 0
		for _, t := range p.Tasks {
			if board.ClassifyColumn(t.Status) == board.ColumnDone {
				done++
			}
		}
		phaseRows = append(phaseRows, []any{p.ID, p.Subject, p.Status, len(p.Tasks), done})
	}
	if err := writeSheet(f, SheetPhases, []string{"Phase ID", "Phase", "Status", "Tasks", "Done"}, phaseRows, 20); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetWorkload); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetWorkload, err)
	}
	var workloadRows [][]any
	for _, w := range calculateWorkload(view.Records) {
		workloadRows = append(workloadRows, []any{w.Name, w.ToDo, w.InProgress, w.Review, w.Done})
	}
	if err := writeSheet(f, SheetWorkload, []string{"Assignee", "To Do", "In Progress", "Review", "Done"}, workloadRows, 25); err != nil {
		return err
	}

	boardIdx, err := f.GetSheetIndex(SheetBoard)
	if err != nil {
		return fmt.Errorf("find sheet %s: %w", SheetBoard, err)
	}
	f.SetActiveSheet(boardIdx)

	s.logger.Info("Saving Excel file", "path", path)
	if err := f.SaveAs(path); err != nil {
		s.logger.Error("Failed to save Excel file", "path", path, "error", err)
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// writeSheet заполняет лист: заголовки в первой строке, данные со второй.
func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any, width float64) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("write %s header: %w", sheet, err)
		}
	}

	for r, row := range rows {
		for c, value := range row {
			if text, ok := value.(string); ok && text == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("write %s row %d: %w", sheet, r+2, err)
			}
		}
	}

	for i := range headers {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, colName, colName, width); err != nil {
			return fmt.Errorf("set %s column width: %w", sheet, err)
		}
	}
	return nil
}

// calculateWorkload рассчитывает распределение задач исполнителей по колонкам доски.
func calculateWorkload(records []models.WorkPackageRecord) []models.WorkloadStats {
	statsMap := make(map[string]*models.WorkloadStats)

	for _, rec := range records {
		assignee := rec.AssigneeName
		if assignee == "" {
			assignee = unassignedName
		}

		stats, ok := statsMap[assignee]
		if !ok {
			stats = &models.WorkloadStats{Name: assignee}
			statsMap[assignee] = stats
		}

		switch board.ClassifyColumn(rec.StatusName) {
		case board.ColumnInProgress:
			stats.InProgress++
		case board.ColumnReview:
			stats.Review++
		case board.ColumnDone:
			stats.Done++
		default:
			stats.ToDo++
		}
	}

	stats := make([]models.WorkloadStats, 0, len(statsMap))
	for _, st := range statsMap {
		stats = append(stats, *st)
	}
	slices.SortFunc(stats, func(a, b models.WorkloadStats) int { return cmp.Compare(a.Name, b.Name) })
	return stats
}
