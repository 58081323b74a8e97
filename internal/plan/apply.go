package plan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DevN0mad/OpenProjectBoard/internal/models"
	"github.com/DevN0mad/OpenProjectBoard/internal/services"
)

// Client операции OpenProject, которые нужны для применения плана.
type Client interface {
	CreateProject(ctx context.Context, req models.ProjectCreateRequest) (*models.Project, error)
	CreateWorkPackage(ctx context.Context, req models.WorkPackageCreateRequest) (*models.WorkPackage, error)
	CreateRelation(ctx context.Context, req models.RelationCreateRequest) (*models.Relation, error)
}

var _ Client = (*services.OpenProjectService)(nil)

// Options параметры применения плана.
type Options struct {
	DryRun bool
	Logger *slog.Logger
}

// Report итог применения плана.
type Report struct {
	DryRun           bool           `json:"dry_run"`
	ProjectID        int            `json:"project_id,omitempty"`
	ProjectCreated   bool           `json:"project_created"`
	PhasesCreated    int            `json:"phases_created"`
	TasksCreated     int            `json:"tasks_created"`
	RelationsCreated int            `json:"relations_created"`
	Warnings         []string       `json:"warnings,omitempty"`
	IDs              map[string]int `json:"ids,omitempty"`
}

func (r *Report) String() string {
	verb := "created"
	if r.DryRun {
		verb = "would be created"
	}
	return fmt.Sprintf("Summary: project %d, %d phases, %d tasks, %d relations %s (%d warnings)",
		r.ProjectID, r.PhasesCreated, r.TasksCreated, r.RelationsCreated, verb, len(r.Warnings))
}

// Apply создает проект, фазы, задачи и связи из плана.
// Ошибка создания проекта или задачи прерывает применение; ошибки связей
// попадают в Warnings. В режиме DryRun клиент не вызывается.
func Apply(ctx context.Context, client Client, p Plan, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if errs := Validate(p); len(errs) > 0 {
		return nil, fmt.Errorf("invalid plan: %d error(s): %s", len(errs), strings.Join(errs, "; "))
	}

	report := &Report{DryRun: opts.DryRun, ProjectID: p.ProjectID}
	if opts.DryRun {
		dryRun(p, report, logger)
		return report, nil
	}
	if client == nil {
		return nil, fmt.Errorf("openproject client is required")
	}

	if report.ProjectID == 0 {
		project, err := client.CreateProject(ctx, models.ProjectCreateRequest{
			Name:        p.Project.Name,
			Identifier:  p.Project.Identifier,
			Description: p.Project.Description,
		})
		if err != nil {
			return report, fmt.Errorf("create project %q: %w", p.Project.Name, err)
		}
		report.ProjectID = project.ID
		report.ProjectCreated = true
		logger.Info("Project created", "project_id", project.ID, "name", project.Name)
	}

	report.IDs = make(map[string]int)
	phaseIDs := make([]int, 0, len(p.Phases))
	for _, ph := range p.Phases {
		wp, err := client.CreateWorkPackage(ctx, models.WorkPackageCreateRequest{
			ProjectID:   report.ProjectID,
			Subject:     ph.Subject,
			Description: ph.Description,
			TypeID:      firstPositive(ph.TypeID, p.TypeID),
			StartDate:   ph.StartDate,
			DueDate:     ph.DueDate,
		})
		if err != nil {
			return report, fmt.Errorf("create phase %q: %w", ph.Subject, err)
		}
		report.PhasesCreated++
		report.IDs[strings.TrimSpace(ph.Subject)] = wp.ID
		phaseIDs = append(phaseIDs, wp.ID)
		logger.Info("Phase created", "id", wp.ID, "subject", ph.Subject)

		for _, t := range ph.Tasks {
			task, err := client.CreateWorkPackage(ctx, models.WorkPackageCreateRequest{
				ProjectID:      report.ProjectID,
				Subject:        t.Subject,
				Description:    t.Description,
				TypeID:         firstPositive(t.TypeID, p.TypeID),
				ParentID:       wp.ID,
				AssigneeID:     t.AssigneeID,
				StartDate:      t.StartDate,
				DueDate:        t.DueDate,
				EstimatedHours: t.EstimatedHours,
			})
			if err != nil {
				return report, fmt.Errorf("create task %q: %w", t.Subject, err)
			}
			report.TasksCreated++
			report.IDs[strings.TrimSpace(t.Subject)] = task.ID
			logger.Debug("Task created", "id", task.ID, "subject", t.Subject, "parent_id", wp.ID)
		}
	}

	if p.ChainPhases {
		for i := 1; i < len(phaseIDs); i++ {
			relate(ctx, client, report, logger, models.RelationCreateRequest{
				FromID: phaseIDs[i],
				ToID:   phaseIDs[i-1],
				Type:   "follows",
			})
		}
	}

	for _, r := range p.Relations {
		relate(ctx, client, report, logger, models.RelationCreateRequest{
			FromID:      report.IDs[strings.TrimSpace(r.From)],
			ToID:        report.IDs[strings.TrimSpace(r.To)],
			Type:        r.RelationType(),
			Description: r.Description,
			Lag:         r.Lag,
		})
	}

	logger.Info("Plan applied",
		"project_id", report.ProjectID,
		"phases", report.PhasesCreated,
		"tasks", report.TasksCreated,
		"relations", report.RelationsCreated,
		"warnings", len(report.Warnings))
	return report, nil
}

func relate(ctx context.Context, client Client, report *Report, logger *slog.Logger, req models.RelationCreateRequest) {
	if _, err := client.CreateRelation(ctx, req); err != nil {
		msg := fmt.Sprintf("relation %d %s %d failed: %v", req.FromID, req.Type, req.ToID, err)
		logger.Warn("Relation creation failed", "from", req.FromID, "to", req.ToID, "type", req.Type, "error", err)
		report.Warnings = append(report.Warnings, msg)
		return
	}
	report.RelationsCreated++
}

func dryRun(p Plan, report *Report, logger *slog.Logger) {
	if p.ProjectID == 0 {
		logger.Info("[dry-run] Would create project", "name", p.Project.Name)
		report.ProjectCreated = true
	} else {
		logger.Info("[dry-run] Using existing project", "project_id", p.ProjectID)
	}

	for _, ph := range p.Phases {
		logger.Info("[dry-run] Would create phase", "subject", ph.Subject, "tasks", len(ph.Tasks))
		report.PhasesCreated++
		report.TasksCreated += len(ph.Tasks)
	}

	if p.ChainPhases && len(p.Phases) > 1 {
		report.RelationsCreated += len(p.Phases) - 1
	}
	report.RelationsCreated += len(p.Relations)
	logger.Info("[dry-run] Would create relations", "count", report.RelationsCreated)
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
