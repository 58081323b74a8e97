package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/DevN0mad/OpenProjectBoard/internal/models"
)

// ListProjects получает все доступные проекты.
func (s *OpenProjectService) ListProjects(ctx context.Context) ([]models.Project, error) {
	projects, err := fetchAll[models.Project](ctx, s, "/projects", nil)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// GetProject получает проект по id.
func (s *OpenProjectService) GetProject(ctx context.Context, id int) (*models.Project, error) {
	if id <= 0 {
		return nil, fmt.Errorf("project id must be a positive integer, got %d", id)
	}

	var p models.Project
	if err := s.do(ctx, http.MethodGet, fmt.Sprintf("/projects/%d", id), nil, nil, &p); err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return &p, nil
}

// CreateProject создает проект.
func (s *OpenProjectService) CreateProject(ctx context.Context, req models.ProjectCreateRequest) (*models.Project, error) {
	req.Normalize()
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"name":        req.Name,
		"description": map[string]string{"raw": req.Description},
	}
	if req.Identifier != "" {
		payload["identifier"] = req.Identifier
	}
	if req.ParentID > 0 {
		payload["_links"] = map[string]any{"parent": hrefFor("projects", req.ParentID)}
	}

	var p models.Project
	if err := s.do(ctx, http.MethodPost, "/projects", nil, payload, &p); err != nil {
		return nil, fmt.Errorf("create project %q: %w", req.Name, err)
	}

	s.logger.Info("Project created", "id", p.ID, "identifier", p.Identifier, "name", p.Name)
	return &p, nil
}

// ListMemberships получает участников проекта с ролями.
func (s *OpenProjectService) ListMemberships(ctx context.Context, projectID int) ([]models.Membership, error) {
	if projectID <= 0 {
		return nil, fmt.Errorf("project id must be a positive integer, got %d", projectID)
	}

	query := url.Values{"filters": {filterJSON("project", "=", strconv.Itoa(projectID))}}
	members, err := fetchAll[models.Membership](ctx, s, "/memberships", query)
	if err != nil {
		return nil, fmt.Errorf("list memberships of project %d: %w", projectID, err)
	}
	return members, nil
}

// ProjectSummary считает сводку по задачам проекта.
func (s *OpenProjectService) ProjectSummary(ctx context.Context, projectID int) (*models.ProjectSummary, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	wps, err := s.ListWorkPackages(ctx, projectID)
	if err != nil {
		return nil, err
	}

	summary := &models.ProjectSummary{
		Project:           *project,
		TotalWorkPackages: len(wps),
		StatusBreakdown:   make(map[string]int),
	}
	for _, wp := range wps {
		if wp.StartDate != nil || wp.DueDate != nil {
			summary.WorkPackagesWithDates++
		}
		if wp.Links.Assignee.Href != "" {
			summary.AssignedWorkPackages++
		}
		summary.StatusBreakdown[wp.StatusName()]++
	}
	summary.UnassignedWorkPackages = summary.TotalWorkPackages - summary.AssignedWorkPackages
	summary.GanttReady = summary.WorkPackagesWithDates > 0

	return summary, nil
}
