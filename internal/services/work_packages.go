package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/DevN0mad/OpenProjectBoard/internal/models"
)

// ListWorkPackages получает все задачи проекта, включая закрытые.
func (s *OpenProjectService) ListWorkPackages(ctx context.Context, projectID int) ([]models.WorkPackage, error) {
	if projectID <= 0 {
		return nil, fmt.Errorf("project id must be a positive integer, got %d", projectID)
	}

	// Пустой фильтр отключает фильтр "только открытые" по умолчанию
	query := url.Values{}
	query.Set("filters", "[]")

	s.logger.Debug("Starting pagination for project", "project_id", projectID)

	wps, err := fetchAll[models.WorkPackage](ctx, s, fmt.Sprintf("/projects/%d/work_packages", projectID), query)
	if err != nil {
		return nil, fmt.Errorf("list work packages of project %d: %w", projectID, err)
	}

	s.logger.Info("Project tasks received", "project_id", projectID, "count", len(wps))
	return wps, nil
}

// FetchRecords получает задачи проекта в виде плоских записей для доски.
func (s *OpenProjectService) FetchRecords(ctx context.Context, projectID int) ([]models.WorkPackageRecord, error) {
	wps, err := s.ListWorkPackages(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return models.Records(wps), nil
}

// GetWorkPackage получает задачу по id.
func (s *OpenProjectService) GetWorkPackage(ctx context.Context, id int) (*models.WorkPackage, error) {
	if id <= 0 {
		return nil, fmt.Errorf("work package id must be a positive integer, got %d", id)
	}

	var wp models.WorkPackage
	if err := s.do(ctx, http.MethodGet, fmt.Sprintf("/work_packages/%d", id), nil, nil, &wp); err != nil {
		return nil, fmt.Errorf("get work package %d: %w", id, err)
	}
	return &wp, nil
}

// CreateWorkPackage создает задачу.
func (s *OpenProjectService) CreateWorkPackage(ctx context.Context, req models.WorkPackageCreateRequest) (*models.WorkPackage, error) {
	req.Normalize()
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	links := map[string]any{
		"project": hrefFor("projects", req.ProjectID),
	}
	if req.TypeID > 0 {
		links["type"] = hrefFor("types", req.TypeID)
	}
	if req.StatusID > 0 {
		links["status"] = hrefFor("statuses", req.StatusID)
	}
	if req.PriorityID > 0 {
		links["priority"] = hrefFor("priorities", req.PriorityID)
	}
	if req.AssigneeID > 0 {
		links["assignee"] = hrefFor("users", req.AssigneeID)
	}
	if req.ParentID > 0 {
		links["parent"] = hrefFor("work_packages", req.ParentID)
	}

	payload := map[string]any{
		"subject": req.Subject,
		"_links":  links,
	}
	if req.Description != "" {
		payload["description"] = map[string]string{"raw": req.Description}
	}
	if req.StartDate != "" {
		payload["startDate"] = req.StartDate
	}
	if req.DueDate != "" {
		payload["dueDate"] = req.DueDate
	}
	if req.EstimatedHours > 0 {
		payload["estimatedTime"] = isoHours(req.EstimatedHours)
	}

	var wp models.WorkPackage
	if err := s.do(ctx, http.MethodPost, "/work_packages", nil, payload, &wp); err != nil {
		return nil, fmt.Errorf("create work package %q: %w", req.Subject, err)
	}

	s.logger.Info("Work package created", "id", wp.ID, "subject", wp.Subject, "project_id", req.ProjectID)
	return &wp, nil
}

// UpdateWorkPackage частично обновляет задачу. lockVersion берется из текущего состояния задачи.
func (s *OpenProjectService) UpdateWorkPackage(ctx context.Context, id int, req models.WorkPackageUpdateRequest) (*models.WorkPackage, error) {
	if id <= 0 {
		return nil, fmt.Errorf("work package id must be a positive integer, got %d", id)
	}
	if req.Empty() {
		return nil, fmt.Errorf("no updates provided for work package %d", id)
	}
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	current, err := s.GetWorkPackage(ctx, id)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{"lockVersion": current.LockVersion}
	links := map[string]any{}

	if req.Subject != nil {
		payload["subject"] = *req.Subject
	}
	if req.Description != nil {
		payload["description"] = map[string]string{"raw": *req.Description}
	}
	if req.StartDate != nil {
		payload["startDate"] = *req.StartDate
	}
	if req.DueDate != nil {
		payload["dueDate"] = *req.DueDate
	}
	if req.EstimatedHours != nil {
		payload["estimatedTime"] = isoHours(*req.EstimatedHours)
	}
	if req.AssigneeID != nil {
		links["assignee"] = hrefFor("users", *req.AssigneeID)
	}
	if req.StatusID != nil {
		links["status"] = hrefFor("statuses", *req.StatusID)
	}
	if len(links) > 0 {
		payload["_links"] = links
	}

	var wp models.WorkPackage
	if err := s.do(ctx, http.MethodPatch, fmt.Sprintf("/work_packages/%d", id), nil, payload, &wp); err != nil {
		return nil, fmt.Errorf("update work package %d: %w", id, err)
	}

	s.logger.Info("Work package updated", "id", wp.ID, "lock_version", wp.LockVersion)
	return &wp, nil
}

// AssignByEmail назначает задачу на пользователя, найденного по email.
func (s *OpenProjectService) AssignByEmail(ctx context.Context, id int, email string) (*models.WorkPackage, *models.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}

	wp, err := s.UpdateWorkPackage(ctx, id, models.WorkPackageUpdateRequest{AssigneeID: &user.ID})
	if err != nil {
		return nil, nil, err
	}
	return wp, user, nil
}

// isoHours переводит часы в длительность ISO 8601 (PT2.5H).
func isoHours(hours float64) string {
	return "PT" + strconv.FormatFloat(hours, 'f', -1, 64) + "H"
}
