package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/DevN0mad/OpenProjectBoard/internal/models"
)

// CreateRelation создает связь: задача FromID получает связь типа Type с задачей ToID.
func (s *OpenProjectService) CreateRelation(ctx context.Context, req models.RelationCreateRequest) (*models.Relation, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"type": req.Type,
		"_links": map[string]any{
			"to": hrefFor("work_packages", req.ToID),
		},
	}
	if req.Description != "" {
		payload["description"] = req.Description
	}
	if req.Lag != 0 {
		payload["lag"] = req.Lag
	}

	var rel models.Relation
	if err := s.do(ctx, http.MethodPost, fmt.Sprintf("/work_packages/%d/relations", req.FromID), nil, payload, &rel); err != nil {
		return nil, fmt.Errorf("create relation %d %s %d: %w", req.FromID, req.Type, req.ToID, err)
	}

	s.logger.Info("Relation created", "id", rel.ID, "from", req.FromID, "to", req.ToID, "type", req.Type)
	return &rel, nil
}

// ListRelations получает связи задачи.
func (s *OpenProjectService) ListRelations(ctx context.Context, workPackageID int) ([]models.Relation, error) {
	if workPackageID <= 0 {
		return nil, fmt.Errorf("work package id must be a positive integer, got %d", workPackageID)
	}

	rels, err := fetchAll[models.Relation](ctx, s, fmt.Sprintf("/work_packages/%d/relations", workPackageID), nil)
	if err != nil {
		return nil, fmt.Errorf("list relations of work package %d: %w", workPackageID, err)
	}
	return rels, nil
}

// DeleteRelation удаляет связь по id.
func (s *OpenProjectService) DeleteRelation(ctx context.Context, id int) error {
	if id <= 0 {
		return fmt.Errorf("relation id must be a positive integer, got %d", id)
	}

	if err := s.do(ctx, http.MethodDelete, fmt.Sprintf("/relations/%d", id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete relation %d: %w", id, err)
	}

	s.logger.Info("Relation deleted", "id", id)
	return nil
}
