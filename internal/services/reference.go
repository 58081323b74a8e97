package services

import (
	"context"
	"fmt"

	"github.com/DevN0mad/OpenProjectBoard/internal/models"
)

const (
	ReferenceTypes      = "types"
	ReferenceStatuses   = "statuses"
	ReferencePriorities = "priorities"
)

// Types типы задач (кешируются).
func (s *OpenProjectService) Types(ctx context.Context) ([]models.Type, error) {
	return cachedList(ctx, s.cache, ReferenceTypes, func(ctx context.Context) ([]models.Type, error) {
		return fetchAll[models.Type](ctx, s, "/types", nil)
	})
}

// Statuses статусы задач (кешируются).
func (s *OpenProjectService) Statuses(ctx context.Context) ([]models.Status, error) {
	return cachedList(ctx, s.cache, ReferenceStatuses, func(ctx context.Context) ([]models.Status, error) {
		return fetchAll[models.Status](ctx, s, "/statuses", nil)
	})
}

// Priorities приоритеты задач (кешируются).
func (s *OpenProjectService) Priorities(ctx context.Context) ([]models.Priority, error) {
	return cachedList(ctx, s.cache, ReferencePriorities, func(ctx context.Context) ([]models.Priority, error) {
		return fetchAll[models.Priority](ctx, s, "/priorities", nil)
	})
}

// InvalidateReferenceData сбрасывает кеш справочников; пустой key сбрасывает все.
func (s *OpenProjectService) InvalidateReferenceData(key string) error {
	switch key {
	case "":
		s.cache.Clear()
	case ReferenceTypes, ReferenceStatuses, ReferencePriorities:
		s.cache.Invalidate(key)
	default:
		return fmt.Errorf("unknown reference data %q", key)
	}
	return nil
}
