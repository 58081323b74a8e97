package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/DevN0mad/OpenProjectBoard/internal/models"
)

// ErrUserNotFound пользователь с указанным email не найден.
var ErrUserNotFound = errors.New("user not found")

// ListUsers получает пользователей; при непустом emailFilter только с этим email.
func (s *OpenProjectService) ListUsers(ctx context.Context, emailFilter string) ([]models.User, error) {
	var query url.Values
	if email := strings.TrimSpace(emailFilter); email != "" {
		query = url.Values{"filters": {filterJSON("email", "=", email)}}
	}

	users, err := fetchAll[models.User](ctx, s, "/users", query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUserByEmail находит пользователя по email.
func (s *OpenProjectService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("valid email address is required, got %q", email)
	}

	users, err := s.ListUsers(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}
	return &users[0], nil
}
