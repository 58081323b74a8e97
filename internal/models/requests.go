package models

import "strings"

// DateLayout формат дат OpenProject (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// ProjectCreateRequest параметры создания проекта.
type ProjectCreateRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Identifier  string `json:"identifier,omitempty" validate:"omitempty,max=100"`
	Description string `json:"description,omitempty" validate:"max=65535"`
	ParentID    int    `json:"parent_id,omitempty" validate:"omitempty,gt=0"`
}

// Normalize обрезает пробелы в текстовых полях.
func (r *ProjectCreateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Identifier = strings.TrimSpace(r.Identifier)
	r.Description = strings.TrimSpace(r.Description)
}

// WorkPackageCreateRequest параметры создания задачи.
type WorkPackageCreateRequest struct {
	ProjectID      int     `json:"project_id" validate:"required,gt=0"`
	Subject        string  `json:"subject" validate:"required,max=255"`
	Description    string  `json:"description,omitempty"`
	TypeID         int     `json:"type_id,omitempty" validate:"omitempty,gt=0"`
	StatusID       int     `json:"status_id,omitempty" validate:"omitempty,gt=0"`
	PriorityID     int     `json:"priority_id,omitempty" validate:"omitempty,gt=0"`
	AssigneeID     int     `json:"assignee_id,omitempty" validate:"omitempty,gt=0"`
	ParentID       int     `json:"parent_id,omitempty" validate:"omitempty,gt=0"`
	StartDate      string  `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DueDate        string  `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EstimatedHours float64 `json:"estimated_hours,omitempty" validate:"omitempty,gt=0"`
}

// Normalize обрезает пробелы в текстовых полях.
func (r *WorkPackageCreateRequest) Normalize() {
	r.Subject = strings.TrimSpace(r.Subject)
	r.Description = strings.TrimSpace(r.Description)
	r.StartDate = strings.TrimSpace(r.StartDate)
	r.DueDate = strings.TrimSpace(r.DueDate)
}

// WorkPackageUpdateRequest частичное обновление задачи: nil-поля не меняются.
type WorkPackageUpdateRequest struct {
	Subject        *string  `json:"subject,omitempty" validate:"omitempty,min=1,max=255"`
	Description    *string  `json:"description,omitempty"`
	StartDate      *string  `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DueDate        *string  `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	AssigneeID     *int     `json:"assignee_id,omitempty" validate:"omitempty,gt=0"`
	StatusID       *int     `json:"status_id,omitempty" validate:"omitempty,gt=0"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty" validate:"omitempty,gt=0"`
}

// Empty сообщает, что в запросе нет ни одного изменения.
func (r WorkPackageUpdateRequest) Empty() bool {
	return r.Subject == nil && r.Description == nil && r.StartDate == nil && r.DueDate == nil &&
		r.AssigneeID == nil && r.StatusID == nil && r.EstimatedHours == nil
}

// RelationCreateRequest параметры создания связи между задачами.
type RelationCreateRequest struct {
	FromID      int    `json:"from_work_package_id" validate:"required,gt=0"`
	ToID        int    `json:"to_work_package_id" validate:"required,gt=0,nefield=FromID"`
	Type        string `json:"relation_type" validate:"required,oneof=follows precedes blocks blocked relates duplicates duplicated"`
	Description string `json:"description,omitempty"`
	Lag         int    `json:"lag,omitempty" validate:"min=0"`
}
