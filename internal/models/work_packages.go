package models

import (
	"strconv"
	"strings"
)

// UnknownName подставляется, когда у задачи нет вложенного типа или статуса.
const UnknownName = "Unknown"

// Link представляет HAL-ссылку OpenProject.
type Link struct {
	Href  string `json:"href"`
	Title string `json:"title,omitempty"`
}

// ID возвращает идентификатор ресурса из ссылки или 0, если его нет.
func (l Link) ID() int {
	return IDFromHref(l.Href)
}

// Formattable текстовое поле OpenProject (description и т.п.).
type Formattable struct {
	Format string `json:"format,omitempty"`
	Raw    string `json:"raw"`
	HTML   string `json:"html,omitempty"`
}

// WorkPackageLinks ссылки задачи на связанные ресурсы.
type WorkPackageLinks struct {
	Self        Link `json:"self"`
	Type        Link `json:"type"`
	Status      Link `json:"status"`
	Priority    Link `json:"priority"`
	Assignee    Link `json:"assignee"`
	Responsible Link `json:"responsible"`
	Project     Link `json:"project"`
	Parent      Link `json:"parent"`
}

// NamedResource вложенный ресурс с именем (тип, статус, приоритет).
type NamedResource struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// WorkPackageEmbedded вложенные ресурсы задачи (_embedded).
type WorkPackageEmbedded struct {
	Type     *NamedResource `json:"type,omitempty"`
	Status   *NamedResource `json:"status,omitempty"`
	Priority *NamedResource `json:"priority,omitempty"`
}

// WorkPackage представляет задачу в OpenProject
type WorkPackage struct {
	ID          int                  `json:"id"`
	Subject     string               `json:"subject"`
	LockVersion int                  `json:"lockVersion"`
	Description *Formattable         `json:"description,omitempty"`
	Links       WorkPackageLinks     `json:"_links"`
	Embedded    *WorkPackageEmbedded `json:"_embedded,omitempty"`

	StartDate      *string `json:"startDate"`
	DueDate        *string `json:"dueDate"`
	EstimatedTime  *string `json:"estimatedTime"`
	PercentageDone *int    `json:"percentageDone"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

// TypeName возвращает название типа задачи.
func (wp WorkPackage) TypeName() string {
	if wp.Embedded != nil && wp.Embedded.Type != nil && wp.Embedded.Type.Name != "" {
		return wp.Embedded.Type.Name
	}
	if wp.Links.Type.Title != "" {
		return wp.Links.Type.Title
	}
	return UnknownName
}

// StatusName возвращает название статуса задачи.
func (wp WorkPackage) StatusName() string {
	if wp.Embedded != nil && wp.Embedded.Status != nil && wp.Embedded.Status.Name != "" {
		return wp.Embedded.Status.Name
	}
	if wp.Links.Status.Title != "" {
		return wp.Links.Status.Title
	}
	return UnknownName
}

// Record приводит HAL-представление задачи к плоской записи для доски.
func (wp WorkPackage) Record() WorkPackageRecord {
	rec := WorkPackageRecord{
		ID:           wp.ID,
		Subject:      wp.Subject,
		TypeName:     wp.TypeName(),
		StatusName:   wp.StatusName(),
		AssigneeName: wp.Links.Assignee.Title,
	}

	// Родитель считается заданным только при наличии href.
	if wp.Links.Parent.Href != "" {
		rec.ParentTitle = wp.Links.Parent.Title
		rec.ParentID = wp.Links.Parent.ID()
	}
	return rec
}

// WorkPackageRecord плоская запись задачи, из которой строится доска.
type WorkPackageRecord struct {
	ID           int
	Subject      string
	TypeName     string
	StatusName   string
	ParentTitle  string
	ParentID     int
	AssigneeName string
}

// HasParent сообщает, ссылается ли запись на родительскую задачу.
func (r WorkPackageRecord) HasParent() bool {
	return r.ParentTitle != "" || r.ParentID != 0
}

// Records конвертирует список задач в записи.
func Records(wps []WorkPackage) []WorkPackageRecord {
	records := make([]WorkPackageRecord, 0, len(wps))
	for _, wp := range wps {
		records = append(records, wp.Record())
	}
	return records
}

// IDFromHref извлекает числовой идентификатор из пути (например: "/api/v3/users/20")
func IDFromHref(href string) int {
	href = strings.TrimRight(href, "/")
	if href == "" {
		return 0
	}
	parts := strings.Split(href, "/")
	id, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || id < 0 {
		return 0
	}
	return id
}
