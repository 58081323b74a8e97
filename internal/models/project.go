package models

// Root корневой ресурс API (/api/v3).
type Root struct {
	CoreVersion  string `json:"coreVersion"`
	InstanceName string `json:"instanceName"`
}

// Project проект OpenProject.
type Project struct {
	ID          int          `json:"id"`
	Identifier  string       `json:"identifier"`
	Name        string       `json:"name"`
	Active      bool         `json:"active"`
	Public      bool         `json:"public"`
	Description *Formattable `json:"description,omitempty"`
	CreatedAt   string       `json:"createdAt"`
	UpdatedAt   string       `json:"updatedAt"`
	Links       struct {
		Self   Link `json:"self"`
		Parent Link `json:"parent"`
		Status Link `json:"status"`
	} `json:"_links"`
}

// DescriptionText возвращает описание проекта без разметки.
func (p Project) DescriptionText() string {
	if p.Description == nil {
		return ""
	}
	return p.Description.Raw
}

// ProjectSummary сводка по задачам проекта.
type ProjectSummary struct {
	Project                Project        `json:"project"`
	TotalWorkPackages      int            `json:"total_work_packages"`
	WorkPackagesWithDates  int            `json:"work_packages_with_dates"`
	AssignedWorkPackages   int            `json:"assigned_work_packages"`
	UnassignedWorkPackages int            `json:"unassigned_work_packages"`
	StatusBreakdown        map[string]int `json:"status_breakdown"`
	GanttReady             bool           `json:"gantt_ready"`
}
