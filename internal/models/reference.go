package models

// Type тип задачи (Task, Milestone, Phase...).
type Type struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Position    int    `json:"position"`
	IsDefault   bool   `json:"isDefault"`
	IsMilestone bool   `json:"isMilestone"`
}

// Status статус задачи.
type Status struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Position  int    `json:"position"`
	IsClosed  bool   `json:"isClosed"`
	IsDefault bool   `json:"isDefault"`
}

// Priority приоритет задачи.
type Priority struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	IsDefault bool   `json:"isDefault"`
	IsActive  bool   `json:"isActive"`
}
