// Package plan описывает проект в YAML (фазы, задачи, связи) и создает его в OpenProject.
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/DevN0mad/OpenProjectBoard/internal/models"
)

const (
	maxSubjectLen     = 255
	defaultRelationTy = "follows"
)

// Plan структура файла плана.
type Plan struct {
	Project     ProjectSpec `yaml:"project" json:"project"`
	ProjectID   int         `yaml:"project_id" json:"project_id,omitempty"`
	TypeID      int         `yaml:"type_id" json:"type_id,omitempty"`
	Phases      []Phase     `yaml:"phases" json:"phases"`
	Relations   []Relation  `yaml:"relations" json:"relations,omitempty"`
	ChainPhases bool        `yaml:"chain_phases" json:"chain_phases"`
}

// ProjectSpec проект, который нужно создать.
type ProjectSpec struct {
	Name        string `yaml:"name" json:"name"`
	Identifier  string `yaml:"identifier" json:"identifier,omitempty"`
	Description string `yaml:"description" json:"description,omitempty"`
}

// Phase фаза (неделя) плана с вложенными задачами.
type Phase struct {
	Subject     string `yaml:"subject" json:"subject"`
	Description string `yaml:"description" json:"description,omitempty"`
	TypeID      int    `yaml:"type_id" json:"type_id,omitempty"`
	StartDate   string `yaml:"start_date" json:"start_date,omitempty"`
	DueDate     string `yaml:"due_date" json:"due_date,omitempty"`
	Tasks       []Task `yaml:"tasks" json:"tasks,omitempty"`
}

// Task задача внутри фазы.
type Task struct {
	Subject        string  `yaml:"subject" json:"subject"`
	Description    string  `yaml:"description" json:"description,omitempty"`
	TypeID         int     `yaml:"type_id" json:"type_id,omitempty"`
	StartDate      string  `yaml:"start_date" json:"start_date,omitempty"`
	DueDate        string  `yaml:"due_date" json:"due_date,omitempty"`
	AssigneeID     int     `yaml:"assignee_id" json:"assignee_id,omitempty"`
	EstimatedHours float64 `yaml:"estimated_hours" json:"estimated_hours,omitempty"`
}

// Relation связь между задачами плана, задачи указываются по теме.
type Relation struct {
	From        string `yaml:"from" json:"from"`
	To          string `yaml:"to" json:"to"`
	Type        string `yaml:"type" json:"type,omitempty"`
	Lag         int    `yaml:"lag" json:"lag,omitempty"`
	Description string `yaml:"description" json:"description,omitempty"`
}

// RelationType тип связи; пустой означает follows.
func (r Relation) RelationType() string {
	if t := strings.TrimSpace(r.Type); t != "" {
		return t
	}
	return defaultRelationTy
}

// Load читает план из файла.
func Load(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse разбирает YAML плана. Неизвестные поля считаются ошибкой.
func Parse(data []byte) (Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Plan
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return Plan{}, errors.New("plan file is empty")
		}
		return Plan{}, fmt.Errorf("invalid YAML: %w", err)
	}
	return p, nil
}

// Validate проверяет план и возвращает список ошибок с указанием позиции.
// Пустой список означает, что план можно применять.
func Validate(p Plan) []string {
	var errs []string

	switch {
	case p.ProjectID < 0:
		errs = append(errs, "project_id must be greater than 0")
	case p.ProjectID == 0 && strings.TrimSpace(p.Project.Name) == "":
		errs = append(errs, "project.name or project_id is required")
	}
	if utf8.RuneCountInString(p.Project.Name) > maxSubjectLen {
		errs = append(errs, fmt.Sprintf("project.name must be at most %d characters", maxSubjectLen))
	}
	if p.TypeID < 0 {
		errs = append(errs, "type_id must be greater than 0")
	}
	if len(p.Phases) == 0 {
		errs = append(errs, "at least one phase is required")
	}

	subjects := make(map[string]bool)
	checkSubject := func(where, subject string) bool {
		subject = strings.TrimSpace(subject)
		if subject == "" {
			errs = append(errs, where+": subject is required")
			return false
		}
		if utf8.RuneCountInString(subject) > maxSubjectLen {
			errs = append(errs, fmt.Sprintf("%s: subject must be at most %d characters", where, maxSubjectLen))
		}
		if subjects[subject] {
			errs = append(errs, fmt.Sprintf("%s: duplicate subject %q", where, subject))
		}
		subjects[subject] = true
		return true
	}

	for i, ph := range p.Phases {
		where := fmt.Sprintf("phases[%d]", i)
		checkSubject(where, ph.Subject)
		errs = append(errs, checkDates(where, ph.StartDate, ph.DueDate)...)
		if ph.TypeID < 0 {
			errs = append(errs, where+": type_id must be greater than 0")
		}

		for j, t := range ph.Tasks {
			where := fmt.Sprintf("phases[%d].tasks[%d]", i, j)
			checkSubject(where, t.Subject)
			errs = append(errs, checkDates(where, t.StartDate, t.DueDate)...)
			if t.TypeID < 0 {
				errs = append(errs, where+": type_id must be greater than 0")
			}
			if t.AssigneeID < 0 {
				errs = append(errs, where+": assignee_id must be greater than 0")
			}
			if t.EstimatedHours < 0 {
				errs = append(errs, where+": estimated_hours must be greater than 0")
			}
		}
	}

	for i, r := range p.Relations {
		where := fmt.Sprintf("relations[%d]", i)
		from, to := strings.TrimSpace(r.From), strings.TrimSpace(r.To)
		if from == "" || to == "" {
			errs = append(errs, where+": from and to are required")
		} else {
			if !subjects[from] {
				errs = append(errs, fmt.Sprintf("%s: from %q is not defined in phases", where, from))
			}
			if !subjects[to] {
				errs = append(errs, fmt.Sprintf("%s: to %q is not defined in phases", where, to))
			}
			if from == to {
				errs = append(errs, where+": a work package cannot relate to itself")
			}
		}
		if !slices.Contains(models.RelationTypes, r.RelationType()) {
			errs = append(errs, fmt.Sprintf("%s: type %q must be one of: %s",
				where, r.Type, strings.Join(models.RelationTypes, ", ")))
		}
		if r.Lag < 0 {
			errs = append(errs, where+": lag must be at least 0")
		}
	}

	return errs
}

func checkDates(where, start, due string) []string {
	var errs []string
	var startAt, dueAt time.Time
	var err error

	if start != "" {
		if startAt, err = time.Parse(models.DateLayout, start); err != nil {
			errs = append(errs, fmt.Sprintf("%s: start_date %q must be in YYYY-MM-DD format", where, start))
		}
	}
	if due != "" {
		if dueAt, err = time.Parse(models.DateLayout, due); err != nil {
			errs = append(errs, fmt.Sprintf("%s: due_date %q must be in YYYY-MM-DD format", where, due))
		}
	}
	if !startAt.IsZero() && !dueAt.IsZero() && dueAt.Before(startAt) {
		errs = append(errs, where+": due_date must not be before start_date")
	}
	return errs
}
