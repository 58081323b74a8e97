// Package board раскладывает задачи проекта по фазам и колонкам канбан-доски.
package board

import (
	"cmp"
	"slices"
	"strings"

	"github.com/DevN0mad/OpenProjectBoard/internal/models"
)

// DefaultPhaseMarker подстрока в теме задачи, по которой определяется недельная фаза.
const DefaultPhaseMarker = "Week"

// Task задача доски: вложенная в фазу или самостоятельная.
type Task struct {
	ID      int    `json:"id"`
	Subject string `json:"subject"`
	Type    string `json:"type"`
	Status  string `json:"status"`
	Parent  string `json:"parent,omitempty"`
}

// Phase фаза (недельный блок) с вложенными задачами.
type Phase struct {
	ID      int    `json:"id"`
	Subject string `json:"subject"`
	Type    string `json:"type"`
	Status  string `json:"status"`
	Tasks   []Task `json:"tasks"`
}

// Organization результат раскладки задач проекта.
type Organization struct {
	Phases          []Phase `json:"phases"`
	StandaloneTasks []Task  `json:"standalone_tasks"`
	TotalCount      int     `json:"total_count"`
}

// PhaseRule определяет, какая задача без родителя считается фазой.
// Сначала проверяется тип задачи, затем подстрока в теме.
type PhaseRule struct {
	Types         []string `yaml:"phase_types" mapstructure:"phase_types"`
	SubjectMarker string   `yaml:"phase_marker" mapstructure:"phase_marker"`
}

// DefaultPhaseRule правило по умолчанию: тема содержит "Week".
func DefaultPhaseRule() PhaseRule {
	return PhaseRule{SubjectMarker: DefaultPhaseMarker}
}

// Matches сообщает, подходит ли запись под правило фазы по типу или теме.
// Наличие родителя проверяет Organize.
func (r PhaseRule) Matches(rec models.WorkPackageRecord) bool {
	for _, t := range r.Types {
		if t = strings.TrimSpace(t); t != "" && strings.EqualFold(t, rec.TypeName) {
			return true
		}
	}
	return r.SubjectMarker != "" && strings.Contains(rec.Subject, r.SubjectMarker)
}

// Options параметры раскладки.
type Options struct {
	PhaseRule PhaseRule
	// MatchByParentID связывает задачу с фазой по id родителя, а тема
	// родителя используется только если по id фаза не нашлась.
	MatchByParentID bool
}

// hasParent без MatchByParentID родителем считается только тема родителя,
// ссылка без темы не мешает записи стать фазой.
func (o Options) hasParent(rec models.WorkPackageRecord) bool {
	if o.MatchByParentID {
		return rec.HasParent()
	}
	return rec.ParentTitle != ""
}

// DefaultOptions параметры раскладки по умолчанию.
func DefaultOptions() Options {
	return Options{PhaseRule: DefaultPhaseRule(), MatchByParentID: true}
}

// Organize раскладывает записи на фазы с задачами и самостоятельные задачи.
// Каждая запись попадает ровно в одно место; TotalCount всегда равен len(records).
func Organize(records []models.WorkPackageRecord, opts Options) Organization {
	org := Organization{
		Phases:          []Phase{},
		StandaloneTasks: []Task{},
		TotalCount:      len(records),
	}

	byID := make(map[int]int)
	bySubject := make(map[string]int)
	isPhase := make([]bool, len(records))

	for i, rec := range records {
		if opts.hasParent(rec) || !opts.PhaseRule.Matches(rec) {
			continue
		}
		isPhase[i] = true

		idx := len(org.Phases)
		org.Phases = append(org.Phases, Phase{
			ID:      rec.ID,
			Subject: rec.Subject,
			Type:    rec.TypeName,
			Status:  rec.StatusName,
			Tasks:   []Task{},
		})
		// при совпадении темы или id задачу получает первая добавленная фаза
		if _, ok := byID[rec.ID]; !ok {
			byID[rec.ID] = idx
		}
		if _, ok := bySubject[rec.Subject]; !ok {
			bySubject[rec.Subject] = idx
		}
	}

	for i, rec := range records {
		if isPhase[i] {
			continue
		}

		task := Task{
			ID:      rec.ID,
			Subject: rec.Subject,
			Type:    rec.TypeName,
			Status:  rec.StatusName,
			Parent:  rec.ParentTitle,
		}
		if !opts.hasParent(rec) {
			org.StandaloneTasks = append(org.StandaloneTasks, task)
			continue
		}

		idx, found := -1, false
		if opts.MatchByParentID && rec.ParentID != 0 {
			idx, found = byID[rec.ParentID]
		}
		if !found && rec.ParentTitle != "" {
			idx, found = bySubject[rec.ParentTitle]
		}
		if !found {
			org.StandaloneTasks = append(org.StandaloneTasks, task)
			continue
		}

		task.Parent = org.Phases[idx].Subject
		org.Phases[idx].Tasks = append(org.Phases[idx].Tasks, task)
	}

	slices.SortStableFunc(org.Phases, func(a, b Phase) int { return cmp.Compare(a.ID, b.ID) })
	for i := range org.Phases {
		slices.SortStableFunc(org.Phases[i].Tasks, func(a, b Task) int { return cmp.Compare(a.ID, b.ID) })
	}

	return org
}

// TaskCount количество задач, включая вложенные в фазы.
func (o Organization) TaskCount() int {
	n := len(o.StandaloneTasks)
	for _, p := range o.Phases {
		n += len(p.Tasks)
	}
	return n
}
