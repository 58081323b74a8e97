package board

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const maxSubjectRunes = 50

var (
	colorHeader = lipgloss.Color("#fe8019")
	colorDim    = lipgloss.Color("#928374")
	colorGreen  = lipgloss.Color("#8ec07c")
	colorYellow = lipgloss.Color("#fabd2f")
	colorBlue   = lipgloss.Color("#83a598")
)

// Renderer отрисовывает структуру проекта и доску стилями lipgloss.
type Renderer struct {
	header  lipgloss.Style
	dim     lipgloss.Style
	phase   lipgloss.Style
	columns map[Column]lipgloss.Style
}

// NewRenderer создает отрисовщик поверх renderer; цвета зависят от его профиля терминала.
func NewRenderer(r *lipgloss.Renderer) *Renderer {
	return &Renderer{
		header: r.NewStyle().Foreground(colorHeader).Bold(true),
		dim:    r.NewStyle().Foreground(colorDim),
		phase:  r.NewStyle().Bold(true),
		columns: map[Column]lipgloss.Style{
			ColumnToDo:       r.NewStyle().Foreground(colorDim).Bold(true),
			ColumnInProgress: r.NewStyle().Foreground(colorYellow).Bold(true),
			ColumnReview:     r.NewStyle().Foreground(colorBlue).Bold(true),
			ColumnDone:       r.NewStyle().Foreground(colorGreen).Bold(true),
		},
	}
}

// PlainRenderer отрисовщик без escape-последовательностей (для сообщений в чат).
func PlainRenderer() *Renderer {
	return NewRenderer(lipgloss.NewRenderer(io.Discard))
}

func defaultRenderer() *Renderer {
	return NewRenderer(lipgloss.DefaultRenderer())
}

// PhaseSummary количество задач в фазе.
type PhaseSummary struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Tasks int    `json:"tasks"`
}

// Summarize возвращает сводку по фазам ("Week 1: 4 tasks"). marker это
// маркер фазы из PhaseRule; фаза без маркера в теме получает метку "Phase".
func Summarize(org Organization, marker string) []PhaseSummary {
	out := make([]PhaseSummary, 0, len(org.Phases))
	for _, p := range org.Phases {
		out = append(out, PhaseSummary{ID: p.ID, Label: phaseLabel(p.Subject, marker), Tasks: len(p.Tasks)})
	}
	return out
}

func phaseLabel(subject, marker string) string {
	if marker == "" {
		return "Phase"
	}
	_, rest, ok := strings.Cut(subject, marker+" ")
	if !ok {
		return "Phase"
	}
	num, _, _ := strings.Cut(rest, " ")
	return marker + " " + num
}

// RenderStructure отображает иерархию стилями терминала по умолчанию.
func RenderStructure(org Organization) string {
	return defaultRenderer().Structure(org)
}

// RenderBoard отображает колонки доски стилями терминала по умолчанию.
func RenderBoard(bd Board) string {
	return defaultRenderer().Board(bd)
}

// Render отображает структуру проекта и доску целиком.
func Render(org Organization, bd Board) string {
	return defaultRenderer().Render(org, bd, Summarize(org, DefaultPhaseMarker))
}

// Structure отображает иерархию: фазы с деревом задач и самостоятельные задачи.
func (r *Renderer) Structure(org Organization) string {
	var b strings.Builder

	b.WriteString(r.headerLine("Project structure"))
	for _, phase := range org.Phases {
		fmt.Fprintf(&b, "\n%s %s\n", r.phase.Render(phase.Type+": "+phase.Subject), r.dim.Render(fmt.Sprintf("(ID: %d)", phase.ID)))
		fmt.Fprintf(&b, "   Status: %s\n", phase.Status)
		if len(phase.Tasks) == 0 {
			b.WriteString(r.dim.Render("   No tasks found") + "\n")
			continue
		}
		for i, task := range phase.Tasks {
			connector := "├─ "
			if i == len(phase.Tasks)-1 {
				connector = "└─ "
			}
			fmt.Fprintf(&b, "   %s%s (ID: %d) - %s\n", connector, task.Subject, task.ID, task.Status)
		}
	}

	if len(org.StandaloneTasks) > 0 {
		fmt.Fprintf(&b, "\n%s\n", r.phase.Render(fmt.Sprintf("Standalone tasks (%d)", len(org.StandaloneTasks))))
		for _, task := range sortedTasks(org.StandaloneTasks) {
			parent := ""
			if task.Parent != "" {
				parent = " - Parent: " + task.Parent
			}
			fmt.Fprintf(&b, "   • %s (ID: %d) - %s%s\n", task.Subject, task.ID, task.Status, parent)
		}
	}

	fmt.Fprintf(&b, "\nTotal work packages: %d\n", org.TotalCount)
	return b.String()
}

// Board отображает колонки доски; фазы идут без отступа, задачи с отступом.
func (r *Renderer) Board(bd Board) string {
	var b strings.Builder

	b.WriteString(r.headerLine("Kanban board"))
	for _, col := range bd.Columns {
		style, ok := r.columns[col.Column]
		if !ok {
			style = r.header
		}
		fmt.Fprintf(&b, "\n%s\n", style.Render(fmt.Sprintf("%s (%d items)", col.Column, len(col.Entries))))
		if len(col.Entries) == 0 {
			b.WriteString(r.dim.Render("   (No items)") + "\n")
			continue
		}
		for _, e := range col.Entries {
			indent := "   "
			subject := Truncate(e.Subject, maxSubjectRunes)
			if e.IsPhase {
				indent = ""
				subject = r.phase.Render(subject)
			}
			fmt.Fprintf(&b, "%s%s (ID: %d)\n", indent, subject, e.ID)
		}
	}
	return b.String()
}

// Render отображает структуру, доску и сводку по фазам.
func (r *Renderer) Render(org Organization, bd Board, summary []PhaseSummary) string {
	var b strings.Builder
	b.WriteString(r.Structure(org))
	b.WriteString("\n")
	b.WriteString(r.Board(bd))

	if len(summary) > 0 || len(org.StandaloneTasks) > 0 {
		b.WriteString("\n" + r.headerLine("Summary"))
		for _, s := range summary {
			fmt.Fprintf(&b, "   %s: %d tasks (Phase ID: %d)\n", s.Label, s.Tasks, s.ID)
		}
		if len(org.StandaloneTasks) > 0 {
			fmt.Fprintf(&b, "   Standalone: %d tasks\n", len(org.StandaloneTasks))
		}
	}
	return b.String()
}

// Truncate обрезает строку до max рун, добавляя "...".
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

func (r *Renderer) headerLine(text string) string {
	return r.header.Render(text) + "\n" + r.dim.Render(strings.Repeat("─", lipgloss.Width(text))) + "\n"
}

func sortedTasks(tasks []Task) []Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b Task) int { return cmp.Compare(a.ID, b.ID) })
	return out
}
