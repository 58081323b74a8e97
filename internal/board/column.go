package board

import "strings"

// Column колонка канбан-доски.
type Column string

const (
	ColumnToDo       Column = "To Do"
	ColumnInProgress Column = "In Progress"
	ColumnReview     Column = "Review"
	ColumnDone       Column = "Done"
)

// Columns колонки доски в порядке отображения.
var Columns = []Column{ColumnToDo, ColumnInProgress, ColumnReview, ColumnDone}

// ClassifyColumn определяет колонку по названию статуса.
// Проверки идут строго по порядку, первая сработавшая побеждает.
func ClassifyColumn(status string) Column {
	s := strings.ToLower(status)
	switch {
	case containsAny(s, "progress", "active"):
		return ColumnInProgress
	case containsAny(s, "review", "resolved"):
		return ColumnReview
	case containsAny(s, "done", "closed"):
		return ColumnDone
	default:
		return ColumnToDo
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
