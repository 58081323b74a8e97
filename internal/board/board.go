package board

import (
	"cmp"
	"slices"
)

// Entry карточка на доске: фаза или задача.
type Entry struct {
	ID      int    `json:"id"`
	Subject string `json:"subject"`
	Status  string `json:"status"`
	Type    string `json:"type"`
	IsPhase bool   `json:"is_phase"`
	Parent  string `json:"parent,omitempty"`
}

// ColumnEntries карточки одной колонки.
type ColumnEntries struct {
	Column  Column  `json:"column"`
	Entries []Entry `json:"entries"`
}

// Board канбан-доска: всегда четыре колонки в фиксированном порядке.
type Board struct {
	Columns []ColumnEntries `json:"columns"`
}

// Entries возвращает карточки колонки.
func (b Board) Entries(col Column) []Entry {
	for _, c := range b.Columns {
		if c.Column == col {
			return c.Entries
		}
	}
	return nil
}

// BuildBoard раскладывает фазы и все задачи по колонкам согласно статусу.
// Внутри колонки сначала фазы, затем по возрастанию id.
func BuildBoard(org Organization) Board {
	grouped := make(map[Column][]Entry, len(Columns))
	add := func(e Entry) {
		col := ClassifyColumn(e.Status)
		grouped[col] = append(grouped[col], e)
	}

	for _, phase := range org.Phases {
		add(Entry{ID: phase.ID, Subject: phase.Subject, Status: phase.Status, Type: phase.Type, IsPhase: true})
		for _, task := range phase.Tasks {
			add(taskEntry(task))
		}
	}
	for _, task := range org.StandaloneTasks {
		add(taskEntry(task))
	}

	b := Board{Columns: make([]ColumnEntries, 0, len(Columns))}
	for _, col := range Columns {
		entries := grouped[col]
		if entries == nil {
			entries = []Entry{}
		}
		slices.SortStableFunc(entries, compareEntries)
		b.Columns = append(b.Columns, ColumnEntries{Column: col, Entries: entries})
	}
	return b
}

func taskEntry(t Task) Entry {
	return Entry{ID: t.ID, Subject: t.Subject, Status: t.Status, Type: t.Type, Parent: t.Parent}
}

func compareEntries(a, b Entry) int {
	if a.IsPhase != b.IsPhase {
		if a.IsPhase {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.ID, b.ID)
}
