package board

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func TestRender_ContainsStructureAndColumns(t *testing.T) {
	org := Organization{
		Phases: []Phase{{ID: 1, Subject: "Week 1 - Foundation", Type: "Phase", Status: "New", Tasks: []Task{
			{ID: 2, Subject: "Stakeholder meeting", Status: "Closed", Parent: "Week 1 - Foundation"},
		}}},
		StandaloneTasks: []Task{{ID: 3, Subject: "Orphan", Status: "New", Parent: "Week 99"}},
		TotalCount:      3,
	}

	out := PlainRenderer().Render(org, BuildBoard(org), Summarize(org, DefaultPhaseMarker))

	assert.Contains(t, out, "Week 1 - Foundation")
	assert.Contains(t, out, "Stakeholder meeting (ID: 2) - Closed")
	assert.Contains(t, out, "Parent: Week 99")
	assert.Contains(t, out, "Total work packages: 3")
	assert.Contains(t, out, "To Do (2 items)")
	assert.Contains(t, out, "Done (1 items)")
	assert.Contains(t, out, "(No items)")
	assert.Contains(t, out, "Week 1: 1 tasks (Phase ID: 1)")
	assert.Contains(t, out, "Standalone: 1 tasks")
	assert.NotContains(t, out, "\x1b[")
}

func TestRenderer_BoardTruncatesSubjects(t *testing.T) {
	long := strings.Repeat("x", 80)
	bd := BuildBoard(Organization{StandaloneTasks: []Task{{ID: 7, Subject: long, Status: "New"}}, TotalCount: 1})

	out := PlainRenderer().Board(bd)

	assert.Contains(t, out, "   "+strings.Repeat("x", 50)+"... (ID: 7)")
	assert.NotContains(t, out, strings.Repeat("x", 51))
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("я", 60)

	assert.Equal(t, strings.Repeat("я", 50)+"...", Truncate(long, 50))
	assert.Equal(t, "short", Truncate("short", 50))
}

func TestSummarize_Labels(t *testing.T) {
	org := Organization{Phases: []Phase{
		{ID: 1, Subject: "Week 2 - Technical Leadership Transition"},
		{ID: 2, Subject: "Kickoff phase"},
	}}

	got := Summarize(org, DefaultPhaseMarker)

	assert.Equal(t, "Week 2", got[0].Label)
	assert.Equal(t, "Phase", got[1].Label)
}

func TestSummarize_CustomMarker(t *testing.T) {
	org := Organization{Phases: []Phase{
		{ID: 1, Subject: "Sprint 4 - Hardening"},
		{ID: 2, Subject: "Week 1"},
	}}

	got := Summarize(org, "Sprint")

	assert.Equal(t, "Sprint 4", got[0].Label)
	assert.Equal(t, "Phase", got[1].Label)
	assert.Equal(t, "Phase", Summarize(org, "")[0].Label)
}
