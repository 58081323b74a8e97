package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevN0mad/OpenProjectBoard/internal/models"
)

func TestCreateProject(t *testing.T) {
	var body map[string]any
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/projects", r.URL.Path)
		body = decodeBody(t, r)
		writeJSON(w, http.StatusCreated, map[string]any{"id": 8, "identifier": "cto-handover", "name": "CTO Handover"})
	})

	p, err := svc.CreateProject(context.Background(), models.ProjectCreateRequest{Name: " CTO Handover ", Description: "Handover plan"})

	require.NoError(t, err)
	assert.Equal(t, 8, p.ID)
	assert.Equal(t, "CTO Handover", body["name"])
	assert.Equal(t, map[string]any{"raw": "Handover plan"}, body["description"])
	assert.NotContains(t, body, "_links")
}

func TestCreateProject_RequiresName(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := svc.CreateProject(context.Background(), models.ProjectCreateRequest{Name: "  "})
	assert.ErrorContains(t, err, "name is required")
}

func TestListMemberships_FiltersByProject(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/memberships", r.URL.Path)
		assert.Equal(t, `[{"project":{"operator":"=","values":["4"]}}]`, r.URL.Query().Get("filters"))
		writeJSON(w, http.StatusOK, collectionPage(r, []map[string]any{{
			"id": 1,
			"_links": map[string]any{
				"principal": map[string]any{"href": "/api/v3/users/3", "title": "Ana"},
				"roles":     []map[string]any{{"href": "/api/v3/roles/3", "title": "Project admin"}},
			},
		}}))
	})

	members, err := svc.ListMemberships(context.Background(), 4)

	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Ana", members[0].Links.Principal.Title)
	assert.Equal(t, []string{"Project admin"}, members[0].RoleNames())
}

func TestProjectSummary(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/projects/4":
			writeJSON(w, http.StatusOK, map[string]any{"id": 4, "name": "Handover"})
		case "/api/v3/projects/4/work_packages":
			withDates := wpJSON(1, "Week 1", "New", 0, "")
			withDates["startDate"] = "2025-01-06"
			assigned := wpJSON(2, "Task", "Closed", 1, "Week 1")
			assigned["_links"].(map[string]any)["assignee"] = map[string]any{"href": "/api/v3/users/3", "title": "Ana"}
			writeJSON(w, http.StatusOK, collectionPage(r, []map[string]any{withDates, assigned, wpJSON(3, "Other", "New", 0, "")}))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	summary, err := svc.ProjectSummary(context.Background(), 4)

	require.NoError(t, err)
	assert.Equal(t, "Handover", summary.Project.Name)
	assert.Equal(t, 3, summary.TotalWorkPackages)
	assert.Equal(t, 1, summary.WorkPackagesWithDates)
	assert.Equal(t, 1, summary.AssignedWorkPackages)
	assert.Equal(t, 2, summary.UnassignedWorkPackages)
	assert.Equal(t, map[string]int{"New": 2, "Closed": 1}, summary.StatusBreakdown)
	assert.True(t, summary.GanttReady)
}
