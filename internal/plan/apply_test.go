package plan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevN0mad/OpenProjectBoard/internal/models"
)

// mockClient реализует Client для тестов.
type mockClient struct {
	nextID      int
	projects    []models.ProjectCreateRequest
	packages    []models.WorkPackageCreateRequest
	relations   []models.RelationCreateRequest
	failSubject string
	failRelate  bool
}

func (m *mockClient) CreateProject(_ context.Context, req models.ProjectCreateRequest) (*models.Project, error) {
	m.projects = append(m.projects, req)
	return &models.Project{ID: 42, Name: req.Name}, nil
}

func (m *mockClient) CreateWorkPackage(_ context.Context, req models.WorkPackageCreateRequest) (*models.WorkPackage, error) {
	if req.Subject == m.failSubject {
		return nil, errors.New("422 unprocessable")
	}
	m.nextID++
	m.packages = append(m.packages, req)
	return &models.WorkPackage{ID: 100 + m.nextID, Subject: req.Subject}, nil
}

func (m *mockClient) CreateRelation(_ context.Context, req models.RelationCreateRequest) (*models.Relation, error) {
	if m.failRelate {
		return nil, errors.New("relation rejected")
	}
	m.relations = append(m.relations, req)
	return &models.Relation{ID: len(m.relations), Type: req.Type}, nil
}

func quietOptions() Options {
	return Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestApply_CreatesHierarchy(t *testing.T) {
	mock := &mockClient{}

	report, err := Apply(context.Background(), mock, validPlan(), quietOptions())
	require.NoError(t, err)

	assert.Equal(t, 42, report.ProjectID)
	assert.True(t, report.ProjectCreated)
	assert.Equal(t, 2, report.PhasesCreated)
	assert.Equal(t, 3, report.TasksCreated)
	assert.Equal(t, 2, report.RelationsCreated)
	assert.Empty(t, report.Warnings)

	require.Len(t, mock.packages, 5)
	assert.Equal(t, "Week 1", mock.packages[0].Subject)
	assert.Zero(t, mock.packages[0].ParentID)
	assert.Equal(t, 1, mock.packages[0].TypeID)
	assert.Equal(t, 42, mock.packages[0].ProjectID)

	// задачи ссылаются на свою фазу
	assert.Equal(t, "Mapping", mock.packages[1].Subject)
	assert.Equal(t, report.IDs["Week 1"], mock.packages[1].ParentID)
	assert.Equal(t, report.IDs["Week 2"], mock.packages[4].ParentID)
	assert.Equal(t, 8.0, mock.packages[2].EstimatedHours)

	// сначала цепочка фаз, потом явные связи
	require.Len(t, mock.relations, 2)
	assert.Equal(t, models.RelationCreateRequest{
		FromID: report.IDs["Week 2"], ToID: report.IDs["Week 1"], Type: "follows",
	}, mock.relations[0])
	assert.Equal(t, report.IDs["Succession"], mock.relations[1].FromID)
	assert.Equal(t, report.IDs["Mapping"], mock.relations[1].ToID)
	assert.Equal(t, "follows", mock.relations[1].Type)
}

func TestApply_ExistingProject(t *testing.T) {
	mock := &mockClient{}
	p := validPlan()
	p.Project = ProjectSpec{}
	p.ProjectID = 7
	p.ChainPhases = false

	report, err := Apply(context.Background(), mock, p, quietOptions())
	require.NoError(t, err)

	assert.Empty(t, mock.projects)
	assert.False(t, report.ProjectCreated)
	assert.Equal(t, 7, mock.packages[0].ProjectID)
	assert.Equal(t, 1, report.RelationsCreated)
}

func TestApply_RelationFailuresAreWarnings(t *testing.T) {
	mock := &mockClient{failRelate: true}

	report, err := Apply(context.Background(), mock, validPlan(), quietOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, report.RelationsCreated)
	assert.Len(t, report.Warnings, 2)
	assert.Contains(t, report.Warnings[0], "relation rejected")
	assert.Equal(t, 3, report.TasksCreated)
}

func TestApply_CreationFailureAborts(t *testing.T) {
	mock := &mockClient{failSubject: "Succession"}

	report, err := Apply(context.Background(), mock, validPlan(), quietOptions())
	require.Error(t, err)

	assert.Contains(t, err.Error(), `create task "Succession"`)
	assert.Equal(t, 1, report.TasksCreated)
	assert.Empty(t, mock.relations)
}

func TestApply_DryRun(t *testing.T) {
	mock := &mockClient{}
	opts := quietOptions()
	opts.DryRun = true

	report, err := Apply(context.Background(), mock, validPlan(), opts)
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.PhasesCreated)
	assert.Equal(t, 3, report.TasksCreated)
	assert.Equal(t, 2, report.RelationsCreated)
	assert.Empty(t, mock.projects)
	assert.Empty(t, mock.packages)
	assert.Contains(t, report.String(), "would be created")
}

func TestApply_InvalidPlan(t *testing.T) {
	mock := &mockClient{}

	_, err := Apply(context.Background(), mock, Plan{}, quietOptions())

	assert.ErrorContains(t, err, "invalid plan")
	assert.Empty(t, mock.packages)
}
