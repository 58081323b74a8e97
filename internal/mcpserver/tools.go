package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DevN0mad/OpenProjectBoard/internal/board"
	"github.com/DevN0mad/OpenProjectBoard/internal/models"
)

// EmptyInput аргументы инструментов без параметров.
type EmptyInput struct{}

type HealthCheckResult struct {
	Status                string `json:"status" jsonschema:"healthy or degraded"`
	Message               string `json:"message"`
	OpenProjectConnection string `json:"openproject_connection" jsonschema:"connected or failed"`
	OpenProjectVersion    string `json:"openproject_version,omitempty"`
	OpenProjectURL        string `json:"openproject_url"`
	Error                 string `json:"error,omitempty"`
}

type CreateProjectInput struct {
	Name        string `json:"name" jsonschema:"project name"`
	Description string `json:"description,omitempty" jsonschema:"project description"`
	Identifier  string `json:"identifier,omitempty" jsonschema:"url identifier, generated by OpenProject when empty"`
}

type ProjectResult struct {
	ID          int    `json:"id"`
	Identifier  string `json:"identifier"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
	Public      bool   `json:"public"`
}

type ProjectsResult struct {
	Projects []ProjectResult `json:"projects"`
	Count    int             `json:"count"`
}

type CreateWorkPackageInput struct {
	ProjectID      int     `json:"project_id" jsonschema:"project id"`
	Subject        string  `json:"subject" jsonschema:"work package subject"`
	Description    string  `json:"description,omitempty"`
	TypeID         int     `json:"type_id,omitempty" jsonschema:"work package type id"`
	AssigneeID     int     `json:"assignee_id,omitempty"`
	ParentID       int     `json:"parent_id,omitempty" jsonschema:"parent work package id"`
	StartDate      string  `json:"start_date,omitempty" jsonschema:"start date, YYYY-MM-DD"`
	DueDate        string  `json:"due_date,omitempty" jsonschema:"due date, YYYY-MM-DD"`
	EstimatedHours float64 `json:"estimated_hours,omitempty"`
}

type WorkPackageResult struct {
	ID        int    `json:"id"`
	Subject   string `json:"subject"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Assignee  string `json:"assignee,omitempty"`
	ParentID  int    `json:"parent_id,omitempty"`
	Parent    string `json:"parent,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	DueDate   string `json:"due_date,omitempty"`
}

type WorkPackagesResult struct {
	ProjectID    int                 `json:"project_id"`
	WorkPackages []WorkPackageResult `json:"work_packages"`
	Count        int                 `json:"count"`
}

type UpdateWorkPackageInput struct {
	WorkPackageID  int      `json:"work_package_id" jsonschema:"work package id"`
	Subject        *string  `json:"subject,omitempty"`
	Description    *string  `json:"description,omitempty"`
	StartDate      *string  `json:"start_date,omitempty" jsonschema:"start date, YYYY-MM-DD"`
	DueDate        *string  `json:"due_date,omitempty" jsonschema:"due date, YYYY-MM-DD"`
	AssigneeID     *int     `json:"assignee_id,omitempty"`
	StatusID       *int     `json:"status_id,omitempty"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty"`
}

type CreateDependencyInput struct {
	FromWorkPackageID int    `json:"from_work_package_id" jsonschema:"work package the relation starts from"`
	ToWorkPackageID   int    `json:"to_work_package_id" jsonschema:"related work package"`
	RelationType      string `json:"relation_type,omitempty" jsonschema:"follows, precedes, blocks, blocked, relates, duplicates or duplicated; follows by default"`
	Description       string `json:"description,omitempty"`
	Lag               int    `json:"lag,omitempty" jsonschema:"working days between the work packages"`
}

type RelationResult struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	ReverseType string `json:"reverse_type,omitempty"`
	FromID      int    `json:"from_id"`
	From        string `json:"from,omitempty"`
	ToID        int    `json:"to_id"`
	To          string `json:"to,omitempty"`
	Lag         int    `json:"lag"`
	Description string `json:"description,omitempty"`
}

type WorkPackageIDInput struct {
	WorkPackageID int `json:"work_package_id" jsonschema:"work package id"`
}

type RelationsResult struct {
	WorkPackageID int              `json:"work_package_id"`
	Relations     []RelationResult `json:"relations"`
	Count         int              `json:"count"`
}

type DeleteRelationInput struct {
	RelationID int `json:"relation_id" jsonschema:"relation id"`
}

type DeleteRelationResult struct {
	RelationID int  `json:"relation_id"`
	Deleted    bool `json:"deleted"`
}

type ProjectIDInput struct {
	ProjectID int `json:"project_id" jsonschema:"project id"`
}

type GetUsersInput struct {
	EmailFilter string `json:"email_filter,omitempty" jsonschema:"exact email to look for"`
}

type UserResult struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Login  string `json:"login,omitempty"`
	Email  string `json:"email,omitempty"`
	Status string `json:"status,omitempty"`
}

type UsersResult struct {
	Users []UserResult `json:"users"`
	Count int          `json:"count"`
}

type AssignByEmailInput struct {
	WorkPackageID int    `json:"work_package_id" jsonschema:"work package id"`
	AssigneeEmail string `json:"assignee_email" jsonschema:"email of the new assignee"`
}

type AssignResult struct {
	WorkPackage WorkPackageResult `json:"work_package"`
	Assignee    UserResult        `json:"assignee"`
}

type MemberResult struct {
	ID          int      `json:"id"`
	PrincipalID int      `json:"principal_id"`
	Name        string   `json:"name"`
	Roles       []string `json:"roles"`
}

type MembersResult struct {
	ProjectID int            `json:"project_id"`
	Members   []MemberResult `json:"members"`
	Count     int            `json:"count"`
}

type TypesResult struct {
	Types []models.Type `json:"types"`
	Count int           `json:"count"`
}

type StatusesResult struct {
	Statuses []models.Status `json:"statuses"`
	Count    int             `json:"count"`
}

type PrioritiesResult struct {
	Priorities []models.Priority `json:"priorities"`
	Count      int               `json:"count"`
}

type ProjectSummaryResult struct {
	Project                ProjectResult  `json:"project"`
	TotalWorkPackages      int            `json:"total_work_packages"`
	WorkPackagesWithDates  int            `json:"work_packages_with_dates"`
	AssignedWorkPackages   int            `json:"assigned_work_packages"`
	UnassignedWorkPackages int            `json:"unassigned_work_packages"`
	StatusBreakdown        map[string]int `json:"status_breakdown"`
	GanttReady             bool           `json:"gantt_ready"`
}

type BoardResult struct {
	ProjectID       int                   `json:"project_id"`
	TotalCount      int                   `json:"total_count"`
	Phases          []board.Phase         `json:"phases"`
	StandaloneTasks []board.Task          `json:"standalone_tasks"`
	Columns         []board.ColumnEntries `json:"columns"`
	Summary         []board.PhaseSummary  `json:"summary"`
	Text            string                `json:"text" jsonschema:"plain text rendering of the structure and the board"`
	GeneratedAt     string                `json:"generated_at"`
}

func (s *Server) healthCheck(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, HealthCheckResult, error) {
	result := HealthCheckResult{OpenProjectURL: s.client.BaseURL()}

	root, err := s.client.TestConnection(ctx)
	if err != nil {
		s.logger.Warn("Health check failed", "error", err)
		result.Status = "degraded"
		result.Message = "server is running but OpenProject connection failed"
		result.OpenProjectConnection = "failed"
		result.Error = err.Error()
		return nil, result, nil
	}

	result.Status = "healthy"
	result.Message = "server is running"
	result.OpenProjectConnection = "connected"
	result.OpenProjectVersion = root.CoreVersion
	return nil, result, nil
}

func (s *Server) createProject(ctx context.Context, _ *mcp.CallToolRequest, in CreateProjectInput) (*mcp.CallToolResult, ProjectResult, error) {
	project, err := s.client.CreateProject(ctx, models.ProjectCreateRequest{
		Name:        in.Name,
		Identifier:  in.Identifier,
		Description: in.Description,
	})
	if err != nil {
		return nil, ProjectResult{}, fmt.Errorf("create project: %w", err)
	}
	s.logger.Info("Project created via MCP", "project_id", project.ID)
	return nil, projectResult(*project), nil
}

func (s *Server) createWorkPackage(ctx context.Context, _ *mcp.CallToolRequest, in CreateWorkPackageInput) (*mcp.CallToolResult, WorkPackageResult, error) {
	wp, err := s.client.CreateWorkPackage(ctx, models.WorkPackageCreateRequest{
		ProjectID:      in.ProjectID,
		Subject:        in.Subject,
		Description:    in.Description,
		TypeID:         in.TypeID,
		AssigneeID:     in.AssigneeID,
		ParentID:       in.ParentID,
		StartDate:      in.StartDate,
		DueDate:        in.DueDate,
		EstimatedHours: in.EstimatedHours,
	})
	if err != nil {
		return nil, WorkPackageResult{}, fmt.Errorf("create work package: %w", err)
	}
	s.logger.Info("Work package created via MCP", "id", wp.ID, "project_id", in.ProjectID)
	return nil, workPackageResult(*wp), nil
}

func (s *Server) createDependency(ctx context.Context, _ *mcp.CallToolRequest, in CreateDependencyInput) (*mcp.CallToolResult, RelationResult, error) {
	relType := strings.TrimSpace(in.RelationType)
	if relType == "" {
		relType = "follows"
	}
	rel, err := s.client.CreateRelation(ctx, models.RelationCreateRequest{
		FromID:      in.FromWorkPackageID,
		ToID:        in.ToWorkPackageID,
		Type:        relType,
		Description: in.Description,
		Lag:         in.Lag,
	})
	if err != nil {
		return nil, RelationResult{}, fmt.Errorf("create relation: %w", err)
	}
	return nil, relationResult(*rel), nil
}

func (s *Server) getRelations(ctx context.Context, _ *mcp.CallToolRequest, in WorkPackageIDInput) (*mcp.CallToolResult, RelationsResult, error) {
	rels, err := s.client.ListRelations(ctx, in.WorkPackageID)
	if err != nil {
		return nil, RelationsResult{}, fmt.Errorf("list relations: %w", err)
	}
	out := RelationsResult{WorkPackageID: in.WorkPackageID, Relations: make([]RelationResult, 0, len(rels))}
	for _, r := range rels {
		out.Relations = append(out.Relations, relationResult(r))
	}
	out.Count = len(out.Relations)
	return nil, out, nil
}

func (s *Server) deleteRelation(ctx context.Context, _ *mcp.CallToolRequest, in DeleteRelationInput) (*mcp.CallToolResult, DeleteRelationResult, error) {
	if err := s.client.DeleteRelation(ctx, in.RelationID); err != nil {
		return nil, DeleteRelationResult{}, fmt.Errorf("delete relation: %w", err)
	}
	return nil, DeleteRelationResult{RelationID: in.RelationID, Deleted: true}, nil
}

func (s *Server) getProjects(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, ProjectsResult, error) {
	out, err := s.listProjects(ctx)
	if err != nil {
		return nil, ProjectsResult{}, err
	}
	return nil, out, nil
}

func (s *Server) listProjects(ctx context.Context) (ProjectsResult, error) {
	projects, err := s.client.ListProjects(ctx)
	if err != nil {
		return ProjectsResult{}, fmt.Errorf("list projects: %w", err)
	}
	out := ProjectsResult{Projects: make([]ProjectResult, 0, len(projects))}
	for _, p := range projects {
		out.Projects = append(out.Projects, projectResult(p))
	}
	out.Count = len(out.Projects)
	return out, nil
}

func (s *Server) getWorkPackages(ctx context.Context, _ *mcp.CallToolRequest, in ProjectIDInput) (*mcp.CallToolResult, WorkPackagesResult, error) {
	out, err := s.listWorkPackages(ctx, in.ProjectID)
	if err != nil {
		return nil, WorkPackagesResult{}, err
	}
	return nil, out, nil
}

func (s *Server) listWorkPackages(ctx context.Context, projectID int) (WorkPackagesResult, error) {
	wps, err := s.client.ListWorkPackages(ctx, projectID)
	if err != nil {
		return WorkPackagesResult{}, fmt.Errorf("list work packages: %w", err)
	}
	out := WorkPackagesResult{ProjectID: projectID, WorkPackages: make([]WorkPackageResult, 0, len(wps))}
	for _, wp := range wps {
		out.WorkPackages = append(out.WorkPackages, workPackageResult(wp))
	}
	out.Count = len(out.WorkPackages)
	return out, nil
}

func (s *Server) updateWorkPackage(ctx context.Context, _ *mcp.CallToolRequest, in UpdateWorkPackageInput) (*mcp.CallToolResult, WorkPackageResult, error) {
	req := models.WorkPackageUpdateRequest{
		Subject:        in.Subject,
		Description:    in.Description,
		StartDate:      in.StartDate,
		DueDate:        in.DueDate,
		AssigneeID:     in.AssigneeID,
		StatusID:       in.StatusID,
		EstimatedHours: in.EstimatedHours,
	}
	if req.Empty() {
		return nil, WorkPackageResult{}, fmt.Errorf("no fields to update")
	}

	wp, err := s.client.UpdateWorkPackage(ctx, in.WorkPackageID, req)
	if err != nil {
		return nil, WorkPackageResult{}, fmt.Errorf("update work package: %w", err)
	}
	return nil, workPackageResult(*wp), nil
}

func (s *Server) getUsers(ctx context.Context, _ *mcp.CallToolRequest, in GetUsersInput) (*mcp.CallToolResult, UsersResult, error) {
	users, err := s.client.ListUsers(ctx, strings.TrimSpace(in.EmailFilter))
	if err != nil {
		return nil, UsersResult{}, fmt.Errorf("list users: %w", err)
	}
	out := UsersResult{Users: make([]UserResult, 0, len(users))}
	for _, u := range users {
		out.Users = append(out.Users, userResult(u))
	}
	out.Count = len(out.Users)
	return nil, out, nil
}

func (s *Server) assignByEmail(ctx context.Context, _ *mcp.CallToolRequest, in AssignByEmailInput) (*mcp.CallToolResult, AssignResult, error) {
	wp, user, err := s.client.AssignByEmail(ctx, in.WorkPackageID, strings.TrimSpace(in.AssigneeEmail))
	if err != nil {
		return nil, AssignResult{}, fmt.Errorf("assign work package %d: %w", in.WorkPackageID, err)
	}
	return nil, AssignResult{WorkPackage: workPackageResult(*wp), Assignee: userResult(*user)}, nil
}

func (s *Server) getProjectMembers(ctx context.Context, _ *mcp.CallToolRequest, in ProjectIDInput) (*mcp.CallToolResult, MembersResult, error) {
	members, err := s.client.ListMemberships(ctx, in.ProjectID)
	if err != nil {
		return nil, MembersResult{}, fmt.Errorf("list project members: %w", err)
	}
	out := MembersResult{ProjectID: in.ProjectID, Members: make([]MemberResult, 0, len(members))}
	for _, m := range members {
		out.Members = append(out.Members, MemberResult{
			ID:          m.ID,
			PrincipalID: m.Links.Principal.ID(),
			Name:        m.Links.Principal.Title,
			Roles:       m.RoleNames(),
		})
	}
	out.Count = len(out.Members)
	return nil, out, nil
}

func (s *Server) getTypes(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, TypesResult, error) {
	types, err := s.client.Types(ctx)
	if err != nil {
		return nil, TypesResult{}, fmt.Errorf("list types: %w", err)
	}
	if types == nil {
		types = []models.Type{}
	}
	return nil, TypesResult{Types: types, Count: len(types)}, nil
}

func (s *Server) getStatuses(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, StatusesResult, error) {
	statuses, err := s.client.Statuses(ctx)
	if err != nil {
		return nil, StatusesResult{}, fmt.Errorf("list statuses: %w", err)
	}
	if statuses == nil {
		statuses = []models.Status{}
	}
	return nil, StatusesResult{Statuses: statuses, Count: len(statuses)}, nil
}

func (s *Server) getPriorities(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, PrioritiesResult, error) {
	priorities, err := s.client.Priorities(ctx)
	if err != nil {
		return nil, PrioritiesResult{}, fmt.Errorf("list priorities: %w", err)
	}
	if priorities == nil {
		priorities = []models.Priority{}
	}
	return nil, PrioritiesResult{Priorities: priorities, Count: len(priorities)}, nil
}

func (s *Server) getProjectSummary(ctx context.Context, _ *mcp.CallToolRequest, in ProjectIDInput) (*mcp.CallToolResult, ProjectSummaryResult, error) {
	sum, err := s.client.ProjectSummary(ctx, in.ProjectID)
	if err != nil {
		return nil, ProjectSummaryResult{}, fmt.Errorf("project summary: %w", err)
	}
	breakdown := sum.StatusBreakdown
	if breakdown == nil {
		breakdown = map[string]int{}
	}
	return nil, ProjectSummaryResult{
		Project:                projectResult(sum.Project),
		TotalWorkPackages:      sum.TotalWorkPackages,
		WorkPackagesWithDates:  sum.WorkPackagesWithDates,
		AssignedWorkPackages:   sum.AssignedWorkPackages,
		UnassignedWorkPackages: sum.UnassignedWorkPackages,
		StatusBreakdown:        breakdown,
		GanttReady:             sum.GanttReady,
	}, nil
}

func (s *Server) organizeBoard(ctx context.Context, _ *mcp.CallToolRequest, in ProjectIDInput) (*mcp.CallToolResult, BoardResult, error) {
	view, err := s.boards.Build(ctx, in.ProjectID)
	if err != nil {
		return nil, BoardResult{}, err
	}

	summary := view.Summary
	if summary == nil {
		summary = []board.PhaseSummary{}
	}
	return nil, BoardResult{
		ProjectID:       view.ProjectID,
		TotalCount:      view.Organization.TotalCount,
		Phases:          view.Organization.Phases,
		StandaloneTasks: view.Organization.StandaloneTasks,
		Columns:         view.Board.Columns,
		Summary:         summary,
		Text:            s.renderer.Render(view.Organization, view.Board, view.Summary),
		GeneratedAt:     view.GeneratedAt.Format(time.RFC3339),
	}, nil
}

func projectResult(p models.Project) ProjectResult {
	return ProjectResult{
		ID:          p.ID,
		Identifier:  p.Identifier,
		Name:        p.Name,
		Description: p.DescriptionText(),
		Active:      p.Active,
		Public:      p.Public,
	}
}

func workPackageResult(wp models.WorkPackage) WorkPackageResult {
	out := WorkPackageResult{
		ID:       wp.ID,
		Subject:  wp.Subject,
		Type:     wp.TypeName(),
		Status:   wp.StatusName(),
		Assignee: wp.Links.Assignee.Title,
		ParentID: wp.Links.Parent.ID(),
		Parent:   wp.Links.Parent.Title,
	}
	if wp.StartDate != nil {
		out.StartDate = *wp.StartDate
	}
	if wp.DueDate != nil {
		out.DueDate = *wp.DueDate
	}
	return out
}

func relationResult(r models.Relation) RelationResult {
	return RelationResult{
		ID:          r.ID,
		Type:        r.Type,
		ReverseType: r.ReverseType,
		FromID:      r.Links.From.ID(),
		From:        r.Links.From.Title,
		ToID:        r.Links.To.ID(),
		To:          r.Links.To.Title,
		Lag:         r.Lag,
		Description: r.Description,
	}
}

func userResult(u models.User) UserResult {
	return UserResult{ID: u.ID, Name: u.Name, Login: u.Login, Email: u.Email, Status: u.Status}
}
