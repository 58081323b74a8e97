// Package mcpserver публикует операции OpenProject и доску как MCP-инструменты и ресурсы.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DevN0mad/OpenProjectBoard/internal/board"
	"github.com/DevN0mad/OpenProjectBoard/internal/models"
	"github.com/DevN0mad/OpenProjectBoard/internal/services"
)

const (
	serverName    = "openproject-board"
	serverVersion = "1.0.0"
)

// Client операции OpenProject, которые используют инструменты сервера.
type Client interface {
	BaseURL() string
	TestConnection(ctx context.Context) (models.Root, error)

	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id int) (*models.Project, error)
	CreateProject(ctx context.Context, req models.ProjectCreateRequest) (*models.Project, error)
	ListMemberships(ctx context.Context, projectID int) ([]models.Membership, error)
	ProjectSummary(ctx context.Context, projectID int) (*models.ProjectSummary, error)

	ListWorkPackages(ctx context.Context, projectID int) ([]models.WorkPackage, error)
	CreateWorkPackage(ctx context.Context, req models.WorkPackageCreateRequest) (*models.WorkPackage, error)
	UpdateWorkPackage(ctx context.Context, id int, req models.WorkPackageUpdateRequest) (*models.WorkPackage, error)
	AssignByEmail(ctx context.Context, id int, email string) (*models.WorkPackage, *models.User, error)

	CreateRelation(ctx context.Context, req models.RelationCreateRequest) (*models.Relation, error)
	ListRelations(ctx context.Context, workPackageID int) ([]models.Relation, error)
	DeleteRelation(ctx context.Context, id int) error

	ListUsers(ctx context.Context, emailFilter string) ([]models.User, error)

	Types(ctx context.Context) ([]models.Type, error)
	Statuses(ctx context.Context) ([]models.Status, error)
	Priorities(ctx context.Context) ([]models.Priority, error)
}

var _ Client = (*services.OpenProjectService)(nil)

// Server MCP-сервер поверх клиента OpenProject и сервиса доски.
type Server struct {
	client   Client
	boards   services.BoardBuilder
	renderer *board.Renderer
	logger   *slog.Logger
	server   *mcp.Server
}

// New создает сервер и регистрирует инструменты и ресурсы.
func New(client Client, boards services.BoardBuilder, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		return nil, fmt.Errorf("openproject client is required")
	}
	if boards == nil {
		return nil, fmt.Errorf("board builder is required")
	}

	s := &Server{
		client:   client,
		boards:   boards,
		renderer: board.PlainRenderer(),
		logger:   logger,
		server:   mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// MCP возвращает нижележащий сервер SDK.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// Run обслуживает одну сессию на переданном транспорте до отмены контекста.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.Info("Starting MCP server", "name", serverName, "version", serverVersion)
	if err := s.server.Run(ctx, transport); err != nil && ctx.Err() == nil {
		s.logger.Error("MCP server stopped", "error", err)
		return err
	}
	s.logger.Info("MCP server stopped")
	return nil
}

// RunStdio обслуживает клиента через stdin/stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "health_check",
		Description: "Check that the server is running and OpenProject is reachable",
	}, s.healthCheck)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_project",
		Description: "Create a new project in OpenProject",
	}, s.createProject)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_work_package",
		Description: "Create a work package (task, phase) in a project",
	}, s.createWorkPackage)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_work_package_dependency",
		Description: "Create a relation between two work packages (follows, precedes, blocks, relates...)",
	}, s.createDependency)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_work_package_relations",
		Description: "List relations of a work package",
	}, s.getRelations)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_work_package_relation",
		Description: "Delete a relation by id",
	}, s.deleteRelation)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_projects",
		Description: "List all projects",
	}, s.getProjects)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_work_packages",
		Description: "List all work packages of a project, including closed ones",
	}, s.getWorkPackages)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_work_package",
		Description: "Update fields of a work package; omitted fields are left unchanged",
	}, s.updateWorkPackage)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_users",
		Description: "List users, optionally filtered by email",
	}, s.getUsers)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "assign_work_package_by_email",
		Description: "Assign a work package to the user with the given email",
	}, s.assignByEmail)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_project_members",
		Description: "List members of a project with their roles",
	}, s.getProjectMembers)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_work_package_types",
		Description: "List available work package types",
	}, s.getTypes)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_work_package_statuses",
		Description: "List available work package statuses",
	}, s.getStatuses)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_priorities",
		Description: "List available priorities",
	}, s.getPriorities)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_project_summary",
		Description: "Summarize work packages of a project: dates, assignees, statuses",
	}, s.getProjectSummary)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "organize_board",
		Description: "Group project work packages into phases and Kanban columns",
	}, s.organizeBoard)
}
