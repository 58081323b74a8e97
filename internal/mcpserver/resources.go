package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ProjectsURI           = "openproject://projects"
	projectURIPrefix      = "openproject://project/"
	workPackagesURIPrefix = "openproject://work-packages/"
	boardURIPrefix        = "openproject://board/"
	mimeJSON              = "application/json"
	mimeText              = "text/plain"
)

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         ProjectsURI,
		Name:        "projects",
		Description: "All projects",
		MIMEType:    mimeJSON,
	}, s.readProjects)
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: projectURIPrefix + "{id}",
		Name:        "project",
		Description: "Project details",
		MIMEType:    mimeJSON,
	}, s.readProject)
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: workPackagesURIPrefix + "{project_id}",
		Name:        "work-packages",
		Description: "Work packages of a project, including closed ones",
		MIMEType:    mimeJSON,
	}, s.readWorkPackages)
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: boardURIPrefix + "{project_id}",
		Name:        "board",
		Description: "Phase structure and Kanban board of a project as plain text",
		MIMEType:    mimeText,
	}, s.readBoard)
}

func (s *Server) readProjects(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	out, err := s.listProjects(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResource(ProjectsURI, out)
}

func (s *Server) readProject(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri, id, err := resourceID(req, projectURIPrefix)
	if err != nil {
		return nil, err
	}
	project, err := s.client.GetProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return jsonResource(uri, projectResult(*project))
}

func (s *Server) readWorkPackages(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri, id, err := resourceID(req, workPackagesURIPrefix)
	if err != nil {
		return nil, err
	}
	out, err := s.listWorkPackages(ctx, id)
	if err != nil {
		return nil, err
	}
	return jsonResource(uri, out)
}

func (s *Server) readBoard(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri, id, err := resourceID(req, boardURIPrefix)
	if err != nil {
		return nil, err
	}
	view, err := s.boards.Build(ctx, id)
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeText,
			Text:     s.renderer.Render(view.Organization, view.Board, view.Summary),
		}},
	}, nil
}

// resourceID извлекает числовой id из URI вида <prefix>{id}.
func resourceID(req *mcp.ReadResourceRequest, prefix string) (string, int, error) {
	if req == nil || req.Params == nil || req.Params.URI == "" {
		return "", 0, fmt.Errorf("resource URI is required; use %s{id}", prefix)
	}
	uri := req.Params.URI
	raw, ok := strings.CutPrefix(uri, prefix)
	if !ok {
		return uri, 0, fmt.Errorf("unexpected resource URI %q", uri)
	}
	id, err := strconv.Atoi(strings.Trim(raw, "/"))
	if err != nil || id <= 0 {
		return uri, 0, fmt.Errorf("invalid id in resource URI %q", uri)
	}
	return uri, id, nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(data),
		}},
	}, nil
}
