package api

import (
	"context"
	"net/http"

	"github.com/c.mueller/gantt-order-sync/internal/models"
	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerProjectRoutes(api huma.API) {
	// GET /projects - List projects in display order
	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List all projects",
		Description: "Get all projects sorted ascending by display order",
		Tags:        []string{"projects"},
	}, s.listProjects)

	// GET /projects/{id}
	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{id}",
		Summary:     "Get a project",
		Tags:        []string{"projects"},
	}, s.getProject)

	// POST /projects
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create a project",
		Description:   "Create a project, appended after the last one unless display_order is given",
		Tags:          []string{"projects"},
		DefaultStatus: http.StatusCreated,
	}, s.createProject)

	// PUT /projects/{id} - Update fields, including the order key
	huma.Register(api, huma.Operation{
		OperationID: "update-project",
		Method:      http.MethodPut,
		Path:        "/projects/{id}",
		Summary:     "Update a project",
		Description: "Update name, start date or display order of a project",
		Tags:        []string{"projects"},
	}, s.updateProject)

	// DELETE /projects/{id}
	huma.Register(api, huma.Operation{
		OperationID:   "delete-project",
		Method:        http.MethodDelete,
		Path:          "/projects/{id}",
		Summary:       "Delete a project",
		Description:   "Delete a project together with its tasks",
		Tags:          []string{"projects"},
		DefaultStatus: http.StatusNoContent,
	}, s.deleteProject)

	// GET /projects/{id}/tasks
	huma.Register(api, huma.Operation{
		OperationID: "list-project-tasks",
		Method:      http.MethodGet,
		Path:        "/projects/{id}/tasks",
		Summary:     "List tasks of a project",
		Description: "Get the tasks of one project sorted ascending by display order",
		Tags:        []string{"tasks"},
	}, s.listProjectTasks)
}

type ProjectIDRequest struct {
	ID int `path:"id" minimum:"1" doc:"Project ID"`
}

type ListProjectsResponse struct {
	Body []models.Project
}

type ProjectResponse struct {
	Body models.Project
}

type CreateProjectRequest struct {
	Body models.CreateProjectInput
}

type UpdateProjectRequest struct {
	ID   int `path:"id" minimum:"1" doc:"Project ID"`
	Body models.UpdateProjectInput
}

type ListTasksResponse struct {
	Body []models.Task
}

func (s *Server) listProjects(ctx context.Context, input *struct{}) (*ListProjectsResponse, error) {
	projects, err := s.db.ListProjects()
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list projects", err)
	}

	// Return empty array instead of nil
	if projects == nil {
		projects = []models.Project{}
	}

	return &ListProjectsResponse{Body: projects}, nil
}

func (s *Server) getProject(ctx context.Context, input *ProjectIDRequest) (*ProjectResponse, error) {
	project, err := s.db.GetProject(input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get project", err)
	}
	if project == nil {
		return nil, huma.Error404NotFound("Project not found")
	}

	return &ProjectResponse{Body: *project}, nil
}

func (s *Server) createProject(ctx context.Context, input *CreateProjectRequest) (*ProjectResponse, error) {
	project, err := s.db.CreateProject(input.Body)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to create project", err)
	}

	s.broadcast("project:upserted", func(c Cluster) error { return c.BroadcastProjectUpserted(project) })

	return &ProjectResponse{Body: *project}, nil
}

func (s *Server) updateProject(ctx context.Context, input *UpdateProjectRequest) (*ProjectResponse, error) {
	if input.Body.Empty() {
		return nil, huma.Error400BadRequest("No valid fields to update")
	}

	project, err := s.db.UpdateProject(input.ID, input.Body)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to update project", err)
	}
	if project == nil {
		return nil, huma.Error404NotFound("Project not found")
	}

	if input.Body.DisplayOrder != nil {
		s.logger.Debug("project reordered", "id", project.ID, "display_order", project.DisplayOrder)
	}
	s.broadcast("project:upserted", func(c Cluster) error { return c.BroadcastProjectUpserted(project) })

	return &ProjectResponse{Body: *project}, nil
}

func (s *Server) deleteProject(ctx context.Context, input *ProjectIDRequest) (*struct{}, error) {
	// Get project first to get extern_id for cluster broadcast
	project, err := s.db.GetProject(input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get project", err)
	}
	if project == nil {
		return nil, huma.Error404NotFound("Project not found")
	}

	if err := s.db.DeleteProject(input.ID); err != nil {
		return nil, huma.Error500InternalServerError("Failed to delete project", err)
	}

	s.broadcast("project:deleted", func(c Cluster) error { return c.BroadcastProjectDeleted(project.ExternID) })

	return nil, nil
}

func (s *Server) listProjectTasks(ctx context.Context, input *ProjectIDRequest) (*ListTasksResponse, error) {
	project, err := s.db.GetProject(input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get project", err)
	}
	if project == nil {
		return nil, huma.Error404NotFound("Project not found")
	}

	tasks, err := s.db.ListTasks(input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list tasks", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	return &ListTasksResponse{Body: tasks}, nil
}
