package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/c.mueller/gantt-order-sync/internal/database"
	"github.com/c.mueller/gantt-order-sync/internal/models"
	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerTaskRoutes(api huma.API) {
	// GET /tasks
	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
		Description: "List all tasks grouped by project in display order, or only the tasks of project_id",
		Tags:        []string{"tasks"},
	}, s.listTasks)

	// GET /tasks/{id}
	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get a task",
		Tags:        []string{"tasks"},
	}, s.getTask)

	// POST /tasks
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create a task",
		Description:   "Create a task, appended after the project's last task unless display_order is given",
		Tags:          []string{"tasks"},
		DefaultStatus: http.StatusCreated,
	}, s.createTask)

	// PUT /tasks/{id}
	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        "/tasks/{id}",
		Summary:     "Update a task",
		Description: "Update name, dates or display order of a task",
		Tags:        []string{"tasks"},
	}, s.updateTask)

	// DELETE /tasks/{id}
	huma.Register(api, huma.Operation{
		OperationID:   "delete-task",
		Method:        http.MethodDelete,
		Path:          "/tasks/{id}",
		Summary:       "Delete a task",
		Tags:          []string{"tasks"},
		DefaultStatus: http.StatusNoContent,
	}, s.deleteTask)
}

type ListTasksRequest struct {
	ProjectID int `query:"project_id" minimum:"0" doc:"Only list tasks of this project"`
}

type TaskIDRequest struct {
	ID int `path:"id" minimum:"1" doc:"Task ID"`
}

type TaskResponse struct {
	Body models.Task
}

type CreateTaskRequest struct {
	Body models.CreateTaskInput
}

type UpdateTaskRequest struct {
	ID   int `path:"id" minimum:"1" doc:"Task ID"`
	Body models.UpdateTaskInput
}

func (s *Server) listTasks(ctx context.Context, input *ListTasksRequest) (*ListTasksResponse, error) {
	var (
		tasks []models.Task
		err   error
	)
	if input.ProjectID > 0 {
		tasks, err = s.db.ListTasks(input.ProjectID)
	} else {
		tasks, err = s.db.ListAllTasks()
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list tasks", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	return &ListTasksResponse{Body: tasks}, nil
}

func (s *Server) getTask(ctx context.Context, input *TaskIDRequest) (*TaskResponse, error) {
	task, err := s.db.GetTask(input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get task", err)
	}
	if task == nil {
		return nil, huma.Error404NotFound("Task not found")
	}

	return &TaskResponse{Body: *task}, nil
}

func (s *Server) createTask(ctx context.Context, input *CreateTaskRequest) (*TaskResponse, error) {
	if err := models.ValidateDateRange(input.Body.StartDate, input.Body.EndDate); err != nil {
		return nil, huma.Error400BadRequest(dateErrorMessage(err))
	}

	task, err := s.db.CreateTask(input.Body)
	if errors.Is(err, database.ErrProjectNotFound) {
		return nil, huma.Error404NotFound("Project not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to create task", err)
	}

	s.broadcast("task:upserted", func(c Cluster) error { return c.BroadcastTaskUpserted(task) })

	return &TaskResponse{Body: *task}, nil
}

func (s *Server) updateTask(ctx context.Context, input *UpdateTaskRequest) (*TaskResponse, error) {
	if input.Body.Empty() {
		return nil, huma.Error400BadRequest("No valid fields to update")
	}

	existing, err := s.db.GetTask(input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get task", err)
	}
	if existing == nil {
		return nil, huma.Error404NotFound("Task not found")
	}

	// Validate the dates the task ends up with, not just the ones sent
	if input.Body.StartDate != nil || input.Body.EndDate != nil {
		start, end := existing.StartDate, existing.EndDate
		if input.Body.StartDate != nil {
			start = *input.Body.StartDate
		}
		if input.Body.EndDate != nil {
			end = *input.Body.EndDate
		}
		if err := models.ValidateDateRange(start, end); err != nil {
			return nil, huma.Error400BadRequest(dateErrorMessage(err))
		}
	}

	task, err := s.db.UpdateTask(input.ID, input.Body)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to update task", err)
	}
	if task == nil {
		return nil, huma.Error404NotFound("Task not found")
	}

	if input.Body.DisplayOrder != nil {
		s.logger.Debug("task reordered", "id", task.ID, "project", task.ProjectID, "display_order", task.DisplayOrder)
	}
	s.broadcast("task:upserted", func(c Cluster) error { return c.BroadcastTaskUpserted(task) })

	return &TaskResponse{Body: *task}, nil
}

func (s *Server) deleteTask(ctx context.Context, input *TaskIDRequest) (*struct{}, error) {
	task, err := s.db.GetTask(input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get task", err)
	}
	if task == nil {
		return nil, huma.Error404NotFound("Task not found")
	}

	if err := s.db.DeleteTask(input.ID); err != nil {
		return nil, huma.Error500InternalServerError("Failed to delete task", err)
	}

	s.broadcast("task:deleted", func(c Cluster) error { return c.BroadcastTaskDeleted(task.ExternID) })

	return nil, nil
}

func dateErrorMessage(err error) string {
	if errors.Is(err, models.ErrInvalidDateRange) {
		return "End date must be after start date"
	}
	return err.Error()
}
