package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/c.mueller/gantt-order-sync/internal/models"
	"github.com/google/uuid"
)

// ErrProjectNotFound is returned when a task refers to a missing project.
var ErrProjectNotFound = errors.New("project not found")

const taskColumns = "id, extern_id, project_id, name, start_date, end_date, display_order, created_at, updated_at"

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.ExternID, &t.ProjectID, &t.Name, &t.StartDate, &t.EndDate, &t.DisplayOrder, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask creates a new task. Without an explicit order it is appended
// after the last task of its project.
func (db *DB) CreateTask(in models.CreateTaskInput) (*models.Task, error) {
	project, err := db.GetProject(in.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}

	externID := in.ExternID
	if externID == "" {
		externID = uuid.NewString()
	}

	var order float64
	if in.DisplayOrder != nil {
		order = *in.DisplayOrder
	} else {
		next, err := db.nextOrder("SELECT MAX(display_order) FROM tasks WHERE project_id = ?", in.ProjectID)
		if err != nil {
			return nil, err
		}
		order = next
	}

	now := db.now()
	result, err := db.conn.Exec(
		"INSERT INTO tasks (extern_id, project_id, name, start_date, end_date, display_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		externID, in.ProjectID, in.Name, in.StartDate, in.EndDate, order, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return db.GetTask(int(id))
}

// GetTask retrieves a task by ID
func (db *DB) GetTask(id int) (*models.Task, error) {
	t, err := scanTask(db.conn.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// GetTaskByExternID retrieves a task by its external ID
func (db *DB) GetTaskByExternID(externID string) (*models.Task, error) {
	t, err := scanTask(db.conn.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE extern_id = ?", externID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// ListTasks retrieves the tasks of one project in display order
func (db *DB) ListTasks(projectID int) ([]models.Task, error) {
	return db.queryTasks("SELECT "+taskColumns+" FROM tasks WHERE project_id = ? ORDER BY display_order ASC, id ASC", projectID)
}

// ListAllTasks retrieves every task grouped by project
func (db *DB) ListAllTasks() ([]models.Task, error) {
	return db.queryTasks("SELECT " + taskColumns + " FROM tasks ORDER BY project_id ASC, display_order ASC, id ASC")
}

func (db *DB) queryTasks(query string, args ...any) ([]models.Task, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// UpdateTask updates the given fields of a task
func (db *DB) UpdateTask(id int, in models.UpdateTaskInput) (*models.Task, error) {
	existing, err := db.GetTask(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	var updates []string
	var args []any

	if in.Name != nil {
		updates = append(updates, "name = ?")
		args = append(args, *in.Name)
	}
	if in.StartDate != nil {
		updates = append(updates, "start_date = ?")
		args = append(args, *in.StartDate)
	}
	if in.EndDate != nil {
		updates = append(updates, "end_date = ?")
		args = append(args, *in.EndDate)
	}
	if in.DisplayOrder != nil {
		updates = append(updates, "display_order = ?")
		args = append(args, *in.DisplayOrder)
	}

	if len(updates) == 0 {
		return existing, nil
	}

	updates = append(updates, "updated_at = ?")
	args = append(args, db.now(), id)

	query := "UPDATE tasks SET " + strings.Join(updates, ", ") + " WHERE id = ?"
	if _, err := db.conn.Exec(query, args...); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return db.GetTask(id)
}

// DeleteTask deletes a task by ID
func (db *DB) DeleteTask(id int) error {
	result, err := db.conn.Exec("DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// CountTasks returns the number of tasks
func (db *DB) CountTasks() (int, error) {
	var n int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM tasks").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}

// ApplyTaskReplica stores a task received from another node. The owning
// project is resolved by extern ID and must already exist locally.
func (db *DB) ApplyTaskReplica(t models.Task, projectExternID string) (bool, error) {
	project, err := db.GetProjectByExternID(projectExternID)
	if err != nil {
		return false, err
	}
	if project == nil {
		return false, ErrProjectNotFound
	}

	existing, err := db.GetTaskByExternID(t.ExternID)
	if err != nil {
		return false, err
	}

	if existing == nil {
		_, err := db.conn.Exec(
			"INSERT INTO tasks (extern_id, project_id, name, start_date, end_date, display_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			t.ExternID, project.ID, t.Name, t.StartDate, t.EndDate, t.DisplayOrder, t.UpdatedAt, t.UpdatedAt,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert task replica: %w", err)
		}
		return true, nil
	}

	if !sameOrNewer(t.UpdatedAt, existing.UpdatedAt) {
		return false, nil
	}

	_, err = db.conn.Exec(
		"UPDATE tasks SET project_id = ?, name = ?, start_date = ?, end_date = ?, display_order = ?, updated_at = ? WHERE id = ?",
		project.ID, t.Name, t.StartDate, t.EndDate, t.DisplayOrder, t.UpdatedAt, existing.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update task replica: %w", err)
	}
	return true, nil
}

// DeleteTaskByExternID removes a task by external ID. Missing tasks are not
// an error.
func (db *DB) DeleteTaskByExternID(externID string) error {
	if _, err := db.conn.Exec("DELETE FROM tasks WHERE extern_id = ?", externID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}
