package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/c.mueller/gantt-order-sync/internal/models"
	"github.com/google/uuid"
)

const projectColumns = "id, extern_id, name, start_date, display_order, created_at, updated_at"

func scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.ExternID, &p.Name, &p.StartDate, &p.DisplayOrder, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProject creates a new project. Without an explicit order it is
// appended after the last project.
func (db *DB) CreateProject(in models.CreateProjectInput) (*models.Project, error) {
	externID := in.ExternID
	if externID == "" {
		externID = uuid.NewString()
	}

	var order float64
	if in.DisplayOrder != nil {
		order = *in.DisplayOrder
	} else {
		next, err := db.nextOrder("SELECT MAX(display_order) FROM projects")
		if err != nil {
			return nil, err
		}
		order = next
	}

	now := db.now()
	result, err := db.conn.Exec(
		"INSERT INTO projects (extern_id, name, start_date, display_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		externID, in.Name, in.StartDate, order, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return db.GetProject(int(id))
}

// GetProject retrieves a project by ID
func (db *DB) GetProject(id int) (*models.Project, error) {
	p, err := scanProject(db.conn.QueryRow("SELECT "+projectColumns+" FROM projects WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// GetProjectByExternID retrieves a project by its external ID
func (db *DB) GetProjectByExternID(externID string) (*models.Project, error) {
	p, err := scanProject(db.conn.QueryRow("SELECT "+projectColumns+" FROM projects WHERE extern_id = ?", externID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ListProjects retrieves all projects in display order
func (db *DB) ListProjects() ([]models.Project, error) {
	rows, err := db.conn.Query("SELECT " + projectColumns + " FROM projects ORDER BY display_order ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// UpdateProject updates the given fields of a project
func (db *DB) UpdateProject(id int, in models.UpdateProjectInput) (*models.Project, error) {
	existing, err := db.GetProject(id)
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
	if in.DisplayOrder != nil {
		updates = append(updates, "display_order = ?")
		args = append(args, *in.DisplayOrder)
	}

	if len(updates) == 0 {
		return existing, nil
	}

	updates = append(updates, "updated_at = ?")
	args = append(args, db.now(), id)

	query := "UPDATE projects SET " + strings.Join(updates, ", ") + " WHERE id = ?"
	if _, err := db.conn.Exec(query, args...); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return db.GetProject(id)
}

// DeleteProject deletes a project and, through the foreign key, its tasks
func (db *DB) DeleteProject(id int) error {
	result, err := db.conn.Exec("DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
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

// CountProjects returns the number of projects
func (db *DB) CountProjects() (int, error) {
	var n int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM projects").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return n, nil
}

// ApplyProjectReplica stores a project received from another node, matched
// by extern ID. Older copies than the local one are ignored. It reports
// whether the row was written.
func (db *DB) ApplyProjectReplica(p models.Project) (bool, error) {
	existing, err := db.GetProjectByExternID(p.ExternID)
	if err != nil {
		return false, err
	}

	if existing == nil {
		_, err := db.conn.Exec(
			"INSERT INTO projects (extern_id, name, start_date, display_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			p.ExternID, p.Name, p.StartDate, p.DisplayOrder, p.UpdatedAt, p.UpdatedAt,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert project replica: %w", err)
		}
		return true, nil
	}

	if !sameOrNewer(p.UpdatedAt, existing.UpdatedAt) {
		return false, nil
	}

	_, err = db.conn.Exec(
		"UPDATE projects SET name = ?, start_date = ?, display_order = ?, updated_at = ? WHERE id = ?",
		p.Name, p.StartDate, p.DisplayOrder, p.UpdatedAt, existing.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update project replica: %w", err)
	}
	return true, nil
}

// DeleteProjectByExternID removes a project by external ID. Missing
// projects are not an error.
func (db *DB) DeleteProjectByExternID(externID string) error {
	if _, err := db.conn.Exec("DELETE FROM projects WHERE extern_id = ?", externID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}
