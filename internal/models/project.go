package models

import (
	"time"

	"github.com/c.mueller/gantt-order-sync/internal/ordering"
)

// Project is a top level row of the Gantt chart
type Project struct {
	ID           int       `json:"id" db:"id"`
	ExternID     string    `json:"extern_id" db:"extern_id"`
	Name         string    `json:"name" db:"name"`
	StartDate    string    `json:"start_date" db:"start_date"`
	DisplayOrder float64   `json:"display_order" db:"display_order"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// CreateProjectInput represents the input for creating a new project
type CreateProjectInput struct {
	ExternID     string   `json:"extern_id,omitempty" maxLength:"80" doc:"External ID for synchronization, generated when empty"`
	Name         string   `json:"name" minLength:"1" maxLength:"200" doc:"Project name"`
	StartDate    string   `json:"start_date" format:"date" doc:"Start date (YYYY-MM-DD)"`
	DisplayOrder *float64 `json:"display_order,omitempty" doc:"Order key, appended after the last project when omitted"`
}

// UpdateProjectInput represents the input for updating a project
type UpdateProjectInput struct {
	Name         *string  `json:"name,omitempty" minLength:"1" maxLength:"200" doc:"Project name"`
	StartDate    *string  `json:"start_date,omitempty" format:"date" doc:"Start date (YYYY-MM-DD)"`
	DisplayOrder *float64 `json:"display_order,omitempty" doc:"Order key among all projects"`
}

// Empty reports whether the input changes nothing.
func (in UpdateProjectInput) Empty() bool {
	return in.Name == nil && in.StartDate == nil && in.DisplayOrder == nil
}

// ProjectItems maps projects to order items, keeping their order.
func ProjectItems(projects []Project) []ordering.Item {
	items := make([]ordering.Item, len(projects))
	for i, p := range projects {
		items[i] = ordering.Item{ID: int64(p.ID), Key: p.DisplayOrder}
	}
	return items
}
