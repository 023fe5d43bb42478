package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/c.mueller/gantt-order-sync/internal/ordering"
)

// DateLayout is the format of start and end dates.
const DateLayout = "2006-01-02"

var ErrInvalidDateRange = errors.New("end date must be after start date")

// Task is a bar inside a project
type Task struct {
	ID           int       `json:"id" db:"id"`
	ExternID     string    `json:"extern_id" db:"extern_id"`
	ProjectID    int       `json:"project_id" db:"project_id"`
	Name         string    `json:"name" db:"name"`
	StartDate    string    `json:"start_date" db:"start_date"`
	EndDate      string    `json:"end_date" db:"end_date"`
	DisplayOrder float64   `json:"display_order" db:"display_order"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// CreateTaskInput represents the input for creating a new task
type CreateTaskInput struct {
	ExternID     string   `json:"extern_id,omitempty" maxLength:"80" doc:"External ID for synchronization, generated when empty"`
	ProjectID    int      `json:"project_id" minimum:"1" doc:"Owning project ID"`
	Name         string   `json:"name" minLength:"1" maxLength:"200" doc:"Task name"`
	StartDate    string   `json:"start_date" format:"date" doc:"Start date (YYYY-MM-DD)"`
	EndDate      string   `json:"end_date" format:"date" doc:"End date (YYYY-MM-DD), after start date"`
	DisplayOrder *float64 `json:"display_order,omitempty" doc:"Order key, appended after the project's last task when omitted"`
}

// UpdateTaskInput represents the input for updating a task
type UpdateTaskInput struct {
	Name         *string  `json:"name,omitempty" minLength:"1" maxLength:"200" doc:"Task name"`
	StartDate    *string  `json:"start_date,omitempty" format:"date" doc:"Start date (YYYY-MM-DD)"`
	EndDate      *string  `json:"end_date,omitempty" format:"date" doc:"End date (YYYY-MM-DD)"`
	DisplayOrder *float64 `json:"display_order,omitempty" doc:"Order key among the project's tasks"`
}

// Empty reports whether the input changes nothing.
func (in UpdateTaskInput) Empty() bool {
	return in.Name == nil && in.StartDate == nil && in.EndDate == nil && in.DisplayOrder == nil
}

// ValidateDateRange checks both dates parse and end is after start.
func ValidateDateRange(start, end string) error {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return fmt.Errorf("invalid start date %q: %w", start, err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if !e.After(s) {
		return ErrInvalidDateRange
	}
	return nil
}

// TaskItems maps tasks to order items, keeping their order.
func TaskItems(tasks []Task) []ordering.Item {
	items := make([]ordering.Item, len(tasks))
	for i, t := range tasks {
		items[i] = ordering.Item{ID: int64(t.ID), Key: t.DisplayOrder}
	}
	return items
}
