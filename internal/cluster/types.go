package cluster

import (
	"time"

	"github.com/c.mueller/gantt-order-sync/internal/models"
)

// Event types for record synchronization
const (
	EventProjectUpserted = "project:upserted"
	EventProjectDeleted  = "project:deleted"
	EventTaskUpserted    = "task:upserted"
	EventTaskDeleted     = "task:deleted"
)

// Query types for cluster communication
const (
	QueryFullState = "sync:full-state"
	QueryCount     = "sync:count"
)

// Record kinds carried in RecordSyncEvent.Kind
const (
	KindProject = "project"
	KindTask    = "task"
)

// RecordSyncEvent represents a project or task change. Timestamp is the
// record's updated_at in unix milliseconds and decides which copy wins.
type RecordSyncEvent struct {
	Kind            string  `json:"kind"`
	ExternID        string  `json:"extern_id"`
	ProjectExternID string  `json:"project_extern_id,omitempty"`
	Name            string  `json:"name,omitempty"`
	StartDate       string  `json:"start_date,omitempty"`
	EndDate         string  `json:"end_date,omitempty"`
	DisplayOrder    float64 `json:"display_order"`
	NodeID          string  `json:"node_id"`
	Timestamp       int64   `json:"timestamp"`
}

// CountResponse represents a response to a count query
type CountResponse struct {
	Projects int    `json:"projects"`
	Tasks    int    `json:"tasks"`
	NodeID   string `json:"node_id"`
}

func projectEvent(p *models.Project, nodeID string) RecordSyncEvent {
	return RecordSyncEvent{
		Kind:         KindProject,
		ExternID:     p.ExternID,
		Name:         p.Name,
		StartDate:    p.StartDate,
		DisplayOrder: p.DisplayOrder,
		NodeID:       nodeID,
		Timestamp:    p.UpdatedAt.UnixMilli(),
	}
}

func taskEvent(t *models.Task, projectExternID, nodeID string) RecordSyncEvent {
	return RecordSyncEvent{
		Kind:            KindTask,
		ExternID:        t.ExternID,
		ProjectExternID: projectExternID,
		Name:            t.Name,
		StartDate:       t.StartDate,
		EndDate:         t.EndDate,
		DisplayOrder:    t.DisplayOrder,
		NodeID:          nodeID,
		Timestamp:       t.UpdatedAt.UnixMilli(),
	}
}

func (e RecordSyncEvent) updatedAt() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}

func (e RecordSyncEvent) project() models.Project {
	return models.Project{
		ExternID:     e.ExternID,
		Name:         e.Name,
		StartDate:    e.StartDate,
		DisplayOrder: e.DisplayOrder,
		UpdatedAt:    e.updatedAt(),
	}
}

func (e RecordSyncEvent) task() models.Task {
	return models.Task{
		ExternID:     e.ExternID,
		Name:         e.Name,
		StartDate:    e.StartDate,
		EndDate:      e.EndDate,
		DisplayOrder: e.DisplayOrder,
		UpdatedAt:    e.updatedAt(),
	}
}
