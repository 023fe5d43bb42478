package cluster

import (
	"fmt"
	"log"

	"github.com/c.mueller/gantt-order-sync/internal/models"
	"github.com/goccy/go-json"
)

// BroadcastProjectUpserted broadcasts a created or changed project
func (c *Cluster) BroadcastProjectUpserted(project *models.Project) error {
	return c.broadcastEvent(EventProjectUpserted, projectEvent(project, c.nodeID))
}

// BroadcastProjectDeleted broadcasts a project deletion
func (c *Cluster) BroadcastProjectDeleted(externID string) error {
	return c.broadcastEvent(EventProjectDeleted, RecordSyncEvent{
		Kind:     KindProject,
		ExternID: externID,
		NodeID:   c.nodeID,
	})
}

// BroadcastTaskUpserted broadcasts a created or changed task. Peers match
// the owning project by its extern ID.
func (c *Cluster) BroadcastTaskUpserted(task *models.Task) error {
	project, err := c.db.GetProject(task.ProjectID)
	if err != nil {
		return err
	}
	if project == nil {
		return fmt.Errorf("project %d of task %s not found", task.ProjectID, task.ExternID)
	}
	return c.broadcastEvent(EventTaskUpserted, taskEvent(task, project.ExternID, c.nodeID))
}

// BroadcastTaskDeleted broadcasts a task deletion
func (c *Cluster) BroadcastTaskDeleted(externID string) error {
	return c.broadcastEvent(EventTaskDeleted, RecordSyncEvent{
		Kind:     KindTask,
		ExternID: externID,
		NodeID:   c.nodeID,
	})
}

// broadcastEvent sends a user event to the cluster
func (c *Cluster) broadcastEvent(eventName string, event RecordSyncEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := c.serf.UserEvent(eventName, payload, false); err != nil {
		return fmt.Errorf("failed to broadcast event: %w", err)
	}

	log.Printf("[INFO] Broadcasted %s: %s", eventName, event.ExternID)
	return nil
}
