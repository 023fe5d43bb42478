package cluster

import (
	"errors"
	"log"

	"github.com/c.mueller/gantt-order-sync/internal/database"
	"github.com/goccy/go-json"
	"github.com/hashicorp/serf/serf"
)

// handleEvents processes Serf events from the event channel
func (c *Cluster) handleEvents() {
	for {
		select {
		case event := <-c.eventCh:
			switch e := event.(type) {
			case serf.MemberEvent:
				c.handleMemberEvent(e)
			case serf.UserEvent:
				c.handleUserEvent(e)
			case *serf.Query:
				c.handleQuery(e)
			default:
				log.Printf("[WARN] Unknown event type: %T", e)
			}
		case <-c.shutdown:
			log.Println("[INFO] Event handler shutting down")
			return
		}
	}
}

// handleMemberEvent handles cluster membership events
func (c *Cluster) handleMemberEvent(event serf.MemberEvent) {
	for _, member := range event.Members {
		switch event.Type {
		case serf.EventMemberJoin:
			log.Printf("[INFO] Node joined: %s (%s)", member.Name, member.Addr)

			// A freshly joined node pulls the state of its peers
			if member.Name == c.nodeID {
				go c.requestFullSync()
			}
		case serf.EventMemberLeave:
			log.Printf("[INFO] Node left gracefully: %s", member.Name)
		case serf.EventMemberFailed:
			log.Printf("[WARN] Node failed: %s", member.Name)
		case serf.EventMemberUpdate:
			log.Printf("[INFO] Node updated: %s", member.Name)
		case serf.EventMemberReap:
			log.Printf("[INFO] Node reaped: %s", member.Name)
		}
	}
}

// handleUserEvent decodes a record event and applies it locally
func (c *Cluster) handleUserEvent(event serf.UserEvent) {
	switch event.Name {
	case EventProjectUpserted, EventProjectDeleted, EventTaskUpserted, EventTaskDeleted:
	default:
		log.Printf("[WARN] Unknown user event: %s", event.Name)
		return
	}

	var rec RecordSyncEvent
	if err := json.Unmarshal(event.Payload, &rec); err != nil {
		log.Printf("[ERROR] Failed to unmarshal %s event: %v", event.Name, err)
		return
	}

	if rec.NodeID == c.nodeID {
		return
	}
	if rec.ExternID == "" {
		log.Printf("[WARN] Dropping %s event without extern_id from %s", event.Name, rec.NodeID)
		return
	}

	if err := c.apply(event.Name, rec); err != nil {
		log.Printf("[ERROR] Failed to apply %s %s from %s: %v", event.Name, rec.ExternID, rec.NodeID, err)
	}
}

func (c *Cluster) apply(name string, rec RecordSyncEvent) error {
	switch name {
	case EventProjectUpserted:
		applied, err := c.db.ApplyProjectReplica(rec.project())
		if err != nil {
			return err
		}
		c.logApplied(name, rec, applied)

	case EventTaskUpserted:
		applied, err := c.db.ApplyTaskReplica(rec.task(), rec.ProjectExternID)
		if errors.Is(err, database.ErrProjectNotFound) {
			log.Printf("[WARN] Task %s references unknown project %s, skipping", rec.ExternID, rec.ProjectExternID)
			return nil
		}
		if err != nil {
			return err
		}
		c.logApplied(name, rec, applied)

	case EventProjectDeleted:
		if err := c.db.DeleteProjectByExternID(rec.ExternID); err != nil {
			return err
		}
		log.Printf("[INFO] Project %s deleted from %s", rec.ExternID, rec.NodeID)

	case EventTaskDeleted:
		if err := c.db.DeleteTaskByExternID(rec.ExternID); err != nil {
			return err
		}
		log.Printf("[INFO] Task %s deleted from %s", rec.ExternID, rec.NodeID)
	}
	return nil
}

func (c *Cluster) logApplied(name string, rec RecordSyncEvent, applied bool) {
	if !applied {
		log.Printf("[INFO] Skipping stale %s %s from %s", name, rec.ExternID, rec.NodeID)
		return
	}
	log.Printf("[INFO] Applied %s %s (display_order %v) from %s", name, rec.ExternID, rec.DisplayOrder, rec.NodeID)
}
