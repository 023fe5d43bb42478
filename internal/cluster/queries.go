package cluster

import (
	"log"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/serf/serf"
)

// stateEvent is one record of a full state broadcast
type stateEvent struct {
	name  string
	event RecordSyncEvent
}

// handleQuery handles incoming Serf queries
func (c *Cluster) handleQuery(query *serf.Query) {
	switch query.Name {
	case QueryFullState:
		c.handleFullStateQuery(query)
	case QueryCount:
		c.handleCountQuery(query)
	default:
		log.Printf("[WARN] Unknown query: %s", query.Name)
	}
}

// stateEvents lists every local record as an upsert event, projects first
// so receivers can attach tasks to them.
func (c *Cluster) stateEvents() ([]stateEvent, error) {
	projects, err := c.db.ListProjects()
	if err != nil {
		return nil, err
	}
	tasks, err := c.db.ListAllTasks()
	if err != nil {
		return nil, err
	}

	externIDs := make(map[int]string, len(projects))
	events := make([]stateEvent, 0, len(projects)+len(tasks))
	for i := range projects {
		externIDs[projects[i].ID] = projects[i].ExternID
		events = append(events, stateEvent{EventProjectUpserted, projectEvent(&projects[i], c.nodeID)})
	}
	for i := range tasks {
		events = append(events, stateEvent{EventTaskUpserted, taskEvent(&tasks[i], externIDs[tasks[i].ProjectID], c.nodeID)})
	}
	return events, nil
}

// handleFullStateQuery acknowledges with a record count and then
// broadcasts records individually to stay below the event size limit
func (c *Cluster) handleFullStateQuery(query *serf.Query) {
	log.Printf("[INFO] Received full state query from %s", query.SourceNode())

	events, err := c.stateEvents()
	if err != nil {
		log.Printf("[ERROR] Failed to collect state: %v", err)
		return
	}

	data, err := json.Marshal(map[string]int{"count": len(events)})
	if err != nil {
		log.Printf("[ERROR] Failed to marshal count: %v", err)
		return
	}
	if err := query.Respond(data); err != nil {
		log.Printf("[ERROR] Failed to respond to query: %v", err)
		return
	}

	log.Printf("[INFO] Acknowledged full state request from %s, will broadcast %d records", query.SourceNode(), len(events))

	source := query.SourceNode()
	go func() {
		for _, e := range events {
			payload, err := json.Marshal(e.event)
			if err != nil {
				log.Printf("[ERROR] Failed to marshal %s: %v", e.event.ExternID, err)
				continue
			}
			if err := c.serf.UserEvent(e.name, payload, false); err != nil {
				log.Printf("[ERROR] Failed to broadcast %s: %v", e.event.ExternID, err)
				continue
			}

			// Small delay to avoid overwhelming the network
			time.Sleep(10 * time.Millisecond)
		}
		log.Printf("[INFO] Finished broadcasting %d records to %s", len(events), source)
	}()
}

// handleCountQuery responds with the local record counts
func (c *Cluster) handleCountQuery(query *serf.Query) {
	log.Printf("[INFO] Received count query from %s", query.SourceNode())

	response, err := c.counts()
	if err != nil {
		log.Printf("[ERROR] Failed to count records: %v", err)
		return
	}

	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("[ERROR] Failed to marshal count response: %v", err)
		return
	}
	if err := query.Respond(data); err != nil {
		log.Printf("[ERROR] Failed to respond to query: %v", err)
		return
	}

	log.Printf("[INFO] Sent count (%d projects, %d tasks) to %s", response.Projects, response.Tasks, query.SourceNode())
}

func (c *Cluster) counts() (CountResponse, error) {
	projects, err := c.db.CountProjects()
	if err != nil {
		return CountResponse{}, err
	}
	tasks, err := c.db.CountTasks()
	if err != nil {
		return CountResponse{}, err
	}
	return CountResponse{Projects: projects, Tasks: tasks, NodeID: c.nodeID}, nil
}

// requestFullSync requests full state from all nodes in the cluster
func (c *Cluster) requestFullSync() {
	defer c.markReady() // Always mark as ready when done, even on error

	log.Printf("[INFO] Requesting full sync from cluster...")

	params := &serf.QueryParam{
		RequestAck: true,
		Timeout:    10 * time.Second,
	}

	resp, err := c.serf.Query(QueryFullState, nil, params)
	if err != nil {
		log.Printf("[ERROR] Failed to send full sync query: %v", err)
		return
	}

	expectedCount := 0
	respondingNodes := 0
	for r := range resp.ResponseCh() {
		var countData map[string]int
		if err := json.Unmarshal(r.Payload, &countData); err != nil {
			log.Printf("[ERROR] Failed to unmarshal response from %s: %v", r.From, err)
			continue
		}

		count := countData["count"]
		log.Printf("[INFO] Node %s will broadcast %d records", r.From, count)
		expectedCount += count
		respondingNodes++
	}

	log.Printf("[INFO] Received acknowledgments from %d node(s), expecting ~%d records via broadcast", respondingNodes, expectedCount)

	// Records arrive as user events and are applied by handleUserEvent
	if expectedCount > 0 {
		time.Sleep(syncWait(expectedCount))
	}

	final, err := c.counts()
	if err != nil {
		log.Printf("[ERROR] Failed to count synced records: %v", err)
		return
	}
	log.Printf("[INFO] Full sync complete: %d projects, %d tasks", final.Projects, final.Tasks)
}

// syncWait estimates how long a broadcast of n records takes, roughly ten
// records per second plus a buffer, capped at 30 seconds.
func syncWait(n int) time.Duration {
	wait := time.Duration(n/10+5) * time.Second
	return min(wait, 30*time.Second)
}
