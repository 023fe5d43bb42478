package cluster

import (
	"fmt"
	"log"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/c.mueller/gantt-order-sync/internal/database"
	"github.com/c.mueller/gantt-order-sync/internal/models"
	"github.com/hashicorp/serf/serf"
)

// userEventSizeLimit leaves room for task names and dates in one event.
const userEventSizeLimit = 2048

// Cluster manages the Serf cluster and record replication
type Cluster struct {
	serf     *serf.Serf
	db       *database.DB
	nodeID   string
	eventCh  chan serf.Event
	shutdown chan struct{}

	mu      sync.Mutex
	ready   bool
	readyCh chan struct{}
	stopped bool
}

// Options holds the optional serf settings
type Options struct {
	AdvertiseAddr string
	EncryptKey    []byte
}

// New creates a new Cluster instance bound to bindAddr ("IP:Port")
func New(nodeID string, bindAddr string, db *database.DB, opts Options) (*Cluster, error) {
	host, port, err := splitAddr(bindAddr)
	if err != nil {
		return nil, err
	}

	config := serf.DefaultConfig()
	config.NodeName = nodeID
	config.UserEventSizeLimit = userEventSizeLimit
	config.MemberlistConfig.BindAddr = host
	config.MemberlistConfig.BindPort = port
	config.MemberlistConfig.SecretKey = opts.EncryptKey

	if opts.AdvertiseAddr != "" {
		advHost, advPort, err := splitAddr(opts.AdvertiseAddr)
		if err != nil {
			return nil, err
		}
		config.MemberlistConfig.AdvertiseAddr = advHost
		config.MemberlistConfig.AdvertisePort = advPort
	}

	eventCh := make(chan serf.Event, 256)
	config.EventCh = eventCh

	cluster := newCluster(nodeID, db)
	cluster.eventCh = eventCh

	serfInstance, err := serf.Create(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create serf: %w", err)
	}
	cluster.serf = serfInstance

	return cluster, nil
}

func newCluster(nodeID string, db *database.DB) *Cluster {
	return &Cluster{
		db:       db,
		nodeID:   nodeID,
		shutdown: make(chan struct{}),
		readyCh:  make(chan struct{}),
	}
}

func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in address %q: %w", addr, err)
	}
	return host, port, nil
}

// Start starts the event loop and joins the seed nodes. It returns once the
// node is ready: synced from its peers, or running alone.
func (c *Cluster) Start(seeds []string, joinTimeout time.Duration) error {
	go c.handleEvents()

	if len(seeds) == 0 {
		log.Println("[INFO] No seeds configured, starting as first node")
		c.markReady()
		return nil
	}

	log.Printf("[INFO] Attempting to join cluster via seeds: %v", seeds)

	const maxRetries = 3
	var lastErr error
	joined := false

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			backoff := time.Duration(i) * 2 * time.Second
			log.Printf("[INFO] Retry %d/%d in %v...", i+1, maxRetries, backoff)
			time.Sleep(backoff)
		}

		numJoined, err := c.serf.Join(seeds, true)
		if err != nil {
			lastErr = err
			log.Printf("[WARN] Join attempt %d failed: %v", i+1, err)
			continue
		}
		if numJoined > 0 {
			log.Printf("[INFO] Successfully joined %d nodes", numJoined)
			joined = true
			break
		}
	}

	if !joined {
		if lastErr != nil {
			log.Printf("[WARN] Failed to join after %d attempts: %v", maxRetries, lastErr)
		}
		log.Println("[INFO] Continuing as standalone node")
		c.markReady()
		return nil
	}

	if joinTimeout <= 0 {
		joinTimeout = 30 * time.Second
	}
	log.Println("[INFO] Waiting for full sync to complete...")
	select {
	case <-c.readyCh:
		log.Println("[INFO] Node is ready")
	case <-time.After(joinTimeout):
		log.Printf("[WARN] Full sync timeout after %v, continuing anyway", joinTimeout)
		c.markReady()
	}
	return nil
}

// Stop leaves the cluster and shuts serf down. Safe to call twice.
func (c *Cluster) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	c.mu.Unlock()

	log.Println("[INFO] Shutting down cluster...")
	close(c.shutdown)

	if err := c.serf.Leave(); err != nil {
		log.Printf("[WARN] Error leaving cluster: %v", err)
	}
	if err := c.serf.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown serf: %w", err)
	}

	log.Println("[INFO] Cluster shutdown complete")
	return nil
}

// LocalNode returns the local node name
func (c *Cluster) LocalNode() string {
	return c.nodeID
}

// markReady marks the cluster as ready and signals waiting goroutines
func (c *Cluster) markReady() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		c.ready = true
		close(c.readyCh)
	}
}

// IsReady returns true if the cluster is ready to serve requests
func (c *Cluster) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// GetMemberInfo returns information about all cluster members
func (c *Cluster) GetMemberInfo() []models.ClusterMemberInfo {
	members := c.serf.Members()
	info := make([]models.ClusterMemberInfo, len(members))

	for i, member := range members {
		info[i] = models.ClusterMemberInfo{
			Name:   member.Name,
			Addr:   net.JoinHostPort(member.Addr.String(), strconv.Itoa(int(member.Port))),
			Status: member.Status.String(),
		}
	}

	return info
}

// MemberCount returns the number of cluster members
func (c *Cluster) MemberCount() int {
	return len(c.serf.Members())
}
