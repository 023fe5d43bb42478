package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/c.mueller/gantt-order-sync/internal/database"
	"github.com/c.mueller/gantt-order-sync/internal/models"
	"github.com/danielgtaylor/huma/v2"
)

// Cluster interface for broadcasting record changes
type Cluster interface {
	BroadcastProjectUpserted(project *models.Project) error
	BroadcastProjectDeleted(externID string) error
	BroadcastTaskUpserted(task *models.Task) error
	BroadcastTaskDeleted(externID string) error
	IsReady() bool
	LocalNode() string
	MemberCount() int
	GetMemberInfo() []models.ClusterMemberInfo
}

// Server holds the API server dependencies
type Server struct {
	db      *database.DB
	cluster Cluster
	logger  *slog.Logger
}

// NewServer creates a new API server. cluster may be nil for standalone mode.
func NewServer(db *database.DB, cluster Cluster) *Server {
	return &Server{
		db:      db,
		cluster: cluster,
		logger:  slog.Default().With("component", "api"),
	}
}

// RegisterRoutes registers all API routes with the Huma API
func (s *Server) RegisterRoutes(api huma.API) {
	// GET /health/ready - Health check
	huma.Register(api, huma.Operation{
		OperationID: "health-ready",
		Method:      http.MethodGet,
		Path:        "/health/ready",
		Summary:     "Readiness check",
		Description: "Check if the node is ready to serve requests (fully synced)",
		Tags:        []string{"health"},
	}, s.healthReady)

	// GET /health/info - Cluster info
	huma.Register(api, huma.Operation{
		OperationID: "health-info",
		Method:      http.MethodGet,
		Path:        "/health/info",
		Summary:     "Cluster information",
		Description: "Get information about the cluster status, members and record counts",
		Tags:        []string{"health"},
	}, s.healthInfo)

	s.registerProjectRoutes(api)
	s.registerTaskRoutes(api)
}

// broadcast runs fn when clustering is enabled. Failures are logged only:
// the local write already succeeded.
func (s *Server) broadcast(what string, fn func(Cluster) error) {
	if s.cluster == nil {
		return
	}
	if err := fn(s.cluster); err != nil {
		s.logger.Warn("cluster broadcast failed", "event", what, "error", err)
	}
}

type HealthReadyResponse struct {
	Body struct {
		Ready   bool   `json:"ready" doc:"Whether the node is ready to serve requests"`
		Message string `json:"message,omitempty" doc:"Optional status message"`
	}
}

func (s *Server) healthReady(ctx context.Context, input *struct{}) (*HealthReadyResponse, error) {
	resp := &HealthReadyResponse{}

	if s.cluster == nil {
		// No cluster, always ready
		resp.Body.Ready = true
		resp.Body.Message = "Running in standalone mode"
		return resp, nil
	}

	if s.cluster.IsReady() {
		resp.Body.Ready = true
		resp.Body.Message = "Node is ready"
		return resp, nil
	}

	return nil, huma.Error503ServiceUnavailable("Node is syncing, not ready yet")
}

type HealthInfoResponse struct {
	Body struct {
		NodeName     string                     `json:"node_name" doc:"Name of this node"`
		Ready        bool                       `json:"ready" doc:"Whether the node is ready to serve requests"`
		ClusterMode  bool                       `json:"cluster_mode" doc:"Whether clustering is enabled"`
		MemberCount  int                        `json:"member_count" doc:"Number of cluster members"`
		Members      []models.ClusterMemberInfo `json:"members,omitempty" doc:"List of cluster members"`
		ProjectCount int                        `json:"project_count" doc:"Number of projects in local database"`
		TaskCount    int                        `json:"task_count" doc:"Number of tasks in local database"`
	}
}

func (s *Server) healthInfo(ctx context.Context, input *struct{}) (*HealthInfoResponse, error) {
	resp := &HealthInfoResponse{}

	projectCount, err := s.db.CountProjects()
	if err != nil {
		projectCount = -1 // Indicate error
	}
	taskCount, err := s.db.CountTasks()
	if err != nil {
		taskCount = -1
	}
	resp.Body.ProjectCount = projectCount
	resp.Body.TaskCount = taskCount

	if s.cluster == nil {
		// Standalone mode
		resp.Body.NodeName = "standalone"
		resp.Body.Ready = true
		resp.Body.ClusterMode = false
		resp.Body.MemberCount = 1
		return resp, nil
	}

	resp.Body.NodeName = s.cluster.LocalNode()
	resp.Body.Ready = s.cluster.IsReady()
	resp.Body.ClusterMode = true
	resp.Body.MemberCount = s.cluster.MemberCount()
	resp.Body.Members = s.cluster.GetMemberInfo()

	return resp, nil
}
