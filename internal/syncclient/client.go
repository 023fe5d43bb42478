package syncclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/c.mueller/gantt-order-sync/internal/dragdrop"
	"github.com/c.mueller/gantt-order-sync/internal/models"
	"github.com/goccy/go-json"
)

const (
	defaultServer    = "127.0.0.1:8080"
	defaultUserAgent = "ganttctl/0.1"
	defaultTimeout   = 10 * time.Second
)

// Client talks to the gantt server API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

// New builds a Client for server, a host:port or a full URL. A zero
// timeout uses the default.
func New(server string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(server)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}, nil
}

// ListProjects returns all projects in display order.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ListTasks returns the tasks of one project in display order.
func (c *Client) ListTasks(ctx context.Context, projectID int) ([]models.Task, error) {
	var tasks []models.Task
	path := "/projects/" + strconv.Itoa(projectID) + "/tasks"
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

type orderUpdate struct {
	DisplayOrder float64 `json:"display_order"`
}

// UpdateProjectOrder stores key as the display order of project id.
func (c *Client) UpdateProjectOrder(ctx context.Context, id int64, key float64) dragdrop.Result {
	var project models.Project
	path := "/projects/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodPut, path, orderUpdate{key}, &project); err != nil {
		return failure(err)
	}
	return dragdrop.Success{Data: project}
}

// UpdateTaskOrder stores key as the display order of task id.
func (c *Client) UpdateTaskOrder(ctx context.Context, id int64, key float64) dragdrop.Result {
	var task models.Task
	path := "/tasks/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodPut, path, orderUpdate{key}, &task); err != nil {
		return failure(err)
	}
	return dragdrop.Success{Data: task}
}

// Syncers returns the order writes keyed by scope.
func (c *Client) Syncers() map[dragdrop.Scope]dragdrop.Syncer {
	return map[dragdrop.Scope]dragdrop.Syncer{
		dragdrop.ScopeProject: dragdrop.SyncFunc(c.UpdateProjectOrder),
		dragdrop.ScopeTask:    dragdrop.SyncFunc(c.UpdateTaskOrder),
	}
}

// errorBody covers huma problem details and plain {"error": "..."} bodies.
type errorBody struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func (b errorBody) message() string {
	switch {
	case b.Detail != "":
		return b.Detail
	case b.Title != "":
		return b.Title
	case b.Error != "":
		return b.Error
	}
	return "Unknown error"
}

// do performs a request. Every error it returns is a dragdrop.Failure.
func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return dragdrop.Failure{Message: fmt.Sprintf("encode request: %v", err)}
		}
		reader = bytes.NewReader(data)
	}

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return dragdrop.Failure{Message: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return dragdrop.Failure{Message: fmt.Sprintf("execute request: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil {
			return dragdrop.Failure{Message: fmt.Sprintf("decode error response: %v", err), Status: resp.StatusCode}
		}
		return dragdrop.Failure{Message: eb.message(), Status: resp.StatusCode}
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return dragdrop.Failure{Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

func failure(err error) dragdrop.Failure {
	var f dragdrop.Failure
	if errors.As(err, &f) {
		return f
	}
	return dragdrop.Failure{Message: err.Error()}
}

func parseBaseURL(server string) (*url.URL, error) {
	trimmed := strings.TrimSpace(server)
	if trimmed == "" {
		trimmed = defaultServer
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server url %q: %w", server, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse server url %q: missing host", server)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
