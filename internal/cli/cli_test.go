package cli

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/c.mueller/gantt-order-sync/internal/api"
	"github.com/c.mueller/gantt-order-sync/internal/database"
	"github.com/c.mueller/gantt-order-sync/internal/models"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*httptest.Server, *database.DB) {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "gantt.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	router := chi.NewMux()
	api.NewServer(db, nil).RegisterRoutes(humachi.New(router, huma.DefaultConfig("Gantt Order Sync API", "test")))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, db
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand("test", &out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "ganttctl test\n", out)
}

func TestProjectsAndMove(t *testing.T) {
	server, db := newServer(t)
	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		_, err := db.CreateProject(models.CreateProjectInput{Name: name, StartDate: "2026-01-01"})
		require.NoError(t, err)
	}

	out, err := run(t, "projects", "--server", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "3000")

	out, err = run(t, "move", "project", "--server", server.URL, "--from", "2", "--to", "0")
	require.NoError(t, err)
	assert.Contains(t, out, `Moved project "Gamma" to 0 (order 500)`)

	projects, err := db.ListProjects()
	require.NoError(t, err)
	assert.Equal(t, "Gamma", projects[0].Name)
	assert.Equal(t, 500.0, projects[0].DisplayOrder)

	out, err = run(t, "move", "project", "--server", server.URL, "--from", "1", "--to", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to move.")

	_, err = run(t, "move", "project", "--server", server.URL, "--from", "0", "--to", "9")
	assert.Error(t, err)
}

func TestTasksAndMove(t *testing.T) {
	server, db := newServer(t)
	p, err := db.CreateProject(models.CreateProjectInput{Name: "P", StartDate: "2026-01-01"})
	require.NoError(t, err)
	for _, name := range []string{"design", "build"} {
		_, err := db.CreateTask(models.CreateTaskInput{ProjectID: p.ID, Name: name, StartDate: "2026-01-01", EndDate: "2026-01-09"})
		require.NoError(t, err)
	}

	out, err := run(t, "tasks", "--server", server.URL, "--project", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "design")
	assert.Contains(t, out, "2026-01-09")

	out, err = run(t, "move", "task", "--server", server.URL, "--project", "1", "--from", "0", "--to", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `Moved task "design" to 1 (order 3000)`)

	tasks, err := db.ListTasks(p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"build", "design"}, []string{tasks[0].Name, tasks[1].Name})

	_, err = run(t, "tasks", "--server", server.URL)
	assert.Error(t, err, "--project is required")
}

func TestMove_RejectedIsRolledBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, `[{"id":1,"name":"A","display_order":1000},{"id":2,"name":"B","display_order":2000}]`)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"detail":"database locked"}`)
	}))
	t.Cleanup(server.Close)

	out, err := run(t, "move", "project", "--server", server.URL, "--from", "0", "--to", "1")
	require.ErrorIs(t, err, errMoveRejected)
	assert.Contains(t, out, `Move of project "A" failed: database locked (status 500)`)
}

func TestEmptyLists(t *testing.T) {
	server, _ := newServer(t)

	out, err := run(t, "projects", "--server", server.URL)
	require.NoError(t, err)
	assert.Equal(t, "No projects.\n", out)
}
