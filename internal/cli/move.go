package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/c.mueller/gantt-order-sync/internal/dragdrop"
	"github.com/c.mueller/gantt-order-sync/internal/models"
	"github.com/c.mueller/gantt-order-sync/internal/ordering"
	"github.com/c.mueller/gantt-order-sync/internal/worker"
	"github.com/spf13/cobra"
)

var errMoveRejected = errors.New("move rolled back")

type moveFlags struct {
	from int
	to   int
}

func (f *moveFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.from, "from", 0, "Current index (as listed in the # column)")
	cmd.Flags().IntVar(&f.to, "to", 0, "Target index")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
}

func (a *app) moveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move a project or task to a new position",
	}
	cmd.AddCommand(a.moveProjectCmd())
	cmd.AddCommand(a.moveTaskCmd())
	return cmd
}

func (a *app) moveProjectCmd() *cobra.Command {
	var f moveFlags
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Move a project among all projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := a.client.ListProjects(cmd.Context())
			if err != nil {
				return fmt.Errorf("list projects: %w", err)
			}
			names := make(map[int64]string, len(projects))
			for _, p := range projects {
				names[int64(p.ID)] = p.Name
			}
			return a.runMove(cmd, dragdrop.ScopeProject, models.ProjectItems(projects), names, f)
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) moveTaskCmd() *cobra.Command {
	var f moveFlags
	var projectID int
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Move a task within its project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := a.client.ListTasks(cmd.Context(), projectID)
			if err != nil {
				return fmt.Errorf("list tasks: %w", err)
			}
			names := make(map[int64]string, len(tasks))
			for _, t := range tasks {
				names[int64(t.ID)] = t.Name
			}
			return a.runMove(cmd, dragdrop.ScopeTask, models.TaskItems(tasks), names, f)
		},
	}
	cmd.Flags().IntVar(&projectID, "project", 0, "Project ID (required)")
	_ = cmd.MarkFlagRequired("project")
	f.register(cmd)
	return cmd
}

func (a *app) runMove(cmd *cobra.Command, scope dragdrop.Scope, items []ordering.Item, names map[int64]string, f moveFlags) error {
	w := a.newWorker()
	defer w.Stop()

	out, err := w.Submit(cmd.Context(), worker.Move{
		Scope: scope,
		Items: items,
		From:  f.from,
		To:    f.to,
		OnApplied: func(l []ordering.Item) {
			a.logger.Debug("order applied", "scope", scope, "items", len(l))
		},
	})
	if err != nil {
		return err
	}

	switch r := out.Result.(type) {
	case nil:
		fmt.Fprintln(a.out, "Nothing to move.")
	case dragdrop.Success:
		fmt.Fprintln(a.out, okStyle.Render(fmt.Sprintf("Moved %s %q to %d (order %s)",
			scope, names[out.Operation.ItemID], out.Operation.ToIndex, formatKey(out.Operation.NewKey))))
		fmt.Fprintln(a.out, renderItems(out.Items, names, out.Operation.ToIndex))
	case dragdrop.Failure:
		fmt.Fprintln(a.out, errorStyle.Render(fmt.Sprintf("Move of %s %q failed: %s", scope, names[out.Operation.ItemID], r.Error())))
		fmt.Fprintln(a.out, renderItems(out.Items, names, out.Operation.FromIndex))
		return fmt.Errorf("%w: %s", errMoveRejected, r.Error())
	}
	return nil
}

func renderItems(items []ordering.Item, names map[int64]string, highlight int) string {
	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = []string{strconv.Itoa(i), strconv.FormatInt(it.ID, 10), names[it.ID], formatKey(it.Key)}
	}
	return renderTable([]string{"#", "ID", "Name", "Order"}, rows, highlight)
}
