package cli

import (
	"fmt"
	"strconv"

	"github.com/c.mueller/gantt-order-sync/internal/models"
	"github.com/spf13/cobra"
)

func (a *app) projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := a.client.ListProjects(cmd.Context())
			if err != nil {
				return fmt.Errorf("list projects: %w", err)
			}
			a.printProjects(projects)
			return nil
		},
	}
}

func (a *app) tasksCmd() *cobra.Command {
	var projectID int
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks of a project in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := a.client.ListTasks(cmd.Context(), projectID)
			if err != nil {
				return fmt.Errorf("list tasks: %w", err)
			}
			a.printTasks(tasks)
			return nil
		},
	}
	cmd.Flags().IntVar(&projectID, "project", 0, "Project ID (required)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func (a *app) printProjects(projects []models.Project) {
	if len(projects) == 0 {
		fmt.Fprintln(a.out, "No projects.")
		return
	}
	rows := make([][]string, len(projects))
	for i, p := range projects {
		rows[i] = []string{strconv.Itoa(i), strconv.Itoa(p.ID), p.Name, p.StartDate, formatKey(p.DisplayOrder)}
	}
	fmt.Fprintln(a.out, renderTable([]string{"#", "ID", "Name", "Start", "Order"}, rows, -1))
}

func (a *app) printTasks(tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "No tasks.")
		return
	}
	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		rows[i] = []string{strconv.Itoa(i), strconv.Itoa(t.ID), t.Name, t.StartDate, t.EndDate, formatKey(t.DisplayOrder)}
	}
	fmt.Fprintln(a.out, renderTable([]string{"#", "ID", "Name", "Start", "End", "Order"}, rows, -1))
}
