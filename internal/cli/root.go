// Package cli implements ganttctl.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/c.mueller/gantt-order-sync/internal/config"
	"github.com/c.mueller/gantt-order-sync/internal/dragdrop"
	"github.com/c.mueller/gantt-order-sync/internal/syncclient"
	"github.com/c.mueller/gantt-order-sync/internal/worker"
	"github.com/spf13/cobra"
)

// app carries what the commands share once flags are parsed
type app struct {
	configPath string
	server     string
	timeout    int

	out     io.Writer
	cfg     *config.ClientConfig
	client  *syncclient.Client
	manager *dragdrop.Manager
	logger  *slog.Logger
}

// NewRootCommand builds the ganttctl command tree writing to out.
func NewRootCommand(version string, out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "ganttctl",
		Short: "Inspect and reorder Gantt projects and tasks",
		Long: `ganttctl lists the projects and tasks of a gantt server and moves them.

Moves are applied optimistically, written to the server and rolled back
when the server rejects them.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(out)
	root.Version = version

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to configuration file (YAML)")
	root.PersistentFlags().StringVar(&a.server, "server", "", "Server URL (overrides config)")
	root.PersistentFlags().IntVar(&a.timeout, "timeout", 0, "Request timeout in seconds (overrides config)")

	root.AddCommand(a.projectsCmd())
	root.AddCommand(a.tasksCmd())
	root.AddCommand(a.moveCmd())
	root.AddCommand(versionCmd(version))

	return root
}

// Execute runs ganttctl
func Execute(version string) error {
	if err := NewRootCommand(version, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultClient()
	if a.configPath != "" {
		loaded, err := config.LoadClientConfig(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if a.server != "" {
		cfg.ServerURL = a.server
	}
	if a.timeout > 0 {
		cfg.Timeout = a.timeout
	}
	a.cfg = cfg

	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	}))

	client, err := syncclient.New(cfg.ServerURL, cfg.TimeoutDuration())
	if err != nil {
		return err
	}
	a.client = client
	a.manager = dragdrop.New(client.Syncers(),
		dragdrop.WithLogger(a.logger),
		dragdrop.WithMaxPending(cfg.MaxPending),
	)
	return nil
}

// newWorker starts a worker over the shared manager; callers stop it.
func (a *app) newWorker() *worker.Worker {
	w := worker.New(a.manager)
	w.Start()
	return w
}

func versionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ganttctl version",
		// no server access needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "ganttctl %s\n", version)
			return nil
		},
	}
}
