package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/c.mueller/gantt-order-sync/internal/api"
	"github.com/c.mueller/gantt-order-sync/internal/cluster"
	"github.com/c.mueller/gantt-order-sync/internal/config"
	"github.com/c.mueller/gantt-order-sync/internal/database"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

// slogWriter adapts slog to io.Writer interface for standard log package
type slogWriter struct {
	logger *slog.Logger
}

func (w *slogWriter) Write(p []byte) (n int, err error) {
	w.logger.Info(string(p))
	return len(p), nil
}

func main() {
	configFlag := flag.String("config", "", "Path to configuration file (YAML)")
	portFlag := flag.String("port", "", "HTTP server port (overrides config)")
	dbPathFlag := flag.String("db", "", "Database file path (overrides config)")
	nodeNameFlag := flag.String("node-name", "", "Node name (overrides config)")
	serfAddrFlag := flag.String("serf-addr", "", "Serf bind address (overrides config)")
	standaloneFlag := flag.Bool("standalone", false, "Run without clustering (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configFlag != "" {
		log.Printf("Loading configuration from %s", *configFlag)
		loaded, err := config.LoadConfig(*configFlag)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	// Override with command line flags
	if *portFlag != "" {
		port, err := strconv.Atoi(*portFlag)
		if err != nil {
			log.Fatalf("Invalid port: %v", err)
		}
		cfg.Node.HTTP.Port = port
	}
	if *dbPathFlag != "" {
		cfg.Node.Database.Path = *dbPathFlag
	}
	if *nodeNameFlag != "" {
		cfg.Node.Name = *nodeNameFlag
	}
	if *serfAddrFlag != "" {
		cfg.Node.Serf.BindAddr = *serfAddrFlag
	}
	if *standaloneFlag {
		cfg.Cluster.Standalone = true
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)
	log.SetFlags(0)
	log.SetOutput(&slogWriter{logger: logger})

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	slog.Info("Starting gantt-order-sync", "log_level", cfg.LogLevel, "node", cfg.Node.Name, "standalone", cfg.Cluster.Standalone)

	slog.Info("Initializing database", "path", cfg.Node.Database.Path)
	db, err := database.New(cfg.Node.Database.Path)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close()

	// api.Server treats a nil Cluster as standalone
	var clusterAPI api.Cluster
	if !cfg.Cluster.Standalone {
		c, err := startCluster(cfg, db)
		if err != nil {
			return err
		}
		defer c.Stop()
		clusterAPI = c
	}

	router := chi.NewMux()
	humaAPI := humachi.New(router, huma.DefaultConfig("Gantt Order Sync API", "1.0.0"))
	api.NewServer(db, clusterAPI).RegisterRoutes(humaAPI)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Node.HTTP.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting HTTP server", "port", cfg.Node.HTTP.Port)
		slog.Info(fmt.Sprintf("API documentation available at http://localhost:%d/docs", cfg.Node.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("Server exited")
	return nil
}

func startCluster(cfg *config.Config, db *database.DB) (*cluster.Cluster, error) {
	key, err := cfg.Cluster.DecodeEncryptKey()
	if err != nil {
		return nil, err
	}

	slog.Info("Initializing cluster", "node", cfg.Node.Name, "serf", cfg.Node.Serf.BindAddr)
	c, err := cluster.New(cfg.Node.Name, cfg.Node.Serf.BindAddr, db, cluster.Options{
		AdvertiseAddr: cfg.Node.Serf.AdvertiseAddr,
		EncryptKey:    key,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize cluster: %w", err)
	}

	if err := c.Start(cfg.Cluster.Seeds, cfg.Cluster.JoinTimeoutDuration()); err != nil {
		c.Stop()
		return nil, fmt.Errorf("start cluster: %w", err)
	}
	return c, nil
}
