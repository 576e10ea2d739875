package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/stdr"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"islandora-handle-backend/internal/api/handlers"
	"islandora-handle-backend/internal/api/middleware"
	"islandora-handle-backend/internal/app/server"
	"islandora-handle-backend/internal/application/services"
	"islandora-handle-backend/internal/config"
	"islandora-handle-backend/internal/domain/ports"
	"islandora-handle-backend/internal/infrastructure/attach"
	"islandora-handle-backend/internal/infrastructure/clients"
	"islandora-handle-backend/internal/infrastructure/repositories/fedora"
	"islandora-handle-backend/internal/infrastructure/repositories/mem"
	"islandora-handle-backend/internal/infrastructure/repositories/pg"
)

var (
	configPath string
	memoryDB   bool
	pgURI      string
	httpAddr   string
	migrateDB  bool
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "handle-server",
		Short:        "Mints and maintains handle identifiers for repository objects",
		RunE:         run,
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&configPath, "config", "config/config.yaml", "Path to configuration file")
	cmd.Flags().BoolVar(&memoryDB, "memory", false, "Use the in-memory association and object stores")
	cmd.Flags().StringVar(&pgURI, "pg-uri", "", "PostgreSQL connection URI (overrides config)")
	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "HTTP server address (overrides config)")
	cmd.Flags().BoolVar(&migrateDB, "migrate", false, "Run database migrations and exit")
	return cmd
}

func run(_ *cobra.Command, _ []string) error {
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Command line flags override config values
	if memoryDB {
		cfg.Database.Memory = true
	}
	if pgURI != "" {
		cfg.Database.PGURI = pgURI
	}
	if httpAddr != "" {
		cfg.Settings.HTTPAddr = httpAddr
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	stdr.SetVerbosity(cfg.Log.Verbosity)
	logger := stdr.New(stdlog.New(os.Stderr, "", stdlog.LstdFlags)).WithName(cfg.App.Name)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrateDB {
		if cfg.Database.PGURI == "" {
			return fmt.Errorf("--migrate requires a postgres URI")
		}
		logger.Info("running database migrations")
		return pg.RunMigrations(ctx, cfg.Database.PGURI)
	}

	handleClient, err := clients.NewHandleClient(cfg.Handle)
	if err != nil {
		return fmt.Errorf("failed to create handle client: %w", err)
	}

	var (
		associations ports.AssociationReader
		objects      ports.ObjectStore
	)
	if cfg.Database.Memory {
		store := mem.NewStore()
		associations = store
		objects = store
		logger.Info("using in-memory stores")
	} else {
		pgStore, err := pg.NewStoreFromURI(ctx, cfg.Database.PGURI)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer pgStore.Close()
		associations = pgStore
		objects = fedora.NewStore(cfg.Fedora)
	}

	attacher := attach.NewAttacher(handleClient, logger.WithName("attach"))
	reconciler := services.NewHandleReconciler(handleClient, associations, attacher, logger.WithName("reconciler"))

	router := mux.NewRouter()
	handlers.NewHandlers(reconciler, objects, handleClient, logger.WithName("api")).Register(router)
	handler := middleware.RequestID(middleware.Logging(logger.WithName("http"))(router))

	return server.New(cfg.Settings.HTTPAddr, handler, logger.WithName("server")).Run(ctx)
}
