// maintd - fleet maintenance orchestration daemon.
// Runs the maintenance window scheduler and the REST API over one MariaDB
// database.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/fleetforge/fleetmaint/api"
	"github.com/fleetforge/fleetmaint/config"
	"github.com/fleetforge/fleetmaint/database"
	"github.com/fleetforge/fleetmaint/joblog"
	"github.com/fleetforge/fleetmaint/planning"
	"github.com/fleetforge/fleetmaint/services"
	"github.com/fleetforge/fleetmaint/validation"
)

var (
	configPath = flag.String("config", "/etc/fleetmaint/maintd.yaml", "Path to YAML configuration file")
	port       = flag.Int("port", 0, "API port (overrides config)")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	runOnce    = flag.Bool("run-once", false, "Run a single scheduler pass and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if *port != 0 {
		cfg.API.Port = *port
	}

	if *debug {
		log.SetLevel(log.DebugLevel)
	} else if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	log.WithFields(log.Fields{
		"port":               cfg.API.Port,
		"db_host":            cfg.Database.Host,
		"db_name":            cfg.Database.Database,
		"scheduler_interval": cfg.Scheduler.CheckInterval,
		"log_level":          log.GetLevel().String(),
	}).Info("Starting maintd")

	db, err := database.NewMariaDBConnection(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	sqlDB, err := db.GetGormDB().DB()
	if err != nil {
		log.WithError(err).Fatal("Failed to get SQL DB for audit tracking")
	}
	if err := joblog.EnsureSchema(context.Background(), sqlDB); err != nil {
		log.WithError(err).Fatal("Failed to provision audit tables")
	}

	tracker := joblog.New(sqlDB, joblog.NewDBHandler(sqlDB, nil))
	defer tracker.Close()

	scheduler := services.NewMaintenanceSchedulerService(
		database.NewMaintenanceRepository(db),
		database.NewJobRepository(db),
		database.NewServerRepository(db),
		database.NewLeaseRepository(db),
		tracker,
		buildNotifier(cfg),
		services.SchedulerSettings{
			CheckInterval:     cfg.Scheduler.CheckInterval,
			LeaseTTL:          cfg.Scheduler.LeaseTTL,
			OrphanGracePeriod: cfg.Scheduler.OrphanGracePeriod,
			InterHostWait:     cfg.Scheduler.InterHostWait,
		},
	)

	if *runOnce {
		summary, err := scheduler.RunOnce(context.Background())
		if err != nil {
			log.WithError(err).Fatal("Scheduler pass failed")
		}
		log.WithFields(log.Fields{
			"processed":    summary.WindowsProcessed,
			"executed":     summary.WindowsExecuted,
			"failed":       summary.WindowsFailed,
			"materialized": summary.InstancesMaterialized,
		}).Info("Scheduler pass complete")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		log.WithError(err).Fatal("Failed to start maintenance scheduler")
	}

	apiServer, err := api.NewServer(&api.Config{
		Port:          cfg.API.Port,
		Debug:         *debug,
		Database:      db,
		PreflightMode: validation.PreflightMode(cfg.Scheduler.PreflightMode),
	}, scheduler, planning.NewSessionStore())
	if err != nil {
		log.WithError(err).Fatal("Failed to create API server")
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info("Shutdown signal received, stopping maintd")
		if err := scheduler.Stop(context.Background()); err != nil {
			log.WithError(err).Warn("Scheduler stop reported an error")
		}
		cancel()
	}()

	if err := apiServer.Start(ctx); err != nil {
		log.WithError(err).Fatal("API server exited with error")
	}
}

func buildNotifier(cfg *config.Config) services.Notifier {
	if cfg.Notification.Enabled {
		return services.NewWebhookNotifier(cfg.Notification.Endpoint)
	}
	return services.NoopNotifier{}
}
