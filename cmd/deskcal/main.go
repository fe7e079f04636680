package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deskcal/internal/capture"
	"deskcal/internal/config"
	"deskcal/internal/ics"
	appLog "deskcal/internal/log"
	"deskcal/internal/schedule"
	"deskcal/internal/service"
	"deskcal/internal/store"
	"deskcal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	envFile    string
	listen     string
	snapshot   string
	export     string
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if err := conf.ApplyEnv(flags.envFile); err != nil {
		appLog.Error("failed to read env file", err, "env_file", flags.envFile)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("deskcal starting", "version", "0.1.0")
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"storage_backend", conf.Storage.Backend,
		"quota_bytes", conf.Storage.QuotaBytes,
		"backup_cron", conf.Backup.Cron,
		"snapshot_cron", conf.Snapshot.Cron,
		"import_horizon_days", conf.Import.HorizonDays,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if flags.snapshot != "" {
		if err := runSnapshotOnce(ctx, conf, flags.snapshot); err != nil {
			appLog.Error("snapshot failed", err)
			os.Exit(1)
		}
		return
	}

	events, closeStore, err := openStore(ctx, conf)
	if err != nil {
		appLog.Error("failed to open event storage", err, "backend", conf.Storage.Backend)
		os.Exit(1)
	}
	defer closeStore()

	if !events.Available(ctx) {
		appLog.Error("event storage not available; refusing to start", store.ErrStorageUnavailable,
			"backend", conf.Storage.Backend)
		os.Exit(1)
	}

	svc := service.New(events, service.WithDefaultColor(conf.DefaultColor))

	if flags.export != "" {
		if err := runExport(ctx, svc, conf, flags.export); err != nil {
			appLog.Error("export failed", err, "path", flags.export)
			os.Exit(1)
		}
		return
	}

	sched := schedule.New(conf.Location())
	backup := &schedule.Backup{Source: events, Dir: conf.Backup.Dir, Keep: conf.Backup.Keep}
	if err := sched.Add("backup", conf.Backup.Cron, backup.Job()); err != nil {
		appLog.Error("failed to schedule backups", err)
		os.Exit(1)
	}
	snap := &schedule.Snapshot{Options: snapshotOptions(conf, conf.Snapshot.Path)}
	if err := sched.Add("snapshot", conf.Snapshot.Cron, snap.Job()); err != nil {
		appLog.Error("failed to schedule snapshots", err)
		os.Exit(1)
	}
	sched.Start(ctx)

	srv := web.NewServer(conf, svc)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		appLog.Error("HTTP server failed", err)
		cancel()
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	sched.Stop(stopCtx)

	appLog.Info("deskcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.envFile, "env", ".env", "Optional .env file with DESKCAL_* overrides")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.snapshot, "snapshot", "", "Capture the running server's /calendar page to this PNG and exit")
	flag.StringVar(&cfg.export, "export", "", "Write all events as iCalendar to this path and exit")

	flag.Parse()

	return cfg
}

func snapshotOptions(conf *config.Config, output string) capture.Options {
	opts := capture.Options{
		URL:        capture.CalendarURL(conf.Listen),
		OutputPath: output,
		Width:      conf.Snapshot.Width,
		Height:     conf.Snapshot.Height,
	}
	if conf.BasicAuth != nil {
		opts.Username = conf.BasicAuth.Username
		opts.Password = conf.BasicAuth.Password
	}
	return opts
}

// runSnapshotOnce captures an already running instance.
func runSnapshotOnce(ctx context.Context, conf *config.Config, output string) error {
	snap := &schedule.Snapshot{Options: snapshotOptions(conf, output)}
	return snap.Run(ctx)
}

func runExport(ctx context.Context, svc *service.Service, conf *config.Config, path string) error {
	all, err := svc.All(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(ics.Export(all, conf.Location())), 0o644); err != nil {
		return err
	}
	appLog.Info("export written", "path", path, "events", len(all))
	return nil
}
