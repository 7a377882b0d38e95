package main

import (
	"flag"
	"log/slog"

	"gymwatch-backend/lib/configutil"
	"gymwatch-backend/lib/hitstore"
	"gymwatch-backend/lib/hitstore/db"
	"gymwatch-backend/lib/scrapers/avobook"
	"gymwatch-backend/lib/serviceutil"
	"gymwatch-backend/lib/timezone"
	"gymwatch-backend/services/scan"
	"gymwatch-backend/services/scan/reportfs"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{"err", err}, keysAndValues...)
	slog.Error("cron: "+msg, args...)
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	scanOnStart := flag.Bool("scan", true, "Run a scan immediately on start.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	godotenv.Load()
	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	applyEnvOverrides(&cfg)

	database, err := cfg.Database.OpenDB(db.Schema)
	if err != nil {
		serviceutil.Fatal("open database", err)
	}
	store := hitstore.NewStore(database)

	opener, err := avobook.NewClient(ctx, avobook.Options{
		BaseUrl:  cfg.Booking.BaseUrl,
		Username: cfg.Booking.Username,
		Password: cfg.Booking.Password,
		BookPath: cfg.Booking.BookPath,
		Facility: cfg.Booking.Facility,
	})
	if err != nil {
		serviceutil.Fatal("create booking client", err)
	}

	windows, err := targetWindows(cfg.Scan)
	if err != nil {
		serviceutil.Fatal("parse target windows", err)
	}
	service, err := scan.NewService(scan.Options{
		Opener:        opener,
		Windows:       windows,
		DurationLabel: cfg.Scan.DurationLabel,
		HorizonDays:   cfg.Scan.HorizonDays,
		Attempts:      cfg.Scan.Attempts,
		Notifier:      buildNotifier(cfg),
	})
	if err != nil {
		serviceutil.Fatal("create scan service", err)
	}

	reportDir := cfg.Scan.ReportDir
	if reportDir == "" {
		reportDir = "reports"
	}
	run := runner{
		service: service,
		store:   store,
		reports: reportfs.NewWriter(reportDir),
	}

	if *scanOnStart {
		go run.runScan(ctx)
	}

	schedule := cfg.Scan.Schedule
	if schedule == "" {
		schedule = "0 8 * * *"
	}
	cronner := cron.New(
		cron.WithLocation(timezone.Location),
		cron.WithLogger(cronLogger{}),
	)
	_, err = cronner.AddFunc(schedule, func() {
		run.runScan(ctx)
	})
	if err != nil {
		serviceutil.Fatal("schedule scan", err)
	}
	cronner.Start()

	slog.InfoContext(ctx, "gymwatchd running", "schedule", schedule)
	<-ctx.Done()
	cronner.Stop()
}
