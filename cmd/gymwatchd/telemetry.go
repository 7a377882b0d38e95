package main

import (
	"context"
	"log/slog"
	"os"

	"gymwatch-backend/lib/restyutil"
	"gymwatch-backend/lib/scrapers/avobook"
	"gymwatch-backend/lib/serviceutil"
	"gymwatch-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	tel, err := telemetry.SetupFromEnv(ctx, "gymwatchd")
	if os.IsNotExist(err) {
		slog.InfoContext(ctx, "no telemetry.json5 found, exporters disabled")
	} else if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	} else {
		go func() {
			<-ctx.Done()
			tel.Shutdown(context.Background())
		}()
		telemetry.InstrumentPerfStats(ctx)
	}

	if !verbose {
		return
	}
	avobook.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/avobook"),
	)
}
