package cmd

import (
	"fmt"
	"os"

	"gymwatch-backend/lib/scrapers/avobook"
	"gymwatch-backend/services/scan"
	"gymwatch-backend/services/scan/reportfs"

	"github.com/spf13/cobra"
)

var scanRecord bool
var scanReportDir string

func init() {
	scanCmd.Flags().BoolVar(
		&scanRecord, "record", false,
		"Record the run in the database like the daemon would.",
	)
	scanCmd.Flags().StringVarP(
		&scanReportDir, "out", "o", "",
		"Also write the CSV and summary files to this directory.",
	)
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one availability scan in the foreground. No notifications are sent.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		opener, err := avobook.NewClient(cmd.Context(), avobook.Options{
			BaseUrl:  cfg.Booking.BaseUrl,
			Username: cfg.Booking.Username,
			Password: cfg.Booking.Password,
			BookPath: cfg.Booking.BookPath,
			Facility: cfg.Booking.Facility,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		service, err := scan.NewService(scan.Options{
			Opener:        opener,
			Windows:       targetWindows(cfg.Scan),
			DurationLabel: cfg.Scan.DurationLabel,
			HorizonDays:   cfg.Scan.HorizonDays,
			Attempts:      cfg.Scan.Attempts,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		report, scanErr := service.Scan(cmd.Context())

		if scanRecord {
			store := openStore(cfg)
			_, err := store.Push(cmd.Context(), report.PushRequest(scanErr))
			if err != nil {
				fmt.Fprintln(os.Stderr, "record run: "+err.Error())
				os.Exit(1)
			}
		}
		if scanReportDir != "" {
			csvPath, summaryPath, err := reportfs.NewWriter(scanReportDir).Write(report)
			if err != nil {
				fmt.Fprintln(os.Stderr, "write report files: "+err.Error())
				os.Exit(1)
			}
			fmt.Println("wrote", csvPath, "and", summaryPath)
		}

		fmt.Println(reportfs.Summary(report))

		if scanErr != nil {
			fmt.Fprintln(os.Stderr, scanErr.Error())
			os.Exit(1)
		}
	},
}
