package cmd

import (
	"fmt"
	"os"

	"gymwatch-backend/lib/configutil"
	configlibsql "gymwatch-backend/lib/configutil/libsql"
	"gymwatch-backend/lib/hitstore"
	"gymwatch-backend/lib/hitstore/db"
	"gymwatch-backend/services/scan"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "gymwatch-cli",
	Short: "gymwatch-cli drives and inspects the gym availability watcher.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configPath, "config", "config.json5",
		"Path to the watcher config file.",
	)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type BookingConfig struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
	BookPath string `json:"book_path"`
	Facility string `json:"facility"`
}

type WindowConfig struct {
	Weekday string `json:"weekday"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

type ScanConfig struct {
	DurationLabel string         `json:"duration_label"`
	Windows       []WindowConfig `json:"windows"`
	HorizonDays   int            `json:"horizon_days"`
	Attempts      int            `json:"attempts"`
	ReportDir     string         `json:"report_dir"`
}

// Config is the subset of the daemon's config file the CLI cares
// about. Unknown keys (schedule, notifiers) are ignored on read.
type Config struct {
	Booking  BookingConfig       `json:"booking"`
	Scan     ScanConfig          `json:"scan"`
	Database configlibsql.Struct `json:"database"`
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config](configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read config: "+err.Error())
		os.Exit(1)
	}

	if username := os.Getenv("GYMWATCH_USERNAME"); username != "" {
		cfg.Booking.Username = username
	}
	if password := os.Getenv("GYMWATCH_PASSWORD"); password != "" {
		cfg.Booking.Password = password
	}

	return cfg
}

func targetWindows(config ScanConfig) []scan.TargetWindow {
	windows := make([]scan.TargetWindow, len(config.Windows))
	for i, w := range config.Windows {
		weekday, err := scan.ParseWeekday(w.Weekday)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		windows[i] = scan.TargetWindow{
			Weekday: weekday,
			Start:   w.Start,
			End:     w.End,
		}
	}
	return windows
}

func openStore(cfg Config) hitstore.Store {
	database, err := cfg.Database.OpenDB(db.Schema)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open database: "+err.Error())
		os.Exit(1)
	}
	return hitstore.NewStore(database)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
