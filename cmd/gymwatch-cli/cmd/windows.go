package cmd

import (
	"fmt"

	"gymwatch-backend/lib/timezone"
	"gymwatch-backend/services/scan"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(windowsCmd)
}

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "Show the watched windows and the dates the next scan will visit.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		windows := targetWindows(cfg.Scan)

		t := newTable()
		t.AppendHeader(table.Row{"Weekday", "Start", "End"})
		for _, window := range windows {
			t.AppendRow(table.Row{
				window.Weekday.String(),
				window.Start,
				window.End,
			})
		}
		t.Render()

		horizon := cfg.Scan.HorizonDays
		if horizon <= 0 {
			horizon = 14
		}

		fmt.Println("\nThe next scan will visit:")
		for _, date := range scan.ResolveDates(timezone.Now(), horizon, windows) {
			fmt.Printf(
				"- %s (%d windows)\n",
				date.Date.Format("Mon 2006-01-02"), len(date.Windows),
			)
		}
	},
}
