package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"gymwatch-backend/lib/hitstore"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(latestCmd)
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent recorded scan run.",
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore(readConfig())

		run, err := store.Latest(cmd.Context())
		if errors.Is(err, sql.ErrNoRows) {
			fmt.Println("No runs recorded yet.")
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		printRun(run)
	},
}

func printRun(run hitstore.Run) {
	fmt.Printf(
		"run %d: started %s, finished %s\n",
		run.ID,
		run.StartedAt.Format("2006-01-02 15:04:05"),
		run.FinishedAt.Format("15:04:05"),
	)
	if run.FatalError != "" {
		fmt.Println("aborted:", run.FatalError)
	}

	if len(run.Hits) == 0 {
		fmt.Println("no bookable windows")
	} else {
		t := newTable()
		t.AppendHeader(table.Row{"Date", "Weekday", "Start", "End"})
		for _, hit := range run.Hits {
			t.AppendRow(table.Row{
				hit.Date.Format("2006-01-02"),
				hit.Date.Weekday().String(),
				hit.Window.Start,
				hit.Window.End,
			})
		}
		t.Render()
	}

	for _, failure := range run.Failures {
		fmt.Printf(
			"failed %s after %d attempts: %s\n",
			failure.Date.Format("2006-01-02"), failure.Attempts, failure.Reason,
		)
	}
}
