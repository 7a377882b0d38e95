package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(
		&historyLimit, "limit", "n", 10,
		"Number of runs to show.",
	)
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent scan runs, newest first.",
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore(readConfig())

		runs, err := store.Recent(cmd.Context(), historyLimit)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return
		}

		t := newTable()
		t.AppendHeader(table.Row{"Run", "Started", "Hits", "Failures", "Fatal"})
		for _, run := range runs {
			t.AppendRow(table.Row{
				run.ID,
				run.StartedAt.Format("2006-01-02 15:04"),
				len(run.Hits),
				len(run.Failures),
				run.FatalError,
			})
		}
		t.Render()
	},
}
