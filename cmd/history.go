package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/icco/mej/internal/history"
)

var (
	historyLimit int
	historyPrune time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded tracks",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of tracks to show (0 for all)")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "Forget tracks started longer ago than this (e.g. 720h)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.NewSQLiteStore(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	if historyPrune > 0 {
		n, err := store.Clean(time.Now().Add(-historyPrune))
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d tracks older than %s\n", n, historyPrune)
	}

	tracks, err := store.Recent(historyLimit)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		fmt.Println("No tracks recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tPRESET\tMODE\tLENGTH\tCOMPLETE\tFILE")
	for _, t := range tracks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n",
			t.Started.Local().Format(time.DateTime), t.Preset, t.Mode,
			t.Duration.Round(time.Second), t.Complete, t.File)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	total, err := store.Count()
	if err != nil {
		return err
	}
	fmt.Printf("\n%d of %d tracks in %s\n", len(tracks), total, store.Path())
	return nil
}
