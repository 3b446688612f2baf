package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/toolbelt/plumbing-estimator/internal/history"
	"github.com/toolbelt/plumbing-estimator/internal/money"
	"github.com/toolbelt/plumbing-estimator/internal/util"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent estimates",
	Run: func(cmd *cobra.Command, _ []string) {
		listHistory(cmd)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "n", history.DefaultLimit, "how many estimates to show")
	historyCmd.Flags().StringP("output", "o", "table", "output format: table or json")
}

func listHistory(cmd *cobra.Command) {
	config, logger := setup()
	defer logger.Sync()

	if !config.History.Enabled {
		logger.Fatal("estimate history is disabled", zap.String("hint", "set history.enabled in the configuration file"))
	}

	store, err := openHistory(config.History, logger)
	if err != nil {
		logger.Fatal("opening estimate history", zap.Error(err))
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.List(context.Background(), limit)
	if err != nil {
		logger.Fatal("listing estimates", zap.Error(err))
	}

	if output, _ := cmd.Flags().GetString("output"); output == "json" {
		printJSON(entries)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tCOST\tDAYS\tFALLBACK\tDESCRIPTION")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\t%s\n",
			e.ID,
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			money.Format("£", e.CostGBP),
			e.TimeDays,
			e.Fallback,
			util.Preview(e.Description, 60),
		)
	}
	w.Flush()
}

