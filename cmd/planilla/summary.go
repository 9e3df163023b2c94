package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmfigueroa/planilla/internal/aggregate"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary <week-start>",
		Short: "Print a week's financial summary",
		Long: `Print the financial rollup of the payroll week starting at the given
Monday (format 2006-01-02). The projected view counts every event; the
settlement view counts approved events only and deducts cash advances.`,
		Args: cobra.ExactArgs(1),
		RunE: runSummary,
	}

	cmd.Flags().String("view", "projected", "summary view (projected, settlement)")

	return cmd
}

func runSummary(cmd *cobra.Command, args []string) error {
	start, err := time.Parse("2006-01-02", args[0])
	if err != nil {
		return fmt.Errorf("invalid week start %q, expected 2006-01-02", args[0])
	}

	opts := aggregate.Projected()
	switch view, _ := cmd.Flags().GetString("view"); view {
	case "projected":
	case "settlement":
		opts = aggregate.Settlement()
	default:
		return fmt.Errorf("unknown view %q", view)
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	summary, err := aggregate.NewAggregator(store).Summarize(ctx, start, opts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
