package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmfigueroa/planilla/internal/aggregate"
	"github.com/jmfigueroa/planilla/internal/config"
	"github.com/jmfigueroa/planilla/internal/export"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <week-start>",
		Short: "Export a week's summary to Google Sheets",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}

	cmd.Flags().String("view", "projected", "summary view (projected, settlement)")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
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

	exportCfg, err := config.LoadExportConfig()
	if err != nil {
		return err
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

	writer, err := export.NewWriter(ctx, *exportCfg, slog.Default())
	if err != nil {
		return err
	}

	if err := writer.Write(ctx, summary); err != nil {
		return err
	}

	slog.Info("Summary exported", "week", start.Format("2006-01-02"))
	return nil
}
