package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jmfigueroa/planilla/internal/common"
	"github.com/jmfigueroa/planilla/internal/config"
	"github.com/jmfigueroa/planilla/internal/engine"
	"github.com/jmfigueroa/planilla/internal/infer"
	"github.com/jmfigueroa/planilla/internal/model"
	"github.com/jmfigueroa/planilla/internal/sheet"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <workbook.xlsx>",
		Short: "Import a payroll workbook",
		Long: `Import every dated sheet of an XLSX payroll workbook. Sheet structure is
inferred by the configured provider unless --override supplies a mapping or
--mode legacy selects the fixed-vocabulary classifier. Re-importing the same
workbook replaces its previous records.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().Float64("exchange-rate", 0, "ARS per USD rate recorded on the payroll week")
	cmd.Flags().String("mode", string(sheet.ModeInference), "analysis mode (inference, legacy)")
	cmd.Flags().String("override", "", "path to a JSON structural mapping that replaces inference")
	cmd.Flags().Bool("dry-run", false, "classify without writing anything")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	exchangeRate, _ := cmd.Flags().GetFloat64("exchange-rate")
	modeFlag, _ := cmd.Flags().GetString("mode")
	overridePath, _ := cmd.Flags().GetString("override")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	var mode sheet.Mode
	switch modeFlag {
	case string(sheet.ModeInference):
		mode = sheet.ModeInference
	case string(sheet.ModeLegacy):
		mode = sheet.ModeLegacy
	default:
		return fmt.Errorf("unknown mode %q", modeFlag)
	}

	var override *model.StructuralMapping
	if overridePath != "" {
		raw, err := os.ReadFile(overridePath) // #nosec G304
		if err != nil {
			return fmt.Errorf("failed to read override file: %w", err)
		}
		override = &model.StructuralMapping{}
		if err := json.Unmarshal(raw, override); err != nil {
			return fmt.Errorf("failed to parse override file: %w", err)
		}
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var provider infer.Provider
	if mode == sheet.ModeInference && override == nil {
		provider, err = infer.NewProvider(config.LoadInferenceConfig())
		if err != nil {
			return err
		}
	}

	f, err := os.Open(args[0]) // #nosec G304
	if err != nil {
		return common.NewUserError("could not open workbook", err)
	}
	defer func() { _ = f.Close() }()

	var bar *progressbar.ProgressBar
	importer := engine.NewImporter(store, sheet.NewAnalyzer(provider, mode))
	summary, err := importer.Run(ctx, f, engine.Options{
		Mode:         mode,
		ExchangeRate: exchangeRate,
		Override:     override,
		DryRun:       dryRun,
		Progress: func(done, total int) {
			if bar == nil {
				bar = progressbar.Default(int64(total), "importing sheets")
			}
			_ = bar.Set(done)
		},
	})
	if err != nil {
		return err
	}

	for _, warning := range summary.Warnings {
		slog.Warn("Import warning", "warning", warning)
	}

	slog.Info("Import complete",
		"sheets", summary.SheetsProcessed,
		"attendance", summary.Created.Attendance,
		"certifications", summary.Created.Certifications,
		"fund_requests", summary.Created.FundRequests,
		"warnings", len(summary.Warnings),
		"dry_run", dryRun)

	return nil
}
