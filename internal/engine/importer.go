// Package engine orchestrates the import pipeline: workbook reading,
// structure analysis, classification and reconciliation.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmfigueroa/planilla/internal/classify"
	"github.com/jmfigueroa/planilla/internal/model"
	"github.com/jmfigueroa/planilla/internal/reconcile"
	"github.com/jmfigueroa/planilla/internal/resolve"
	"github.com/jmfigueroa/planilla/internal/service"
	"github.com/jmfigueroa/planilla/internal/sheet"
)

// Options configures one import run.
type Options struct {
	// Override replaces inference for every sheet in the workbook. Used for
	// corrected re-imports after a bad inference.
	Override *model.StructuralMapping
	// Progress, when set, is called after each sheet with the number of
	// sheets handled so far and the workbook's total.
	Progress     func(done, total int)
	Mode         sheet.Mode
	ExchangeRate float64
	// DryRun classifies everything but writes nothing.
	DryRun bool
}

// Importer runs complete workbook imports against storage.
type Importer struct {
	storage    service.Storage
	analyzer   *sheet.Analyzer
	reconciler *reconcile.Reconciler
}

// NewImporter creates an importer. The analyzer carries the inference
// provider; legacy-mode imports may pass one built with a nil provider.
func NewImporter(storage service.Storage, analyzer *sheet.Analyzer) *Importer {
	return &Importer{
		storage:    storage,
		analyzer:   analyzer,
		reconciler: reconcile.NewReconciler(storage),
	}
}

// classifiedSheet holds one dated sheet's events until the write phase.
type classifiedSheet struct {
	name     string
	baseDate time.Time
	events   classify.Events
}

// Run imports a workbook. Sheets whose names do not parse as dates are
// skipped with a warning. The run is all-or-nothing: every sheet is analyzed
// and classified before anything is written, so a structural failure (too
// few rows, failed inference) on any sheet aborts the run with storage
// untouched. Re-running the same workbook replaces its previous records.
func (i *Importer) Run(ctx context.Context, r io.Reader, opts Options) (*service.ImportSummary, error) {
	sheets, err := sheet.ReadWorkbook(r)
	if err != nil {
		return nil, err
	}

	res, err := i.snapshotRegistries(ctx)
	if err != nil {
		return nil, err
	}

	source := model.SourceImport
	var classifier classify.Classifier = classify.NewMappedClassifier()
	if opts.Mode == sheet.ModeLegacy {
		source = model.SourceImportLegacy
		classifier = classify.NewLegacyClassifier()
	}

	summary := &service.ImportSummary{}
	var classified []classifiedSheet

	for n, ws := range sheets {
		baseDate, dateErr := sheet.ParseSheetDate(ws.Name)
		if dateErr != nil {
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("sheet %q skipped: %v", ws.Name, dateErr))
			reportProgress(opts, n+1, len(sheets))
			continue
		}

		mapping, analyzeErr := i.analyzer.Analyze(ctx, ws.Rows, opts.Override)
		if analyzeErr != nil {
			return nil, fmt.Errorf("sheet %q: %w", ws.Name, analyzeErr)
		}

		scope := classify.Scope{
			BaseDate:     baseDate,
			Source:       source,
			ExchangeRate: opts.ExchangeRate,
		}
		events, warnings := classifier.Classify(ws.Rows, mapping, res, scope)
		summary.Warnings = append(summary.Warnings, warnings...)

		classified = append(classified, classifiedSheet{name: ws.Name, baseDate: baseDate, events: events})
		summary.SheetsProcessed++
		slog.Info("Classified sheet",
			"sheet", ws.Name,
			"events", events.Len(),
			"warnings", len(warnings))
		reportProgress(opts, n+1, len(sheets))
	}

	if opts.DryRun {
		for _, cs := range classified {
			summary.Created.Attendance += len(cs.events.Attendance)
			summary.Created.Certifications += len(cs.events.Certifications)
			summary.Created.FundRequests += len(cs.events.FundRequests)
		}
		return summary, nil
	}

	// Week rows are created only now, after every sheet analyzed cleanly.
	batches := make([]reconcile.WeekEvents, 0, len(classified))
	for _, cs := range classified {
		week, weekErr := i.storage.EnsurePayrollWeek(ctx, cs.baseDate, opts.ExchangeRate)
		if weekErr != nil {
			return nil, fmt.Errorf("sheet %q: %w", cs.name, weekErr)
		}
		cs.events.SetWeek(week.ID)
		batches = append(batches, reconcile.WeekEvents{Week: week, Events: cs.events})
	}

	counts, err := i.reconciler.Apply(ctx, batches, source)
	if err != nil {
		return nil, err
	}
	summary.Created = counts
	return summary, nil
}

// snapshotRegistries loads the registries once per run so every sheet
// classifies against the same snapshot.
func (i *Importer) snapshotRegistries(ctx context.Context) (*resolve.Resolver, error) {
	employees, err := i.storage.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}
	contractors, err := i.storage.ListContractors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load contractors: %w", err)
	}
	projects, err := i.storage.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	return resolve.NewResolver(employees, contractors, projects), nil
}

func reportProgress(opts Options, done, total int) {
	if opts.Progress != nil {
		opts.Progress(done, total)
	}
}
