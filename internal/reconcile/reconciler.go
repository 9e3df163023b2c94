// Package reconcile applies classified import events to storage with
// delete-then-insert replacement semantics.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmfigueroa/planilla/internal/classify"
	"github.com/jmfigueroa/planilla/internal/model"
	"github.com/jmfigueroa/planilla/internal/service"
)

// MaxOpsPerTransaction caps how many operations a single database
// transaction carries. Large weeks are flushed in multiple chunks.
const MaxOpsPerTransaction = 500

// operation is one unit of reconciliation work executed inside a transaction.
type operation func(ctx context.Context, tx service.Transaction) error

// Reconciler replaces each week's imported records with freshly classified
// events. Replacement is keyed by source tag: only records carrying the
// import's own source are deleted, so manual records survive re-imports.
type Reconciler struct {
	storage   service.Storage
	chunkSize int
}

// NewReconciler creates a reconciler over the given storage.
func NewReconciler(storage service.Storage) *Reconciler {
	return &Reconciler{storage: storage, chunkSize: MaxOpsPerTransaction}
}

// WeekEvents pairs one payroll week with the freshly classified events that
// replace its imported records.
type WeekEvents struct {
	Week   *model.PayrollWeek
	Events classify.Events
}

// Apply replaces each week's previous records for the given source with its
// new events. Every delete and insert across all weeks is queued first and
// then flushed in transactions of at most MaxOpsPerTransaction operations;
// chunk boundaries pay no attention to week boundaries. A week's deletes
// always precede its inserts. Applying the same batches twice yields the
// same stored state.
//
// Legacy imports never touch fund requests: the historical importer predates
// fund-request extraction, so there is nothing of its making to clear.
func (r *Reconciler) Apply(ctx context.Context, batches []WeekEvents, source model.Source) (service.CreatedCounts, error) {
	var counts service.CreatedCounts
	clearFundRequests := source != model.SourceImportLegacy

	var ops []operation
	for _, batch := range batches {
		if batch.Week == nil {
			return service.CreatedCounts{}, fmt.Errorf("payroll week cannot be nil")
		}
		start, end := batch.Week.StartDate, batch.Week.EndDate

		ops = append(ops, func(ctx context.Context, tx service.Transaction) error {
			deleted, err := tx.DeleteAttendanceBySource(ctx, start, end, source)
			if err != nil {
				return fmt.Errorf("failed to clear attendance: %w", err)
			}
			logDeleted("attendance", deleted, source)
			return nil
		})
		ops = append(ops, func(ctx context.Context, tx service.Transaction) error {
			deleted, err := tx.DeleteCertificationsBySource(ctx, start, end, source)
			if err != nil {
				return fmt.Errorf("failed to clear certifications: %w", err)
			}
			logDeleted("certifications", deleted, source)
			return nil
		})
		if clearFundRequests {
			ops = append(ops, func(ctx context.Context, tx service.Transaction) error {
				deleted, err := tx.DeleteFundRequestsBySource(ctx, start, end, source)
				if err != nil {
					return fmt.Errorf("failed to clear fund requests: %w", err)
				}
				logDeleted("fund requests", deleted, source)
				return nil
			})
		}

		events := batch.Events
		for i := range events.Attendance {
			rec := events.Attendance[i]
			ops = append(ops, func(ctx context.Context, tx service.Transaction) error {
				return tx.InsertAttendance(ctx, &rec)
			})
		}
		for i := range events.Certifications {
			cert := events.Certifications[i]
			ops = append(ops, func(ctx context.Context, tx service.Transaction) error {
				return tx.InsertCertification(ctx, &cert)
			})
		}
		for i := range events.FundRequests {
			req := events.FundRequests[i]
			ops = append(ops, func(ctx context.Context, tx service.Transaction) error {
				return tx.InsertFundRequest(ctx, &req)
			})
		}

		counts.Attendance += len(events.Attendance)
		counts.Certifications += len(events.Certifications)
		counts.FundRequests += len(events.FundRequests)
	}

	if err := r.flush(ctx, ops); err != nil {
		return service.CreatedCounts{}, err
	}
	return counts, nil
}

// flush executes the operations in order, committing a transaction per chunk.
func (r *Reconciler) flush(ctx context.Context, ops []operation) error {
	for offset := 0; offset < len(ops); offset += r.chunkSize {
		chunkEnd := offset + r.chunkSize
		if chunkEnd > len(ops) {
			chunkEnd = len(ops)
		}

		tx, err := r.storage.BeginTx(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		for _, op := range ops[offset:chunkEnd] {
			if opErr := op(ctx, tx); opErr != nil {
				_ = tx.Rollback()
				return opErr
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit chunk: %w", err)
		}
	}
	return nil
}

func logDeleted(kind string, count int64, source model.Source) {
	if count > 0 {
		slog.Debug("Cleared previous import records",
			"kind", kind,
			"count", count,
			"source", source)
	}
}
