// Package infer talks to the external structure-inference provider that
// maps raw spreadsheet rows to a structural mapping.
package infer

import (
	"context"

	"github.com/jmfigueroa/planilla/internal/model"
)

// SampleSize is how many leading rows of a sheet are sent to the provider.
const SampleSize = 15

// Provider defines the interface for structure-inference backends. Infer is
// a single blocking call: failures abort the whole import before any writes
// and are never retried.
type Provider interface {
	Infer(ctx context.Context, sampleRows [][]string) (*model.StructuralMapping, error)
}

// Config holds provider settings.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	// TargetYear is substituted when a day-column header omits the year.
	TargetYear int
}
