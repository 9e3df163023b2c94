package sheet

import (
	"context"
	"fmt"

	"github.com/jmfigueroa/planilla/internal/common"
	"github.com/jmfigueroa/planilla/internal/infer"
	"github.com/jmfigueroa/planilla/internal/model"
)

// MinRows is the minimum number of rows a sheet must have before any
// analysis is attempted.
const MinRows = 5

// Mode selects how a sheet's structure is determined.
type Mode string

// Analysis modes.
const (
	// ModeInference asks the external provider for a structural mapping.
	ModeInference Mode = "inference"
	// ModeLegacy skips mapping entirely; rows are classified by fixed
	// vocabularies downstream.
	ModeLegacy Mode = "legacy"
)

// Analyzer turns raw sheet rows into a structural mapping.
type Analyzer struct {
	provider infer.Provider
	mode     Mode
}

// NewAnalyzer creates an analyzer. The provider may be nil in legacy mode.
func NewAnalyzer(provider infer.Provider, mode Mode) *Analyzer {
	return &Analyzer{provider: provider, mode: mode}
}

// Analyze returns the structural mapping for rows. A caller-supplied
// override is trusted as-is (after index sanity checks) so corrected
// re-imports skip the inference call. Legacy mode returns a nil mapping:
// classification is vocabulary-driven there. A sheet with fewer than MinRows
// rows fails the whole import with no partial analysis.
func (a *Analyzer) Analyze(ctx context.Context, rows [][]string, override *model.StructuralMapping) (*model.StructuralMapping, error) {
	if len(rows) < MinRows {
		return nil, fmt.Errorf("%w: sheet has %d rows, need at least %d", common.ErrValidation, len(rows), MinRows)
	}

	if override != nil {
		if err := override.Validate(); err != nil {
			return nil, fmt.Errorf("%w: analysis override: %v", common.ErrValidation, err)
		}
		if err := checkRowBounds(override, len(rows)); err != nil {
			return nil, fmt.Errorf("%w: analysis override: %v", common.ErrValidation, err)
		}
		return override, nil
	}

	if a.mode == ModeLegacy {
		return nil, nil
	}

	if a.provider == nil {
		return nil, fmt.Errorf("%w: no inference provider configured", common.ErrConfiguration)
	}

	sample := rows
	if len(sample) > infer.SampleSize {
		sample = sample[:infer.SampleSize]
	}

	mapping, err := a.provider.Infer(ctx, sample)
	if err != nil {
		return nil, err
	}
	if err := mapping.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInference, err)
	}
	if err := checkRowBounds(mapping, len(rows)); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInference, err)
	}
	return mapping, nil
}

// checkRowBounds rejects mappings whose row indices point past the sheet's
// end. Validate only checks internal consistency; a mapping can pass it and
// still name rows the sheet does not have.
func checkRowBounds(m *model.StructuralMapping, rowCount int) error {
	if m.HeaderRowIndex >= rowCount {
		return fmt.Errorf("header row %d is beyond the sheet's %d rows", m.HeaderRowIndex, rowCount)
	}
	if m.DataStartRowIndex >= rowCount {
		return fmt.Errorf("data start row %d is beyond the sheet's %d rows", m.DataStartRowIndex, rowCount)
	}
	return nil
}
