package infer

import (
	"context"

	"github.com/jmfigueroa/planilla/internal/model"
)

// StubProvider is a deterministic Provider for tests. It records the sample
// it was called with and returns a fixed mapping or error.
type StubProvider struct {
	Mapping *model.StructuralMapping
	Err     error
	Samples [][][]string
}

// Infer returns the stubbed mapping or error.
func (s *StubProvider) Infer(_ context.Context, sampleRows [][]string) (*model.StructuralMapping, error) {
	s.Samples = append(s.Samples, sampleRows)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Mapping, nil
}
