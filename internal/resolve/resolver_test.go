package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmfigueroa/planilla/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "whitespace only", input: "   ", want: ""},
		{name: "lowercases", input: "JUAN PEREZ", want: "juan perez"},
		{name: "trims", input: "  Obra Norte  ", want: "obra norte"},
		{name: "strips diacritics", input: "José Gutiérrez", want: "jose gutierrez"},
		{name: "enie", input: "Albañil", want: "albanil"},
		{name: "mixed", input: "  LOGÍSTICA y PMD ", want: "logistica y pmd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"José", "JOSE", "  Señor Capataz ", "Ñandú", ""}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "normalize(normalize(%q))", in)
	}
	assert.Equal(t, Normalize("José"), Normalize("JOSE"))
}

func TestResolverMatching(t *testing.T) {
	r := NewResolver(
		[]model.Employee{
			{ID: "emp-1", Name: "Juan Pérez", DailyWage: 10000},
			{ID: "emp-2", Name: "María López", DailyWage: 12000},
		},
		[]model.Contractor{
			{ID: "con-1", Name: "ACME SRL"},
		},
		[]model.Project{
			{ID: "prj-1", Name: "Obra A", Client: "Consorcio Río"},
			{ID: "prj-2", Name: "Obra B"},
		},
	)

	id, ok := r.MatchEmployee("JUAN PEREZ")
	require.True(t, ok)
	assert.Equal(t, "emp-1", id)

	_, ok = r.MatchEmployee("Pedro García")
	assert.False(t, ok)

	id, ok = r.MatchContractor("acme srl")
	require.True(t, ok)
	assert.Equal(t, "con-1", id)

	// Exact match only, no partials.
	_, ok = r.MatchContractor("ACME")
	assert.False(t, ok)

	id, ok = r.MatchProject("Obra B")
	require.True(t, ok)
	assert.Equal(t, "prj-2", id)

	// Projects are also indexed by client name.
	id, ok = r.MatchProject("consorcio rio")
	require.True(t, ok)
	assert.Equal(t, "prj-1", id)
}

func TestResolverProjectNameWinsOverClient(t *testing.T) {
	r := NewResolver(nil, nil, []model.Project{
		{ID: "prj-1", Name: "Torre Sur", Client: "Grupo Sur"},
		{ID: "prj-2", Name: "Grupo Sur"},
	})

	id, ok := r.MatchProject("Grupo Sur")
	require.True(t, ok)
	assert.Equal(t, "prj-2", id)
}
