// Package resolve matches free-text spreadsheet names against read-only
// registry snapshots.
package resolve

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/jmfigueroa/planilla/internal/model"
)

// Normalize lowercases, trims and strips diacritics from s. It is total:
// empty input yields the empty string. Matching is always exact on the
// normalized form, never fuzzy.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Resolver holds one registry snapshot, indexed by normalized name. It is
// built once per import run so every row sees the same registries.
type Resolver struct {
	employees   map[string]string
	contractors map[string]string
	projects    map[string]string
}

// NewResolver indexes the given registry snapshot. Projects are indexable by
// normalized client name as well as project name; the project name wins when
// both normalize to the same key.
func NewResolver(employees []model.Employee, contractors []model.Contractor, projects []model.Project) *Resolver {
	r := &Resolver{
		employees:   make(map[string]string, len(employees)),
		contractors: make(map[string]string, len(contractors)),
		projects:    make(map[string]string, len(projects)),
	}

	for _, e := range employees {
		key := Normalize(e.Name)
		if key == "" {
			continue
		}
		r.employees[key] = e.ID
	}
	for _, c := range contractors {
		key := Normalize(c.Name)
		if key == "" {
			continue
		}
		r.contractors[key] = c.ID
	}
	for _, p := range projects {
		if key := Normalize(p.Client); key != "" {
			r.projects[key] = p.ID
		}
	}
	for _, p := range projects {
		if key := Normalize(p.Name); key != "" {
			r.projects[key] = p.ID
		}
	}

	return r
}

// MatchEmployee returns the employee id for name, or false when the
// normalized name is not in the registry.
func (r *Resolver) MatchEmployee(name string) (string, bool) {
	id, ok := r.employees[Normalize(name)]
	return id, ok
}

// MatchContractor returns the contractor id for name.
func (r *Resolver) MatchContractor(name string) (string, bool) {
	id, ok := r.contractors[Normalize(name)]
	return id, ok
}

// MatchProject returns the project id for name, which may be either a
// project name or a client name.
func (r *Resolver) MatchProject(name string) (string, bool) {
	id, ok := r.projects[Normalize(name)]
	return id, ok
}
