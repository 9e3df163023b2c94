package classify

import "github.com/jmfigueroa/planilla/internal/resolve"

// Legacy sheets predate the structural mapping; their rows are recognized by
// fixed vocabularies of operative roles and expense concepts, matched on the
// normalized cell text.

var operativeRoles = map[string]struct{}{
	"capataz":                  {},
	"oficial":                  {},
	"1/2 oficial":              {},
	"medio oficial":            {},
	"ayudante":                 {},
	"sereno":                   {},
	"oficial albanil":          {},
	"oficial carpintero":       {},
	"oficial armador":          {},
	"oficial plomero":          {},
	"oficial electricista":     {},
	"oficial pintor":           {},
	"medio oficial albanil":    {},
	"medio oficial carpintero": {},
}

var conceptWords = map[string]struct{}{
	"materiales":   {},
	"caja":         {},
	"varios":       {},
	"mano de obra": {},
	"fletes":       {},
	"combustible":  {},
	"subtotal":     {},
	"total":        {},
}

// Weekday header names, used to locate day columns by fuzzy substring match.
var weekdayNames = []string{
	"lunes",
	"martes",
	"miercoles",
	"jueves",
	"viernes",
	"sabado",
	"domingo",
}

func isOperativeRole(category string) bool {
	_, ok := operativeRoles[resolve.Normalize(category)]
	return ok
}

func isConceptWord(name string) bool {
	_, ok := conceptWords[resolve.Normalize(name)]
	return ok
}
