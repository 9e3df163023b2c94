package model

// Registry entities are read-only from the pipeline's point of view: imports
// match against them but never create or modify them.

// Employee is a registry entry with the daily wage used by the aggregator.
type Employee struct {
	ID        string
	Name      string
	Status    string
	DailyWage float64
}

// Contractor is a registry entry for an external contractor.
type Contractor struct {
	ID   string
	Name string
}

// Project is a registry entry for a construction project.
type Project struct {
	ID     string
	Name   string
	Client string
	Status string
}
