package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jmfigueroa/planilla/internal/model"
)

// ListEmployees retrieves all employees ordered by name.
func (s *SQLiteStorage) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listEmployeesTx(ctx, s.db)
}

func (s *SQLiteStorage) listEmployeesTx(ctx context.Context, q queryable) ([]model.Employee, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, daily_wage, status FROM employees ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var employees []model.Employee
	for rows.Next() {
		var e model.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.DailyWage, &e.Status); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employees: %w", err)
	}
	return employees, nil
}

// ListContractors retrieves all contractors ordered by name.
func (s *SQLiteStorage) ListContractors(ctx context.Context) ([]model.Contractor, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listContractorsTx(ctx, s.db)
}

func (s *SQLiteStorage) listContractorsTx(ctx context.Context, q queryable) ([]model.Contractor, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name FROM contractors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query contractors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var contractors []model.Contractor
	for rows.Next() {
		var c model.Contractor
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan contractor: %w", err)
		}
		contractors = append(contractors, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contractors: %w", err)
	}
	return contractors, nil
}

// ListProjects retrieves all projects ordered by name.
func (s *SQLiteStorage) ListProjects(ctx context.Context) ([]model.Project, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listProjectsTx(ctx, s.db)
}

func (s *SQLiteStorage) listProjectsTx(ctx context.Context, q queryable) ([]model.Project, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, client, status FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		var client sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &client, &p.Status); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.Client = client.String
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

// SaveEmployee inserts or updates an employee.
func (s *SQLiteStorage) SaveEmployee(ctx context.Context, e *model.Employee) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.saveEmployeeTx(ctx, s.db, e)
}

func (s *SQLiteStorage) saveEmployeeTx(ctx context.Context, q queryable, e *model.Employee) error {
	if e == nil {
		return fmt.Errorf("%w: employee", ErrNilParameter)
	}
	if err := validateString(e.Name, "name"); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = "active"
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO employees (id, name, daily_wage, status)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			daily_wage = excluded.daily_wage,
			status = excluded.status
	`, e.ID, e.Name, e.DailyWage, e.Status)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// SaveContractor inserts or updates a contractor.
func (s *SQLiteStorage) SaveContractor(ctx context.Context, c *model.Contractor) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.saveContractorTx(ctx, s.db, c)
}

func (s *SQLiteStorage) saveContractorTx(ctx context.Context, q queryable, c *model.Contractor) error {
	if c == nil {
		return fmt.Errorf("%w: contractor", ErrNilParameter)
	}
	if err := validateString(c.Name, "name"); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO contractors (id, name)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, c.ID, c.Name)
	if err != nil {
		return fmt.Errorf("failed to save contractor: %w", err)
	}
	return nil
}

// SaveProject inserts or updates a project.
func (s *SQLiteStorage) SaveProject(ctx context.Context, p *model.Project) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.saveProjectTx(ctx, s.db, p)
}

func (s *SQLiteStorage) saveProjectTx(ctx context.Context, q queryable, p *model.Project) error {
	if p == nil {
		return fmt.Errorf("%w: project", ErrNilParameter)
	}
	if err := validateString(p.Name, "name"); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = "active"
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO projects (id, name, client, status)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			client = excluded.client,
			status = excluded.status
	`, p.ID, p.Name, nullString(p.Client), p.Status)
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}
