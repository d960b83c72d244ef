package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/warp/work-ledger/worktime"
)

// =============================================================================
// EMPLOYEE DIRECTORY (worktime.Directory interface)
// =============================================================================

// SaveEmployee upserts an employee and its default manager assignment.
func (s *Store) SaveEmployee(ctx context.Context, emp worktime.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var startDate sql.NullString
	if emp.StartDate != nil {
		startDate = sql.NullString{String: emp.StartDate.String(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, default_manager_id, start_date, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			default_manager_id = excluded.default_manager_id,
			start_date = excluded.start_date
	`,
		emp.ID, emp.Name, nullString(string(emp.DefaultManagerID)), startDate,
		s.formatTime(time.Now()),
	)
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id worktime.EmployeeID) (*worktime.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries.GetEmployee(ctx, id)
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]worktime.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, default_manager_id, start_date FROM employees ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []worktime.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *emp)
	}
	return employees, rows.Err()
}

func (q *queries) GetEmployee(ctx context.Context, id worktime.EmployeeID) (*worktime.Employee, error) {
	emp, err := scanEmployee(q.q.QueryRowContext(ctx,
		"SELECT id, name, default_manager_id, start_date FROM employees WHERE id = ?",
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return emp, err
}

func scanEmployee(sc scanner) (*worktime.Employee, error) {
	var emp worktime.Employee
	var manager, startDate sql.NullString
	if err := sc.Scan(&emp.ID, &emp.Name, &manager, &startDate); err != nil {
		return nil, err
	}
	emp.DefaultManagerID = worktime.EmployeeID(manager.String)
	if startDate.Valid {
		d, err := worktime.ParseDate(startDate.String)
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", emp.ID, err)
		}
		emp.StartDate = &d
	}
	return &emp, nil
}

// =============================================================================
// RESPONSIBILITY CATALOG (worktime.Catalog interface)
// =============================================================================

const responsibilityColumns = `id, employee_id, task_name, description, manager_override_id, active`

// SaveResponsibility upserts a responsibility template.
func (s *Store) SaveResponsibility(ctx context.Context, r worktime.Responsibility) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO responsibilities (`+responsibilityColumns+`, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			task_name = excluded.task_name,
			description = excluded.description,
			manager_override_id = excluded.manager_override_id,
			active = excluded.active
	`,
		r.ID, r.EmployeeID, r.TaskName, nullString(r.Description),
		nullString(string(r.ManagerOverrideID)), boolInt(r.Active), s.formatTime(time.Now()),
	)
	return err
}

func (s *Store) GetResponsibility(ctx context.Context, id worktime.ResponsibilityID) (*worktime.Responsibility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries.GetResponsibility(ctx, id)
}

func (s *Store) ActiveResponsibilities(ctx context.Context, employeeID worktime.EmployeeID) ([]worktime.Responsibility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries.ActiveResponsibilities(ctx, employeeID)
}

func (q *queries) GetResponsibility(ctx context.Context, id worktime.ResponsibilityID) (*worktime.Responsibility, error) {
	r, err := scanResponsibility(q.q.QueryRowContext(ctx,
		"SELECT "+responsibilityColumns+" FROM responsibilities WHERE id = ?", id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func (q *queries) ActiveResponsibilities(ctx context.Context, employeeID worktime.EmployeeID) ([]worktime.Responsibility, error) {
	rows, err := q.q.QueryContext(ctx,
		"SELECT "+responsibilityColumns+" FROM responsibilities WHERE employee_id = ? AND active = 1 ORDER BY id",
		employeeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []worktime.Responsibility
	for rows.Next() {
		r, err := scanResponsibility(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanResponsibility(sc scanner) (*worktime.Responsibility, error) {
	var r worktime.Responsibility
	var description, override sql.NullString
	var active int
	if err := sc.Scan(&r.ID, &r.EmployeeID, &r.TaskName, &description, &override, &active); err != nil {
		return nil, err
	}
	r.Description = description.String
	r.ManagerOverrideID = worktime.EmployeeID(override.String)
	r.Active = active != 0
	return &r, nil
}
