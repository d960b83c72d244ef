/*
Package directory loads the read-only employee directory and responsibility
catalog the ledger consumes.

The ledger never edits these records. They are owned by the HR directory and
the admin catalog; this package stands in for both with a YAML seed file and
an in-memory implementation.

SEED FORMAT:
  employees:
    - id: emp-1
      name: Asha
      manager: mgr-1          # default reviewing manager
      start_date: 2025-01-06  # optional, bounds the daily lookback
  responsibilities:
    - id: resp-standup
      employee: emp-1
      task: Daily standup notes
      manager_override: mgr-2 # optional
      active: true            # optional, defaults to true
*/
package directory

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/warp/work-ledger/worktime"
)

var ErrInvalidSeed = errors.New("invalid directory seed")

type Seed struct {
	Employees        []EmployeeSeed       `yaml:"employees"`
	Responsibilities []ResponsibilitySeed `yaml:"responsibilities"`
}

type EmployeeSeed struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Manager   string `yaml:"manager"`
	StartDate string `yaml:"start_date"`
}

type ResponsibilitySeed struct {
	ID              string `yaml:"id"`
	Employee        string `yaml:"employee"`
	Task            string `yaml:"task"`
	Description     string `yaml:"description"`
	ManagerOverride string `yaml:"manager_override"`
	Active          *bool  `yaml:"active"`
}

// Writer receives seeded records. Both the SQLite store and Static
// implement it.
type Writer interface {
	SaveEmployee(ctx context.Context, emp worktime.Employee) error
	SaveResponsibility(ctx context.Context, r worktime.Responsibility) error
}

// LoadFile reads and validates a YAML seed file.
func LoadFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML seed.
func Parse(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	if err := seed.validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

func (s *Seed) validate() error {
	employees := make(map[string]bool, len(s.Employees))
	for i, e := range s.Employees {
		if e.ID == "" || e.Name == "" {
			return fmt.Errorf("%w: employee #%d needs id and name", ErrInvalidSeed, i+1)
		}
		if employees[e.ID] {
			return fmt.Errorf("%w: duplicate employee %s", ErrInvalidSeed, e.ID)
		}
		if e.StartDate != "" {
			if _, err := worktime.ParseDate(e.StartDate); err != nil {
				return fmt.Errorf("%w: employee %s: %v", ErrInvalidSeed, e.ID, err)
			}
		}
		employees[e.ID] = true
	}

	resps := make(map[string]bool, len(s.Responsibilities))
	for i, r := range s.Responsibilities {
		if r.ID == "" || r.Task == "" {
			return fmt.Errorf("%w: responsibility #%d needs id and task", ErrInvalidSeed, i+1)
		}
		if resps[r.ID] {
			return fmt.Errorf("%w: duplicate responsibility %s", ErrInvalidSeed, r.ID)
		}
		if !employees[r.Employee] {
			return fmt.Errorf("%w: responsibility %s references unknown employee %q", ErrInvalidSeed, r.ID, r.Employee)
		}
		resps[r.ID] = true
	}
	return nil
}

// Apply writes every seeded record to w.
func Apply(ctx context.Context, w Writer, seed *Seed) error {
	for _, e := range seed.Employees {
		emp := worktime.Employee{
			ID:               worktime.EmployeeID(e.ID),
			Name:             e.Name,
			DefaultManagerID: worktime.EmployeeID(e.Manager),
		}
		if e.StartDate != "" {
			d, _ := worktime.ParseDate(e.StartDate)
			emp.StartDate = &d
		}
		if err := w.SaveEmployee(ctx, emp); err != nil {
			return fmt.Errorf("seed employee %s: %w", e.ID, err)
		}
	}
	for _, r := range seed.Responsibilities {
		active := true
		if r.Active != nil {
			active = *r.Active
		}
		resp := worktime.Responsibility{
			ID:                worktime.ResponsibilityID(r.ID),
			EmployeeID:        worktime.EmployeeID(r.Employee),
			TaskName:          r.Task,
			Description:       r.Description,
			ManagerOverrideID: worktime.EmployeeID(r.ManagerOverride),
			Active:            active,
		}
		if err := w.SaveResponsibility(ctx, resp); err != nil {
			return fmt.Errorf("seed responsibility %s: %w", r.ID, err)
		}
	}
	return nil
}
