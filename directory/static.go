package directory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/work-ledger/worktime"
)

// Static is an in-memory worktime.Directory and worktime.Catalog.
type Static struct {
	mu               sync.RWMutex
	employees        map[worktime.EmployeeID]worktime.Employee
	responsibilities map[worktime.ResponsibilityID]worktime.Responsibility
}

func NewStatic() *Static {
	return &Static{
		employees:        make(map[worktime.EmployeeID]worktime.Employee),
		responsibilities: make(map[worktime.ResponsibilityID]worktime.Responsibility),
	}
}

func (s *Static) SaveEmployee(_ context.Context, emp worktime.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[emp.ID] = emp
	return nil
}

func (s *Static) SaveResponsibility(_ context.Context, r worktime.Responsibility) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responsibilities[r.ID] = r
	return nil
}

func (s *Static) GetEmployee(_ context.Context, id worktime.EmployeeID) (*worktime.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emp, ok := s.employees[id]
	if !ok {
		return nil, nil
	}
	return &emp, nil
}

func (s *Static) GetResponsibility(_ context.Context, id worktime.ResponsibilityID) (*worktime.Responsibility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.responsibilities[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *Static) ActiveResponsibilities(_ context.Context, employeeID worktime.EmployeeID) ([]worktime.Responsibility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []worktime.Responsibility
	for _, r := range s.responsibilities {
		if r.EmployeeID == employeeID && r.Active {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
