package worktime

import "sync"

// employeeLocks serializes mutations per employee. Entries are reference
// counted so the map does not grow with every employee ever seen.
type employeeLocks struct {
	mu    sync.Mutex
	locks map[EmployeeID]*employeeLock
}

type employeeLock struct {
	sync.Mutex
	refs int
}

func newEmployeeLocks() *employeeLocks {
	return &employeeLocks{locks: make(map[EmployeeID]*employeeLock)}
}

// lock blocks until the employee's lock is held and returns its release func.
func (l *employeeLocks) lock(id EmployeeID) func() {
	l.mu.Lock()
	el, ok := l.locks[id]
	if !ok {
		el = &employeeLock{}
		l.locks[id] = el
	}
	el.refs++
	l.mu.Unlock()

	el.Lock()
	return func() {
		el.Unlock()
		l.mu.Lock()
		el.refs--
		if el.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
