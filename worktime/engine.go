/*
engine.go - Wiring for the work-time ledger

The Engine owns no state of its own beyond a per-employee lock table. Every
operation takes the employee and period explicitly; nothing is cached across
calls.

MUTATION PATTERN:
  1. Lock the employee (serializes get_or_create, entry edits and checklist
     transitions for one person).
  2. Open a store transaction.
  3. Re-read, validate, write. Any error rolls everything back.

COMPONENTS (one file each):
  period.go     Period Resolver (weekly and daily sequencing gate)
  timesheet.go  Timesheet Ledger
  entries.go    Work Entry Store
  checklist.go  Daily Checklist Engine
  bridge.go     Cross-Ledger Bridge
  approval.go   Approval Router
  duration.go   Duration Calculator
*/
package worktime

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultDailyLookbackDays = 30
	DefaultStandardDayHours  = 8
)

// Config carries the engine's collaborators and tunables.
type Config struct {
	Store TxStore

	// Directory and Catalog default to Store when it implements them.
	Directory Directory
	Catalog   Catalog

	// Location is the single business timezone for every timestamp and
	// day/week boundary.
	Location *time.Location
	Clock    Clock

	// DailyLookbackDays bounds how far back the daily resolver scans.
	DailyLookbackDays int

	// StandardDayHours is the expected working time of a full day, used only
	// by read-time summaries.
	StandardDayHours decimal.Decimal

	// NewID generates record identifiers. Defaults to random UUIDs.
	NewID func() string
}

type Engine struct {
	store     TxStore
	directory Directory
	catalog   Catalog
	router    *ApprovalRouter

	loc      *time.Location
	clock    Clock
	lookback int
	dayHours decimal.Decimal
	newID    func() string

	locks *employeeLocks
}

func NewEngine(cfg Config) *Engine {
	if cfg.Directory == nil {
		cfg.Directory, _ = cfg.Store.(Directory)
	}
	if cfg.Catalog == nil {
		cfg.Catalog, _ = cfg.Store.(Catalog)
	}
	e := &Engine{
		store:     cfg.Store,
		directory: cfg.Directory,
		catalog:   cfg.Catalog,
		router:    &ApprovalRouter{Directory: cfg.Directory},
		loc:       cfg.Location,
		clock:     cfg.Clock,
		lookback:  cfg.DailyLookbackDays,
		dayHours:  cfg.StandardDayHours,
		newID:     cfg.NewID,
		locks:     newEmployeeLocks(),
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	if e.clock == nil {
		e.clock = SystemClock{Location: e.loc}
	}
	if e.lookback <= 0 {
		e.lookback = DefaultDailyLookbackDays
	}
	if !e.dayHours.IsPositive() {
		e.dayHours = decimal.NewFromInt(DefaultStandardDayHours)
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e
}

// Router exposes the approval router used by the engine.
func (e *Engine) Router() *ApprovalRouter { return e.router }

// Location is the configured business timezone.
func (e *Engine) Location() *time.Location { return e.loc }

func (e *Engine) now() time.Time { return e.clock.Now().In(e.loc) }
func (e *Engine) today() Date { return DateOf(e.now()) }

// mutate runs fn in a store transaction while holding the employee's lock.
func (e *Engine) mutate(ctx context.Context, employeeID EmployeeID, op string, fn func(Store) error) error {
	release := e.locks.lock(employeeID)
	defer release()
	return persistErr(op, e.store.WithTx(ctx, fn))
}

// directoryIn reads the directory through s when the store also serves it,
// so lookups see the same transaction as the writes.
func (e *Engine) directoryIn(s Store) Directory {
	if d, ok := s.(Directory); ok {
		return d
	}
	return e.directory
}

func (e *Engine) catalogIn(s Store) Catalog {
	if c, ok := s.(Catalog); ok {
		return c
	}
	return e.catalog
}

func (e *Engine) resolveManager(ctx context.Context, s Store, employeeID EmployeeID, resp *Responsibility) (EmployeeID, error) {
	r := ApprovalRouter{Directory: e.directoryIn(s)}
	return r.ResolveManager(ctx, employeeID, resp)
}

func timePtr(t time.Time) *time.Time { return &t }
