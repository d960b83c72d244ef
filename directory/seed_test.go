package directory_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/work-ledger/directory"
	"github.com/warp/work-ledger/worktime"
)

const seedYAML = `
employees:
  - id: mgr-1
    name: Meera
  - id: emp-1
    name: Asha
    manager: mgr-1
    start_date: 2025-01-06
responsibilities:
  - id: resp-standup
    employee: emp-1
    task: Standup notes
  - id: resp-galleys
    employee: emp-1
    task: Upload galleys
    manager_override: mgr-2
  - id: resp-old
    employee: emp-1
    task: Fax proofs
    active: false
`

func TestLoadFile_ApplyToStatic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	seed, err := directory.LoadFile(path)
	require.NoError(t, err)

	ctx := context.Background()
	dir := directory.NewStatic()
	require.NoError(t, directory.Apply(ctx, dir, seed))

	emp, err := dir.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, emp)
	assert.Equal(t, worktime.EmployeeID("mgr-1"), emp.DefaultManagerID)
	require.NotNil(t, emp.StartDate)
	assert.Equal(t, worktime.NewDate(2025, time.January, 6), *emp.StartDate)

	active, err := dir.ActiveResponsibilities(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, worktime.ResponsibilityID("resp-galleys"), active[0].ID)
	assert.Equal(t, worktime.EmployeeID("mgr-2"), active[0].ManagerOverrideID)

	old, err := dir.GetResponsibility(ctx, "resp-old")
	require.NoError(t, err)
	assert.False(t, old.Active)

	missing, err := dir.GetEmployee(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestParse_RejectsBrokenSeeds(t *testing.T) {
	tests := map[string]string{
		"duplicate employee": "employees:\n  - {id: a, name: A}\n  - {id: a, name: B}\n",
		"unknown employee":   "employees:\n  - {id: a, name: A}\nresponsibilities:\n  - {id: r, employee: b, task: T}\n",
		"bad start date":     "employees:\n  - {id: a, name: A, start_date: 06/01/2025}\n",
		"missing task":       "employees:\n  - {id: a, name: A}\nresponsibilities:\n  - {id: r, employee: a}\n",
		"not yaml":           "employees: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := directory.Parse([]byte(doc))
			assert.ErrorIs(t, err, directory.ErrInvalidSeed)
		})
	}
}
