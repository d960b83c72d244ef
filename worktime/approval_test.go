package worktime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/work-ledger/worktime"
)

func TestApprovalRouter_ResolveManager(t *testing.T) {
	f := newFixture(t, at(2025, time.March, 18, 9, 0))
	f.employee("emp-2", "")
	router := f.engine.Router()

	got, err := router.ResolveManager(f.ctx, "emp-1", nil)
	require.NoError(t, err)
	assert.Equal(t, worktime.EmployeeID("mgr-1"), got)

	override := &worktime.Responsibility{ID: "resp-x", ManagerOverrideID: "mgr-7"}
	got, err = router.ResolveManager(f.ctx, "emp-2", override)
	require.NoError(t, err)
	assert.Equal(t, worktime.EmployeeID("mgr-7"), got, "override wins even without a default")

	_, err = router.ResolveManager(f.ctx, "emp-2", &worktime.Responsibility{ID: "resp-y"})
	var mre *worktime.ManagerResolutionError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, worktime.ResponsibilityID("resp-y"), mre.ResponsibilityID)

	_, err = router.ResolveManager(f.ctx, "ghost", nil)
	assert.ErrorIs(t, err, worktime.ErrNotFound)
}
