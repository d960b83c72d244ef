package worktime

import (
	"context"
)

// ApprovalRouter decides which manager reviews a timesheet or a checklist
// task: a responsibility-level override wins, otherwise the employee's
// directory default applies.
type ApprovalRouter struct {
	Directory Directory
}

// ResolveManager returns the reviewing manager. resp may be nil. A missing
// manager is a ManagerResolutionError and the caller must not create any
// record that needs a reviewer.
func (r *ApprovalRouter) ResolveManager(ctx context.Context, employeeID EmployeeID, resp *Responsibility) (EmployeeID, error) {
	if resp != nil && resp.ManagerOverrideID != "" {
		return resp.ManagerOverrideID, nil
	}
	emp, err := r.Directory.GetEmployee(ctx, employeeID)
	if err != nil {
		return "", persistErr("get employee", err)
	}
	if emp == nil {
		return "", notFound("employee", string(employeeID))
	}
	if emp.DefaultManagerID == "" {
		mre := &ManagerResolutionError{EmployeeID: employeeID}
		if resp != nil {
			mre.ResponsibilityID = resp.ID
		}
		return "", mre
	}
	return emp.DefaultManagerID, nil
}

// taskManager routes a checklist attempt: the responsibility override, else
// the submission's default manager snapshot.
func taskManager(resp Responsibility, sub *DailySubmission) EmployeeID {
	if resp.ManagerOverrideID != "" {
		return resp.ManagerOverrideID
	}
	return sub.ManagerID
}
