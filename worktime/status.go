package worktime

import "sort"

// DeriveSubmissionStatus projects the latest attempt states of a day onto the
// submission status:
//
//	rejected  if any task is rejected
//	started   else if any task is started
//	approved  else if every task is approved
//	submitted else if any task is submitted or approved
//	pending   otherwise
func DeriveSubmissionStatus(states []TaskStatus) SubmissionStatus {
	var anyStarted, anySubmitted bool
	allApproved := len(states) > 0
	for _, s := range states {
		switch s {
		case TaskRejected:
			return SubmissionRejected
		case TaskStarted:
			anyStarted = true
		case TaskSubmitted, TaskApproved:
			anySubmitted = true
		}
		if s != TaskApproved {
			allApproved = false
		}
	}
	switch {
	case anyStarted:
		return SubmissionStarted
	case allApproved:
		return SubmissionApproved
	case anySubmitted:
		return SubmissionSubmitted
	default:
		return SubmissionPending
	}
}

// latestAttempts returns the current attempt of every responsibility, in
// responsibility order. The current attempt is the one with the highest Seq.
func latestAttempts(attempts []ChecklistAttempt) []ChecklistAttempt {
	latest := make(map[ResponsibilityID]ChecklistAttempt)
	for _, a := range attempts {
		if cur, ok := latest[a.ResponsibilityID]; !ok || a.Seq > cur.Seq {
			latest[a.ResponsibilityID] = a
		}
	}
	out := make([]ChecklistAttempt, 0, len(latest))
	for _, a := range latest {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ResponsibilityID < out[j].ResponsibilityID })
	return out
}

func attemptStates(attempts []ChecklistAttempt) []TaskStatus {
	states := make([]TaskStatus, len(attempts))
	for i, a := range attempts {
		states[i] = a.Status
	}
	return states
}
