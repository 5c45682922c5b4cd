// internal/models/engine.go
package models

// TransitionPayload carries the data a staff member submits alongside a
// per-state status change. ValidUntil and DocumentURL are mandatory when the
// new status is approved; the AET number is whatever the jurisdiction issued.
type TransitionPayload struct {
	ValidUntil  string `json:"valid_until,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DocumentURL string `json:"document_url,omitempty" validate:"omitempty,url"`
	AETNumber   string `json:"aet_number,omitempty" validate:"omitempty,max=50"`
}

// ApplyStateTransition validates and applies a status change for one covered
// state, then recomputes the aggregate status. It performs no I/O and touches
// the request only after every rule has passed, so a failed call leaves the
// request exactly as it was. Persistence is the caller's job; since the
// computation is deterministic it can be re-run verbatim after a conflicting
// concurrent write.
func ApplyStateTransition(req *LicenseRequest, state string, newStatus LicenseStatus, payload TransitionPayload) error {
	if !req.CoversState(state) {
		return &InvalidStateError{State: state}
	}

	// Approval data is checked before edge legality: approving without a
	// validity date and document always reports what is missing.
	if newStatus == StatusApproved {
		var missing []string
		if payload.ValidUntil == "" {
			missing = append(missing, "valid_until")
		}
		if payload.DocumentURL == "" {
			missing = append(missing, "document_url")
		}
		if len(missing) > 0 {
			return &MissingApprovalDataError{Missing: missing}
		}
	}

	current := req.StatusForState(state)
	if !current.CanTransitionTo(newStatus) {
		return &IllegalTransitionError{From: current, To: newStatus}
	}

	entry := StateStatus{State: state, Status: newStatus}
	if newStatus == StatusApproved {
		entry.ValidUntil = payload.ValidUntil
		req.StateFiles = req.StateFiles.Set(state, payload.DocumentURL)
		if payload.AETNumber != "" {
			req.StateAETNumbers = req.StateAETNumbers.Set(state, payload.AETNumber)
		}
	}
	req.StateStatuses = req.StateStatuses.Set(entry)
	req.LastStateChanged = state
	req.Status = ComputeAggregateStatus(req.States, req.StateStatuses, state)

	return nil
}

// ComputeAggregateStatus derives the overall status from the per-state
// statuses, first match wins:
//
//  1. every covered state approved → approved
//  2. the most recently changed state is canceled → canceled
//  3. any state rejected → rejected
//  4. otherwise the earliest-in-normal-path status among the still-live
//     states, so the requester always sees the weakest link. Canceled states no
//     longer participate once later activity supersedes them; if every state
//     is canceled the request is canceled.
//
// States absent from the list count as pending_registration. Pure function:
// identical inputs yield identical outputs.
func ComputeAggregateStatus(states []string, statuses StateStatusList, lastChanged string) LicenseStatus {
	if len(states) == 0 {
		return StatusPendingRegistration
	}

	allApproved := true
	for _, code := range states {
		if statuses.StatusFor(code) != StatusApproved {
			allApproved = false
			break
		}
	}
	if allApproved {
		return StatusApproved
	}

	if lastChanged != "" && statuses.StatusFor(lastChanged) == StatusCanceled {
		return StatusCanceled
	}

	for _, code := range states {
		if statuses.StatusFor(code) == StatusRejected {
			return StatusRejected
		}
	}

	lowest := LicenseStatus("")
	for _, code := range states {
		st := statuses.StatusFor(code)
		if st == StatusCanceled {
			continue
		}
		if lowest == "" || st.normalPathRank() < lowest.normalPathRank() {
			lowest = st
		}
	}
	if lowest == "" {
		return StatusCanceled
	}
	return lowest
}
