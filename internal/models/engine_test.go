// internal/models/engine_test.go
package models

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(states ...string) *LicenseRequest {
	return &LicenseRequest{
		RequestNumber: "AET-2025-TEST01",
		Type:          CombinationBitrain7Axles,
		States:        pq.StringArray(states),
		Status:        StatusPendingRegistration,
	}
}

func approvalPayload() TransitionPayload {
	return TransitionPayload{
		ValidUntil:  "2025-12-31",
		DocumentURL: "https://files.example.com/aet/sp.pdf",
		AETNumber:   "AET-SP-2025-0042",
	}
}

func TestApplyStateTransitionUnknownState(t *testing.T) {
	req := newRequest("SP")

	err := ApplyStateTransition(req, "MG", StatusRegistrationInProgress, TransitionPayload{})

	var invalid *InvalidStateError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "MG", invalid.State)
	assert.Contains(t, err.Error(), "MG")
	assert.Empty(t, req.StateStatuses)
	assert.Equal(t, StatusPendingRegistration, req.Status)
}

func TestApplyStateTransitionIllegalPairsLeaveRequestUnchanged(t *testing.T) {
	for _, from := range AllStatuses {
		allowed := make(map[LicenseStatus]bool)
		for _, to := range allowedEdges[from] {
			allowed[to] = true
		}
		for _, to := range AllStatuses {
			if allowed[to] {
				continue
			}

			req := newRequest("SP", "MG")
			req.StateStatuses = req.StateStatuses.Set(StateStatus{State: "SP", Status: from})
			req.Status = ComputeAggregateStatus(req.States, req.StateStatuses, "SP")
			prevAggregate := req.Status

			err := ApplyStateTransition(req, "SP", to, approvalPayload())

			var illegal *IllegalTransitionError
			require.ErrorAs(t, err, &illegal, "%s -> %s", from, to)
			assert.Equal(t, from, illegal.From)
			assert.Equal(t, to, illegal.To)
			assert.Equal(t, from, req.StatusForState("SP"), "%s -> %s", from, to)
			assert.Equal(t, prevAggregate, req.Status, "%s -> %s", from, to)
		}
	}
}

func TestApprovalWithoutPayloadAlwaysFailsMissingApprovalData(t *testing.T) {
	// Regardless of the current status, approving with an empty payload
	// reports the missing fields rather than an edge violation.
	for _, from := range AllStatuses {
		req := newRequest("SP")
		req.StateStatuses = req.StateStatuses.Set(StateStatus{State: "SP", Status: from})

		err := ApplyStateTransition(req, "SP", StatusApproved, TransitionPayload{})

		var missing *MissingApprovalDataError
		require.ErrorAs(t, err, &missing, string(from))
		assert.ElementsMatch(t, []string{"valid_until", "document_url"}, missing.Missing)
		assert.Equal(t, from, req.StatusForState("SP"))
	}
}

func TestApprovalWithPartialPayloadReportsMissingField(t *testing.T) {
	req := newRequest("SP")
	req.StateStatuses = req.StateStatuses.Set(StateStatus{State: "SP", Status: StatusPendingApproval})

	err := ApplyStateTransition(req, "SP", StatusApproved, TransitionPayload{ValidUntil: "2025-12-31"})

	var missing *MissingApprovalDataError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"document_url"}, missing.Missing)
	assert.Equal(t, StatusPendingApproval, req.StatusForState("SP"))
}

func TestApprovalStoresPayload(t *testing.T) {
	req := newRequest("SP")
	req.StateStatuses = req.StateStatuses.Set(StateStatus{State: "SP", Status: StatusPendingApproval})

	require.NoError(t, ApplyStateTransition(req, "SP", StatusApproved, approvalPayload()))

	ss, ok := req.StateStatuses.Get("SP")
	require.True(t, ok)
	assert.Equal(t, StatusApproved, ss.Status)
	assert.Equal(t, "2025-12-31", ss.ValidUntil)

	url, ok := req.StateFiles.Get("SP")
	require.True(t, ok)
	assert.Equal(t, "https://files.example.com/aet/sp.pdf", url)

	number, ok := req.StateAETNumbers.Get("SP")
	require.True(t, ok)
	assert.Equal(t, "AET-SP-2025-0042", number)

	assert.Equal(t, "SP", req.LastStateChanged)
	assert.Equal(t, StatusApproved, req.Status)
}

func TestUnderReviewApprovalWithoutPayloadScenario(t *testing.T) {
	req := newRequest("SP")
	req.StateStatuses = req.StateStatuses.Set(StateStatus{State: "SP", Status: StatusUnderReview})
	req.Status = ComputeAggregateStatus(req.States, req.StateStatuses, "SP")

	err := ApplyStateTransition(req, "SP", StatusApproved, TransitionPayload{})

	var missing *MissingApprovalDataError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, StatusUnderReview, req.StatusForState("SP"))
	assert.Equal(t, StatusUnderReview, req.Status)
}

func TestRejectionFlow(t *testing.T) {
	req := newRequest("SP")
	req.StateStatuses = req.StateStatuses.Set(StateStatus{State: "SP", Status: StatusUnderReview})

	require.NoError(t, ApplyStateTransition(req, "SP", StatusRejected, TransitionPayload{}))
	assert.Equal(t, StatusRejected, req.StatusForState("SP"))
	assert.Equal(t, StatusRejected, req.Status)

	// Rejected cannot move straight to approved, even with a full payload.
	err := ApplyStateTransition(req, "SP", StatusApproved, approvalPayload())
	var illegal *IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, StatusRejected, illegal.From)
	assert.Equal(t, StatusApproved, illegal.To)

	// Re-entry happens at registration_in_progress only.
	require.NoError(t, ApplyStateTransition(req, "SP", StatusRegistrationInProgress, TransitionPayload{}))
	assert.Equal(t, StatusRegistrationInProgress, req.StatusForState("SP"))
	assert.Equal(t, StatusRegistrationInProgress, req.Status)
}

func TestWeakestLinkScenario(t *testing.T) {
	req := newRequest("SP", "MG")
	req.Status = ComputeAggregateStatus(req.States, req.StateStatuses, "")
	assert.Equal(t, StatusPendingRegistration, req.Status)

	require.NoError(t, ApplyStateTransition(req, "SP", StatusApproved, approvalPayload()))
	assert.Equal(t, StatusPendingRegistration, req.Status, "MG is still behind")

	require.NoError(t, ApplyStateTransition(req, "MG", StatusApproved, approvalPayload()))
	assert.Equal(t, StatusApproved, req.Status)
}

func TestAggregateReflectsLeastAdvancedState(t *testing.T) {
	req := newRequest("SP", "MG", "PR")
	require.NoError(t, ApplyStateTransition(req, "SP", StatusPendingApproval, TransitionPayload{}))
	require.NoError(t, ApplyStateTransition(req, "MG", StatusUnderReview, TransitionPayload{}))

	// PR has no entry and defaults to pending_registration.
	assert.Equal(t, StatusPendingRegistration, req.Status)

	require.NoError(t, ApplyStateTransition(req, "PR", StatusUnderReview, TransitionPayload{}))
	assert.Equal(t, StatusUnderReview, req.Status)
}

func TestAggregateCanceledOnlyWhileMostRecent(t *testing.T) {
	req := newRequest("SP", "MG")

	require.NoError(t, ApplyStateTransition(req, "SP", StatusCanceled, TransitionPayload{}))
	assert.Equal(t, StatusCanceled, req.Status, "cancellation was the latest action")

	// Later activity on another state supersedes the canceled view; the
	// canceled workflow no longer drags the aggregate.
	require.NoError(t, ApplyStateTransition(req, "MG", StatusRegistrationInProgress, TransitionPayload{}))
	assert.Equal(t, StatusRegistrationInProgress, req.Status)
}

func TestAggregateRejectedBeatsWeakestLink(t *testing.T) {
	req := newRequest("SP", "MG")
	require.NoError(t, ApplyStateTransition(req, "SP", StatusUnderReview, TransitionPayload{}))
	require.NoError(t, ApplyStateTransition(req, "SP", StatusRejected, TransitionPayload{}))

	// MG sits at pending_registration, but a rejection anywhere wins.
	assert.Equal(t, StatusRejected, req.Status)
}

func TestAggregateAllCanceled(t *testing.T) {
	req := newRequest("SP", "MG")
	require.NoError(t, ApplyStateTransition(req, "SP", StatusCanceled, TransitionPayload{}))
	require.NoError(t, ApplyStateTransition(req, "MG", StatusCanceled, TransitionPayload{}))
	assert.Equal(t, StatusCanceled, req.Status)

	// Same snapshot through the pure function with no "most recent" hint.
	statuses := StateStatusList{
		{State: "SP", Status: StatusCanceled},
		{State: "MG", Status: StatusCanceled},
	}
	assert.Equal(t, StatusCanceled, ComputeAggregateStatus([]string{"SP", "MG"}, statuses, ""))
}

func TestComputeAggregateIdempotent(t *testing.T) {
	statuses := StateStatusList{
		{State: "SP", Status: StatusApproved, ValidUntil: "2025-12-31"},
		{State: "MG", Status: StatusUnderReview},
		{State: "PR", Status: StatusCanceled},
	}
	states := []string{"SP", "MG", "PR"}

	first := ComputeAggregateStatus(states, statuses, "MG")
	second := ComputeAggregateStatus(states, statuses, "MG")
	assert.Equal(t, first, second)
	assert.Equal(t, StatusUnderReview, first)
}

func TestComputeAggregateTotality(t *testing.T) {
	// Every combination of two per-state statuses yields exactly one valid
	// aggregate, and it is either one of the per-state statuses or
	// canceled/rejected per the precedence rules.
	states := []string{"SP", "MG"}
	for _, spStatus := range AllStatuses {
		for _, mgStatus := range AllStatuses {
			statuses := StateStatusList{
				{State: "SP", Status: spStatus},
				{State: "MG", Status: mgStatus},
			}
			got := ComputeAggregateStatus(states, statuses, "MG")

			require.True(t, got.Valid(), "%s+%s -> %s", spStatus, mgStatus, got)
			if got != StatusCanceled && got != StatusRejected {
				assert.Contains(t, []LicenseStatus{spStatus, mgStatus}, got,
					"%s+%s -> %s", spStatus, mgStatus, got)
			}
		}
	}
}

func TestComputeAggregateEmptyStates(t *testing.T) {
	assert.Equal(t, StatusPendingRegistration, ComputeAggregateStatus(nil, nil, ""))
}

func TestApplyStateTransitionIsDeterministic(t *testing.T) {
	build := func() *LicenseRequest {
		req := newRequest("SP", "MG")
		req.StateStatuses = req.StateStatuses.Set(StateStatus{State: "SP", Status: StatusPendingApproval})
		return req
	}

	a, b := build(), build()
	require.NoError(t, ApplyStateTransition(a, "SP", StatusApproved, approvalPayload()))
	require.NoError(t, ApplyStateTransition(b, "SP", StatusApproved, approvalPayload()))

	assert.Equal(t, a.StateStatuses, b.StateStatuses)
	assert.Equal(t, a.StateFiles, b.StateFiles)
	assert.Equal(t, a.Status, b.Status)
}
