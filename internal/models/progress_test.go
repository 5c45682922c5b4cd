// internal/models/progress_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressStepsNormalPath(t *testing.T) {
	cases := []struct {
		status  LicenseStatus
		current int
	}{
		{StatusPendingRegistration, 1},
		{StatusRegistrationInProgress, 2},
		{StatusUnderReview, 3},
		{StatusPendingApproval, 4},
		{StatusApproved, 5},
	}

	for _, tc := range cases {
		steps := ProgressSteps(tc.status)
		assert.Len(t, steps, 5, string(tc.status))
		for i, step := range steps {
			assert.Equal(t, normalPath[i], step.Key)
			assert.Equal(t, i+1, step.Ordinal)
			switch {
			case step.Ordinal == tc.current:
				assert.Equal(t, StepCurrent, step.State, "%s step %d", tc.status, step.Ordinal)
			case step.Ordinal < tc.current:
				assert.Equal(t, StepCompleted, step.State, "%s step %d", tc.status, step.Ordinal)
			default:
				assert.Equal(t, StepUpcoming, step.State, "%s step %d", tc.status, step.Ordinal)
			}
		}
	}
}

func TestProgressStepsRejected(t *testing.T) {
	steps := ProgressSteps(StatusRejected)

	assert.Equal(t, []ProgressStep{
		{Key: StatusPendingRegistration, Ordinal: 1, State: StepCompleted},
		{Key: StatusRegistrationInProgress, Ordinal: 2, State: StepCompleted},
		{Key: StatusRejected, Ordinal: 3, State: StepCurrent},
	}, steps)
}

func TestProgressStepsCanceled(t *testing.T) {
	steps := ProgressSteps(StatusCanceled)

	assert.Equal(t, ProgressStep{Key: StatusCanceled, Ordinal: 0, State: StepCurrent}, steps[0])
	assert.Len(t, steps, 6)
	for i, step := range steps[1:] {
		assert.Equal(t, normalPath[i], step.Key)
		assert.Equal(t, i+1, step.Ordinal)
		assert.Equal(t, StepUpcoming, step.State, "canceled path step %d", step.Ordinal)
	}
}

func TestProgressStepsDerivableFromStatusAlone(t *testing.T) {
	// Two derivations from the same status string are identical: no hidden
	// client state involved.
	for _, s := range AllStatuses {
		assert.Equal(t, ProgressSteps(s), ProgressSteps(s), string(s))
	}
}
