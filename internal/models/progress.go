// internal/models/progress.go
package models

// Progress rendering contract: every client derives the same ordered step
// sequence from a status string alone, so a freshly mounted view and a
// long-lived view that just received a broadcast render identically.

type StepState string

const (
	StepCompleted StepState = "completed"
	StepCurrent   StepState = "current"
	StepUpcoming  StepState = "upcoming"
)

type ProgressStep struct {
	Key     LicenseStatus `json:"key"`
	Ordinal int           `json:"ordinal"`
	State   StepState     `json:"state"`
}

// ProgressSteps maps a status (aggregate or per-state) to the steps to render.
//
//   - Normal path: the five fixed steps, completed up to the current one.
//   - rejected: the first two steps plus a rejected step in place of step 3:
//     stalled at review, sent back.
//   - canceled: a canceled step first, then the whole normal path grayed out,
//     so cancellation does not imply prior progress.
func ProgressSteps(status LicenseStatus) []ProgressStep {
	switch status {
	case StatusRejected:
		return []ProgressStep{
			{Key: StatusPendingRegistration, Ordinal: 1, State: StepCompleted},
			{Key: StatusRegistrationInProgress, Ordinal: 2, State: StepCompleted},
			{Key: StatusRejected, Ordinal: 3, State: StepCurrent},
		}
	case StatusCanceled:
		steps := []ProgressStep{
			{Key: StatusCanceled, Ordinal: 0, State: StepCurrent},
		}
		for i, st := range normalPath {
			steps = append(steps, ProgressStep{Key: st, Ordinal: i + 1, State: StepUpcoming})
		}
		return steps
	}

	current := status.normalPathRank()
	steps := make([]ProgressStep, 0, len(normalPath))
	for i, st := range normalPath {
		step := ProgressStep{Key: st, Ordinal: i + 1}
		switch {
		case step.Ordinal == current:
			step.State = StepCurrent
		case step.Ordinal < current:
			step.State = StepCompleted
		default:
			step.State = StepUpcoming
		}
		steps = append(steps, step)
	}
	return steps
}
