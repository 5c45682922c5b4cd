// internal/models/errors.go
package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDraftNotSubmitted guards staff transitions: drafts are not visible
	// to processing staff until submitted.
	ErrDraftNotSubmitted = errors.New("license request has not been submitted")

	// ErrRequestSubmitted guards owner edits: a submitted request is no
	// longer mutable by its owner.
	ErrRequestSubmitted = errors.New("license request has already been submitted")
)

// InvalidStateError reports a state code outside the request's covered states.
type InvalidStateError struct {
	State string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("state %s is not covered by this license request", e.State)
}

// StateNotCoveredError reports a renewal target outside the source request's
// covered states.
type StateNotCoveredError struct {
	State string
}

func (e *StateNotCoveredError) Error() string {
	return fmt.Sprintf("state %s is not covered by the source license request", e.State)
}

// IllegalTransitionError carries both statuses so the caller can explain why
// the action is blocked.
type IllegalTransitionError struct {
	From LicenseStatus
	To   LicenseStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition from %s to %s", e.From, e.To)
}

// MissingApprovalDataError lists the approval payload fields that were absent.
type MissingApprovalDataError struct {
	Missing []string
}

func (e *MissingApprovalDataError) Error() string {
	return fmt.Sprintf("approval requires %s", strings.Join(e.Missing, ", "))
}
