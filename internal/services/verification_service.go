// internal/services/verification_service.go
package services

import (
	"errors"
	"strings"

	"github.com/rodoaet/aet-backend/internal/models"
	"github.com/rodoaet/aet-backend/internal/store"
)

// VerificationService answers the public "is this AET real" question by
// request number, without authentication. It exposes only what a roadside
// check needs and never leaks drafts.
type VerificationService struct {
	store store.LicenseStore
}

type VerificationResult struct {
	RequestNumber string                 `json:"request_number"`
	Status        models.LicenseStatus   `json:"status"`
	Type          models.CombinationType `json:"type"`
	Transporter   string                 `json:"transporter,omitempty"`
	States        []VerificationState    `json:"states"`
}

type VerificationState struct {
	State      string               `json:"state"`
	Status     models.LicenseStatus `json:"status"`
	ValidUntil string               `json:"valid_until,omitempty"`
	AETNumber  string               `json:"aet_number,omitempty"`
}

func NewVerificationService(licenseStore store.LicenseStore) *VerificationService {
	return &VerificationService{store: licenseStore}
}

func (s *VerificationService) VerifyByNumber(number string) (*VerificationResult, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, errors.New("request number is required")
	}

	request, err := s.store.LoadByNumber(number)
	if err != nil {
		return nil, err
	}
	if request.IsDraft {
		// Drafts don't exist to the outside world.
		return nil, store.ErrNotFound
	}

	result := &VerificationResult{
		RequestNumber: request.RequestNumber,
		Status:        request.Status,
		Type:          request.Type,
		States:        make([]VerificationState, 0, len(request.States)),
	}

	detailed, err := s.store.LoadDetailed(request.ID)
	if err == nil && detailed.Transporter != nil {
		result.Transporter = detailed.Transporter.LegalName
	}

	for _, state := range request.States {
		vs := VerificationState{
			State:  state,
			Status: request.StatusForState(state),
		}
		if entry, ok := request.StateStatuses.Get(state); ok {
			vs.ValidUntil = entry.ValidUntil
		}
		if number, ok := request.StateAETNumbers.Get(state); ok {
			vs.AETNumber = number
		}
		result.States = append(result.States, vs)
	}
	return result, nil
}
