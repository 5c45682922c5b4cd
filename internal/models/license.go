// internal/models/license.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// LicenseRequest is the aggregate root of an AET request. One request fans out
// into an independent approval workflow per covered state; the aggregate
// Status is derived from the per-state statuses (see engine.go).
type LicenseRequest struct {
	BaseModel
	RequestNumber string     `json:"request_number" gorm:"uniqueIndex;size:30;not null"`
	UserID        uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	TransporterID *uuid.UUID `json:"transporter_id" gorm:"type:uuid;index"`

	Type CombinationType `json:"type" gorm:"type:varchar(30);not null"`

	// Combination composition, by role. All weak references: vehicles outlive
	// any single request and are shared across requests.
	TractorUnitID   *uuid.UUID `json:"tractor_unit_id" gorm:"type:uuid"`
	FirstTrailerID  *uuid.UUID `json:"first_trailer_id" gorm:"type:uuid"`
	DollyID         *uuid.UUID `json:"dolly_id" gorm:"type:uuid"`
	SecondTrailerID *uuid.UUID `json:"second_trailer_id" gorm:"type:uuid"`
	FlatbedID       *uuid.UUID `json:"flatbed_id" gorm:"type:uuid"`

	LengthM          float64 `json:"length_m" gorm:"type:decimal(6,2)"`
	WidthM           float64 `json:"width_m" gorm:"type:decimal(6,2)"`
	HeightM          float64 `json:"height_m" gorm:"type:decimal(6,2)"`
	GrossWeightT     float64 `json:"gross_weight_t" gorm:"type:decimal(8,2)"`
	CargoDescription string  `json:"cargo_description,omitempty" gorm:"type:text"`

	States          pq.StringArray `json:"states" gorm:"type:text[];not null"`
	StateStatuses   StateStatusList `json:"state_statuses" gorm:"type:text[]"`
	StateFiles      StateFileList   `json:"state_files" gorm:"type:text[]"`
	StateAETNumbers StateAETList    `json:"state_aet_numbers" gorm:"type:text[]"`

	Status           LicenseStatus `json:"status" gorm:"type:varchar(30);default:'pending_registration';index"`
	LastStateChanged string        `json:"last_state_changed,omitempty" gorm:"size:10"`

	IsDraft     bool       `json:"is_draft" gorm:"default:true;index"`
	SubmittedAt *time.Time `json:"submitted_at"`

	// Requested validity window carried by renewal drafts; per-state validity
	// only exists again once a state approves.
	RequestedValidUntil string `json:"requested_valid_until,omitempty" gorm:"size:10"`

	// Index-aligned: AdditionalPlatesDocuments[i] documents
	// AdditionalPlates[i]; empty string means no document.
	AdditionalPlates          pq.StringArray `json:"additional_plates" gorm:"type:text[]"`
	AdditionalPlatesDocuments pq.StringArray `json:"additional_plates_documents" gorm:"type:text[]"`

	// Optimistic concurrency counter; bumped on every successful save.
	Version int `json:"version" gorm:"not null;default:0"`

	// Relationships
	User          User         `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Transporter   *Transporter `json:"transporter,omitempty" gorm:"foreignKey:TransporterID"`
	TractorUnit   *Vehicle     `json:"tractor_unit,omitempty" gorm:"foreignKey:TractorUnitID"`
	FirstTrailer  *Vehicle     `json:"first_trailer,omitempty" gorm:"foreignKey:FirstTrailerID"`
	Dolly         *Vehicle     `json:"dolly,omitempty" gorm:"foreignKey:DollyID"`
	SecondTrailer *Vehicle     `json:"second_trailer,omitempty" gorm:"foreignKey:SecondTrailerID"`
	Flatbed       *Vehicle     `json:"flatbed,omitempty" gorm:"foreignKey:FlatbedID"`
	Transactions  []Transaction `json:"transactions,omitempty" gorm:"foreignKey:LicenseRequestID"`
}

// CoversState reports whether the request spawned a workflow for the state.
func (lr *LicenseRequest) CoversState(code string) bool {
	for _, s := range lr.States {
		if s == code {
			return true
		}
	}
	return false
}

// StatusForState returns the effective per-state status; states without an
// entry default to pending_registration.
func (lr *LicenseRequest) StatusForState(code string) LicenseStatus {
	return lr.StateStatuses.StatusFor(code)
}

// PendingStates lists the covered states not yet approved, the ones blocking
// the aggregate under the weakest-link rule.
func (lr *LicenseRequest) PendingStates() []string {
	var pending []string
	for _, code := range lr.States {
		if lr.StatusForState(code) != StatusApproved {
			pending = append(pending, code)
		}
	}
	return pending
}

// VehicleIDs returns the referenced vehicle ids in role order.
func (lr *LicenseRequest) VehicleIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, ref := range []*uuid.UUID{
		lr.TractorUnitID, lr.FirstTrailerID, lr.DollyID, lr.SecondTrailerID, lr.FlatbedID,
	} {
		if ref != nil {
			ids = append(ids, *ref)
		}
	}
	return ids
}

// NewRenewalDraft builds a fresh draft carrying the source request's
// identifying data forward for exactly one target state. The draft starts its
// own per-state workflow from scratch and shares no mutable state with the
// source. The caller assigns id and request number before persisting.
func NewRenewalDraft(source *LicenseRequest, targetState string, requestedValidUntil string) (*LicenseRequest, error) {
	if !source.CoversState(targetState) {
		return nil, &StateNotCoveredError{State: targetState}
	}

	draft := &LicenseRequest{
		UserID:        source.UserID,
		TransporterID: copyID(source.TransporterID),
		Type:          source.Type,

		TractorUnitID:   copyID(source.TractorUnitID),
		FirstTrailerID:  copyID(source.FirstTrailerID),
		DollyID:         copyID(source.DollyID),
		SecondTrailerID: copyID(source.SecondTrailerID),
		FlatbedID:       copyID(source.FlatbedID),

		LengthM:          source.LengthM,
		WidthM:           source.WidthM,
		HeightM:          source.HeightM,
		GrossWeightT:     source.GrossWeightT,
		CargoDescription: source.CargoDescription,

		States:          pq.StringArray{targetState},
		StateStatuses:   StateStatusList{},
		StateFiles:      StateFileList{},
		StateAETNumbers: StateAETList{},

		Status:              StatusPendingRegistration,
		IsDraft:             true,
		RequestedValidUntil: requestedValidUntil,

		AdditionalPlates:          append(pq.StringArray{}, source.AdditionalPlates...),
		AdditionalPlatesDocuments: append(pq.StringArray{}, source.AdditionalPlatesDocuments...),
	}

	return draft, nil
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
