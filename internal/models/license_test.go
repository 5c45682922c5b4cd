// internal/models/license_test.go
package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourceRequest() *LicenseRequest {
	tractor := uuid.New()
	trailer := uuid.New()
	transporter := uuid.New()
	return &LicenseRequest{
		RequestNumber:  "AET-2024-7F3K2Q",
		UserID:         uuid.New(),
		TransporterID:  &transporter,
		Type:           CombinationRoadtrain9Axles,
		TractorUnitID:  &tractor,
		FirstTrailerID: &trailer,
		LengthM:        29.8,
		WidthM:         2.6,
		HeightM:        4.4,
		GrossWeightT:   74,
		States:         pq.StringArray{"SP", "MG"},
		StateStatuses: StateStatusList{
			{State: "SP", Status: StatusApproved, ValidUntil: "2024-12-31"},
			{State: "MG", Status: StatusApproved, ValidUntil: "2024-10-31"},
		},
		StateFiles: StateFileList{
			{State: "SP", URL: "https://files.example.com/aet/sp.pdf"},
			{State: "MG", URL: "https://files.example.com/aet/mg.pdf"},
		},
		StateAETNumbers:           StateAETList{{State: "SP", Number: "AET-SP-2024-001"}},
		Status:                    StatusApproved,
		IsDraft:                   false,
		AdditionalPlates:          pq.StringArray{"ABC1D23"},
		AdditionalPlatesDocuments: pq.StringArray{"https://files.example.com/plates/abc.pdf"},
	}
}

func TestNewRenewalDraftCarriesIdentityForward(t *testing.T) {
	source := sourceRequest()

	draft, err := NewRenewalDraft(source, "SP", "2025-12-31")
	require.NoError(t, err)

	assert.True(t, draft.IsDraft)
	assert.Empty(t, draft.RequestNumber, "caller assigns a fresh number")
	assert.Equal(t, pq.StringArray{"SP"}, draft.States)
	assert.Empty(t, draft.StateStatuses)
	assert.Empty(t, draft.StateFiles)
	assert.Empty(t, draft.StateAETNumbers)
	assert.Equal(t, StatusPendingRegistration, draft.Status)
	assert.Equal(t, "2025-12-31", draft.RequestedValidUntil)

	assert.Equal(t, source.UserID, draft.UserID)
	assert.Equal(t, *source.TransporterID, *draft.TransporterID)
	assert.Equal(t, source.Type, draft.Type)
	assert.Equal(t, *source.TractorUnitID, *draft.TractorUnitID)
	assert.Equal(t, *source.FirstTrailerID, *draft.FirstTrailerID)
	assert.Nil(t, draft.DollyID)
	assert.Equal(t, source.LengthM, draft.LengthM)
	assert.Equal(t, source.GrossWeightT, draft.GrossWeightT)
	assert.Equal(t, source.AdditionalPlates, draft.AdditionalPlates)
}

func TestNewRenewalDraftStateNotCovered(t *testing.T) {
	source := sourceRequest()

	draft, err := NewRenewalDraft(source, "PR", "")

	var notCovered *StateNotCoveredError
	require.ErrorAs(t, err, &notCovered)
	assert.Equal(t, "PR", notCovered.State)
	assert.Nil(t, draft)
}

func TestRenewalIsolation(t *testing.T) {
	source := sourceRequest()
	sourceStatuses := append(StateStatusList{}, source.StateStatuses...)
	sourceAggregate := source.Status

	draft, err := NewRenewalDraft(source, "SP", "")
	require.NoError(t, err)

	// Drive the draft's own workflow and mutate its slices; the source must
	// be untouched.
	require.NoError(t, ApplyStateTransition(draft, "SP", StatusRegistrationInProgress, TransitionPayload{}))
	require.NoError(t, ApplyStateTransition(draft, "SP", StatusUnderReview, TransitionPayload{}))
	draft.AdditionalPlates = append(draft.AdditionalPlates, "XYZ9A88")
	*draft.TractorUnitID = uuid.New()

	assert.Equal(t, sourceStatuses, source.StateStatuses)
	assert.Equal(t, sourceAggregate, source.Status)
	assert.Equal(t, pq.StringArray{"SP", "MG"}, source.States)
	assert.Equal(t, pq.StringArray{"ABC1D23"}, source.AdditionalPlates)
	assert.NotEqual(t, *source.TractorUnitID, *draft.TractorUnitID)

	assert.Equal(t, StatusUnderReview, draft.StatusForState("SP"))
	assert.Equal(t, StatusApproved, source.StatusForState("SP"))
}

func TestCoversState(t *testing.T) {
	req := newRequest("SP", "MG")
	assert.True(t, req.CoversState("SP"))
	assert.True(t, req.CoversState("MG"))
	assert.False(t, req.CoversState("PR"))
}

func TestPendingStates(t *testing.T) {
	req := newRequest("SP", "MG", "PR")
	require.NoError(t, ApplyStateTransition(req, "SP", StatusApproved, approvalPayload()))
	require.NoError(t, ApplyStateTransition(req, "MG", StatusUnderReview, TransitionPayload{}))

	assert.Equal(t, []string{"MG", "PR"}, req.PendingStates())
}

func TestVehicleIDsInRoleOrder(t *testing.T) {
	tractor, dolly := uuid.New(), uuid.New()
	req := &LicenseRequest{TractorUnitID: &tractor, DollyID: &dolly}

	assert.Equal(t, []uuid.UUID{tractor, dolly}, req.VehicleIDs())
}
