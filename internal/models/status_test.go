// internal/models/status_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full allowed edge set: forward moves along the normal path (jumps included),
// rejection from review, re-entry from rejected, cancellation from any
// non-terminal status. Everything else must be illegal.
var allowedEdges = map[LicenseStatus][]LicenseStatus{
	StatusPendingRegistration: {
		StatusRegistrationInProgress, StatusUnderReview, StatusPendingApproval,
		StatusApproved, StatusCanceled,
	},
	StatusRegistrationInProgress: {
		StatusUnderReview, StatusPendingApproval, StatusApproved, StatusCanceled,
	},
	StatusUnderReview: {
		StatusPendingApproval, StatusApproved, StatusRejected, StatusCanceled,
	},
	StatusPendingApproval: {StatusApproved, StatusCanceled},
	StatusRejected:        {StatusRegistrationInProgress, StatusCanceled},
	StatusApproved:        {},
	StatusCanceled:        {},
}

func TestCanTransitionToMatchesEdgeSet(t *testing.T) {
	for _, from := range AllStatuses {
		allowed := make(map[LicenseStatus]bool)
		for _, to := range allowedEdges[from] {
			allowed[to] = true
		}
		for _, to := range AllStatuses {
			got := from.CanTransitionTo(to)
			assert.Equal(t, allowed[to], got, "%s -> %s", from, to)
		}
	}
}

func TestCanTransitionToUnknownStatus(t *testing.T) {
	assert.False(t, StatusUnderReview.CanTransitionTo(LicenseStatus("bogus")))
	assert.False(t, LicenseStatus("bogus").CanTransitionTo(StatusApproved))
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusApproved.Terminal())
	assert.True(t, StatusCanceled.Terminal())
	assert.False(t, StatusRejected.Terminal())
	assert.False(t, StatusPendingRegistration.Terminal())
	assert.False(t, StatusUnderReview.Terminal())
}

func TestValid(t *testing.T) {
	for _, s := range AllStatuses {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, LicenseStatus("in_review").Valid())
	assert.False(t, LicenseStatus("").Valid())
}

func TestValidStateCode(t *testing.T) {
	assert.True(t, ValidStateCode("SP"))
	assert.True(t, ValidStateCode("MG"))
	assert.True(t, ValidStateCode("DF"))
	assert.True(t, ValidStateCode("DNIT"))
	assert.False(t, ValidStateCode("XX"))
	assert.False(t, ValidStateCode("sp"))
	assert.False(t, ValidStateCode(""))
}

func TestStateStatusEncodeRoundTrip(t *testing.T) {
	cases := []StateStatus{
		{State: "SP", Status: StatusApproved, ValidUntil: "2025-01-01"},
		{State: "MG", Status: StatusUnderReview},
		{State: "DNIT", Status: StatusPendingRegistration},
		// Anything after the second colon is the validity date, verbatim.
		{State: "RS", Status: StatusApproved, ValidUntil: "2025-01-01:rev2"},
	}
	for _, want := range cases {
		got, err := ParseStateStatus(want.Encode())
		require.NoError(t, err, want.Encode())
		assert.Equal(t, want, got)
	}
}

func TestStateStatusEncodeFormat(t *testing.T) {
	ss := StateStatus{State: "SP", Status: StatusApproved, ValidUntil: "2025-01-01"}
	assert.Equal(t, "SP:approved:2025-01-01", ss.Encode())

	ss = StateStatus{State: "MG", Status: StatusRejected}
	assert.Equal(t, "MG:rejected", ss.Encode())
}

func TestParseStateStatusMalformed(t *testing.T) {
	for _, raw := range []string{"", "SP", "SP:", ":approved", "SP:not_a_status", "SP:not_a_status:2025-01-01"} {
		_, err := ParseStateStatus(raw)
		assert.Error(t, err, raw)
	}
}

func TestStateFileRoundTripKeepsURLColons(t *testing.T) {
	want := StateFile{State: "SP", URL: "https://files.example.com/aet/sp-123.pdf"}
	raw := want.Encode()
	assert.Equal(t, "SP:https://files.example.com/aet/sp-123.pdf", raw)

	got, err := ParseStateFile(raw)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseStateFileMalformed(t *testing.T) {
	for _, raw := range []string{"", "SP", ":https://x"} {
		_, err := ParseStateFile(raw)
		assert.Error(t, err, raw)
	}
}

func TestStateStatusListValueScan(t *testing.T) {
	list := StateStatusList{
		{State: "SP", Status: StatusApproved, ValidUntil: "2025-06-30"},
		{State: "MG", Status: StatusUnderReview},
	}
	v, err := list.Value()
	require.NoError(t, err)

	var got StateStatusList
	require.NoError(t, got.Scan(v))
	assert.Equal(t, list, got)
}

func TestStateStatusListScanRejectsMalformed(t *testing.T) {
	var got StateStatusList
	assert.Error(t, got.Scan([]byte(`{"SP"}`)))
}

func TestStateFileListValueScan(t *testing.T) {
	list := StateFileList{
		{State: "SP", URL: "https://files.example.com/a.pdf"},
		{State: "MG", URL: "https://files.example.com/b.pdf"},
	}
	v, err := list.Value()
	require.NoError(t, err)

	var got StateFileList
	require.NoError(t, got.Scan(v))
	assert.Equal(t, list, got)
}

func TestStateAETListValueScan(t *testing.T) {
	list := StateAETList{
		{State: "SP", Number: "AET-SP-2025-0042"},
	}
	v, err := list.Value()
	require.NoError(t, err)

	var got StateAETList
	require.NoError(t, got.Scan(v))
	assert.Equal(t, list, got)
}

func TestStateStatusListSetUpserts(t *testing.T) {
	var list StateStatusList
	list = list.Set(StateStatus{State: "SP", Status: StatusUnderReview})
	list = list.Set(StateStatus{State: "MG", Status: StatusPendingRegistration})
	list = list.Set(StateStatus{State: "SP", Status: StatusPendingApproval})

	require.Len(t, list, 2)
	ss, ok := list.Get("SP")
	require.True(t, ok)
	assert.Equal(t, StatusPendingApproval, ss.Status)
}

func TestStatusForDefaultsToPendingRegistration(t *testing.T) {
	var list StateStatusList
	assert.Equal(t, StatusPendingRegistration, list.StatusFor("SP"))

	list = list.Set(StateStatus{State: "SP", Status: StatusApproved, ValidUntil: "2025-01-01"})
	assert.Equal(t, StatusApproved, list.StatusFor("SP"))
	assert.Equal(t, StatusPendingRegistration, list.StatusFor("MG"))
}
