// internal/models/status.go
package models

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// License status domain, shared by the aggregate status and every per-state
// entry. The normal path is totally ordered; rejected is only reachable from
// under_review and re-enters the path at registration_in_progress; canceled is
// reachable from any non-terminal status.
type LicenseStatus string

const (
	StatusPendingRegistration    LicenseStatus = "pending_registration"
	StatusRegistrationInProgress LicenseStatus = "registration_in_progress"
	StatusUnderReview            LicenseStatus = "under_review"
	StatusPendingApproval        LicenseStatus = "pending_approval"
	StatusApproved               LicenseStatus = "approved"
	StatusRejected               LicenseStatus = "rejected"
	StatusCanceled               LicenseStatus = "canceled"
)

// AllStatuses lists every member of the status domain.
var AllStatuses = []LicenseStatus{
	StatusPendingRegistration,
	StatusRegistrationInProgress,
	StatusUnderReview,
	StatusPendingApproval,
	StatusApproved,
	StatusRejected,
	StatusCanceled,
}

// normalPath is the ordered no-incident progression of a per-state workflow.
var normalPath = []LicenseStatus{
	StatusPendingRegistration,
	StatusRegistrationInProgress,
	StatusUnderReview,
	StatusPendingApproval,
	StatusApproved,
}

var statusSet = map[LicenseStatus]bool{
	StatusPendingRegistration:    true,
	StatusRegistrationInProgress: true,
	StatusUnderReview:            true,
	StatusPendingApproval:        true,
	StatusApproved:               true,
	StatusRejected:               true,
	StatusCanceled:               true,
}

func (s LicenseStatus) Valid() bool {
	return statusSet[s]
}

// Terminal reports whether a per-state workflow in this status can still move.
func (s LicenseStatus) Terminal() bool {
	return s == StatusApproved || s == StatusCanceled
}

// CanTransitionTo implements the status graph. Along the normal path any
// forward move is legal (staff may fast-track a state several steps at once);
// backward moves are not. Rejected is reachable from under_review only and
// re-enters the path at registration_in_progress only. Canceled is reachable
// from every non-terminal status.
func (s LicenseStatus) CanTransitionTo(next LicenseStatus) bool {
	if !s.Valid() || !next.Valid() || s.Terminal() {
		return false
	}
	switch next {
	case StatusCanceled:
		return true
	case StatusRejected:
		return s == StatusUnderReview
	case StatusRegistrationInProgress:
		if s == StatusRejected {
			return true
		}
	}
	if s == StatusRejected {
		return false
	}
	return next.normalPathRank() > s.normalPathRank()
}

// normalPathRank returns the 1-based position on the normal path, or 0 for
// rejected/canceled which sit outside it.
func (s LicenseStatus) normalPathRank() int {
	for i, st := range normalPath {
		if st == s {
			return i + 1
		}
	}
	return 0
}

// stateCodes holds the jurisdictions an AET can cover: the 26 states, the
// federal district and the federal highway authority.
var stateCodes = map[string]bool{
	"AC": true, "AL": true, "AP": true, "AM": true, "BA": true, "CE": true,
	"DF": true, "ES": true, "GO": true, "MA": true, "MT": true, "MS": true,
	"MG": true, "PA": true, "PB": true, "PR": true, "PE": true, "PI": true,
	"RJ": true, "RN": true, "RS": true, "RO": true, "RR": true, "SC": true,
	"SP": true, "SE": true, "TO": true, "DNIT": true,
}

func ValidStateCode(code string) bool {
	return stateCodes[code]
}

// StateStatus is one per-state workflow entry. ValidUntil is a plain
// 2006-01-02 date string so the compact encoding below round-trips losslessly.
type StateStatus struct {
	State      string        `json:"state"`
	Status     LicenseStatus `json:"status"`
	ValidUntil string        `json:"valid_until,omitempty"`
}

// Encode serializes to the compact "STATE:STATUS" or "STATE:STATUS:VALIDUNTIL"
// form used by the storage layer.
func (ss StateStatus) Encode() string {
	if ss.ValidUntil == "" {
		return ss.State + ":" + string(ss.Status)
	}
	return ss.State + ":" + string(ss.Status) + ":" + ss.ValidUntil
}

// ParseStateStatus splits on the first two colons; anything after the second
// colon is the validity date.
func ParseStateStatus(raw string) (StateStatus, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return StateStatus{}, fmt.Errorf("malformed state status %q", raw)
	}
	ss := StateStatus{State: parts[0], Status: LicenseStatus(parts[1])}
	if !ss.Status.Valid() {
		return StateStatus{}, fmt.Errorf("unknown status %q in state status %q", parts[1], raw)
	}
	if len(parts) == 3 {
		ss.ValidUntil = parts[2]
	}
	return ss, nil
}

// StateStatusList is the per-state workflow mapping, stored as a PostgreSQL
// text[] of compact status strings for compatibility with rows migrated from
// the previous system.
type StateStatusList []StateStatus

func (l StateStatusList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	arr := make(pq.StringArray, len(l))
	for i, ss := range l {
		arr[i] = ss.Encode()
	}
	return arr.Value()
}

func (l *StateStatusList) Scan(value interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(value); err != nil {
		return err
	}
	out := make(StateStatusList, 0, len(arr))
	for _, raw := range arr {
		ss, err := ParseStateStatus(raw)
		if err != nil {
			return err
		}
		out = append(out, ss)
	}
	*l = out
	return nil
}

// Get returns the entry for a state, if present.
func (l StateStatusList) Get(state string) (StateStatus, bool) {
	for _, ss := range l {
		if ss.State == state {
			return ss, true
		}
	}
	return StateStatus{}, false
}

// StatusFor returns the effective status for a state: absent entries default
// to pending_registration.
func (l StateStatusList) StatusFor(state string) LicenseStatus {
	if ss, ok := l.Get(state); ok {
		return ss.Status
	}
	return StatusPendingRegistration
}

// Set upserts the single entry for the entry's state.
func (l StateStatusList) Set(entry StateStatus) StateStatusList {
	for i, ss := range l {
		if ss.State == entry.State {
			l[i] = entry
			return l
		}
	}
	return append(l, entry)
}

// StateFile maps a state to its approval-document URL. The remainder after the
// first colon is the URL, which itself contains colons.
type StateFile struct {
	State string `json:"state"`
	URL   string `json:"url"`
}

func (sf StateFile) Encode() string {
	return sf.State + ":" + sf.URL
}

func ParseStateFile(raw string) (StateFile, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 || parts[0] == "" {
		return StateFile{}, fmt.Errorf("malformed state file %q", raw)
	}
	return StateFile{State: parts[0], URL: parts[1]}, nil
}

type StateFileList []StateFile

func (l StateFileList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	arr := make(pq.StringArray, len(l))
	for i, sf := range l {
		arr[i] = sf.Encode()
	}
	return arr.Value()
}

func (l *StateFileList) Scan(value interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(value); err != nil {
		return err
	}
	out := make(StateFileList, 0, len(arr))
	for _, raw := range arr {
		sf, err := ParseStateFile(raw)
		if err != nil {
			return err
		}
		out = append(out, sf)
	}
	*l = out
	return nil
}

func (l StateFileList) Get(state string) (string, bool) {
	for _, sf := range l {
		if sf.State == state {
			return sf.URL, true
		}
	}
	return "", false
}

func (l StateFileList) Set(state, url string) StateFileList {
	for i, sf := range l {
		if sf.State == state {
			l[i].URL = url
			return l
		}
	}
	return append(l, StateFile{State: state, URL: url})
}

// StateAET maps a state to the AET number that jurisdiction issued.
type StateAET struct {
	State  string `json:"state"`
	Number string `json:"number"`
}

func (sa StateAET) Encode() string {
	return sa.State + ":" + sa.Number
}

func ParseStateAET(raw string) (StateAET, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 || parts[0] == "" {
		return StateAET{}, fmt.Errorf("malformed state AET number %q", raw)
	}
	return StateAET{State: parts[0], Number: parts[1]}, nil
}

type StateAETList []StateAET

func (l StateAETList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	arr := make(pq.StringArray, len(l))
	for i, sa := range l {
		arr[i] = sa.Encode()
	}
	return arr.Value()
}

func (l *StateAETList) Scan(value interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(value); err != nil {
		return err
	}
	out := make(StateAETList, 0, len(arr))
	for _, raw := range arr {
		sa, err := ParseStateAET(raw)
		if err != nil {
			return err
		}
		out = append(out, sa)
	}
	*l = out
	return nil
}

func (l StateAETList) Get(state string) (string, bool) {
	for _, sa := range l {
		if sa.State == state {
			return sa.Number, true
		}
	}
	return "", false
}

func (l StateAETList) Set(state, number string) StateAETList {
	for i, sa := range l {
		if sa.State == state {
			l[i].Number = number
			return l
		}
	}
	return append(l, StateAET{State: state, Number: number})
}
