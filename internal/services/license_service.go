// internal/services/license_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rodoaet/aet-backend/internal/models"
	"github.com/rodoaet/aet-backend/internal/realtime"
	"github.com/rodoaet/aet-backend/internal/store"
	"github.com/rodoaet/aet-backend/internal/utils"
)

// saveRetries bounds the reload-recompute-save loop after a version conflict.
const saveRetries = 3

// numberRetries bounds regeneration attempts when a generated request number
// collides with an existing one.
const numberRetries = 5

type LicenseService struct {
	db                  *gorm.DB
	store               store.LicenseStore
	hub                 *realtime.Hub
	notificationService *NotificationService
}

type CreateLicenseRequest struct {
	TransporterID *uuid.UUID             `json:"transporter_id,omitempty"`
	Type          models.CombinationType `json:"type" validate:"required"`

	TractorUnitID   *uuid.UUID `json:"tractor_unit_id,omitempty"`
	FirstTrailerID  *uuid.UUID `json:"first_trailer_id,omitempty"`
	DollyID         *uuid.UUID `json:"dolly_id,omitempty"`
	SecondTrailerID *uuid.UUID `json:"second_trailer_id,omitempty"`
	FlatbedID       *uuid.UUID `json:"flatbed_id,omitempty"`

	LengthM          float64 `json:"length_m" validate:"required,gt=0,lte=100"`
	WidthM           float64 `json:"width_m" validate:"required,gt=0,lte=20"`
	HeightM          float64 `json:"height_m" validate:"required,gt=0,lte=15"`
	GrossWeightT     float64 `json:"gross_weight_t" validate:"required,gt=0,lte=500"`
	CargoDescription string  `json:"cargo_description,omitempty" validate:"max=2000"`

	States []string `json:"states" validate:"required,min=1,dive,ufcode"`

	AdditionalPlates          []string `json:"additional_plates,omitempty" validate:"dive,brplate"`
	AdditionalPlatesDocuments []string `json:"additional_plates_documents,omitempty" validate:"dive,omitempty,url"`

	// Submit immediately instead of keeping a draft.
	Submit bool `json:"submit,omitempty"`
}

type UpdateLicenseRequest struct {
	TransporterID *uuid.UUID              `json:"transporter_id,omitempty"`
	Type          *models.CombinationType `json:"type,omitempty"`

	TractorUnitID   *uuid.UUID `json:"tractor_unit_id,omitempty"`
	FirstTrailerID  *uuid.UUID `json:"first_trailer_id,omitempty"`
	DollyID         *uuid.UUID `json:"dolly_id,omitempty"`
	SecondTrailerID *uuid.UUID `json:"second_trailer_id,omitempty"`
	FlatbedID       *uuid.UUID `json:"flatbed_id,omitempty"`

	LengthM          *float64 `json:"length_m,omitempty" validate:"omitempty,gt=0,lte=100"`
	WidthM           *float64 `json:"width_m,omitempty" validate:"omitempty,gt=0,lte=20"`
	HeightM          *float64 `json:"height_m,omitempty" validate:"omitempty,gt=0,lte=15"`
	GrossWeightT     *float64 `json:"gross_weight_t,omitempty" validate:"omitempty,gt=0,lte=500"`
	CargoDescription *string  `json:"cargo_description,omitempty" validate:"omitempty,max=2000"`

	States []string `json:"states,omitempty" validate:"omitempty,min=1,dive,ufcode"`

	AdditionalPlates          []string `json:"additional_plates,omitempty" validate:"dive,brplate"`
	AdditionalPlatesDocuments []string `json:"additional_plates_documents,omitempty" validate:"dive,omitempty,url"`
}

type StateTransitionRequest struct {
	Status  models.LicenseStatus     `json:"status" validate:"required"`
	Payload models.TransitionPayload `json:"payload"`
}

type RenewLicenseRequest struct {
	State               string `json:"state" validate:"required,ufcode"`
	RequestedValidUntil string `json:"requested_valid_until,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// LicenseProgress is the visualization contract: the aggregate step sequence
// plus one sequence per covered state, all derived from status strings alone.
type LicenseProgress struct {
	RequestID uuid.UUID                `json:"request_id"`
	Status    models.LicenseStatus     `json:"status"`
	Steps     []models.ProgressStep    `json:"steps"`
	States    map[string]StateProgress `json:"states"`
}

type StateProgress struct {
	Status models.LicenseStatus  `json:"status"`
	Steps  []models.ProgressStep `json:"steps"`
}

func NewLicenseService(db *gorm.DB, licenseStore store.LicenseStore, hub *realtime.Hub, notificationService *NotificationService) *LicenseService {
	return &LicenseService{
		db:                  db,
		store:               licenseStore,
		hub:                 hub,
		notificationService: notificationService,
	}
}

func (s *LicenseService) CreateLicenseRequest(userID uuid.UUID, req *CreateLicenseRequest) (*models.LicenseRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := s.checkDuplicateStates(req.States); err != nil {
		return nil, err
	}
	if len(req.AdditionalPlatesDocuments) > len(req.AdditionalPlates) {
		return nil, errors.New("more plate documents than additional plates")
	}

	request := &models.LicenseRequest{
		UserID:        userID,
		TransporterID: req.TransporterID,
		Type:          req.Type,

		TractorUnitID:   req.TractorUnitID,
		FirstTrailerID:  req.FirstTrailerID,
		DollyID:         req.DollyID,
		SecondTrailerID: req.SecondTrailerID,
		FlatbedID:       req.FlatbedID,

		LengthM:          req.LengthM,
		WidthM:           req.WidthM,
		HeightM:          req.HeightM,
		GrossWeightT:     req.GrossWeightT,
		CargoDescription: req.CargoDescription,

		States:          pq.StringArray(req.States),
		StateStatuses:   models.StateStatusList{},
		StateFiles:      models.StateFileList{},
		StateAETNumbers: models.StateAETList{},

		Status:  models.StatusPendingRegistration,
		IsDraft: true,

		AdditionalPlates:          pq.StringArray(req.AdditionalPlates),
		AdditionalPlatesDocuments: pq.StringArray(req.AdditionalPlatesDocuments),
	}

	if err := s.verifyReferences(userID, request); err != nil {
		return nil, err
	}

	if req.Submit {
		now := time.Now()
		request.IsDraft = false
		request.SubmittedAt = &now
	}

	if err := s.createWithFreshNumber(request); err != nil {
		return nil, err
	}

	if !request.IsDraft {
		s.hub.PublishLicenseUpdate("license request submitted")
		go s.sendSubmittedNotification(request)
	}

	return request, nil
}

// UpdateDraft applies a partial edit to a draft owned by the caller. Submitted
// requests are immutable to their owner.
func (s *LicenseService) UpdateDraft(id, userID uuid.UUID, req *UpdateLicenseRequest) (*models.LicenseRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	request, err := s.store.Load(id)
	if err != nil {
		return nil, err
	}
	if request.UserID != userID {
		return nil, errors.New("unauthorized to modify this license request")
	}
	if !request.IsDraft {
		return nil, models.ErrRequestSubmitted
	}

	if req.TransporterID != nil {
		request.TransporterID = req.TransporterID
	}
	if req.Type != nil {
		request.Type = *req.Type
	}
	if req.TractorUnitID != nil {
		request.TractorUnitID = req.TractorUnitID
	}
	if req.FirstTrailerID != nil {
		request.FirstTrailerID = req.FirstTrailerID
	}
	if req.DollyID != nil {
		request.DollyID = req.DollyID
	}
	if req.SecondTrailerID != nil {
		request.SecondTrailerID = req.SecondTrailerID
	}
	if req.FlatbedID != nil {
		request.FlatbedID = req.FlatbedID
	}
	if req.LengthM != nil {
		request.LengthM = *req.LengthM
	}
	if req.WidthM != nil {
		request.WidthM = *req.WidthM
	}
	if req.HeightM != nil {
		request.HeightM = *req.HeightM
	}
	if req.GrossWeightT != nil {
		request.GrossWeightT = *req.GrossWeightT
	}
	if req.CargoDescription != nil {
		request.CargoDescription = *req.CargoDescription
	}
	if req.States != nil {
		if err := s.checkDuplicateStates(req.States); err != nil {
			return nil, err
		}
		request.States = pq.StringArray(req.States)
	}
	if req.AdditionalPlates != nil {
		request.AdditionalPlates = pq.StringArray(req.AdditionalPlates)
	}
	if req.AdditionalPlatesDocuments != nil {
		request.AdditionalPlatesDocuments = pq.StringArray(req.AdditionalPlatesDocuments)
	}
	if len(request.AdditionalPlatesDocuments) > len(request.AdditionalPlates) {
		return nil, errors.New("more plate documents than additional plates")
	}

	if err := s.verifyReferences(userID, request); err != nil {
		return nil, err
	}

	if err := s.store.Save(request); err != nil {
		return nil, err
	}
	return request, nil
}

// SubmitDraft hands the draft to processing staff. One way: there is no
// un-submit.
func (s *LicenseService) SubmitDraft(id, userID uuid.UUID) (*models.LicenseRequest, error) {
	request, err := s.store.Load(id)
	if err != nil {
		return nil, err
	}
	if request.UserID != userID {
		return nil, errors.New("unauthorized to modify this license request")
	}
	if !request.IsDraft {
		return nil, models.ErrRequestSubmitted
	}

	now := time.Now()
	request.IsDraft = false
	request.SubmittedAt = &now

	if err := s.store.Save(request); err != nil {
		return nil, err
	}

	s.hub.PublishLicenseUpdate("license request submitted")
	go s.sendSubmittedNotification(request)

	return request, nil
}

func (s *LicenseService) DeleteDraft(id, userID uuid.UUID) error {
	request, err := s.store.Load(id)
	if err != nil {
		return err
	}
	if request.UserID != userID {
		return errors.New("unauthorized to modify this license request")
	}
	if !request.IsDraft {
		return models.ErrRequestSubmitted
	}
	return s.store.Delete(request)
}

// CancelRequest cancels every non-terminal per-state workflow of a submitted
// request. The owner can always bail out; already approved states keep their
// issued documents.
func (s *LicenseService) CancelRequest(id, userID uuid.UUID) (*models.LicenseRequest, error) {
	request, err := s.withConflictRetry(id, func(request *models.LicenseRequest) error {
		if request.UserID != userID {
			return errors.New("unauthorized to modify this license request")
		}
		if request.IsDraft {
			return models.ErrDraftNotSubmitted
		}

		canceled := 0
		for _, state := range request.States {
			current := request.StatusForState(state)
			if current.Terminal() {
				continue
			}
			if err := models.ApplyStateTransition(request, state, models.StatusCanceled, models.TransitionPayload{}); err != nil {
				return err
			}
			canceled++
		}
		if canceled == 0 {
			return errors.New("no active state workflow to cancel")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.PublishLicense(request.ID, request)
	go s.sendStatusNotification(request, "", models.StatusCanceled)

	return request, nil
}

// ApplyStateTransition moves one per-state workflow on behalf of staff. The
// engine rules run against a fresh snapshot; on a concurrent write the whole
// load-validate-apply cycle reruns, so rules always evaluate against the
// winning writer's state.
func (s *LicenseService) ApplyStateTransition(id uuid.UUID, state string, req *StateTransitionRequest) (*models.LicenseRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !req.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q", req.Status)
	}

	request, err := s.withConflictRetry(id, func(request *models.LicenseRequest) error {
		if request.IsDraft {
			return models.ErrDraftNotSubmitted
		}
		return models.ApplyStateTransition(request, state, req.Status, req.Payload)
	})
	if err != nil {
		return nil, err
	}

	s.hub.PublishStateStatus(request.ID, state, string(req.Status))
	go s.sendStatusNotification(request, state, req.Status)

	return request, nil
}

// Renew spawns a fresh draft from an existing request for one covered state.
// The source request is left untouched; the draft re-enters the workflow at
// the beginning like any new request.
func (s *LicenseService) Renew(id, userID uuid.UUID, req *RenewLicenseRequest) (*models.LicenseRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	source, err := s.store.Load(id)
	if err != nil {
		return nil, err
	}
	if source.UserID != userID {
		return nil, errors.New("unauthorized to modify this license request")
	}
	if source.IsDraft {
		return nil, models.ErrDraftNotSubmitted
	}

	draft, err := models.NewRenewalDraft(source, req.State, req.RequestedValidUntil)
	if err != nil {
		return nil, err
	}

	if err := s.createWithFreshNumber(draft); err != nil {
		return nil, err
	}

	s.hub.PublishLicenseUpdate("renewal draft created")

	return draft, nil
}

func (s *LicenseService) GetLicenseRequest(id, userID uuid.UUID, isStaff bool) (*models.LicenseRequest, error) {
	request, err := s.store.LoadDetailed(id)
	if err != nil {
		return nil, err
	}
	if request.UserID != userID && !isStaff {
		return nil, errors.New("unauthorized to view this license request")
	}
	if request.IsDraft && request.UserID != userID {
		// Drafts stay private to their owner even from staff.
		return nil, store.ErrNotFound
	}
	return request, nil
}

func (s *LicenseService) ListDrafts(userID uuid.UUID, params utils.PaginationParams) ([]models.LicenseRequest, int64, error) {
	return s.store.ListDrafts(userID, params)
}

// ListRequests returns the caller's submitted requests, or the full staff
// queue when the caller processes requests.
func (s *LicenseService) ListRequests(userID uuid.UUID, isStaff bool, filter store.ListFilter) ([]models.LicenseRequest, int64, error) {
	if !isStaff {
		filter.UserID = &userID
	}
	return s.store.ListSubmitted(filter)
}

// Progress derives the full rendering contract for a request: one step
// sequence for the aggregate and one per covered state.
func (s *LicenseService) Progress(id, userID uuid.UUID, isStaff bool) (*LicenseProgress, error) {
	request, err := s.store.Load(id)
	if err != nil {
		return nil, err
	}
	if request.UserID != userID && !isStaff {
		return nil, errors.New("unauthorized to view this license request")
	}

	progress := &LicenseProgress{
		RequestID: request.ID,
		Status:    request.Status,
		Steps:     models.ProgressSteps(request.Status),
		States:    make(map[string]StateProgress, len(request.States)),
	}
	for _, state := range request.States {
		status := request.StatusForState(state)
		progress.States[state] = StateProgress{
			Status: status,
			Steps:  models.ProgressSteps(status),
		}
	}
	return progress, nil
}

// withConflictRetry runs the load-mutate-save cycle, rerunning it from a fresh
// snapshot when another writer wins the version race. The mutation must be
// deterministic and side-effect free.
func (s *LicenseService) withConflictRetry(id uuid.UUID, mutate func(*models.LicenseRequest) error) (*models.LicenseRequest, error) {
	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		request, err := s.store.Load(id)
		if err != nil {
			return nil, err
		}
		if err := mutate(request); err != nil {
			return nil, err
		}
		if err := s.store.Save(request); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return request, nil
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", saveRetries, lastErr)
}

func (s *LicenseService) createWithFreshNumber(request *models.LicenseRequest) error {
	for attempt := 0; attempt < numberRetries; attempt++ {
		number, err := utils.GenerateRequestNumber()
		if err != nil {
			return fmt.Errorf("failed to generate request number: %w", err)
		}
		request.RequestNumber = number

		err = s.store.Create(request)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrDuplicateNumber) {
			return err
		}
	}
	return errors.New("failed to allocate a unique request number")
}

func (s *LicenseService) checkDuplicateStates(states []string) error {
	seen := make(map[string]bool, len(states))
	for _, state := range states {
		if seen[state] {
			return fmt.Errorf("state %s listed more than once", state)
		}
		seen[state] = true
	}
	return nil
}

// verifyReferences checks that every referenced vehicle belongs to the caller
// and that the transporter exists. Weak references are validated at write
// time only; the rows may be deleted later without cascading here.
func (s *LicenseService) verifyReferences(userID uuid.UUID, request *models.LicenseRequest) error {
	for _, vehicleID := range request.VehicleIDs() {
		var vehicle models.Vehicle
		if err := s.db.First(&vehicle, "id = ?", vehicleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("vehicle %s not found", vehicleID)
			}
			return fmt.Errorf("database error: %w", err)
		}
		if vehicle.OwnerID != userID {
			return fmt.Errorf("vehicle %s does not belong to you", vehicle.Plate)
		}
	}

	if request.TransporterID != nil {
		var transporter models.Transporter
		if err := s.db.First(&transporter, "id = ?", *request.TransporterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("transporter not found")
			}
			return fmt.Errorf("database error: %w", err)
		}
	}
	return nil
}

// Notification methods

func (s *LicenseService) sendSubmittedNotification(request *models.LicenseRequest) {
	if s.notificationService == nil {
		return
	}
	if err := s.notificationService.SendLicenseSubmittedNotification(request); err != nil {
		logrus.WithError(err).Warn("Failed to send submission notification")
	}
}

func (s *LicenseService) sendStatusNotification(request *models.LicenseRequest, state string, status models.LicenseStatus) {
	if s.notificationService == nil {
		return
	}
	if err := s.notificationService.SendStatusChangeNotification(request, state, status); err != nil {
		logrus.WithError(err).Warn("Failed to send status notification")
	}
}
