// internal/services/transporter_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rodoaet/aet-backend/internal/config"
	"github.com/rodoaet/aet-backend/internal/models"
	"github.com/rodoaet/aet-backend/internal/receita"
	"github.com/rodoaet/aet-backend/internal/utils"
)

type TransporterService struct {
	db       *gorm.DB
	registry *receita.Client
	cacheTTL time.Duration
}

type CreateTransporterRequest struct {
	Kind      models.TransporterKind `json:"kind" validate:"required,oneof=company individual"`
	LegalName string                 `json:"legal_name" validate:"required,max=255"`
	TradeName string                 `json:"trade_name,omitempty" validate:"max=255"`
	CNPJ      string                 `json:"cnpj,omitempty" validate:"omitempty,cnpj"`
	CPF       string                 `json:"cpf,omitempty" validate:"omitempty,cpf"`

	AddressStreet string `json:"address_street,omitempty" validate:"max=255"`
	AddressCity   string `json:"address_city,omitempty" validate:"max=100"`
	AddressState  string `json:"address_state,omitempty" validate:"omitempty,ufcode"`
	AddressZip    string `json:"address_zip,omitempty" validate:"omitempty,len=8,numeric"`
	Phone         string `json:"phone,omitempty" validate:"max=20"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
}

type UpdateTransporterRequest struct {
	LegalName *string `json:"legal_name,omitempty" validate:"omitempty,max=255"`
	TradeName *string `json:"trade_name,omitempty" validate:"omitempty,max=255"`

	AddressStreet *string `json:"address_street,omitempty" validate:"omitempty,max=255"`
	AddressCity   *string `json:"address_city,omitempty" validate:"omitempty,max=100"`
	AddressState  *string `json:"address_state,omitempty" validate:"omitempty,ufcode"`
	AddressZip    *string `json:"address_zip,omitempty" validate:"omitempty,len=8,numeric"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
}

func NewTransporterService(db *gorm.DB, registry *receita.Client, cfg config.ReceitaConfig) *TransporterService {
	return &TransporterService{
		db:       db,
		registry: registry,
		cacheTTL: time.Duration(cfg.CacheTTLHours) * time.Hour,
	}
}

func (s *TransporterService) CreateTransporter(creatorID uuid.UUID, req *CreateTransporterRequest) (*models.Transporter, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	switch req.Kind {
	case models.TransporterKindCompany:
		if req.CNPJ == "" {
			return nil, errors.New("CNPJ is required for company transporters")
		}
	case models.TransporterKindIndividual:
		if req.CPF == "" {
			return nil, errors.New("CPF is required for individual transporters")
		}
	}

	transporter := &models.Transporter{
		Kind:              req.Kind,
		LegalName:         req.LegalName,
		TradeName:         req.TradeName,
		CNPJ:              utils.OnlyDigits(req.CNPJ),
		CPF:               utils.OnlyDigits(req.CPF),
		RegistrySituation: models.RegistrySituationUnknown,
		AddressStreet:     req.AddressStreet,
		AddressCity:       req.AddressCity,
		AddressState:      req.AddressState,
		AddressZip:        req.AddressZip,
		Phone:             req.Phone,
		Email:             req.Email,
		CreatedByID:       creatorID,
	}

	if transporter.CNPJ != "" {
		s.enrichFromRegistry(transporter)
	}

	if err := s.db.Create(transporter).Error; err != nil {
		return nil, fmt.Errorf("failed to create transporter: %w", err)
	}
	return transporter, nil
}

func (s *TransporterService) UpdateTransporter(id, userID uuid.UUID, req *UpdateTransporterRequest) (*models.Transporter, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	transporter, err := s.GetTransporter(id, userID)
	if err != nil {
		return nil, err
	}

	if req.LegalName != nil {
		transporter.LegalName = *req.LegalName
	}
	if req.TradeName != nil {
		transporter.TradeName = *req.TradeName
	}
	if req.AddressStreet != nil {
		transporter.AddressStreet = *req.AddressStreet
	}
	if req.AddressCity != nil {
		transporter.AddressCity = *req.AddressCity
	}
	if req.AddressState != nil {
		transporter.AddressState = *req.AddressState
	}
	if req.AddressZip != nil {
		transporter.AddressZip = *req.AddressZip
	}
	if req.Phone != nil {
		transporter.Phone = *req.Phone
	}
	if req.Email != nil {
		transporter.Email = *req.Email
	}

	if err := s.db.Save(transporter).Error; err != nil {
		return nil, fmt.Errorf("failed to update transporter: %w", err)
	}
	return transporter, nil
}

func (s *TransporterService) GetTransporter(id, userID uuid.UUID) (*models.Transporter, error) {
	var transporter models.Transporter
	if err := s.db.First(&transporter, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("transporter not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if transporter.CreatedByID != userID {
		return nil, errors.New("unauthorized to access this transporter")
	}
	return &transporter, nil
}

func (s *TransporterService) ListTransporters(userID uuid.UUID, params utils.PaginationParams) ([]models.Transporter, int64, error) {
	query := s.db.Model(&models.Transporter{}).Where("created_by_id = ?", userID)
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		query = query.Where("legal_name ILIKE ? OR trade_name ILIKE ? OR cnpj LIKE ?",
			pattern, pattern, "%"+utils.OnlyDigits(params.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transporters: %w", err)
	}

	var transporters []models.Transporter
	query = utils.ApplySort(query, params, []string{"created_at", "legal_name"})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&transporters).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transporters: %w", err)
	}
	return transporters, total, nil
}

// RefreshRegistry re-reads the registry situation for a company transporter,
// bypassing the cache TTL.
func (s *TransporterService) RefreshRegistry(id, userID uuid.UUID) (*models.Transporter, error) {
	transporter, err := s.GetTransporter(id, userID)
	if err != nil {
		return nil, err
	}
	if transporter.CNPJ == "" {
		return nil, errors.New("transporter has no CNPJ to look up")
	}

	record, err := s.lookupCNPJ(transporter.CNPJ, true)
	if err != nil {
		return nil, err
	}
	transporter.RegistrySituation = record.RegistrySituation
	if err := s.db.Save(transporter).Error; err != nil {
		return nil, fmt.Errorf("failed to update transporter: %w", err)
	}
	return transporter, nil
}

// LookupCNPJ serves pre-registration form autofill: the cached registry
// record for a CNPJ, fetched when the cache has no live entry.
func (s *TransporterService) LookupCNPJ(cnpj string) (*models.CNPJRecord, error) {
	digits := utils.OnlyDigits(cnpj)
	if !utils.ValidCNPJ(digits) {
		return nil, receita.ErrInvalid
	}
	return s.lookupCNPJ(digits, false)
}

// enrichFromRegistry fills registry-derived fields on a best-effort basis; a
// registry outage never blocks creating the transporter.
func (s *TransporterService) enrichFromRegistry(transporter *models.Transporter) {
	record, err := s.lookupCNPJ(transporter.CNPJ, false)
	if err != nil {
		logrus.WithError(err).WithField("cnpj", transporter.CNPJ).
			Warn("CNPJ registry lookup failed")
		return
	}
	transporter.RegistrySituation = record.RegistrySituation
	if record.Found && transporter.TradeName == "" {
		transporter.TradeName = record.TradeName
	}
}

// lookupCNPJ consults the cache, then the registry. Misses are cached too
// (Found=false) so repeated lookups of an unregistered CNPJ stay local until
// the TTL expires.
func (s *TransporterService) lookupCNPJ(digits string, force bool) (*models.CNPJRecord, error) {
	var record models.CNPJRecord
	err := s.db.First(&record, "cnpj = ?", digits).Error
	cached := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if cached && !force && !record.Expired(s.cacheTTL) {
		return &record, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	company, err := s.registry.Lookup(ctx, digits)
	if err != nil && !errors.Is(err, receita.ErrNotFound) {
		if cached {
			// Stale beats nothing when the registry is down.
			return &record, nil
		}
		return nil, err
	}

	record.CNPJ = digits
	record.FetchedAt = time.Now()
	if errors.Is(err, receita.ErrNotFound) {
		record.Found = false
		record.LegalName = ""
		record.TradeName = ""
		record.RegistrySituation = models.RegistrySituationUnknown
	} else {
		record.Found = true
		record.LegalName = company.LegalName
		record.TradeName = company.TradeName
		record.RegistrySituation = company.RegistrySituation
	}

	if cached {
		err = s.db.Save(&record).Error
	} else {
		err = s.db.Create(&record).Error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cache registry record: %w", err)
	}
	return &record, nil
}
