// internal/store/license_store.go
package store

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rodoaet/aet-backend/internal/models"
	"github.com/rodoaet/aet-backend/internal/utils"
)

var (
	ErrNotFound        = errors.New("license request not found")
	ErrVersionConflict = errors.New("license request was modified concurrently")
	ErrDuplicateNumber = errors.New("request number already exists")
)

// ListFilter narrows the staff queue of submitted requests.
type ListFilter struct {
	Status        models.LicenseStatus
	State         string
	UserID        *uuid.UUID
	TransporterID *uuid.UUID
	Search        string
	Pagination    utils.PaginationParams
}

// LicenseStore is the persistence boundary for license requests. Reads return
// the full per-state arrays as one row snapshot; Save is a compare-and-swap on
// the version counter so concurrent read-modify-write cycles of the same
// request cannot silently overwrite each other.
type LicenseStore interface {
	Load(id uuid.UUID) (*models.LicenseRequest, error)
	LoadDetailed(id uuid.UUID) (*models.LicenseRequest, error)
	LoadByNumber(number string) (*models.LicenseRequest, error)
	Create(req *models.LicenseRequest) error
	Save(req *models.LicenseRequest) error
	Delete(req *models.LicenseRequest) error
	ListDrafts(userID uuid.UUID, params utils.PaginationParams) ([]models.LicenseRequest, int64, error)
	ListSubmitted(filter ListFilter) ([]models.LicenseRequest, int64, error)
}

type licenseStore struct {
	db *gorm.DB
}

func NewLicenseStore(db *gorm.DB) LicenseStore {
	return &licenseStore{db: db}
}

func (s *licenseStore) Load(id uuid.UUID) (*models.LicenseRequest, error) {
	var req models.LicenseRequest
	if err := s.db.First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (s *licenseStore) LoadDetailed(id uuid.UUID) (*models.LicenseRequest, error) {
	var req models.LicenseRequest
	err := s.db.
		Preload("User").
		Preload("Transporter").
		Preload("TractorUnit").
		Preload("FirstTrailer").
		Preload("Dolly").
		Preload("SecondTrailer").
		Preload("Flatbed").
		First(&req, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (s *licenseStore) LoadByNumber(number string) (*models.LicenseRequest, error) {
	var req models.LicenseRequest
	if err := s.db.First(&req, "request_number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (s *licenseStore) Create(req *models.LicenseRequest) error {
	if err := s.db.Create(req).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateNumber
		}
		return err
	}
	return nil
}

// Save writes the whole request guarded by its version: the UPDATE only
// matches when the stored version equals the one this request was loaded
// with. Zero rows affected means another writer got there first.
func (s *licenseStore) Save(req *models.LicenseRequest) error {
	loaded := req.Version
	req.Version = loaded + 1

	res := s.db.Model(&models.LicenseRequest{}).
		Where("id = ? AND version = ?", req.ID, loaded).
		Select("*").
		Omit("id", "created_at", "deleted_at").
		Updates(req)
	if res.Error != nil {
		req.Version = loaded
		if isDuplicateKey(res.Error) {
			return ErrDuplicateNumber
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		req.Version = loaded
		return ErrVersionConflict
	}
	return nil
}

func (s *licenseStore) Delete(req *models.LicenseRequest) error {
	return s.db.Delete(req).Error
}

func (s *licenseStore) ListDrafts(userID uuid.UUID, params utils.PaginationParams) ([]models.LicenseRequest, int64, error) {
	query := s.db.Model(&models.LicenseRequest{}).
		Where("user_id = ? AND is_draft = ?", userID, true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []models.LicenseRequest
	query = utils.ApplySort(query, params, []string{"created_at", "updated_at", "request_number"})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (s *licenseStore) ListSubmitted(filter ListFilter) ([]models.LicenseRequest, int64, error) {
	query := s.db.Model(&models.LicenseRequest{}).
		Where("is_draft = ?", false)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.State != "" {
		query = query.Where("? = ANY(states)", filter.State)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.TransporterID != nil {
		query = query.Where("transporter_id = ?", *filter.TransporterID)
	}
	if filter.Search != "" {
		query = query.Where("request_number ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []models.LicenseRequest
	query = query.Preload("Transporter")
	query = utils.ApplySort(query, filter.Pagination,
		[]string{"created_at", "updated_at", "submitted_at", "request_number", "status"})
	query = utils.ApplyPagination(query, filter.Pagination)
	if err := query.Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate key value")
}
