// internal/services/vehicle_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rodoaet/aet-backend/internal/models"
	"github.com/rodoaet/aet-backend/internal/utils"
)

type VehicleService struct {
	db *gorm.DB
}

type CreateVehicleRequest struct {
	Plate      string             `json:"plate" validate:"required,brplate"`
	Type       models.VehicleType `json:"type" validate:"required"`
	AxleCount  int                `json:"axle_count" validate:"required,gte=1,lte=12"`
	TareWeight float64            `json:"tare_weight" validate:"required,gt=0,lte=100"`
	Chassis    string             `json:"chassis,omitempty" validate:"omitempty,len=17"`
	Renavam    string             `json:"renavam,omitempty" validate:"omitempty,len=11,numeric"`
	CRLVYear   int                `json:"crlv_year,omitempty" validate:"omitempty,gte=2000"`
	CRLVUrl    string             `json:"crlv_url,omitempty" validate:"omitempty,url"`
}

type UpdateVehicleRequest struct {
	Type       *models.VehicleType `json:"type,omitempty"`
	AxleCount  *int                `json:"axle_count,omitempty" validate:"omitempty,gte=1,lte=12"`
	TareWeight *float64            `json:"tare_weight,omitempty" validate:"omitempty,gt=0,lte=100"`
	Chassis    *string             `json:"chassis,omitempty" validate:"omitempty,len=17"`
	Renavam    *string             `json:"renavam,omitempty" validate:"omitempty,len=11,numeric"`
	CRLVYear   *int                `json:"crlv_year,omitempty" validate:"omitempty,gte=2000"`
	CRLVUrl    *string             `json:"crlv_url,omitempty" validate:"omitempty,url"`
}

func NewVehicleService(db *gorm.DB) *VehicleService {
	return &VehicleService{db: db}
}

var vehicleTypeSet = map[models.VehicleType]bool{
	models.VehicleTypeTractorUnit: true,
	models.VehicleTypeSemiTrailer: true,
	models.VehicleTypeTrailer:     true,
	models.VehicleTypeDolly:       true,
	models.VehicleTypeFlatbed:     true,
	models.VehicleTypeTruck:       true,
}

func (s *VehicleService) CreateVehicle(ownerID uuid.UUID, req *CreateVehicleRequest) (*models.Vehicle, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !vehicleTypeSet[req.Type] {
		return nil, fmt.Errorf("unknown vehicle type %q", req.Type)
	}

	plate := strings.ToUpper(req.Plate)

	var existing models.Vehicle
	err := s.db.Where("owner_id = ? AND plate = ?", ownerID, plate).First(&existing).Error
	if err == nil {
		return nil, errors.New("a vehicle with this plate is already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	vehicle := &models.Vehicle{
		OwnerID:    ownerID,
		Plate:      plate,
		Type:       req.Type,
		AxleCount:  req.AxleCount,
		TareWeight: req.TareWeight,
		Chassis:    strings.ToUpper(req.Chassis),
		Renavam:    req.Renavam,
		CRLVYear:   req.CRLVYear,
		CRLVUrl:    req.CRLVUrl,
	}
	if err := s.db.Create(vehicle).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key value") {
			return nil, errors.New("a vehicle with this plate is already registered")
		}
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}
	return vehicle, nil
}

// UpdateVehicle edits a vehicle's attributes. The plate is identity and never
// changes; a retyped plate is a new vehicle.
func (s *VehicleService) UpdateVehicle(id, ownerID uuid.UUID, req *UpdateVehicleRequest) (*models.Vehicle, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	vehicle, err := s.GetVehicle(id, ownerID)
	if err != nil {
		return nil, err
	}

	if req.Type != nil {
		if !vehicleTypeSet[*req.Type] {
			return nil, fmt.Errorf("unknown vehicle type %q", *req.Type)
		}
		vehicle.Type = *req.Type
	}
	if req.AxleCount != nil {
		vehicle.AxleCount = *req.AxleCount
	}
	if req.TareWeight != nil {
		vehicle.TareWeight = *req.TareWeight
	}
	if req.Chassis != nil {
		vehicle.Chassis = strings.ToUpper(*req.Chassis)
	}
	if req.Renavam != nil {
		vehicle.Renavam = *req.Renavam
	}
	if req.CRLVYear != nil {
		vehicle.CRLVYear = *req.CRLVYear
	}
	if req.CRLVUrl != nil {
		vehicle.CRLVUrl = *req.CRLVUrl
	}

	if err := s.db.Save(vehicle).Error; err != nil {
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}
	return vehicle, nil
}

// DeleteVehicle removes a vehicle from the owner's roster. Refused while any
// submitted request still references it; drafts don't block, they just lose
// the reference on submit validation.
func (s *VehicleService) DeleteVehicle(id, ownerID uuid.UUID) error {
	vehicle, err := s.GetVehicle(id, ownerID)
	if err != nil {
		return err
	}

	var count int64
	err = s.db.Model(&models.LicenseRequest{}).
		Where("is_draft = ?", false).
		Where(s.db.
			Where("tractor_unit_id = ?", id).
			Or("first_trailer_id = ?", id).
			Or("dolly_id = ?", id).
			Or("second_trailer_id = ?", id).
			Or("flatbed_id = ?", id)).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check vehicle references: %w", err)
	}
	if count > 0 {
		return errors.New("vehicle is referenced by a submitted license request")
	}

	if err := s.db.Delete(vehicle).Error; err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}
	return nil
}

func (s *VehicleService) GetVehicle(id, ownerID uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := s.db.First(&vehicle, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("vehicle not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if vehicle.OwnerID != ownerID {
		return nil, errors.New("unauthorized to access this vehicle")
	}
	return &vehicle, nil
}

func (s *VehicleService) ListVehicles(ownerID uuid.UUID, vehicleType models.VehicleType, params utils.PaginationParams) ([]models.Vehicle, int64, error) {
	query := s.db.Model(&models.Vehicle{}).Where("owner_id = ?", ownerID)
	if vehicleType != "" {
		query = query.Where("type = ?", vehicleType)
	}
	if params.Search != "" {
		query = query.Where("plate ILIKE ?", "%"+strings.ToUpper(params.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count vehicles: %w", err)
	}

	var vehicles []models.Vehicle
	query = utils.ApplySort(query, params, []string{"created_at", "plate", "type"})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&vehicles).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch vehicles: %w", err)
	}
	return vehicles, total, nil
}
