// internal/services/user_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rodoaet/aet-backend/internal/models"
	"github.com/rodoaet/aet-backend/internal/utils"
)

type UserService struct {
	db *gorm.DB
}

type UpdateProfileRequest struct {
	Name          *string    `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	TransporterID *uuid.UUID `json:"transporter_id,omitempty"`
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetProfile(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Transporter").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(userID uuid.UUID, req *UpdateProfileRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.TransporterID != nil {
		var transporter models.Transporter
		if err := s.db.First(&transporter, "id = ?", *req.TransporterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.New("transporter not found")
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
		if transporter.CreatedByID != userID {
			return nil, errors.New("unauthorized to access this transporter")
		}
		user.TransporterID = req.TransporterID
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// TouchLastSeen records activity without failing the request on error.
func (s *UserService) TouchLastSeen(userID uuid.UUID) {
	s.db.Model(&models.User{}).Where("id = ?", userID).
		Update("last_seen_at", time.Now())
}

// GetDashboard summarizes the caller's requests per aggregate status, plus
// roster and notification counters.
func (s *UserService) GetDashboard(userID uuid.UUID) (map[string]interface{}, error) {
	type statusCount struct {
		Status models.LicenseStatus
		Count  int64
	}

	var counts []statusCount
	err := s.db.Model(&models.LicenseRequest{}).
		Select("status, COUNT(*) as count").
		Where("user_id = ? AND is_draft = ?", userID, false).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}

	byStatus := make(map[models.LicenseStatus]int64, len(counts))
	var total int64
	for _, c := range counts {
		byStatus[c.Status] = c.Count
		total += c.Count
	}

	var drafts int64
	s.db.Model(&models.LicenseRequest{}).
		Where("user_id = ? AND is_draft = ?", userID, true).Count(&drafts)

	var vehicles int64
	s.db.Model(&models.Vehicle{}).Where("owner_id = ?", userID).Count(&vehicles)

	var unread int64
	s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).Count(&unread)

	return map[string]interface{}{
		"requests_total":       total,
		"requests_by_status":   byStatus,
		"drafts":               drafts,
		"vehicles":             vehicles,
		"unread_notifications": unread,
	}, nil
}
