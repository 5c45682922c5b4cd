// internal/models/notification.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an in-app message for a user, written when a per-state
// workflow moves or a request-level event happens.
type Notification struct {
	BaseModel
	UserID           uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index"`
	Type             NotificationType `json:"type" gorm:"type:varchar(30);not null;index"`
	Title            string           `json:"title" gorm:"size:255;not null"`
	Message          string           `json:"message" gorm:"type:text;not null"`
	LicenseRequestID *uuid.UUID       `json:"license_request_id" gorm:"type:uuid;index"`
	State            string           `json:"state,omitempty" gorm:"size:10"`
	IsRead           bool             `json:"is_read" gorm:"default:false;index"`
	ReadAt           *time.Time       `json:"read_at"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// AuditLog records mutating API calls, written asynchronously by middleware.
type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	Changes      JSONB      `json:"changes" gorm:"type:jsonb"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`

	// Relationships
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
