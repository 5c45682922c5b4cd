// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity projection for the auth boundary. Credentials live in
// the external identity provider; requests arrive with signed tokens and this
// row only carries role and status for authorization checks.
type User struct {
	BaseModel
	Name          string     `json:"name" gorm:"size:255;not null"`
	Email         string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	UserType      UserType   `json:"user_type" gorm:"type:varchar(20);not null;default:'operator'"`
	Status        UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	TransporterID *uuid.UUID `json:"transporter_id" gorm:"type:uuid;index"`
	LastSeenAt    *time.Time `json:"last_seen_at"`

	// Relationships
	Transporter *Transporter     `json:"transporter,omitempty" gorm:"foreignKey:TransporterID"`
	Requests    []LicenseRequest `json:"requests,omitempty" gorm:"foreignKey:UserID"`
	Vehicles    []Vehicle        `json:"vehicles,omitempty" gorm:"foreignKey:OwnerID"`
}

// IsStaff reports whether the user can process submitted requests.
func (u *User) IsStaff() bool {
	return u.UserType == UserTypeStaff || u.UserType == UserTypeAdmin
}
