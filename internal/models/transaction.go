// internal/models/transaction.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction records the platform service fee charged per license request.
// Payment state never gates the licensing workflow.
type Transaction struct {
	BaseModel
	TransactionType  TransactionType   `json:"transaction_type" gorm:"type:varchar(20);not null;index"`
	UserID           uuid.UUID         `json:"user_id" gorm:"type:uuid;not null;index"`
	LicenseRequestID uuid.UUID         `json:"license_request_id" gorm:"type:uuid;not null;index"`
	Amount           float64           `json:"amount" gorm:"type:decimal(10,2);not null"`
	Currency         string            `json:"currency" gorm:"size:3;default:'brl'"`
	PaymentReference string            `json:"payment_reference" gorm:"size:255"`
	Status           TransactionStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	ProcessedAt      *time.Time        `json:"processed_at"`
	RefundedAt       *time.Time        `json:"refunded_at"`
	RefundReason     string            `json:"refund_reason,omitempty" gorm:"type:text"`

	// Relationships
	User           User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	LicenseRequest LicenseRequest `json:"license_request,omitempty" gorm:"foreignKey:LicenseRequestID"`
}
