// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserType string

const (
	UserTypeOperator UserType = "operator"
	UserTypeStaff    UserType = "staff"
	UserTypeAdmin    UserType = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type TransporterKind string

const (
	TransporterKindCompany    TransporterKind = "company"
	TransporterKindIndividual TransporterKind = "individual"
)

// Registry situation reported by the federal CNPJ registry.
type RegistrySituation string

const (
	RegistrySituationActive    RegistrySituation = "active"
	RegistrySituationClosed    RegistrySituation = "closed"
	RegistrySituationSuspended RegistrySituation = "suspended"
	RegistrySituationUnfit     RegistrySituation = "unfit"
	RegistrySituationUnknown   RegistrySituation = "unknown"
)

type VehicleType string

const (
	VehicleTypeTractorUnit VehicleType = "tractor_unit"
	VehicleTypeSemiTrailer VehicleType = "semi_trailer"
	VehicleTypeTrailer     VehicleType = "trailer"
	VehicleTypeDolly       VehicleType = "dolly"
	VehicleTypeFlatbed     VehicleType = "flatbed"
	VehicleTypeTruck       VehicleType = "truck"
)

// Vehicle combination types an AET can be requested for.
type CombinationType string

const (
	CombinationRoadtrain9Axles CombinationType = "roadtrain_9_axles"
	CombinationBitrain6Axles   CombinationType = "bitrain_6_axles"
	CombinationBitrain7Axles   CombinationType = "bitrain_7_axles"
	CombinationBitrain9Axles   CombinationType = "bitrain_9_axles"
	CombinationFlatbed         CombinationType = "flatbed"
	CombinationRomeoAndJuliet  CombinationType = "romeo_and_juliet"
)

type TransactionType string

const (
	TransactionTypeServiceFee TransactionType = "service_fee"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

type NotificationType string

const (
	NotificationTypeStateStatus   NotificationType = "state_status"
	NotificationTypeLicenseStatus NotificationType = "license_status"
	NotificationTypeSystem        NotificationType = "system"
)

type DocumentCategory string

const (
	DocumentCategoryCRLV     DocumentCategory = "crlv"
	DocumentCategoryApproval DocumentCategory = "approval_document"
	DocumentCategoryPlate    DocumentCategory = "plate_document"
)
