// internal/models/vehicle.go
package models

import (
	"github.com/google/uuid"
)

// Vehicle is an independent roster entity. License requests reference vehicles
// by id and never own them: a vehicle outlives any single request and can be
// part of many combinations.
type Vehicle struct {
	BaseModel
	OwnerID    uuid.UUID   `json:"owner_id" gorm:"type:uuid;not null;index"`
	Plate      string      `json:"plate" gorm:"size:7;not null;index"`
	Type       VehicleType `json:"type" gorm:"type:varchar(20);not null"`
	AxleCount  int         `json:"axle_count" gorm:"not null"`
	TareWeight float64     `json:"tare_weight" gorm:"type:decimal(8,2);not null"` // tons
	Chassis    string      `json:"chassis,omitempty" gorm:"size:17"`
	Renavam    string      `json:"renavam,omitempty" gorm:"size:11"`
	CRLVYear   int         `json:"crlv_year"`
	CRLVUrl    string      `json:"crlv_url,omitempty" gorm:"size:500"`

	// Relationships
	Owner User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}
