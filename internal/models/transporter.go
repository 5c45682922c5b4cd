// internal/models/transporter.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Transporter is a company or individual profile with its own lifecycle. It is
// referenced by license requests via weak foreign key and is never
// cascade-deleted with them.
type Transporter struct {
	BaseModel
	Kind      TransporterKind `json:"kind" gorm:"type:varchar(20);not null;default:'company'"`
	LegalName string          `json:"legal_name" gorm:"size:255;not null"`
	TradeName string          `json:"trade_name,omitempty" gorm:"size:255"`
	CNPJ      string          `json:"cnpj,omitempty" gorm:"size:14;index"`
	CPF       string          `json:"cpf,omitempty" gorm:"size:11"`

	RegistrySituation RegistrySituation `json:"registry_situation" gorm:"type:varchar(20);default:'unknown'"`

	AddressStreet string `json:"address_street,omitempty" gorm:"size:255"`
	AddressCity   string `json:"address_city,omitempty" gorm:"size:100"`
	AddressState  string `json:"address_state,omitempty" gorm:"size:2"`
	AddressZip    string `json:"address_zip,omitempty" gorm:"size:8"`
	Phone         string `json:"phone,omitempty" gorm:"size:20"`
	Email         string `json:"email,omitempty" gorm:"size:255"`

	CreatedByID uuid.UUID `json:"created_by_id" gorm:"type:uuid;not null;index"`

	// Relationships
	CreatedBy User             `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID"`
	Requests  []LicenseRequest `json:"requests,omitempty" gorm:"foreignKey:TransporterID"`
}

// CNPJRecord caches federal registry lookups, including misses: Found=false
// remembers that the registry had no record, so repeated lookups of a bad CNPJ
// don't hammer the upstream API.
type CNPJRecord struct {
	BaseModel
	CNPJ              string            `json:"cnpj" gorm:"size:14;uniqueIndex;not null"`
	Found             bool              `json:"found" gorm:"not null;default:false"`
	LegalName         string            `json:"legal_name,omitempty" gorm:"size:255"`
	TradeName         string            `json:"trade_name,omitempty" gorm:"size:255"`
	RegistrySituation RegistrySituation `json:"registry_situation" gorm:"type:varchar(20);default:'unknown'"`
	FetchedAt         time.Time         `json:"fetched_at" gorm:"not null"`
}

// Expired reports whether the cached lookup is older than ttl.
func (r *CNPJRecord) Expired(ttl time.Duration) bool {
	return time.Since(r.FetchedAt) > ttl
}
