package models

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GadgetStatus is the lifecycle state of a gadget
type GadgetStatus string

const (
	GadgetStatusAvailable      GadgetStatus = "Available"
	GadgetStatusDeployed       GadgetStatus = "Deployed"
	GadgetStatusDestroyed      GadgetStatus = "Destroyed"
	GadgetStatusDecommissioned GadgetStatus = "Decommissioned"
)

// GadgetStatuses lists every accepted status value
var GadgetStatuses = []GadgetStatus{
	GadgetStatusAvailable,
	GadgetStatusDeployed,
	GadgetStatusDestroyed,
	GadgetStatusDecommissioned,
}

// IsValid reports whether s is one of the known statuses
func (s GadgetStatus) IsValid() bool {
	for _, known := range GadgetStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Scan implements the sql.Scanner interface for GadgetStatus
func (s *GadgetStatus) Scan(value interface{}) error {
	if value == nil {
		*s = GadgetStatusAvailable
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*s = GadgetStatus(v)
	case string:
		*s = GadgetStatus(v)
	default:
		return errors.New("invalid gadget status type")
	}
	return nil
}

// Value implements the driver.Valuer interface for GadgetStatus
func (s GadgetStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Gadget is an inventory item. Records are never physically deleted;
// decommission and self-destruct are status transitions.
type Gadget struct {
	ID               uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string       `gorm:"not null" json:"name"`
	Codename         string       `gorm:"not null" json:"codename"`
	Status           GadgetStatus `gorm:"type:gadget_status;not null;default:Available;index" json:"status"`
	DecommissionedAt *time.Time   `json:"decommissionedAt"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// TableName overrides the table name
func (Gadget) TableName() string {
	return "gadgets"
}

// BeforeCreate hook to generate UUID if not set
func (g *Gadget) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// IsDecommissioned reports whether the gadget has ever been decommissioned,
// regardless of later edits to its status
func (g *Gadget) IsDecommissioned() bool {
	return g.DecommissionedAt != nil
}
