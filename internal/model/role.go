package model

import (
	"time"

	"github.com/google/uuid"
)

// Role groups permissions within a facility. A user's effective permission
// set is exactly its role's permission set.
type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	FacilityID  uuid.UUID    `gorm:"type:uuid;not null;index" json:"facility_id"`
	Facility    *Facility    `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
	Name        string       `gorm:"type:varchar(50);not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	IsSystem    bool         `gorm:"default:false" json:"is_system"` // Prevent deletion of built-in roles
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	Lifecycle
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Permission is a globally defined (module_name, name) pair, e.g.
// ("pharm-stores", "create"). Module scoping keeps action names from
// colliding across functional areas.
type Permission struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleName string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_permission_module_name" json:"module_name"`
	Name       string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_permission_module_name" json:"name"`
	Label      string    `gorm:"type:varchar(255);not null" json:"label"`
}

// Code renders the canonical "module.name" form used in logs and /auth/me.
func (p Permission) Code() string { return p.ModuleName + "." + p.Name }
