package model

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated principal. Belongs to one facility and at most
// one role; stores are assigned via store_users for pharmacy access scoping.
type User struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FacilityID uuid.UUID  `gorm:"type:uuid;not null;index" json:"facility_id"`
	Facility   *Facility  `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
	RoleID     *uuid.UUID `gorm:"type:uuid;index" json:"role_id"`
	Role       *Role      `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	Username   string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email      string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone      string     `gorm:"type:varchar(20)" json:"phone"`
	Password   string     `gorm:"type:varchar(255);not null" json:"-"` // bcrypt hash, never serialized
	Stores     []Store    `gorm:"many2many:store_users;" json:"stores,omitempty"`
	Lifecycle
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Principal is the authenticated identity handed to services and the
// authorization gate. Built by the auth middleware from token claims; the
// gate never reaches back into ambient state to discover the caller.
type Principal struct {
	UserID     uuid.UUID
	FacilityID uuid.UUID
	RoleID     *uuid.UUID
}
