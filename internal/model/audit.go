package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreate  = "CREATE"
	ActionUpdate  = "UPDATE"
	ActionRevoke  = "REVOKE"
	ActionRestore = "RESTORE"
	ActionPurge   = "PURGE"

	ActionPurchase    = "PURCHASE"
	ActionSale        = "SALE"
	ActionAssignUsers = "ASSIGN_USERS"
	ActionSetPerms    = "SET_PERMISSIONS"
)

// AuditLog tracks who did what and when for mutating operations. Rows are
// written inside the same transaction as the change they describe.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FacilityID uuid.UUID  `gorm:"type:uuid;not null;index" json:"facility_id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityType string     `gorm:"type:varchar(50);not null;index" json:"entity_type"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	Details    string     `gorm:"type:jsonb" json:"details"` // serialized JSON payload
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
