package model

import (
	"time"

	"github.com/google/uuid"
)

// Facility is the tenant boundary. Almost every other entity belongs to
// exactly one facility.
type Facility struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name    string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Address string    `gorm:"type:text" json:"address"`
	Phone   string    `gorm:"type:varchar(20)" json:"phone"`
	Email   string    `gorm:"type:varchar(255)" json:"email"`
	Lifecycle
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
