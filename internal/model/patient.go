package model

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a facility-scoped patient record.
type Patient struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FacilityID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"facility_id"`
	Facility    *Facility  `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
	MRN         string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_patient_facility_mrn,composite:facility_id" json:"mrn"` // medical record number, unique per facility
	FirstName   string     `gorm:"type:varchar(255);not null" json:"first_name"`
	LastName    string     `gorm:"type:varchar(255);not null" json:"last_name"`
	Gender      string     `gorm:"type:varchar(20)" json:"gender"`
	DateOfBirth *time.Time `gorm:"type:date" json:"date_of_birth"`
	Phone       string     `gorm:"type:varchar(20)" json:"phone"`
	Address     string     `gorm:"type:text" json:"address"`
	Lifecycle
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Station is a named service point within a facility (triage desk,
// consultation room, dispensing window).
type Station struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FacilityID  uuid.UUID `gorm:"type:uuid;not null;index" json:"facility_id"`
	Facility    *Facility `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Lifecycle
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Visit records one patient encounter, optionally tied to a station and an
// attending user.
type Visit struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FacilityID uuid.UUID  `gorm:"type:uuid;not null;index" json:"facility_id"`
	PatientID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"patient_id"`
	Patient    *Patient   `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	StationID  *uuid.UUID `gorm:"type:uuid;index" json:"station_id"`
	Station    *Station   `gorm:"foreignKey:StationID" json:"station,omitempty"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // attending user
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Complaint  string     `gorm:"type:text" json:"complaint"`
	Notes      string     `gorm:"type:text" json:"notes"`
	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	EndedAt    *time.Time `json:"ended_at"`
	Lifecycle
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
