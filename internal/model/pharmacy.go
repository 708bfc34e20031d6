package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is a pharmacy store within a facility. Users are assigned via
// store_users; assignment scopes sale access, it does not grant stock
// authority by itself.
type Store struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FacilityID uuid.UUID `gorm:"type:uuid;not null;index" json:"facility_id"`
	Facility   *Facility `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	Users      []User    `gorm:"many2many:store_users;" json:"users,omitempty"`
	Lifecycle
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is a facility-scoped catalog entry. Catalog attributes are
// immutable in the stock paths; price and quantity live on StoreProduct.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FacilityID  uuid.UUID `gorm:"type:uuid;not null;index" json:"facility_id"`
	Facility    *Facility `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Brand       string    `gorm:"type:varchar(255)" json:"brand"`
	PackageType string    `gorm:"type:varchar(100)" json:"package_type"`
	Lifecycle
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoreProduct is the stock ledger: the single source of truth for how much
// of a product a store holds and at what price. One row per (store, product);
// quantity may never go below zero.
type StoreProduct struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_store_product" json:"store_id"`
	Store     *Store          `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_store_product" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int             `gorm:"type:int;not null;default:0;check:quantity >= 0" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
