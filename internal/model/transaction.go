package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is a stock-in header. Created once with its items inside the
// ledger transaction and never mutated afterwards.
type Purchase struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"store_id"`
	Store     *Store          `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Total     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total"`
	Items     []PurchaseItem  `gorm:"foreignKey:PurchaseID" json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PurchaseItem is one purchase line with batch metadata.
type PurchaseItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PurchaseID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product         *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity        int             `gorm:"type:int;not null" json:"quantity"`
	CostPrice       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"cost_price"`
	UnitRetailPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_retail_price"`
	BatchNumber     string          `gorm:"type:varchar(100)" json:"batch_number"`
	ManufactureDate *time.Time      `gorm:"type:date" json:"manufacture_date"`
	ExpiryDate      *time.Time      `gorm:"type:date" json:"expiry_date"`
}

// Sale is a stock-out header, append-only like Purchase.
type Sale struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"store_id"`
	Store     *Store          `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Total     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total"`
	Items     []SaleItem      `gorm:"foreignKey:SaleID" json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SaleItem records quantity and the ledger unit price at sale time. Callers
// cannot supply sale prices.
type SaleItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
}

// Movement direction constants.
const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)

// StockMovement is the append-only journal of ledger changes, one row per
// line applied. Written in the same transaction as the StoreProduct update.
type StockMovement struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"store_id"`
	ProductID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	Product       *Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Direction     string     `gorm:"type:varchar(10);not null" json:"direction"` // IN, OUT
	Quantity      int        `gorm:"type:int;not null" json:"quantity"`
	QuantityAfter int        `gorm:"type:int;not null" json:"quantity_after"`
	PurchaseID    *uuid.UUID `gorm:"type:uuid;index" json:"purchase_id"`
	SaleID        *uuid.UUID `gorm:"type:uuid;index" json:"sale_id"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
}
