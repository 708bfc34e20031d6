package database

import (
	"pharmacare/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a connection pool using GORM and migrates the
// schema.
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate applies the schema for every model, including join tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Facility{},
		&model.Permission{},
		&model.Role{},
		&model.User{},
		&model.Patient{},
		&model.Station{},
		&model.Visit{},
		&model.Store{},
		&model.Product{},
		&model.StoreProduct{},
		&model.Purchase{},
		&model.PurchaseItem{},
		&model.Sale{},
		&model.SaleItem{},
		&model.StockMovement{},
		&model.AuditLog{},
	)
}
