package repository

import (
	"context"

	"pharmacare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StoreProductRepository manages the stock ledger. All writes from the
// purchase/sale paths go through FindForUpdate + Save inside one transaction.
type StoreProductRepository interface {
	Create(ctx context.Context, row *model.StoreProduct) error
	Save(ctx context.Context, row *model.StoreProduct) error
	Purge(ctx context.Context, id uuid.UUID) error
	Find(ctx context.Context, storeID, productID uuid.UUID) (*model.StoreProduct, error)
	FindForUpdate(ctx context.Context, storeID, productID uuid.UUID) (*model.StoreProduct, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, offset, limit int) ([]model.StoreProduct, int64, error)
}

type storeProductRepository struct {
	db *gorm.DB
}

func NewStoreProductRepository(db *gorm.DB) StoreProductRepository {
	return &storeProductRepository{db: db}
}

func (r *storeProductRepository) Create(ctx context.Context, row *model.StoreProduct) error {
	return GetDB(ctx, r.db).Create(row).Error
}

func (r *storeProductRepository) Save(ctx context.Context, row *model.StoreProduct) error {
	return GetDB(ctx, r.db).Save(row).Error
}

func (r *storeProductRepository) Purge(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.StoreProduct{}).Error
}

func (r *storeProductRepository) Find(ctx context.Context, storeID, productID uuid.UUID) (*model.StoreProduct, error) {
	var row model.StoreProduct
	if err := GetDB(ctx, r.db).
		Where("store_id = ? AND product_id = ?", storeID, productID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindForUpdate takes a row lock so concurrent transactions against the same
// (store, product) pair serialize. Only meaningful inside RunInTx. SQLite has
// no FOR UPDATE; its single-writer transactions serialize on their own.
func (r *storeProductRepository) FindForUpdate(ctx context.Context, storeID, productID uuid.UUID) (*model.StoreProduct, error) {
	db := GetDB(ctx, r.db)
	if db.Dialector.Name() != "sqlite" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row model.StoreProduct
	if err := db.
		Where("store_id = ? AND product_id = ?", storeID, productID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *storeProductRepository) ListByStore(ctx context.Context, storeID uuid.UUID, offset, limit int) ([]model.StoreProduct, int64, error) {
	var rows []model.StoreProduct
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StoreProduct{}).Where("store_id = ?", storeID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Product").Order("created_at desc").
		Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// StockMovementRepository records the append-only ledger journal.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *model.StockMovement) error
	ListByStore(ctx context.Context, storeID uuid.UUID, offset, limit int) ([]model.StockMovement, int64, error)
}

type stockMovementRepository struct {
	db *gorm.DB
}

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) Create(ctx context.Context, movement *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}

func (r *stockMovementRepository) ListByStore(ctx context.Context, storeID uuid.UUID, offset, limit int) ([]model.StockMovement, int64, error) {
	var movements []model.StockMovement
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockMovement{}).Where("store_id = ?", storeID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Product").Order("created_at desc").
		Offset(offset).Limit(limit).Find(&movements).Error; err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}
