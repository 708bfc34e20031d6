package repository

import (
	"context"

	"pharmacare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *model.Purchase) error
	CreateItem(ctx context.Context, item *model.PurchaseItem) error
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, offset, limit int) ([]model.Purchase, int64, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *model.Purchase) error {
	return GetDB(ctx, r.db).Create(purchase).Error
}

func (r *purchaseRepository) CreateItem(ctx context.Context, item *model.PurchaseItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *purchaseRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := GetDB(ctx, r.db).
		Preload("Store").Preload("User").Preload("Items.Product").
		First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepository) ListByStore(ctx context.Context, storeID uuid.UUID, offset, limit int) ([]model.Purchase, int64, error) {
	var purchases []model.Purchase
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Purchase{}).Where("store_id = ?", storeID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").Preload("Items.Product").
		Order("created_at desc").Offset(offset).Limit(limit).Find(&purchases).Error; err != nil {
		return nil, 0, err
	}

	return purchases, total, nil
}
