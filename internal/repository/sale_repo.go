package repository

import (
	"context"

	"pharmacare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	Create(ctx context.Context, sale *model.Sale) error
	CreateItem(ctx context.Context, item *model.SaleItem) error
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, offset, limit int) ([]model.Sale, int64, error)
}

type saleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *model.Sale) error {
	return GetDB(ctx, r.db).Create(sale).Error
}

func (r *saleRepository) CreateItem(ctx context.Context, item *model.SaleItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *saleRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := GetDB(ctx, r.db).
		Preload("Store").Preload("User").Preload("Items.Product").
		First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) ListByStore(ctx context.Context, storeID uuid.UUID, offset, limit int) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Sale{}).Where("store_id = ?", storeID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").Preload("Items.Product").
		Order("created_at desc").Offset(offset).Limit(limit).Find(&sales).Error; err != nil {
		return nil, 0, err
	}

	return sales, total, nil
}
