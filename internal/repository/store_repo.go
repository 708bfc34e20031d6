package repository

import (
	"context"

	"pharmacare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StoreRepository interface {
	Create(ctx context.Context, store *model.Store) error
	Update(ctx context.Context, store *model.Store) error
	Purge(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Store, error)
	FindByIDWithUsers(ctx context.Context, id uuid.UUID) (*model.Store, error)
	ListByFacility(ctx context.Context, facilityID uuid.UUID, offset, limit int) ([]model.Store, int64, error)
	ReplaceUsers(ctx context.Context, store *model.Store, users []model.User) error
	IsUserAssigned(ctx context.Context, storeID, userID uuid.UUID) (bool, error)
}

type storeRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) Create(ctx context.Context, store *model.Store) error {
	return GetDB(ctx, r.db).Create(store).Error
}

func (r *storeRepository) Update(ctx context.Context, store *model.Store) error {
	return GetDB(ctx, r.db).Save(store).Error
}

func (r *storeRepository) Purge(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Store{}).Error
}

func (r *storeRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	var store model.Store
	if err := GetDB(ctx, r.db).First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) FindByIDWithUsers(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	var store model.Store
	if err := GetDB(ctx, r.db).Preload("Users").First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) ListByFacility(ctx context.Context, facilityID uuid.UUID, offset, limit int) ([]model.Store, int64, error) {
	var stores []model.Store
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Store{}).Where("facility_id = ?", facilityID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("name asc").Offset(offset).Limit(limit).Find(&stores).Error; err != nil {
		return nil, 0, err
	}

	return stores, total, nil
}

func (r *storeRepository) ReplaceUsers(ctx context.Context, store *model.Store, users []model.User) error {
	return GetDB(ctx, r.db).Model(store).Association("Users").Replace(users)
}

func (r *storeRepository) IsUserAssigned(ctx context.Context, storeID, userID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Table("store_users").
		Where("store_id = ? AND user_id = ?", storeID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
