package repository

import (
	"context"

	"pharmacare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StationRepository interface {
	Create(ctx context.Context, station *model.Station) error
	Update(ctx context.Context, station *model.Station) error
	Purge(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Station, error)
	ListByFacility(ctx context.Context, facilityID uuid.UUID, offset, limit int) ([]model.Station, int64, error)
}

type stationRepository struct {
	db *gorm.DB
}

func NewStationRepository(db *gorm.DB) StationRepository {
	return &stationRepository{db: db}
}

func (r *stationRepository) Create(ctx context.Context, station *model.Station) error {
	return GetDB(ctx, r.db).Create(station).Error
}

func (r *stationRepository) Update(ctx context.Context, station *model.Station) error {
	return GetDB(ctx, r.db).Save(station).Error
}

func (r *stationRepository) Purge(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Station{}).Error
}

func (r *stationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Station, error) {
	var station model.Station
	if err := GetDB(ctx, r.db).First(&station, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &station, nil
}

func (r *stationRepository) ListByFacility(ctx context.Context, facilityID uuid.UUID, offset, limit int) ([]model.Station, int64, error) {
	var stations []model.Station
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Station{}).Where("facility_id = ?", facilityID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("name asc").Offset(offset).Limit(limit).Find(&stations).Error; err != nil {
		return nil, 0, err
	}

	return stations, total, nil
}
