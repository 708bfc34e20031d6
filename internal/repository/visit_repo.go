package repository

import (
	"context"

	"pharmacare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VisitRepository interface {
	Create(ctx context.Context, visit *model.Visit) error
	Update(ctx context.Context, visit *model.Visit) error
	Purge(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Visit, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Visit, error)
	ListByFacility(ctx context.Context, facilityID uuid.UUID, patientID *uuid.UUID, offset, limit int) ([]model.Visit, int64, error)
}

type visitRepository struct {
	db *gorm.DB
}

func NewVisitRepository(db *gorm.DB) VisitRepository {
	return &visitRepository{db: db}
}

func (r *visitRepository) Create(ctx context.Context, visit *model.Visit) error {
	return GetDB(ctx, r.db).Create(visit).Error
}

func (r *visitRepository) Update(ctx context.Context, visit *model.Visit) error {
	return GetDB(ctx, r.db).Save(visit).Error
}

func (r *visitRepository) Purge(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Visit{}).Error
}

func (r *visitRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	var visit model.Visit
	if err := GetDB(ctx, r.db).First(&visit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &visit, nil
}

func (r *visitRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	var visit model.Visit
	if err := GetDB(ctx, r.db).
		Preload("Patient").Preload("Station").Preload("User").
		First(&visit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &visit, nil
}

func (r *visitRepository) ListByFacility(ctx context.Context, facilityID uuid.UUID, patientID *uuid.UUID, offset, limit int) ([]model.Visit, int64, error) {
	var visits []model.Visit
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Visit{}).Where("facility_id = ?", facilityID)
	if patientID != nil {
		db = db.Where("patient_id = ?", *patientID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Patient").Preload("Station").
		Order("started_at desc").Offset(offset).Limit(limit).Find(&visits).Error; err != nil {
		return nil, 0, err
	}

	return visits, total, nil
}
