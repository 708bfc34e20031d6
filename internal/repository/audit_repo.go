package repository

import (
	"context"

	"pharmacare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	ListByFacility(ctx context.Context, facilityID uuid.UUID, action string, offset, limit int) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) ListByFacility(ctx context.Context, facilityID uuid.UUID, action string, offset, limit int) ([]model.AuditLog, int64, error) {
	var entries []model.AuditLog
	var total int64

	db := GetDB(ctx, r.db).Model(&model.AuditLog{}).Where("facility_id = ?", facilityID)
	if action != "" {
		db = db.Where("action = ?", action)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").Order("created_at desc").
		Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
