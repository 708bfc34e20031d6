package repository

import (
	"context"

	"pharmacare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Update(ctx context.Context, patient *model.Patient) error
	Purge(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	FindByMRN(ctx context.Context, facilityID uuid.UUID, mrn string) (*model.Patient, error)
	ListByFacility(ctx context.Context, facilityID uuid.UUID, search string, offset, limit int) ([]model.Patient, int64, error)
}

type patientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	return GetDB(ctx, r.db).Create(patient).Error
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	return GetDB(ctx, r.db).Save(patient).Error
}

func (r *patientRepository) Purge(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Patient{}).Error
}

func (r *patientRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	if err := GetDB(ctx, r.db).First(&patient, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) FindByMRN(ctx context.Context, facilityID uuid.UUID, mrn string) (*model.Patient, error) {
	var patient model.Patient
	if err := GetDB(ctx, r.db).Where("facility_id = ? AND mrn = ?", facilityID, mrn).First(&patient).Error; err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) ListByFacility(ctx context.Context, facilityID uuid.UUID, search string, offset, limit int) ([]model.Patient, int64, error) {
	var patients []model.Patient
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Patient{}).Where("facility_id = ?", facilityID)
	if search != "" {
		like := "%" + search + "%"
		db = db.Where("first_name ILIKE ? OR last_name ILIKE ? OR mrn ILIKE ?", like, like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&patients).Error; err != nil {
		return nil, 0, err
	}

	return patients, total, nil
}
