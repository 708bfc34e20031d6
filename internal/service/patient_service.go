package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pharmacare/internal/model"
	"pharmacare/internal/repository"
	"pharmacare/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreatePatientRequest struct {
	MRN         string     `json:"mrn" binding:"required,max=50"`
	FirstName   string     `json:"first_name" binding:"required,max=255"`
	LastName    string     `json:"last_name" binding:"required,max=255"`
	Gender      string     `json:"gender" binding:"omitempty,oneof=male female other"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
}

type UpdatePatientRequest struct {
	FirstName   string     `json:"first_name" binding:"omitempty,max=255"`
	LastName    string     `json:"last_name" binding:"omitempty,max=255"`
	Gender      string     `json:"gender" binding:"omitempty,oneof=male female other"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
}

type PatientService interface {
	Create(ctx context.Context, principal model.Principal, req CreatePatientRequest) (*model.Patient, error)
	Update(ctx context.Context, principal model.Principal, id string, req UpdatePatientRequest) (*model.Patient, error)
	Get(ctx context.Context, principal model.Principal, id string) (*model.Patient, error)
	List(ctx context.Context, principal model.Principal, search string, offset, limit int) ([]model.Patient, int64, error)
	Revoke(ctx context.Context, principal model.Principal, id string) error
	Restore(ctx context.Context, principal model.Principal, id string) error
	Purge(ctx context.Context, principal model.Principal, id string) error
}

type patientService struct {
	patientRepo repository.PatientRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewPatientService(
	patientRepo repository.PatientRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) PatientService {
	return &patientService{patientRepo: patientRepo, auditRepo: auditRepo, txManager: txManager}
}

func (s *patientService) Create(ctx context.Context, principal model.Principal, req CreatePatientRequest) (*model.Patient, error) {
	if _, err := s.patientRepo.FindByMRN(ctx, principal.FacilityID, req.MRN); err == nil {
		return nil, apperror.Conflict("medical record number already exists")
	}

	patient := &model.Patient{
		FacilityID:  principal.FacilityID,
		MRN:         req.MRN,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Gender:      req.Gender,
		DateOfBirth: req.DateOfBirth,
		Phone:       req.Phone,
		Address:     req.Address,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.patientRepo.Create(txCtx, patient); createErr != nil {
			return fmt.Errorf("failed to create patient: %w", createErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionCreate, "patient", patient.ID.String(), map[string]interface{}{
			"mrn": req.MRN,
		})
	})
	if err != nil {
		return nil, err
	}

	return patient, nil
}

func (s *patientService) Update(ctx context.Context, principal model.Principal, id string, req UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != "" {
		patient.FirstName = req.FirstName
	}
	if req.LastName != "" {
		patient.LastName = req.LastName
	}
	if req.Gender != "" {
		patient.Gender = req.Gender
	}
	if req.DateOfBirth != nil {
		patient.DateOfBirth = req.DateOfBirth
	}
	if req.Phone != "" {
		patient.Phone = req.Phone
	}
	if req.Address != "" {
		patient.Address = req.Address
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.patientRepo.Update(txCtx, patient); saveErr != nil {
			return fmt.Errorf("failed to update patient: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionUpdate, "patient", patient.ID.String(), nil)
	})
	if err != nil {
		return nil, err
	}

	return patient, nil
}

func (s *patientService) Get(ctx context.Context, principal model.Principal, id string) (*model.Patient, error) {
	return s.findScoped(ctx, principal, id)
}

func (s *patientService) List(ctx context.Context, principal model.Principal, search string, offset, limit int) ([]model.Patient, int64, error) {
	return s.patientRepo.ListByFacility(ctx, principal.FacilityID, search, offset, limit)
}

func (s *patientService) Revoke(ctx context.Context, principal model.Principal, id string) error {
	patient, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}
	if !patient.Lifecycle.Revoke() {
		return apperror.Conflict("patient is already revoked")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.patientRepo.Update(txCtx, patient); saveErr != nil {
			return fmt.Errorf("failed to revoke patient: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionRevoke, "patient", patient.ID.String(), nil)
	})
}

func (s *patientService) Restore(ctx context.Context, principal model.Principal, id string) error {
	patient, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}
	if !patient.Lifecycle.Restore() {
		return apperror.Conflict("patient is not revoked")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.patientRepo.Update(txCtx, patient); saveErr != nil {
			return fmt.Errorf("failed to restore patient: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionRestore, "patient", patient.ID.String(), nil)
	})
}

func (s *patientService) Purge(ctx context.Context, principal model.Principal, id string) error {
	patient, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}
	if !patient.IsRevoked() {
		return apperror.Conflict("patient must be revoked before purging")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.patientRepo.Purge(txCtx, patient.ID); delErr != nil {
			return fmt.Errorf("failed to purge patient: %w", delErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionPurge, "patient", patient.ID.String(), nil)
	})
}

func (s *patientService) findScoped(ctx context.Context, principal model.Principal, id string) (*model.Patient, error) {
	patientID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.NotFound("patient")
	}

	patient, err := s.patientRepo.FindByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("patient")
		}
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}
	if patient.FacilityID != principal.FacilityID {
		return nil, apperror.NotFound("patient")
	}

	return patient, nil
}
