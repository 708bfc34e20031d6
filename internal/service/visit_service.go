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

type CreateVisitRequest struct {
	PatientID string `json:"patient_id" binding:"required,uuid_param"`
	StationID string `json:"station_id" binding:"omitempty,uuid_param"`
	Complaint string `json:"complaint"`
	Notes     string `json:"notes"`
}

type UpdateVisitRequest struct {
	StationID string `json:"station_id" binding:"omitempty,uuid_param"`
	Complaint string `json:"complaint"`
	Notes     string `json:"notes"`
	End       bool   `json:"end"`
}

type VisitService interface {
	Create(ctx context.Context, principal model.Principal, req CreateVisitRequest) (*model.Visit, error)
	Update(ctx context.Context, principal model.Principal, id string, req UpdateVisitRequest) (*model.Visit, error)
	Get(ctx context.Context, principal model.Principal, id string) (*model.Visit, error)
	List(ctx context.Context, principal model.Principal, patientID string, offset, limit int) ([]model.Visit, int64, error)
	Revoke(ctx context.Context, principal model.Principal, id string) error
	Restore(ctx context.Context, principal model.Principal, id string) error
	Purge(ctx context.Context, principal model.Principal, id string) error
}

type visitService struct {
	visitRepo   repository.VisitRepository
	patientRepo repository.PatientRepository
	stationRepo repository.StationRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewVisitService(
	visitRepo repository.VisitRepository,
	patientRepo repository.PatientRepository,
	stationRepo repository.StationRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) VisitService {
	return &visitService{
		visitRepo:   visitRepo,
		patientRepo: patientRepo,
		stationRepo: stationRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

func (s *visitService) Create(ctx context.Context, principal model.Principal, req CreateVisitRequest) (*model.Visit, error) {
	patientID, err := uuid.Parse(req.PatientID)
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
	if patient.FacilityID != principal.FacilityID || !patient.IsActive() {
		return nil, apperror.NotFound("patient")
	}

	stationID, err := s.resolveStationID(ctx, principal, req.StationID)
	if err != nil {
		return nil, err
	}

	attending := principal.UserID
	visit := &model.Visit{
		FacilityID: principal.FacilityID,
		PatientID:  patient.ID,
		StationID:  stationID,
		UserID:     &attending,
		Complaint:  req.Complaint,
		Notes:      req.Notes,
		StartedAt:  time.Now(),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.visitRepo.Create(txCtx, visit); createErr != nil {
			return fmt.Errorf("failed to create visit: %w", createErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionCreate, "visit", visit.ID.String(), map[string]interface{}{
			"patient_id": patient.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.visitRepo.FindByIDWithRelations(ctx, visit.ID)
}

func (s *visitService) Update(ctx context.Context, principal model.Principal, id string, req UpdateVisitRequest) (*model.Visit, error) {
	visit, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	if req.StationID != "" {
		stationID, stationErr := s.resolveStationID(ctx, principal, req.StationID)
		if stationErr != nil {
			return nil, stationErr
		}
		visit.StationID = stationID
	}
	if req.Complaint != "" {
		visit.Complaint = req.Complaint
	}
	if req.Notes != "" {
		visit.Notes = req.Notes
	}
	if req.End && visit.EndedAt == nil {
		now := time.Now()
		visit.EndedAt = &now
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.visitRepo.Update(txCtx, visit); saveErr != nil {
			return fmt.Errorf("failed to update visit: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionUpdate, "visit", visit.ID.String(), nil)
	})
	if err != nil {
		return nil, err
	}

	return s.visitRepo.FindByIDWithRelations(ctx, visit.ID)
}

func (s *visitService) Get(ctx context.Context, principal model.Principal, id string) (*model.Visit, error) {
	visitID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.NotFound("visit")
	}

	visit, err := s.visitRepo.FindByIDWithRelations(ctx, visitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("visit")
		}
		return nil, fmt.Errorf("failed to load visit: %w", err)
	}
	if visit.FacilityID != principal.FacilityID {
		return nil, apperror.NotFound("visit")
	}

	return visit, nil
}

func (s *visitService) List(ctx context.Context, principal model.Principal, patientID string, offset, limit int) ([]model.Visit, int64, error) {
	var filter *uuid.UUID
	if patientID != "" {
		parsed, err := uuid.Parse(patientID)
		if err != nil {
			return nil, 0, apperror.NotFound("patient")
		}
		filter = &parsed
	}
	return s.visitRepo.ListByFacility(ctx, principal.FacilityID, filter, offset, limit)
}

func (s *visitService) Revoke(ctx context.Context, principal model.Principal, id string) error {
	visit, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}
	if !visit.Lifecycle.Revoke() {
		return apperror.Conflict("visit is already revoked")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.visitRepo.Update(txCtx, visit); saveErr != nil {
			return fmt.Errorf("failed to revoke visit: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionRevoke, "visit", visit.ID.String(), nil)
	})
}

func (s *visitService) Restore(ctx context.Context, principal model.Principal, id string) error {
	visit, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}
	if !visit.Lifecycle.Restore() {
		return apperror.Conflict("visit is not revoked")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.visitRepo.Update(txCtx, visit); saveErr != nil {
			return fmt.Errorf("failed to restore visit: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionRestore, "visit", visit.ID.String(), nil)
	})
}

func (s *visitService) Purge(ctx context.Context, principal model.Principal, id string) error {
	visit, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}
	if !visit.IsRevoked() {
		return apperror.Conflict("visit must be revoked before purging")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.visitRepo.Purge(txCtx, visit.ID); delErr != nil {
			return fmt.Errorf("failed to purge visit: %w", delErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionPurge, "visit", visit.ID.String(), nil)
	})
}

func (s *visitService) findScoped(ctx context.Context, principal model.Principal, id string) (*model.Visit, error) {
	visitID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.NotFound("visit")
	}

	visit, err := s.visitRepo.FindByID(ctx, visitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("visit")
		}
		return nil, fmt.Errorf("failed to load visit: %w", err)
	}
	if visit.FacilityID != principal.FacilityID {
		return nil, apperror.NotFound("visit")
	}

	return visit, nil
}

func (s *visitService) resolveStationID(ctx context.Context, principal model.Principal, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}

	stationID, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.NotFound("station")
	}

	station, err := s.stationRepo.FindByID(ctx, stationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("station")
		}
		return nil, fmt.Errorf("failed to load station: %w", err)
	}
	if station.FacilityID != principal.FacilityID || !station.IsActive() {
		return nil, apperror.NotFound("station")
	}

	return &station.ID, nil
}
