package service

import (
	"context"
	"errors"
	"fmt"

	"pharmacare/internal/model"
	"pharmacare/internal/repository"
	"pharmacare/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StationRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
}

type StationService interface {
	Create(ctx context.Context, principal model.Principal, req StationRequest) (*model.Station, error)
	Update(ctx context.Context, principal model.Principal, id string, req StationRequest) (*model.Station, error)
	Get(ctx context.Context, principal model.Principal, id string) (*model.Station, error)
	List(ctx context.Context, principal model.Principal, offset, limit int) ([]model.Station, int64, error)
	Revoke(ctx context.Context, principal model.Principal, id string) error
	Restore(ctx context.Context, principal model.Principal, id string) error
	Purge(ctx context.Context, principal model.Principal, id string) error
}

type stationService struct {
	stationRepo repository.StationRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewStationService(
	stationRepo repository.StationRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) StationService {
	return &stationService{stationRepo: stationRepo, auditRepo: auditRepo, txManager: txManager}
}

func (s *stationService) Create(ctx context.Context, principal model.Principal, req StationRequest) (*model.Station, error) {
	station := &model.Station{
		FacilityID:  principal.FacilityID,
		Name:        req.Name,
		Description: req.Description,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.stationRepo.Create(txCtx, station); createErr != nil {
			return fmt.Errorf("failed to create station: %w", createErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionCreate, "station", station.ID.String(), map[string]interface{}{
			"name": req.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	return station, nil
}

func (s *stationService) Update(ctx context.Context, principal model.Principal, id string, req StationRequest) (*model.Station, error) {
	station, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	station.Name = req.Name
	station.Description = req.Description

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.stationRepo.Update(txCtx, station); saveErr != nil {
			return fmt.Errorf("failed to update station: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionUpdate, "station", station.ID.String(), nil)
	})
	if err != nil {
		return nil, err
	}

	return station, nil
}

func (s *stationService) Get(ctx context.Context, principal model.Principal, id string) (*model.Station, error) {
	return s.findScoped(ctx, principal, id)
}

func (s *stationService) List(ctx context.Context, principal model.Principal, offset, limit int) ([]model.Station, int64, error) {
	return s.stationRepo.ListByFacility(ctx, principal.FacilityID, offset, limit)
}

func (s *stationService) Revoke(ctx context.Context, principal model.Principal, id string) error {
	station, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}
	if !station.Lifecycle.Revoke() {
		return apperror.Conflict("station is already revoked")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.stationRepo.Update(txCtx, station); saveErr != nil {
			return fmt.Errorf("failed to revoke station: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionRevoke, "station", station.ID.String(), nil)
	})
}

func (s *stationService) Restore(ctx context.Context, principal model.Principal, id string) error {
	station, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}
	if !station.Lifecycle.Restore() {
		return apperror.Conflict("station is not revoked")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.stationRepo.Update(txCtx, station); saveErr != nil {
			return fmt.Errorf("failed to restore station: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionRestore, "station", station.ID.String(), nil)
	})
}

func (s *stationService) Purge(ctx context.Context, principal model.Principal, id string) error {
	station, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}
	if !station.IsRevoked() {
		return apperror.Conflict("station must be revoked before purging")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.stationRepo.Purge(txCtx, station.ID); delErr != nil {
			return fmt.Errorf("failed to purge station: %w", delErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionPurge, "station", station.ID.String(), nil)
	})
}

func (s *stationService) findScoped(ctx context.Context, principal model.Principal, id string) (*model.Station, error) {
	stationID, err := uuid.Parse(id)
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
	if station.FacilityID != principal.FacilityID {
		return nil, apperror.NotFound("station")
	}

	return station, nil
}
