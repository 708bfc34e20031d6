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

type CreateFacilityRequest struct {
	Name    string `json:"name" binding:"required,max=255"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email" binding:"omitempty,email"`
}

type UpdateFacilityRequest struct {
	Name    string `json:"name" binding:"omitempty,max=255"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email" binding:"omitempty,email"`
}

type FacilityService interface {
	Create(ctx context.Context, principal model.Principal, req CreateFacilityRequest) (*model.Facility, error)
	Update(ctx context.Context, principal model.Principal, id string, req UpdateFacilityRequest) (*model.Facility, error)
	Get(ctx context.Context, id string) (*model.Facility, error)
	List(ctx context.Context, offset, limit int) ([]model.Facility, int64, error)
	Revoke(ctx context.Context, principal model.Principal, id string) error
	Restore(ctx context.Context, principal model.Principal, id string) error
	Purge(ctx context.Context, principal model.Principal, id string) error
}

type facilityService struct {
	facilityRepo repository.FacilityRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewFacilityService(
	facilityRepo repository.FacilityRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) FacilityService {
	return &facilityService{facilityRepo: facilityRepo, auditRepo: auditRepo, txManager: txManager}
}

func (s *facilityService) Create(ctx context.Context, principal model.Principal, req CreateFacilityRequest) (*model.Facility, error) {
	facility := &model.Facility{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.facilityRepo.Create(txCtx, facility); createErr != nil {
			return fmt.Errorf("failed to create facility: %w", createErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionCreate, "facility", facility.ID.String(), map[string]interface{}{
			"name": req.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	return facility, nil
}

func (s *facilityService) Update(ctx context.Context, principal model.Principal, id string, req UpdateFacilityRequest) (*model.Facility, error) {
	facility, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		facility.Name = req.Name
	}
	if req.Address != "" {
		facility.Address = req.Address
	}
	if req.Phone != "" {
		facility.Phone = req.Phone
	}
	if req.Email != "" {
		facility.Email = req.Email
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.facilityRepo.Update(txCtx, facility); saveErr != nil {
			return fmt.Errorf("failed to update facility: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionUpdate, "facility", facility.ID.String(), map[string]interface{}{
			"name": facility.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	return facility, nil
}

func (s *facilityService) Get(ctx context.Context, id string) (*model.Facility, error) {
	return s.find(ctx, id)
}

func (s *facilityService) List(ctx context.Context, offset, limit int) ([]model.Facility, int64, error) {
	return s.facilityRepo.List(ctx, offset, limit)
}

func (s *facilityService) Revoke(ctx context.Context, principal model.Principal, id string) error {
	facility, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !facility.Lifecycle.Revoke() {
		return apperror.Conflict("facility is already revoked")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.facilityRepo.Update(txCtx, facility); saveErr != nil {
			return fmt.Errorf("failed to revoke facility: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionRevoke, "facility", facility.ID.String(), nil)
	})
}

func (s *facilityService) Restore(ctx context.Context, principal model.Principal, id string) error {
	facility, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !facility.Lifecycle.Restore() {
		return apperror.Conflict("facility is not revoked")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.facilityRepo.Update(txCtx, facility); saveErr != nil {
			return fmt.Errorf("failed to restore facility: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionRestore, "facility", facility.ID.String(), nil)
	})
}

func (s *facilityService) Purge(ctx context.Context, principal model.Principal, id string) error {
	facility, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !facility.IsRevoked() {
		return apperror.Conflict("facility must be revoked before purging")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.facilityRepo.Purge(txCtx, facility.ID); delErr != nil {
			return fmt.Errorf("failed to purge facility: %w", delErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionPurge, "facility", facility.ID.String(), nil)
	})
}

func (s *facilityService) find(ctx context.Context, id string) (*model.Facility, error) {
	facilityID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.NotFound("facility")
	}

	facility, err := s.facilityRepo.FindByID(ctx, facilityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("facility")
		}
		return nil, fmt.Errorf("failed to load facility: %w", err)
	}

	return facility, nil
}
