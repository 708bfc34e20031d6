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

type StoreRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

type AssignStoreUsersRequest struct {
	UserIDs []string `json:"user_ids" binding:"dive,uuid_param"`
}

type StoreService interface {
	Create(ctx context.Context, principal model.Principal, req StoreRequest) (*model.Store, error)
	Update(ctx context.Context, principal model.Principal, id string, req StoreRequest) (*model.Store, error)
	Get(ctx context.Context, principal model.Principal, id string) (*model.Store, error)
	List(ctx context.Context, principal model.Principal, offset, limit int) ([]model.Store, int64, error)
	AssignUsers(ctx context.Context, principal model.Principal, id string, req AssignStoreUsersRequest) (*model.Store, error)
	Revoke(ctx context.Context, principal model.Principal, id string) error
	Restore(ctx context.Context, principal model.Principal, id string) error
	Purge(ctx context.Context, principal model.Principal, id string) error
}

type storeService struct {
	storeRepo repository.StoreRepository
	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewStoreService(
	storeRepo repository.StoreRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) StoreService {
	return &storeService{storeRepo: storeRepo, userRepo: userRepo, auditRepo: auditRepo, txManager: txManager}
}

func (s *storeService) Create(ctx context.Context, principal model.Principal, req StoreRequest) (*model.Store, error) {
	store := &model.Store{
		FacilityID: principal.FacilityID,
		Name:       req.Name,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.storeRepo.Create(txCtx, store); createErr != nil {
			return fmt.Errorf("failed to create store: %w", createErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionCreate, "store", store.ID.String(), map[string]interface{}{
			"name": req.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	return store, nil
}

func (s *storeService) Update(ctx context.Context, principal model.Principal, id string, req StoreRequest) (*model.Store, error) {
	store, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	store.Name = req.Name

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.storeRepo.Update(txCtx, store); saveErr != nil {
			return fmt.Errorf("failed to update store: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionUpdate, "store", store.ID.String(), nil)
	})
	if err != nil {
		return nil, err
	}

	return store, nil
}

func (s *storeService) Get(ctx context.Context, principal model.Principal, id string) (*model.Store, error) {
	storeID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.NotFound("store")
	}

	store, err := s.storeRepo.FindByIDWithUsers(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("store")
		}
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	if store.FacilityID != principal.FacilityID {
		return nil, apperror.NotFound("store")
	}

	return store, nil
}

func (s *storeService) List(ctx context.Context, principal model.Principal, offset, limit int) ([]model.Store, int64, error) {
	return s.storeRepo.ListByFacility(ctx, principal.FacilityID, offset, limit)
}

// AssignUsers replaces the store's user assignment list. Every id must be an
// active user of the acting facility.
func (s *storeService) AssignUsers(ctx context.Context, principal model.Principal, id string, req AssignStoreUsersRequest) (*model.Store, error) {
	store, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(req.UserIDs))
	for _, raw := range req.UserIDs {
		userID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			return nil, apperror.NotFound("user")
		}
		user, findErr := s.userRepo.FindByID(ctx, userID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return nil, apperror.NotFound("user")
			}
			return nil, fmt.Errorf("failed to load user: %w", findErr)
		}
		if user.FacilityID != principal.FacilityID || !user.IsActive() {
			return nil, apperror.NotFound("user")
		}
		users = append(users, *user)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if replaceErr := s.storeRepo.ReplaceUsers(txCtx, store, users); replaceErr != nil {
			return fmt.Errorf("failed to assign store users: %w", replaceErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionAssignUsers, "store", store.ID.String(), map[string]interface{}{
			"user_count": len(users),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.storeRepo.FindByIDWithUsers(ctx, store.ID)
}

func (s *storeService) Revoke(ctx context.Context, principal model.Principal, id string) error {
	store, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}
	if !store.Lifecycle.Revoke() {
		return apperror.Conflict("store is already revoked")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.storeRepo.Update(txCtx, store); saveErr != nil {
			return fmt.Errorf("failed to revoke store: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionRevoke, "store", store.ID.String(), nil)
	})
}

func (s *storeService) Restore(ctx context.Context, principal model.Principal, id string) error {
	store, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}
	if !store.Lifecycle.Restore() {
		return apperror.Conflict("store is not revoked")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.storeRepo.Update(txCtx, store); saveErr != nil {
			return fmt.Errorf("failed to restore store: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionRestore, "store", store.ID.String(), nil)
	})
}

func (s *storeService) Purge(ctx context.Context, principal model.Principal, id string) error {
	store, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}
	if !store.IsRevoked() {
		return apperror.Conflict("store must be revoked before purging")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.storeRepo.Purge(txCtx, store.ID); delErr != nil {
			return fmt.Errorf("failed to purge store: %w", delErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionPurge, "store", store.ID.String(), nil)
	})
}

func (s *storeService) findScoped(ctx context.Context, principal model.Principal, id string) (*model.Store, error) {
	storeID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.NotFound("store")
	}

	store, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("store")
		}
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	if store.FacilityID != principal.FacilityID {
		return nil, apperror.NotFound("store")
	}

	return store, nil
}
