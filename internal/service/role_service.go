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

type CreateRoleRequest struct {
	Name        string `json:"name" binding:"required,max=50"`
	Description string `json:"description"`
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"omitempty,max=50"`
	Description string `json:"description"`
}

type SetRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"dive,uuid_param"`
}

type RoleService interface {
	Create(ctx context.Context, principal model.Principal, req CreateRoleRequest) (*model.Role, error)
	Update(ctx context.Context, principal model.Principal, id string, req UpdateRoleRequest) (*model.Role, error)
	Get(ctx context.Context, principal model.Principal, id string) (*model.Role, error)
	List(ctx context.Context, principal model.Principal) ([]model.Role, error)
	SetPermissions(ctx context.Context, principal model.Principal, id string, req SetRolePermissionsRequest) (*model.Role, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	Revoke(ctx context.Context, principal model.Principal, id string) error
	Restore(ctx context.Context, principal model.Principal, id string) error
	Purge(ctx context.Context, principal model.Principal, id string) error
}

type roleService struct {
	roleRepo  repository.RoleRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	gate      Gate
}

func NewRoleService(
	roleRepo repository.RoleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	gate Gate,
) RoleService {
	return &roleService{roleRepo: roleRepo, auditRepo: auditRepo, txManager: txManager, gate: gate}
}

func (s *roleService) Create(ctx context.Context, principal model.Principal, req CreateRoleRequest) (*model.Role, error) {
	role := &model.Role{
		FacilityID:  principal.FacilityID,
		Name:        req.Name,
		Description: req.Description,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.roleRepo.Create(txCtx, role); createErr != nil {
			return fmt.Errorf("failed to create role: %w", createErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionCreate, "role", role.ID.String(), map[string]interface{}{
			"name": req.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	return role, nil
}

func (s *roleService) Update(ctx context.Context, principal model.Principal, id string, req UpdateRoleRequest) (*model.Role, error) {
	role, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if role.IsSystem {
		return nil, apperror.Conflict("system roles cannot be modified")
	}

	if req.Name != "" {
		role.Name = req.Name
	}
	if req.Description != "" {
		role.Description = req.Description
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.roleRepo.Update(txCtx, role); saveErr != nil {
			return fmt.Errorf("failed to update role: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionUpdate, "role", role.ID.String(), map[string]interface{}{
			"name": role.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	return role, nil
}

func (s *roleService) Get(ctx context.Context, principal model.Principal, id string) (*model.Role, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.NotFound("role")
	}

	role, err := s.roleRepo.FindByIDWithPermissions(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("role")
		}
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	if role.FacilityID != principal.FacilityID {
		return nil, apperror.NotFound("role")
	}

	return role, nil
}

func (s *roleService) List(ctx context.Context, principal model.Principal) ([]model.Role, error) {
	return s.roleRepo.ListByFacility(ctx, principal.FacilityID)
}

// SetPermissions replaces the role's permission set wholesale and drops any
// cached authorization state for the role.
func (s *roleService) SetPermissions(ctx context.Context, principal model.Principal, id string, req SetRolePermissionsRequest) (*model.Role, error) {
	role, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(req.PermissionIDs))
	for _, raw := range req.PermissionIDs {
		permID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			return nil, apperror.NotFound("permission")
		}
		ids = append(ids, permID)
	}

	perms, err := s.roleRepo.FindPermissionsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}
	if len(perms) != len(ids) {
		return nil, apperror.NotFound("permission")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if len(perms) == 0 {
			if clearErr := s.roleRepo.ClearPermissions(txCtx, role); clearErr != nil {
				return fmt.Errorf("failed to clear role permissions: %w", clearErr)
			}
		} else if replaceErr := s.roleRepo.ReplacePermissions(txCtx, role, perms); replaceErr != nil {
			return fmt.Errorf("failed to replace role permissions: %w", replaceErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionSetPerms, "role", role.ID.String(), map[string]interface{}{
			"permission_count": len(perms),
		})
	})
	if err != nil {
		return nil, err
	}

	s.gate.InvalidateRole(role.ID)
	role.Permissions = perms

	return role, nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	return s.roleRepo.ListPermissions(ctx)
}

func (s *roleService) Revoke(ctx context.Context, principal model.Principal, id string) error {
	role, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return apperror.Conflict("system roles cannot be revoked")
	}
	if !role.Lifecycle.Revoke() {
		return apperror.Conflict("role is already revoked")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.roleRepo.Update(txCtx, role); saveErr != nil {
			return fmt.Errorf("failed to revoke role: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionRevoke, "role", role.ID.String(), nil)
	})
	if err != nil {
		return err
	}

	s.gate.InvalidateRole(role.ID)
	return nil
}

func (s *roleService) Restore(ctx context.Context, principal model.Principal, id string) error {
	role, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}
	if !role.Lifecycle.Restore() {
		return apperror.Conflict("role is not revoked")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.roleRepo.Update(txCtx, role); saveErr != nil {
			return fmt.Errorf("failed to restore role: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionRestore, "role", role.ID.String(), nil)
	})
	if err != nil {
		return err
	}

	s.gate.InvalidateRole(role.ID)
	return nil
}

func (s *roleService) Purge(ctx context.Context, principal model.Principal, id string) error {
	role, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return apperror.Conflict("system roles cannot be purged")
	}
	if !role.IsRevoked() {
		return apperror.Conflict("role must be revoked before purging")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if clearErr := s.roleRepo.ClearPermissions(txCtx, role); clearErr != nil {
			return fmt.Errorf("failed to clear role permissions: %w", clearErr)
		}
		if delErr := s.roleRepo.Purge(txCtx, role.ID); delErr != nil {
			return fmt.Errorf("failed to purge role: %w", delErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionPurge, "role", role.ID.String(), nil)
	})
	if err != nil {
		return err
	}

	s.gate.InvalidateRole(role.ID)
	return nil
}

func (s *roleService) findScoped(ctx context.Context, principal model.Principal, id string) (*model.Role, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.NotFound("role")
	}

	role, err := s.roleRepo.FindByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("role")
		}
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	if role.FacilityID != principal.FacilityID {
		return nil, apperror.NotFound("role")
	}

	return role, nil
}
