package repository

import (
	"context"

	"pharmacare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	Update(ctx context.Context, role *model.Role) error
	Purge(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	FindByIDWithPermissions(ctx context.Context, id uuid.UUID) (*model.Role, error)
	ListByFacility(ctx context.Context, facilityID uuid.UUID) ([]model.Role, error)
	PermissionsForRole(ctx context.Context, roleID uuid.UUID) ([]model.Permission, error)
	ReplacePermissions(ctx context.Context, role *model.Role, perms []model.Permission) error
	ClearPermissions(ctx context.Context, role *model.Role) error
	FindPermissionsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Permission, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	FindOrCreatePermission(ctx context.Context, perm *model.Permission) error
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Create(role).Error
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Save(role).Error
}

func (r *roleRepository) Purge(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Role{}).Error
}

func (r *roleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByIDWithPermissions(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) ListByFacility(ctx context.Context, facilityID uuid.UUID) ([]model.Role, error) {
	var roles []model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").
		Where("facility_id = ?", facilityID).
		Order("name asc").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// PermissionsForRole returns the role's permission set without loading the
// role row itself. Used by the authorization gate on every check. A revoked
// role grants nothing, so the join filters on the role's lifecycle status.
func (r *roleRepository) PermissionsForRole(ctx context.Context, roleID uuid.UUID) ([]model.Permission, error) {
	var perms []model.Permission
	err := GetDB(ctx, r.db).
		Joins("INNER JOIN role_permissions rp ON rp.permission_id = permissions.id").
		Joins("INNER JOIN roles r ON r.id = rp.role_id AND r.status = ?", model.StatusActive).
		Where("rp.role_id = ?", roleID).
		Find(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *roleRepository) ReplacePermissions(ctx context.Context, role *model.Role, perms []model.Permission) error {
	return GetDB(ctx, r.db).Model(role).Association("Permissions").Replace(perms)
}

func (r *roleRepository) ClearPermissions(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Model(role).Association("Permissions").Clear()
}

func (r *roleRepository) FindPermissionsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *roleRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Order("module_name asc, name asc").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *roleRepository) FindOrCreatePermission(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).
		Where("module_name = ? AND name = ?", perm.ModuleName, perm.Name).
		FirstOrCreate(perm).Error
}
