package service

import (
	"context"
	"errors"
	"testing"

	"pharmacare/internal/model"
	"pharmacare/internal/repository"
	"pharmacare/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type roleFixture struct {
	db        *gorm.DB
	svc       RoleService
	gate      Gate
	roleRepo  repository.RoleRepository
	principal model.Principal
	facility  *model.Facility
}

func newRoleFixture(t *testing.T) *roleFixture {
	t.Helper()

	db := newTestDB(t)
	roleRepo := repository.NewRoleRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)
	gate := NewGate(roleRepo)

	facility := &model.Facility{Name: "Role Clinic"}
	require.NoError(t, db.Create(facility).Error)

	return &roleFixture{
		db:        db,
		svc:       NewRoleService(roleRepo, auditRepo, txManager, gate),
		gate:      gate,
		roleRepo:  roleRepo,
		principal: model.Principal{UserID: uuid.New(), FacilityID: facility.ID},
		facility:  facility,
	}
}

func (f *roleFixture) seedPermission(t *testing.T, moduleName, action string) model.Permission {
	t.Helper()
	perm := model.Permission{ModuleName: moduleName, Name: action, Label: moduleName + " " + action}
	require.NoError(t, f.roleRepo.FindOrCreatePermission(context.Background(), &perm))
	return perm
}

func TestSetPermissionsReplacesSetAndInvalidatesGate(t *testing.T) {
	f := newRoleFixture(t)
	ctx := context.Background()

	role, err := f.svc.Create(ctx, f.principal, CreateRoleRequest{Name: "dispenser"})
	require.NoError(t, err)

	view := f.seedPermission(t, ModulePharmInv, ActionView)
	sell := f.seedPermission(t, ModulePharmSales, ActionCreate)

	_, err = f.svc.SetPermissions(ctx, f.principal, role.ID.String(), SetRolePermissionsRequest{
		PermissionIDs: []string{view.ID.String(), sell.ID.String()},
	})
	require.NoError(t, err)

	member := model.Principal{UserID: uuid.New(), FacilityID: f.facility.ID, RoleID: &role.ID}
	allowed, err := f.gate.Allows(ctx, member, ModulePharmSales, ActionCreate)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Replace with a smaller set; the gate must reflect it immediately.
	_, err = f.svc.SetPermissions(ctx, f.principal, role.ID.String(), SetRolePermissionsRequest{
		PermissionIDs: []string{view.ID.String()},
	})
	require.NoError(t, err)

	allowed, err = f.gate.Allows(ctx, member, ModulePharmSales, ActionCreate)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestSetPermissionsUnknownIDReportsNotFound(t *testing.T) {
	f := newRoleFixture(t)
	ctx := context.Background()

	role, err := f.svc.Create(ctx, f.principal, CreateRoleRequest{Name: "dispenser"})
	require.NoError(t, err)

	_, err = f.svc.SetPermissions(ctx, f.principal, role.ID.String(), SetRolePermissionsRequest{
		PermissionIDs: []string{uuid.NewString()},
	})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestSystemRolesAreProtected(t *testing.T) {
	f := newRoleFixture(t)
	ctx := context.Background()

	system := &model.Role{FacilityID: f.facility.ID, Name: "admin", IsSystem: true}
	require.NoError(t, f.roleRepo.Create(ctx, system))

	_, err := f.svc.Update(ctx, f.principal, system.ID.String(), UpdateRoleRequest{Name: "renamed"})
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	err = f.svc.Revoke(ctx, f.principal, system.ID.String())
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestRoleScopedToFacility(t *testing.T) {
	f := newRoleFixture(t)
	ctx := context.Background()

	otherFacility := &model.Facility{Name: "Other Clinic"}
	require.NoError(t, f.db.Create(otherFacility).Error)
	foreign := &model.Role{FacilityID: otherFacility.ID, Name: "clerk"}
	require.NoError(t, f.roleRepo.Create(ctx, foreign))

	_, err := f.svc.Get(ctx, f.principal, foreign.ID.String())
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	roles, err := f.svc.List(ctx, f.principal)
	require.NoError(t, err)
	assert.Empty(t, roles)
}
