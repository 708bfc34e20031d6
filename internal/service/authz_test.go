package service

import (
	"context"
	"testing"

	"pharmacare/internal/model"
	"pharmacare/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type gateFixture struct {
	db       *gorm.DB
	gate     Gate
	roleRepo repository.RoleRepository
	facility *model.Facility
	role     *model.Role
}

func newGateFixture(t *testing.T, perms ...model.Permission) *gateFixture {
	t.Helper()

	db := newTestDB(t)
	ctx := context.Background()
	roleRepo := repository.NewRoleRepository(db)

	facility := &model.Facility{Name: "Gate Clinic"}
	require.NoError(t, db.Create(facility).Error)

	role := &model.Role{FacilityID: facility.ID, Name: "clerk"}
	require.NoError(t, roleRepo.Create(ctx, role))

	for i := range perms {
		require.NoError(t, roleRepo.FindOrCreatePermission(ctx, &perms[i]))
	}
	if len(perms) > 0 {
		require.NoError(t, roleRepo.ReplacePermissions(ctx, role, perms))
	}

	return &gateFixture{db: db, gate: NewGate(roleRepo), roleRepo: roleRepo, facility: facility, role: role}
}

func (f *gateFixture) principal() model.Principal {
	return model.Principal{UserID: uuid.New(), FacilityID: f.facility.ID, RoleID: &f.role.ID}
}

func TestGateDeniesPrincipalWithoutRole(t *testing.T) {
	f := newGateFixture(t)

	allowed, err := f.gate.Allows(context.Background(), model.Principal{UserID: uuid.New(), FacilityID: f.facility.ID}, ModulePatients, ActionView)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestGateExactPermissionMatch(t *testing.T) {
	f := newGateFixture(t,
		model.Permission{ModuleName: ModulePatients, Name: ActionView, Label: "View patients"},
	)
	ctx := context.Background()
	principal := f.principal()

	allowed, err := f.gate.Allows(ctx, principal, ModulePatients, ActionView)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Same module, different action.
	allowed, err = f.gate.Allows(ctx, principal, ModulePatients, ActionCreate)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Same action, different module.
	allowed, err = f.gate.Allows(ctx, principal, ModuleVisits, ActionView)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestGateSelfAccess(t *testing.T) {
	f := newGateFixture(t)
	principal := f.principal()

	assert.True(t, f.gate.SelfAccess(principal, ModuleUsers, ActionView, principal.UserID))
	assert.True(t, f.gate.SelfAccess(principal, ModuleUsers, ActionUpdate, principal.UserID))
	assert.True(t, f.gate.SelfAccess(principal, ModuleRoles, ActionView, *principal.RoleID))
	assert.True(t, f.gate.SelfAccess(principal, ModuleFacilities, ActionView, principal.FacilityID))

	// Never for other records, destructive actions, or other modules.
	assert.False(t, f.gate.SelfAccess(principal, ModuleUsers, ActionView, uuid.New()))
	assert.False(t, f.gate.SelfAccess(principal, ModuleUsers, ActionRevoke, principal.UserID))
	assert.False(t, f.gate.SelfAccess(principal, ModulePatients, ActionView, principal.UserID))

	// Replacing the own role's permission set is never self-access.
	assert.False(t, f.gate.SelfAccess(principal, ModuleRoles, ActionSetPermissions, *principal.RoleID))
}

func TestGatePermissionCodes(t *testing.T) {
	f := newGateFixture(t,
		model.Permission{ModuleName: ModulePharmSales, Name: ActionCreate, Label: "Record sales"},
		model.Permission{ModuleName: ModulePharmInv, Name: ActionView, Label: "View stock"},
	)

	codes, err := f.gate.PermissionCodes(context.Background(), f.principal())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"pharm-sales.create", "pharm-inventory.view"}, codes)
}

func TestGateDeniesRevokedRole(t *testing.T) {
	f := newGateFixture(t,
		model.Permission{ModuleName: ModulePatients, Name: ActionView, Label: "View patients"},
	)
	ctx := context.Background()
	principal := f.principal()

	allowed, err := f.gate.Allows(ctx, principal, ModulePatients, ActionView)
	require.NoError(t, err)
	require.True(t, allowed)

	require.True(t, f.role.Lifecycle.Revoke())
	require.NoError(t, f.roleRepo.Update(ctx, f.role))
	f.gate.InvalidateRole(f.role.ID)

	allowed, err = f.gate.Allows(ctx, principal, ModulePatients, ActionView)
	require.NoError(t, err)
	assert.False(t, allowed, "a revoked role must grant nothing")
}

func TestGateInvalidateRoleDropsCachedSnapshot(t *testing.T) {
	f := newGateFixture(t,
		model.Permission{ModuleName: ModulePatients, Name: ActionView, Label: "View patients"},
	)
	ctx := context.Background()
	principal := f.principal()

	allowed, err := f.gate.Allows(ctx, principal, ModulePatients, ActionView)
	require.NoError(t, err)
	require.True(t, allowed)

	// Strip the role's permissions; the cached snapshot still allows until
	// invalidated.
	require.NoError(t, f.roleRepo.ClearPermissions(ctx, f.role))

	allowed, err = f.gate.Allows(ctx, principal, ModulePatients, ActionView)
	require.NoError(t, err)
	assert.True(t, allowed, "snapshot should still be cached")

	f.gate.InvalidateRole(f.role.ID)

	allowed, err = f.gate.Allows(ctx, principal, ModulePatients, ActionView)
	require.NoError(t, err)
	assert.False(t, allowed)
}
