package service

import (
	"context"
	"fmt"

	"pharmacare/internal/model"
	"pharmacare/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// permissionCatalog enumerates every (module, action) pair the system grants.
// Seeding is idempotent; rerunning on an already seeded database is a no-op.
var permissionCatalog = []model.Permission{
	{ModuleName: ModuleFacilities, Name: ActionView, Label: "View facilities"},
	{ModuleName: ModuleFacilities, Name: ActionCreate, Label: "Create facilities"},
	{ModuleName: ModuleFacilities, Name: ActionUpdate, Label: "Update facilities"},
	{ModuleName: ModuleFacilities, Name: ActionRevoke, Label: "Revoke facilities"},
	{ModuleName: ModuleFacilities, Name: ActionRestore, Label: "Restore facilities"},
	{ModuleName: ModuleFacilities, Name: ActionPurge, Label: "Purge facilities"},

	{ModuleName: ModuleUsers, Name: ActionView, Label: "View users"},
	{ModuleName: ModuleUsers, Name: ActionCreate, Label: "Create users"},
	{ModuleName: ModuleUsers, Name: ActionUpdate, Label: "Update users"},
	{ModuleName: ModuleUsers, Name: ActionRevoke, Label: "Revoke users"},
	{ModuleName: ModuleUsers, Name: ActionRestore, Label: "Restore users"},
	{ModuleName: ModuleUsers, Name: ActionPurge, Label: "Purge users"},

	{ModuleName: ModuleRoles, Name: ActionView, Label: "View roles"},
	{ModuleName: ModuleRoles, Name: ActionCreate, Label: "Create roles"},
	{ModuleName: ModuleRoles, Name: ActionUpdate, Label: "Update roles"},
	{ModuleName: ModuleRoles, Name: ActionRevoke, Label: "Revoke roles"},
	{ModuleName: ModuleRoles, Name: ActionRestore, Label: "Restore roles"},
	{ModuleName: ModuleRoles, Name: ActionPurge, Label: "Purge roles"},
	{ModuleName: ModuleRoles, Name: ActionSetPermissions, Label: "Set role permissions"},

	{ModuleName: ModulePatients, Name: ActionView, Label: "View patients"},
	{ModuleName: ModulePatients, Name: ActionCreate, Label: "Register patients"},
	{ModuleName: ModulePatients, Name: ActionUpdate, Label: "Update patients"},
	{ModuleName: ModulePatients, Name: ActionRevoke, Label: "Revoke patients"},
	{ModuleName: ModulePatients, Name: ActionRestore, Label: "Restore patients"},
	{ModuleName: ModulePatients, Name: ActionPurge, Label: "Purge patients"},

	{ModuleName: ModuleVisits, Name: ActionView, Label: "View visits"},
	{ModuleName: ModuleVisits, Name: ActionCreate, Label: "Open visits"},
	{ModuleName: ModuleVisits, Name: ActionUpdate, Label: "Update visits"},
	{ModuleName: ModuleVisits, Name: ActionRevoke, Label: "Revoke visits"},
	{ModuleName: ModuleVisits, Name: ActionRestore, Label: "Restore visits"},
	{ModuleName: ModuleVisits, Name: ActionPurge, Label: "Purge visits"},

	{ModuleName: ModuleStations, Name: ActionView, Label: "View stations"},
	{ModuleName: ModuleStations, Name: ActionCreate, Label: "Create stations"},
	{ModuleName: ModuleStations, Name: ActionUpdate, Label: "Update stations"},
	{ModuleName: ModuleStations, Name: ActionRevoke, Label: "Revoke stations"},
	{ModuleName: ModuleStations, Name: ActionRestore, Label: "Restore stations"},
	{ModuleName: ModuleStations, Name: ActionPurge, Label: "Purge stations"},

	{ModuleName: ModulePharmStores, Name: ActionView, Label: "View pharmacy stores"},
	{ModuleName: ModulePharmStores, Name: ActionCreate, Label: "Create pharmacy stores"},
	{ModuleName: ModulePharmStores, Name: ActionUpdate, Label: "Update pharmacy stores"},
	{ModuleName: ModulePharmStores, Name: ActionRevoke, Label: "Revoke pharmacy stores"},
	{ModuleName: ModulePharmStores, Name: ActionRestore, Label: "Restore pharmacy stores"},
	{ModuleName: ModulePharmStores, Name: ActionPurge, Label: "Purge pharmacy stores"},

	{ModuleName: ModulePharmProducts, Name: ActionView, Label: "View pharmacy products"},
	{ModuleName: ModulePharmProducts, Name: ActionCreate, Label: "Create pharmacy products"},
	{ModuleName: ModulePharmProducts, Name: ActionUpdate, Label: "Update pharmacy products"},
	{ModuleName: ModulePharmProducts, Name: ActionRevoke, Label: "Revoke pharmacy products"},
	{ModuleName: ModulePharmProducts, Name: ActionRestore, Label: "Restore pharmacy products"},
	{ModuleName: ModulePharmProducts, Name: ActionPurge, Label: "Purge pharmacy products"},

	{ModuleName: ModulePharmInv, Name: ActionView, Label: "View stock levels and movements"},

	{ModuleName: ModulePharmPurch, Name: ActionView, Label: "View purchases"},
	{ModuleName: ModulePharmPurch, Name: ActionCreate, Label: "Record purchases"},

	{ModuleName: ModulePharmSales, Name: ActionView, Label: "View sales"},
	{ModuleName: ModulePharmSales, Name: ActionCreate, Label: "Record sales"},

	{ModuleName: ModuleAudit, Name: ActionView, Label: "View audit log"},
}

// Seeder provisions the permission catalog and, on an empty database, a
// default facility with an administrator account.
type Seeder struct {
	facilityRepo repository.FacilityRepository
	roleRepo     repository.RoleRepository
	userRepo     repository.UserRepository
	txManager    repository.TransactionManager
}

func NewSeeder(
	facilityRepo repository.FacilityRepository,
	roleRepo repository.RoleRepository,
	userRepo repository.UserRepository,
	txManager repository.TransactionManager,
) *Seeder {
	return &Seeder{facilityRepo: facilityRepo, roleRepo: roleRepo, userRepo: userRepo, txManager: txManager}
}

func (s *Seeder) Run(ctx context.Context, adminEmail, adminPassword string) error {
	perms := make([]model.Permission, len(permissionCatalog))
	copy(perms, permissionCatalog)
	for i := range perms {
		if err := s.roleRepo.FindOrCreatePermission(ctx, &perms[i]); err != nil {
			return fmt.Errorf("failed to seed permission %q: %w", perms[i].Code(), err)
		}
	}

	_, total, err := s.facilityRepo.List(ctx, 0, 1)
	if err != nil {
		return fmt.Errorf("failed to check existing facilities: %w", err)
	}
	if total > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		facility := &model.Facility{Name: "Main Facility"}
		if err := s.facilityRepo.Create(txCtx, facility); err != nil {
			return fmt.Errorf("failed to seed facility: %w", err)
		}

		role := &model.Role{
			FacilityID:  facility.ID,
			Name:        "admin",
			Description: "Administrator with every permission",
			IsSystem:    true,
		}
		if err := s.roleRepo.Create(txCtx, role); err != nil {
			return fmt.Errorf("failed to seed admin role: %w", err)
		}
		if err := s.roleRepo.ReplacePermissions(txCtx, role, perms); err != nil {
			return fmt.Errorf("failed to grant admin permissions: %w", err)
		}

		admin := &model.User{
			FacilityID: facility.ID,
			RoleID:     &role.ID,
			Username:   "admin",
			Email:      adminEmail,
			Password:   string(hashed),
		}
		if err := s.userRepo.Create(txCtx, admin); err != nil {
			return fmt.Errorf("failed to seed admin user: %w", err)
		}

		return nil
	})
}
