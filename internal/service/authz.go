package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pharmacare/internal/model"
	"pharmacare/internal/repository"

	"github.com/google/uuid"
)

// Module names used to scope permissions.
const (
	ModuleFacilities    = "facilities"
	ModuleUsers         = "users"
	ModuleRoles         = "roles"
	ModulePatients      = "patients"
	ModuleVisits        = "visits"
	ModuleStations      = "stations"
	ModulePharmStores   = "pharm-stores"
	ModulePharmProducts = "pharm-products"
	ModulePharmInv      = "pharm-inventory"
	ModulePharmPurch    = "pharm-purchases"
	ModulePharmSales    = "pharm-sales"
	ModuleAudit         = "audit"
)

// Permission action names. Replacing a role's permission set is its own
// action rather than a flavor of update, so the self-access carve-out
// (which covers view/update only) can never reach it.
const (
	ActionView           = "view"
	ActionCreate         = "create"
	ActionUpdate         = "update"
	ActionRevoke         = "revoke"
	ActionRestore        = "restore"
	ActionPurge          = "purge"
	ActionSetPermissions = "set-permissions"
)

// Gate is the authorization policy lookup: given a principal and a
// (module, action) pair it answers allow or deny. Denial is a normal
// outcome, not an error; errors mean the lookup itself failed.
type Gate interface {
	Allows(ctx context.Context, principal model.Principal, moduleName, action string) (bool, error)
	SelfAccess(principal model.Principal, moduleName, action string, resourceID uuid.UUID) bool
	PermissionCodes(ctx context.Context, principal model.Principal) ([]string, error)
	InvalidateRole(roleID uuid.UUID)
}

type permCacheEntry struct {
	keys      map[string]struct{} // "module\x00action"
	codes     []string
	expiresAt time.Time
}

type gate struct {
	roleRepo repository.RoleRepository
	cache    sync.Map // roleID -> permCacheEntry
	ttl      time.Duration
}

// NewGate builds a Gate backed by the role repository with a short-lived
// per-role permission snapshot cache.
func NewGate(roleRepo repository.RoleRepository) Gate {
	return &gate{roleRepo: roleRepo, ttl: 5 * time.Minute}
}

func permKey(moduleName, action string) string {
	return moduleName + "\x00" + action
}

// Allows checks exact (module, action) membership in the principal's role
// permission set. A principal without a role is denied, never errored.
func (g *gate) Allows(ctx context.Context, principal model.Principal, moduleName, action string) (bool, error) {
	if principal.RoleID == nil {
		return false, nil
	}

	entry, err := g.load(ctx, *principal.RoleID)
	if err != nil {
		return false, err
	}

	_, ok := entry.keys[permKey(moduleName, action)]
	return ok, nil
}

// SelfAccess is the carve-out evaluated before the permission lookup: a
// principal may always view or update their own user, role, and facility
// records.
func (g *gate) SelfAccess(principal model.Principal, moduleName, action string, resourceID uuid.UUID) bool {
	if action != ActionView && action != ActionUpdate {
		return false
	}

	switch moduleName {
	case ModuleUsers:
		return resourceID == principal.UserID
	case ModuleRoles:
		return principal.RoleID != nil && resourceID == *principal.RoleID
	case ModuleFacilities:
		return resourceID == principal.FacilityID
	}
	return false
}

// PermissionCodes returns the principal's effective permission codes in
// "module.action" form. Used by /auth/me.
func (g *gate) PermissionCodes(ctx context.Context, principal model.Principal) ([]string, error) {
	if principal.RoleID == nil {
		return []string{}, nil
	}

	entry, err := g.load(ctx, *principal.RoleID)
	if err != nil {
		return nil, err
	}
	return entry.codes, nil
}

// InvalidateRole drops the cached snapshot for a role. Called whenever a
// role's permission set changes.
func (g *gate) InvalidateRole(roleID uuid.UUID) {
	g.cache.Delete(roleID)
}

func (g *gate) load(ctx context.Context, roleID uuid.UUID) (permCacheEntry, error) {
	if cached, ok := g.cache.Load(roleID); ok {
		entry := cached.(permCacheEntry)
		if time.Now().Before(entry.expiresAt) {
			return entry, nil
		}
	}

	perms, err := g.roleRepo.PermissionsForRole(ctx, roleID)
	if err != nil {
		return permCacheEntry{}, fmt.Errorf("failed to load permissions for role %s: %w", roleID, err)
	}

	entry := permCacheEntry{
		keys:      make(map[string]struct{}, len(perms)),
		codes:     make([]string, 0, len(perms)),
		expiresAt: time.Now().Add(g.ttl),
	}
	for _, p := range perms {
		entry.keys[permKey(p.ModuleName, p.Name)] = struct{}{}
		entry.codes = append(entry.codes, p.Code())
	}

	g.cache.Store(roleID, entry)
	return entry, nil
}
