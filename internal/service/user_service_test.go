package service

import (
	"context"
	"errors"
	"testing"

	"pharmacare/internal/model"
	"pharmacare/internal/repository"
	"pharmacare/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type userFixture struct {
	db        *gorm.DB
	svc       UserService
	userRepo  repository.UserRepository
	roleRepo  repository.RoleRepository
	principal model.Principal
	facility  *model.Facility
	admin     *model.User
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()

	db := newTestDB(t)
	ctx := context.Background()

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)
	gate := NewGate(roleRepo)

	facility := &model.Facility{Name: "User Clinic"}
	require.NoError(t, db.Create(facility).Error)

	hashed, err := bcrypt.GenerateFromPassword([]byte("s3cret99"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &model.User{
		FacilityID: facility.ID,
		Username:   "admin",
		Email:      "admin@example.com",
		Password:   string(hashed),
	}
	require.NoError(t, userRepo.Create(ctx, admin))

	svc := NewUserService(userRepo, roleRepo, auditRepo, txManager, gate, []byte("test-secret"))

	return &userFixture{
		db:        db,
		svc:       svc,
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		principal: model.Principal{UserID: admin.ID, FacilityID: facility.ID},
		facility:  facility,
		admin:     admin,
	}
}

func TestLoginIssuesTokenWithPrincipalClaims(t *testing.T) {
	f := newUserFixture(t)

	result, err := f.svc.Login(context.Background(), LoginRequest{Email: "admin@example.com", Password: "s3cret99"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	assert.Equal(t, f.admin.ID, result.User.ID)

	token, err := jwt.Parse(result.Token, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, f.admin.ID.String(), claims["sub"])
	assert.Equal(t, f.facility.ID.String(), claims["facility_id"])
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "admin@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
}

func TestLoginRejectsRevokedUser(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	f.admin.Lifecycle.Revoke()
	require.NoError(t, f.userRepo.Update(ctx, f.admin))

	_, err := f.svc.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "s3cret99"})
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.principal, CreateUserRequest{
		Username: "nurse", Email: "nurse@example.com", Password: "pass1234",
	})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.principal, CreateUserRequest{
		Username: "nurse", Email: "other@example.com", Password: "pass1234",
	})
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	_, err = f.svc.Create(ctx, f.principal, CreateUserRequest{
		Username: "nurse2", Email: "nurse@example.com", Password: "pass1234",
	})
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestCreateUserRejectsRoleFromAnotherFacility(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	otherFacility := &model.Facility{Name: "Somewhere Else"}
	require.NoError(t, f.db.Create(otherFacility).Error)
	foreignRole := &model.Role{FacilityID: otherFacility.ID, Name: "clerk"}
	require.NoError(t, f.roleRepo.Create(ctx, foreignRole))

	_, err := f.svc.Create(ctx, f.principal, CreateUserRequest{
		Username: "nurse", Email: "nurse@example.com", Password: "pass1234",
		RoleID: foreignRole.ID.String(),
	})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestUpdateRejectsSelfRoleAssignmentWithoutPermission(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	adminRole := &model.Role{FacilityID: f.facility.ID, Name: "admin"}
	require.NoError(t, f.roleRepo.Create(ctx, adminRole))

	// The principal has no role, so no users.update permission. Reaching the
	// update path via self-access must not let them pick a role.
	_, err := f.svc.Update(ctx, f.principal, f.admin.ID.String(), UpdateUserRequest{
		RoleID: adminRole.ID.String(),
	})
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	reloaded, err := f.userRepo.FindByID(ctx, f.admin.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.RoleID)
}

func TestUpdateAssignsRoleWithPermission(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	managerRole := &model.Role{FacilityID: f.facility.ID, Name: "manager"}
	require.NoError(t, f.roleRepo.Create(ctx, managerRole))
	perm := model.Permission{ModuleName: ModuleUsers, Name: ActionUpdate, Label: "Update users"}
	require.NoError(t, f.roleRepo.FindOrCreatePermission(ctx, &perm))
	require.NoError(t, f.roleRepo.ReplacePermissions(ctx, managerRole, []model.Permission{perm}))

	manager := model.Principal{UserID: f.admin.ID, FacilityID: f.facility.ID, RoleID: &managerRole.ID}

	nurseRole := &model.Role{FacilityID: f.facility.ID, Name: "nurse"}
	require.NoError(t, f.roleRepo.Create(ctx, nurseRole))

	user, err := f.svc.Create(ctx, manager, CreateUserRequest{
		Username: "nurse", Email: "nurse@example.com", Password: "pass1234",
	})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, manager, user.ID.String(), UpdateUserRequest{
		RoleID: nurseRole.ID.String(),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.RoleID)
	assert.Equal(t, nurseRole.ID, *updated.RoleID)
}

func TestUserLifecycleTransitions(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	user, err := f.svc.Create(ctx, f.principal, CreateUserRequest{
		Username: "nurse", Email: "nurse@example.com", Password: "pass1234",
	})
	require.NoError(t, err)
	id := user.ID.String()

	// Purge requires a prior revoke.
	err = f.svc.Purge(ctx, f.principal, id)
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	require.NoError(t, f.svc.Revoke(ctx, f.principal, id))
	err = f.svc.Revoke(ctx, f.principal, id)
	assert.True(t, errors.Is(err, apperror.ErrConflict), "revoke is not idempotent")

	require.NoError(t, f.svc.Restore(ctx, f.principal, id))
	err = f.svc.Restore(ctx, f.principal, id)
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	require.NoError(t, f.svc.Revoke(ctx, f.principal, id))
	require.NoError(t, f.svc.Purge(ctx, f.principal, id))

	_, err = f.svc.Get(ctx, f.principal, id)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestGetUserOutsideFacilityReportsNotFound(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	otherFacility := &model.Facility{Name: "Somewhere Else"}
	require.NoError(t, f.db.Create(otherFacility).Error)
	foreign := &model.User{
		FacilityID: otherFacility.ID,
		Username:   "outsider",
		Email:      "outsider@example.com",
		Password:   "irrelevant",
	}
	require.NoError(t, f.userRepo.Create(ctx, foreign))

	_, err := f.svc.Get(ctx, f.principal, foreign.ID.String())
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = f.svc.Get(ctx, f.principal, uuid.NewString())
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
