package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pharmacare/internal/model"
	"pharmacare/internal/repository"
	"pharmacare/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=6"`
	RoleID   string `json:"role_id" binding:"omitempty,uuid_param"`
}

type UpdateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	RoleID   string `json:"role_id" binding:"omitempty,uuid_param"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// MeResponse is the authenticated principal plus its effective permissions.
type MeResponse struct {
	User        *model.User `json:"user"`
	Permissions []string    `json:"permissions"`
}

type UserService interface {
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Me(ctx context.Context, principal model.Principal) (*MeResponse, error)
	Create(ctx context.Context, principal model.Principal, req CreateUserRequest) (*model.User, error)
	Update(ctx context.Context, principal model.Principal, id string, req UpdateUserRequest) (*model.User, error)
	Get(ctx context.Context, principal model.Principal, id string) (*model.User, error)
	List(ctx context.Context, principal model.Principal, offset, limit int) ([]model.User, int64, error)
	Revoke(ctx context.Context, principal model.Principal, id string) error
	Restore(ctx context.Context, principal model.Principal, id string) error
	Purge(ctx context.Context, principal model.Principal, id string) error
}

type userService struct {
	userRepo  repository.UserRepository
	roleRepo  repository.RoleRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	gate      Gate
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewUserService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	gate Gate,
	jwtSecret []byte,
) UserService {
	return &userService{
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		gate:      gate,
		jwtSecret: jwtSecret,
		tokenTTL:  24 * time.Hour,
	}
}

// Login verifies credentials and issues a signed access token carrying the
// principal claims. Revoked users cannot log in.
func (s *userService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrForbidden
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.IsActive() {
		return nil, apperror.ErrForbidden
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, apperror.ErrForbidden
	}

	claims := jwt.MapClaims{
		"sub":         user.ID.String(),
		"facility_id": user.FacilityID.String(),
		"exp":         time.Now().Add(s.tokenTTL).Unix(),
		"iat":         time.Now().Unix(),
	}
	if user.RoleID != nil {
		claims["role_id"] = user.RoleID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &TokenResponse{Token: signed, User: user}, nil
}

func (s *userService) Me(ctx context.Context, principal model.Principal) (*MeResponse, error) {
	user, err := s.userRepo.FindByIDWithRole(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	codes, err := s.gate.PermissionCodes(ctx, principal)
	if err != nil {
		return nil, err
	}

	return &MeResponse{User: user, Permissions: codes}, nil
}

func (s *userService) Create(ctx context.Context, principal model.Principal, req CreateUserRequest) (*model.User, error) {
	if _, err := s.userRepo.FindByUsername(ctx, req.Username); err == nil {
		return nil, apperror.Conflict("username already exists")
	}
	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperror.Conflict("email already exists")
	}

	roleID, err := s.resolveRoleID(ctx, principal, req.RoleID)
	if err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		FacilityID: principal.FacilityID,
		RoleID:     roleID,
		Username:   req.Username,
		Email:      req.Email,
		Phone:      req.Phone,
		Password:   string(hashed),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.userRepo.Create(txCtx, user); createErr != nil {
			return fmt.Errorf("failed to create user: %w", createErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionCreate, "user", user.ID.String(), map[string]interface{}{
			"username": req.Username,
			"email":    req.Email,
		})
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *userService) Update(ctx context.Context, principal model.Principal, id string, req UpdateUserRequest) (*model.User, error) {
	user, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.RoleID != "" {
		// Role assignment always needs the users.update permission. The
		// route's self-access carve-out lets a user reach this handler for
		// their own record, but it must not let them grant themselves a role.
		allowed, permErr := s.gate.Allows(ctx, principal, ModuleUsers, ActionUpdate)
		if permErr != nil {
			return nil, permErr
		}
		if !allowed {
			return nil, apperror.ErrForbidden
		}

		roleID, roleErr := s.resolveRoleID(ctx, principal, req.RoleID)
		if roleErr != nil {
			return nil, roleErr
		}
		user.RoleID = roleID
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.userRepo.Update(txCtx, user); saveErr != nil {
			return fmt.Errorf("failed to update user: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionUpdate, "user", user.ID.String(), map[string]interface{}{
			"username": user.Username,
		})
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *userService) Get(ctx context.Context, principal model.Principal, id string) (*model.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.NotFound("user")
	}

	user, err := s.userRepo.FindByIDWithRole(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.FacilityID != principal.FacilityID {
		return nil, apperror.NotFound("user")
	}

	return user, nil
}

func (s *userService) List(ctx context.Context, principal model.Principal, offset, limit int) ([]model.User, int64, error) {
	return s.userRepo.ListByFacility(ctx, principal.FacilityID, offset, limit)
}

func (s *userService) Revoke(ctx context.Context, principal model.Principal, id string) error {
	user, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}

	if !user.Lifecycle.Revoke() {
		return apperror.Conflict("user is already revoked")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.userRepo.Update(txCtx, user); saveErr != nil {
			return fmt.Errorf("failed to revoke user: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionRevoke, "user", user.ID.String(), nil)
	})
}

func (s *userService) Restore(ctx context.Context, principal model.Principal, id string) error {
	user, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}

	if !user.Lifecycle.Restore() {
		return apperror.Conflict("user is not revoked")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.userRepo.Update(txCtx, user); saveErr != nil {
			return fmt.Errorf("failed to restore user: %w", saveErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionRestore, "user", user.ID.String(), nil)
	})
}

func (s *userService) Purge(ctx context.Context, principal model.Principal, id string) error {
	user, err := s.findScoped(ctx, principal, id)
	if err != nil {
		return err
	}

	// Only revoked users can be purged.
	if !user.IsRevoked() {
		return apperror.Conflict("user must be revoked before purging")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.userRepo.Purge(txCtx, user.ID); delErr != nil {
			return fmt.Errorf("failed to purge user: %w", delErr)
		}
		return writeAudit(txCtx, s.auditRepo, principal, model.ActionPurge, "user", user.ID.String(), nil)
	})
}

func (s *userService) findScoped(ctx context.Context, principal model.Principal, id string) (*model.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.NotFound("user")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.FacilityID != principal.FacilityID {
		return nil, apperror.NotFound("user")
	}

	return user, nil
}

// resolveRoleID validates an optional role id against the acting facility.
func (s *userService) resolveRoleID(ctx context.Context, principal model.Principal, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}

	roleID, err := uuid.Parse(raw)
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
	if role.FacilityID != principal.FacilityID || !role.IsActive() {
		return nil, apperror.NotFound("role")
	}

	return &role.ID, nil
}
