package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pharmacare/internal/database"
	"pharmacare/internal/middleware"
	"pharmacare/internal/model"
	"pharmacare/internal/repository"
	"pharmacare/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthFixture(t *testing.T) (*middleware.Auth, *model.Role) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	roleRepo := repository.NewRoleRepository(db)

	facility := &model.Facility{Name: "Gate Clinic"}
	require.NoError(t, db.Create(facility).Error)
	role := &model.Role{FacilityID: facility.ID, Name: "clerk"}
	require.NoError(t, roleRepo.Create(context.Background(), role))

	return middleware.NewAuth([]byte("test-secret"), service.NewGate(roleRepo)), role
}

func signToken(t *testing.T, principal model.Principal) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":         principal.UserID.String(),
		"facility_id": principal.FacilityID.String(),
		"exp":         time.Now().Add(time.Hour).Unix(),
	}
	if principal.RoleID != nil {
		claims["role_id"] = principal.RoleID.String()
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestRequirePermissionSelfAccessScope(t *testing.T) {
	auth, role := newAuthFixture(t)

	router := gin.New()
	roles := router.Group("/api/roles", auth.Authenticate())
	roles.PUT("/:id", auth.RequirePermission(service.ModuleRoles, service.ActionUpdate), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	roles.PUT("/:id/permissions", auth.RequirePermission(service.ModuleRoles, service.ActionSetPermissions), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Role with no permissions at all.
	principal := model.Principal{UserID: uuid.New(), FacilityID: role.FacilityID, RoleID: &role.ID}
	token := signToken(t, principal)

	do := func(path string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, path, strings.NewReader("{}"))
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	// Updating the own role row rides the self-access carve-out.
	assert.Equal(t, http.StatusOK, do("/api/roles/"+role.ID.String()))

	// Replacing the own role's permission set never does.
	assert.Equal(t, http.StatusForbidden, do("/api/roles/"+role.ID.String()+"/permissions"))

	// Other roles stay out of reach entirely.
	assert.Equal(t, http.StatusForbidden, do("/api/roles/"+uuid.NewString()))
}
