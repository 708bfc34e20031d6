package middleware

import (
	"net/http"
	"os"
	"strings"

	"pharmacare/internal/model"
	"pharmacare/internal/service"
	"pharmacare/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const principalKey = "principal"

// GetJWTSecret resolves the token signing secret from the environment.
func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// SetTokenCookie sets the access token as an HttpOnly cookie
func SetTokenCookie(c *gin.Context, accessToken string) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", secure, true)
}

// ClearTokenCookie removes the access token cookie
func ClearTokenCookie(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
}

// Auth carries the token secret and the authorization gate. Constructed in
// main and passed to handlers; nothing here reads package-level state.
type Auth struct {
	secret []byte
	gate   service.Gate
}

func NewAuth(secret []byte, gate service.Gate) *Auth {
	return &Auth{secret: secret, gate: gate}
}

// Principal extracts the authenticated principal set by Authenticate.
func Principal(c *gin.Context) (model.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return model.Principal{}, false
	}
	principal, ok := v.(model.Principal)
	return principal, ok
}

// Authenticate validates the bearer token (cookie first, Authorization
// header fallback) and stores the resulting Principal on the context.
func (a *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, cookieErr := c.Cookie("access_token")
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
				return
			}
			tokenString = parts[1]
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		principal, ok := principalFromClaims(claims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequirePermission denies the request unless the principal's role carries
// the exact (module, action) permission. The self-access carve-out is
// evaluated first: a principal may always view/update their own user, role,
// or facility record addressed by the :id route param.
func (a *Auth) RequirePermission(moduleName, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := Principal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
			return
		}

		if idParam := c.Param("id"); idParam != "" {
			if resourceID, err := uuid.Parse(idParam); err == nil {
				if a.gate.SelfAccess(principal, moduleName, action, resourceID) {
					c.Next()
					return
				}
			}
		}

		allowed, err := a.gate.Allows(c.Request.Context(), principal, moduleName, action)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+moduleName+"."+action+"'"))
			return
		}

		c.Next()
	}
}

func principalFromClaims(claims jwt.MapClaims) (model.Principal, bool) {
	sub, _ := claims["sub"].(string)
	fid, _ := claims["facility_id"].(string)

	userID, err := uuid.Parse(sub)
	if err != nil {
		return model.Principal{}, false
	}
	facilityID, err := uuid.Parse(fid)
	if err != nil {
		return model.Principal{}, false
	}

	principal := model.Principal{UserID: userID, FacilityID: facilityID}
	if rid, ok := claims["role_id"].(string); ok && rid != "" {
		if roleID, err := uuid.Parse(rid); err == nil {
			principal.RoleID = &roleID
		}
	}

	return principal, true
}
