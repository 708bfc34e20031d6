package handler

import (
	"net/http"

	"pharmacare/internal/middleware"
	"pharmacare/internal/service"
	"pharmacare/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService service.UserService
	auth        *middleware.Auth
}

func NewAuthHandler(userService service.UserService, auth *middleware.Auth) *AuthHandler {
	return &AuthHandler{userService: userService, auth: auth}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", h.auth.Authenticate(), h.Me)
	}
}

// Login authenticates a user and issues an access token
// @Summary      Login
// @Description  Authenticates with email and password, sets the access token cookie
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Payload"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		// A credential failure and a revoked account look the same from
		// outside.
		respondError(c, err)
		return
	}

	middleware.SetTokenCookie(c, result.Token)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Logout clears the access token cookie
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearTokenCookie(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Logged out"}))
}

// Me returns the authenticated user with its effective permission codes
// @Summary      Current user
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.MeResponse}
// @Failure      401  {object}  response.Response
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	me, err := h.userService.Me(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, me))
}
