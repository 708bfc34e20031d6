package handler

import (
	"net/http"

	"pharmacare/internal/middleware"
	"pharmacare/internal/service"
	"pharmacare/pkg/response"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	roleService service.RoleService
	auth        *middleware.Auth
}

func NewRoleHandler(roleService service.RoleService, auth *middleware.Auth) *RoleHandler {
	return &RoleHandler{roleService: roleService, auth: auth}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/api/roles", h.auth.Authenticate())
	{
		roles.GET("", h.auth.RequirePermission(service.ModuleRoles, service.ActionView), h.List)
		roles.POST("", h.auth.RequirePermission(service.ModuleRoles, service.ActionCreate), h.Create)
		roles.GET("/permissions", h.auth.RequirePermission(service.ModuleRoles, service.ActionView), h.ListPermissions)
		roles.GET("/:id", h.auth.RequirePermission(service.ModuleRoles, service.ActionView), h.Get)
		roles.PUT("/:id", h.auth.RequirePermission(service.ModuleRoles, service.ActionUpdate), h.Update)
		roles.PUT("/:id/permissions", h.auth.RequirePermission(service.ModuleRoles, service.ActionSetPermissions), h.SetPermissions)
		roles.POST("/:id/revoke", h.auth.RequirePermission(service.ModuleRoles, service.ActionRevoke), h.Revoke)
		roles.POST("/:id/restore", h.auth.RequirePermission(service.ModuleRoles, service.ActionRestore), h.Restore)
		roles.DELETE("/:id", h.auth.RequirePermission(service.ModuleRoles, service.ActionPurge), h.Purge)
	}
}

// List returns the facility's roles
// @Summary      List roles
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Role}
// @Router       /api/roles [get]
func (h *RoleHandler) List(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	roles, err := h.roleService.List(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

// ListPermissions returns the global permission catalog
// @Summary      List permissions
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Permission}
// @Router       /api/roles/permissions [get]
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	perms, err := h.roleService.ListPermissions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// Create adds a role to the facility
// @Summary      Create role
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateRoleRequest  true  "Role Payload"
// @Success      201      {object}  response.Response{data=model.Role}
// @Failure      400      {object}  response.Response
// @Router       /api/roles [post]
func (h *RoleHandler) Create(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req service.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	role, err := h.roleService.Create(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, role))
}

func (h *RoleHandler) Get(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	role, err := h.roleService.Get(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

func (h *RoleHandler) Update(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	role, err := h.roleService.Update(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// SetPermissions replaces the role's permission set
// @Summary      Set role permissions
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                             true  "Role ID"
// @Param        payload  body      service.SetRolePermissionsRequest  true  "Permission IDs"
// @Success      200      {object}  response.Response{data=model.Role}
// @Failure      404      {object}  response.Response
// @Router       /api/roles/{id}/permissions [put]
func (h *RoleHandler) SetPermissions(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req service.SetRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	role, err := h.roleService.SetPermissions(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

func (h *RoleHandler) Revoke(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.roleService.Revoke(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Role revoked"}))
}

func (h *RoleHandler) Restore(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.roleService.Restore(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Role restored"}))
}

func (h *RoleHandler) Purge(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.roleService.Purge(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Role purged"}))
}
