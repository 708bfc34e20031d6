package handler

import (
	"net/http"

	"pharmacare/internal/middleware"
	"pharmacare/internal/service"
	"pharmacare/pkg/pagination"
	"pharmacare/pkg/response"

	"github.com/gin-gonic/gin"
)

type StoreHandler struct {
	storeService service.StoreService
	auth         *middleware.Auth
}

func NewStoreHandler(storeService service.StoreService, auth *middleware.Auth) *StoreHandler {
	return &StoreHandler{storeService: storeService, auth: auth}
}

func (h *StoreHandler) RegisterRoutes(router *gin.RouterGroup) {
	stores := router.Group("/api/pharmacy/stores", h.auth.Authenticate())
	{
		stores.GET("", h.auth.RequirePermission(service.ModulePharmStores, service.ActionView), h.List)
		stores.POST("", h.auth.RequirePermission(service.ModulePharmStores, service.ActionCreate), h.Create)
		stores.GET("/:id", h.auth.RequirePermission(service.ModulePharmStores, service.ActionView), h.Get)
		stores.PUT("/:id", h.auth.RequirePermission(service.ModulePharmStores, service.ActionUpdate), h.Update)
		stores.PUT("/:id/users", h.auth.RequirePermission(service.ModulePharmStores, service.ActionUpdate), h.AssignUsers)
		stores.POST("/:id/revoke", h.auth.RequirePermission(service.ModulePharmStores, service.ActionRevoke), h.Revoke)
		stores.POST("/:id/restore", h.auth.RequirePermission(service.ModulePharmStores, service.ActionRestore), h.Restore)
		stores.DELETE("/:id", h.auth.RequirePermission(service.ModulePharmStores, service.ActionPurge), h.Purge)
	}
}

func (h *StoreHandler) List(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	stores, total, err := h.storeService.List(c.Request.Context(), principal, p.Offset, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Wrap(stores, total, p)))
}

func (h *StoreHandler) Create(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req service.StoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	store, err := h.storeService.Create(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, store))
}

func (h *StoreHandler) Get(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	store, err := h.storeService.Get(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, store))
}

func (h *StoreHandler) Update(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req service.StoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	store, err := h.storeService.Update(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, store))
}

// AssignUsers replaces the store's assigned user list
// @Summary      Assign store users
// @Description  Replaces the set of users who may sell from this store
// @Tags         pharmacy
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                           true  "Store ID"
// @Param        payload  body      service.AssignStoreUsersRequest  true  "User IDs"
// @Success      200      {object}  response.Response{data=model.Store}
// @Failure      404      {object}  response.Response
// @Router       /api/pharmacy/stores/{id}/users [put]
func (h *StoreHandler) AssignUsers(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req service.AssignStoreUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	store, err := h.storeService.AssignUsers(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, store))
}

func (h *StoreHandler) Revoke(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.storeService.Revoke(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Store revoked"}))
}

func (h *StoreHandler) Restore(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.storeService.Restore(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Store restored"}))
}

func (h *StoreHandler) Purge(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.storeService.Purge(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Store purged"}))
}
