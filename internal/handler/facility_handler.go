package handler

import (
	"net/http"

	"pharmacare/internal/middleware"
	"pharmacare/internal/service"
	"pharmacare/pkg/pagination"
	"pharmacare/pkg/response"

	"github.com/gin-gonic/gin"
)

type FacilityHandler struct {
	facilityService service.FacilityService
	auth            *middleware.Auth
}

func NewFacilityHandler(facilityService service.FacilityService, auth *middleware.Auth) *FacilityHandler {
	return &FacilityHandler{facilityService: facilityService, auth: auth}
}

func (h *FacilityHandler) RegisterRoutes(router *gin.RouterGroup) {
	facilities := router.Group("/api/facilities", h.auth.Authenticate())
	{
		facilities.GET("", h.auth.RequirePermission(service.ModuleFacilities, service.ActionView), h.List)
		facilities.POST("", h.auth.RequirePermission(service.ModuleFacilities, service.ActionCreate), h.Create)
		facilities.GET("/:id", h.auth.RequirePermission(service.ModuleFacilities, service.ActionView), h.Get)
		facilities.PUT("/:id", h.auth.RequirePermission(service.ModuleFacilities, service.ActionUpdate), h.Update)
		facilities.POST("/:id/revoke", h.auth.RequirePermission(service.ModuleFacilities, service.ActionRevoke), h.Revoke)
		facilities.POST("/:id/restore", h.auth.RequirePermission(service.ModuleFacilities, service.ActionRestore), h.Restore)
		facilities.DELETE("/:id", h.auth.RequirePermission(service.ModuleFacilities, service.ActionPurge), h.Purge)
	}
}

// List returns all facilities
// @Summary      List facilities
// @Tags         facilities
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=pagination.Envelope}
// @Router       /api/facilities [get]
func (h *FacilityHandler) List(c *gin.Context) {
	p := pagination.Parse(c)

	facilities, total, err := h.facilityService.List(c.Request.Context(), p.Offset, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Wrap(facilities, total, p)))
}

// Create registers a new facility
// @Summary      Create facility
// @Tags         facilities
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateFacilityRequest  true  "Facility Payload"
// @Success      201      {object}  response.Response{data=model.Facility}
// @Failure      400      {object}  response.Response
// @Router       /api/facilities [post]
func (h *FacilityHandler) Create(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req service.CreateFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	facility, err := h.facilityService.Create(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, facility))
}

func (h *FacilityHandler) Get(c *gin.Context) {
	facility, err := h.facilityService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, facility))
}

func (h *FacilityHandler) Update(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req service.UpdateFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	facility, err := h.facilityService.Update(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, facility))
}

func (h *FacilityHandler) Revoke(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.facilityService.Revoke(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Facility revoked"}))
}

func (h *FacilityHandler) Restore(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.facilityService.Restore(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Facility restored"}))
}

func (h *FacilityHandler) Purge(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.facilityService.Purge(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Facility purged"}))
}
