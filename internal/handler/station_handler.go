package handler

import (
	"net/http"

	"pharmacare/internal/middleware"
	"pharmacare/internal/service"
	"pharmacare/pkg/pagination"
	"pharmacare/pkg/response"

	"github.com/gin-gonic/gin"
)

type StationHandler struct {
	stationService service.StationService
	auth           *middleware.Auth
}

func NewStationHandler(stationService service.StationService, auth *middleware.Auth) *StationHandler {
	return &StationHandler{stationService: stationService, auth: auth}
}

func (h *StationHandler) RegisterRoutes(router *gin.RouterGroup) {
	stations := router.Group("/api/stations", h.auth.Authenticate())
	{
		stations.GET("", h.auth.RequirePermission(service.ModuleStations, service.ActionView), h.List)
		stations.POST("", h.auth.RequirePermission(service.ModuleStations, service.ActionCreate), h.Create)
		stations.GET("/:id", h.auth.RequirePermission(service.ModuleStations, service.ActionView), h.Get)
		stations.PUT("/:id", h.auth.RequirePermission(service.ModuleStations, service.ActionUpdate), h.Update)
		stations.POST("/:id/revoke", h.auth.RequirePermission(service.ModuleStations, service.ActionRevoke), h.Revoke)
		stations.POST("/:id/restore", h.auth.RequirePermission(service.ModuleStations, service.ActionRestore), h.Restore)
		stations.DELETE("/:id", h.auth.RequirePermission(service.ModuleStations, service.ActionPurge), h.Purge)
	}
}

func (h *StationHandler) List(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	stations, total, err := h.stationService.List(c.Request.Context(), principal, p.Offset, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Wrap(stations, total, p)))
}

func (h *StationHandler) Create(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req service.StationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	station, err := h.stationService.Create(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, station))
}

func (h *StationHandler) Get(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	station, err := h.stationService.Get(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, station))
}

func (h *StationHandler) Update(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req service.StationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	station, err := h.stationService.Update(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, station))
}

func (h *StationHandler) Revoke(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.stationService.Revoke(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Station revoked"}))
}

func (h *StationHandler) Restore(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.stationService.Restore(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Station restored"}))
}

func (h *StationHandler) Purge(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.stationService.Purge(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Station purged"}))
}
