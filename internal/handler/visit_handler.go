package handler

import (
	"net/http"

	"pharmacare/internal/middleware"
	"pharmacare/internal/service"
	"pharmacare/pkg/pagination"
	"pharmacare/pkg/response"

	"github.com/gin-gonic/gin"
)

type VisitHandler struct {
	visitService service.VisitService
	auth         *middleware.Auth
}

func NewVisitHandler(visitService service.VisitService, auth *middleware.Auth) *VisitHandler {
	return &VisitHandler{visitService: visitService, auth: auth}
}

func (h *VisitHandler) RegisterRoutes(router *gin.RouterGroup) {
	visits := router.Group("/api/visits", h.auth.Authenticate())
	{
		visits.GET("", h.auth.RequirePermission(service.ModuleVisits, service.ActionView), h.List)
		visits.POST("", h.auth.RequirePermission(service.ModuleVisits, service.ActionCreate), h.Create)
		visits.GET("/:id", h.auth.RequirePermission(service.ModuleVisits, service.ActionView), h.Get)
		visits.PUT("/:id", h.auth.RequirePermission(service.ModuleVisits, service.ActionUpdate), h.Update)
		visits.POST("/:id/revoke", h.auth.RequirePermission(service.ModuleVisits, service.ActionRevoke), h.Revoke)
		visits.POST("/:id/restore", h.auth.RequirePermission(service.ModuleVisits, service.ActionRestore), h.Restore)
		visits.DELETE("/:id", h.auth.RequirePermission(service.ModuleVisits, service.ActionPurge), h.Purge)
	}
}

// List returns the facility's visits, optionally filtered by patient
// @Summary      List visits
// @Tags         visits
// @Security     BearerAuth
// @Produce      json
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Items per page (default 20)"
// @Param        patient_id  query     string  false  "Filter by patient"
// @Success      200         {object}  response.Response{data=pagination.Envelope}
// @Router       /api/visits [get]
func (h *VisitHandler) List(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	visits, total, err := h.visitService.List(c.Request.Context(), principal, c.Query("patient_id"), p.Offset, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Wrap(visits, total, p)))
}

// Create opens a visit for a patient
// @Summary      Open visit
// @Tags         visits
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateVisitRequest  true  "Visit Payload"
// @Success      201      {object}  response.Response{data=model.Visit}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/visits [post]
func (h *VisitHandler) Create(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req service.CreateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	visit, err := h.visitService.Create(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, visit))
}

func (h *VisitHandler) Get(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	visit, err := h.visitService.Get(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, visit))
}

func (h *VisitHandler) Update(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req service.UpdateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	visit, err := h.visitService.Update(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, visit))
}

func (h *VisitHandler) Revoke(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.visitService.Revoke(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Visit revoked"}))
}

func (h *VisitHandler) Restore(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.visitService.Restore(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Visit restored"}))
}

func (h *VisitHandler) Purge(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.visitService.Purge(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Visit purged"}))
}
