package handler

import (
	"net/http"

	"pharmacare/internal/middleware"
	"pharmacare/internal/service"
	"pharmacare/pkg/pagination"
	"pharmacare/pkg/response"

	"github.com/gin-gonic/gin"
)

type PatientHandler struct {
	patientService service.PatientService
	auth           *middleware.Auth
}

func NewPatientHandler(patientService service.PatientService, auth *middleware.Auth) *PatientHandler {
	return &PatientHandler{patientService: patientService, auth: auth}
}

func (h *PatientHandler) RegisterRoutes(router *gin.RouterGroup) {
	patients := router.Group("/api/patients", h.auth.Authenticate())
	{
		patients.GET("", h.auth.RequirePermission(service.ModulePatients, service.ActionView), h.List)
		patients.POST("", h.auth.RequirePermission(service.ModulePatients, service.ActionCreate), h.Create)
		patients.GET("/:id", h.auth.RequirePermission(service.ModulePatients, service.ActionView), h.Get)
		patients.PUT("/:id", h.auth.RequirePermission(service.ModulePatients, service.ActionUpdate), h.Update)
		patients.POST("/:id/revoke", h.auth.RequirePermission(service.ModulePatients, service.ActionRevoke), h.Revoke)
		patients.POST("/:id/restore", h.auth.RequirePermission(service.ModulePatients, service.ActionRestore), h.Restore)
		patients.DELETE("/:id", h.auth.RequirePermission(service.ModulePatients, service.ActionPurge), h.Purge)
	}
}

// List returns the facility's patients
// @Summary      List patients
// @Tags         patients
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        search  query     string  false  "Search by name or MRN"
// @Success      200     {object}  response.Response{data=pagination.Envelope}
// @Router       /api/patients [get]
func (h *PatientHandler) List(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	patients, total, err := h.patientService.List(c.Request.Context(), principal, c.Query("search"), p.Offset, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Wrap(patients, total, p)))
}

// Create registers a patient
// @Summary      Register patient
// @Tags         patients
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePatientRequest  true  "Patient Payload"
// @Success      201      {object}  response.Response{data=model.Patient}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/patients [post]
func (h *PatientHandler) Create(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req service.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	patient, err := h.patientService.Create(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, patient))
}

func (h *PatientHandler) Get(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	patient, err := h.patientService.Get(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, patient))
}

func (h *PatientHandler) Update(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req service.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	patient, err := h.patientService.Update(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, patient))
}

func (h *PatientHandler) Revoke(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.patientService.Revoke(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Patient revoked"}))
}

func (h *PatientHandler) Restore(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.patientService.Restore(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Patient restored"}))
}

func (h *PatientHandler) Purge(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.patientService.Purge(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Patient purged"}))
}
