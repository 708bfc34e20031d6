package handler

import (
	"net/http"

	"pharmacare/internal/middleware"
	"pharmacare/internal/service"
	"pharmacare/pkg/pagination"
	"pharmacare/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	auth         *middleware.Auth
}

func NewAuditHandler(auditService service.AuditService, auth *middleware.Auth) *AuditHandler {
	return &AuditHandler{auditService: auditService, auth: auth}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	audit := router.Group("/api/audit", h.auth.Authenticate())
	{
		audit.GET("", h.auth.RequirePermission(service.ModuleAudit, service.ActionView), h.List)
	}
}

// List returns the facility's audit trail, newest first
// @Summary      List audit entries
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        action  query     string  false  "Filter by action, e.g. PURCHASE"
// @Success      200     {object}  response.Response{data=pagination.Envelope}
// @Router       /api/audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	entries, total, err := h.auditService.List(c.Request.Context(), principal, c.Query("action"), p.Offset, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Wrap(entries, total, p)))
}
