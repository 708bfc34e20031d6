package handler

import (
	"net/http"

	"pharmacare/internal/middleware"
	"pharmacare/internal/service"
	"pharmacare/pkg/pagination"
	"pharmacare/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	productService service.ProductService
	auth           *middleware.Auth
}

func NewProductHandler(productService service.ProductService, auth *middleware.Auth) *ProductHandler {
	return &ProductHandler{productService: productService, auth: auth}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/api/pharmacy/products", h.auth.Authenticate())
	{
		products.GET("", h.auth.RequirePermission(service.ModulePharmProducts, service.ActionView), h.List)
		products.POST("", h.auth.RequirePermission(service.ModulePharmProducts, service.ActionCreate), h.Create)
		products.GET("/:id", h.auth.RequirePermission(service.ModulePharmProducts, service.ActionView), h.Get)
		products.PUT("/:id", h.auth.RequirePermission(service.ModulePharmProducts, service.ActionUpdate), h.Update)
		products.POST("/:id/revoke", h.auth.RequirePermission(service.ModulePharmProducts, service.ActionRevoke), h.Revoke)
		products.POST("/:id/restore", h.auth.RequirePermission(service.ModulePharmProducts, service.ActionRestore), h.Restore)
		products.DELETE("/:id", h.auth.RequirePermission(service.ModulePharmProducts, service.ActionPurge), h.Purge)
	}
}

// List returns the facility's product catalog
// @Summary      List products
// @Tags         pharmacy
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        search  query     string  false  "Search by name or brand"
// @Success      200     {object}  response.Response{data=pagination.Envelope}
// @Router       /api/pharmacy/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	products, total, err := h.productService.List(c.Request.Context(), principal, c.Query("search"), p.Offset, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Wrap(products, total, p)))
}

func (h *ProductHandler) Create(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.productService.Create(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

func (h *ProductHandler) Get(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	product, err := h.productService.Get(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

func (h *ProductHandler) Update(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.productService.Update(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

func (h *ProductHandler) Revoke(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.productService.Revoke(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Product revoked"}))
}

func (h *ProductHandler) Restore(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.productService.Restore(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Product restored"}))
}

func (h *ProductHandler) Purge(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.productService.Purge(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Product purged"}))
}
