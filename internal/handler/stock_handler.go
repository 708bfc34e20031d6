package handler

import (
	"net/http"

	"pharmacare/internal/middleware"
	"pharmacare/internal/service"
	"pharmacare/pkg/pagination"
	"pharmacare/pkg/response"

	"github.com/gin-gonic/gin"
)

// StockHandler exposes the stock ledger operations: purchases bring stock
// in, sales take stock out, and both are all-or-nothing.
type StockHandler struct {
	stockService service.StockService
	auth         *middleware.Auth
}

func NewStockHandler(stockService service.StockService, auth *middleware.Auth) *StockHandler {
	return &StockHandler{stockService: stockService, auth: auth}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stores := router.Group("/api/pharmacy/stores", h.auth.Authenticate())
	{
		stores.GET("/:id/inventory", h.auth.RequirePermission(service.ModulePharmInv, service.ActionView), h.Inventory)
		stores.GET("/:id/movements", h.auth.RequirePermission(service.ModulePharmInv, service.ActionView), h.Movements)

		stores.POST("/:id/purchases", h.auth.RequirePermission(service.ModulePharmPurch, service.ActionCreate), h.CreatePurchase)
		stores.GET("/:id/purchases", h.auth.RequirePermission(service.ModulePharmPurch, service.ActionView), h.ListPurchases)
		stores.GET("/:id/purchases/:purchaseId", h.auth.RequirePermission(service.ModulePharmPurch, service.ActionView), h.GetPurchase)

		stores.POST("/:id/sales", h.auth.RequirePermission(service.ModulePharmSales, service.ActionCreate), h.CreateSale)
		stores.GET("/:id/sales", h.auth.RequirePermission(service.ModulePharmSales, service.ActionView), h.ListSales)
		stores.GET("/:id/sales/:saleId", h.auth.RequirePermission(service.ModulePharmSales, service.ActionView), h.GetSale)
	}
}

// CreatePurchase records a stock-in transaction
// @Summary      Record purchase
// @Description  Validates every line, then applies the whole purchase atomically: quantities increase and the retail price on each ledger row is updated
// @Tags         pharmacy
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Store ID"
// @Param        payload  body      service.PurchaseRequest  true  "Purchase Payload"
// @Success      201      {object}  response.Response{data=model.Purchase}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.ValidationResponse
// @Failure      500      {object}  response.Response
// @Router       /api/pharmacy/stores/{id}/purchases [post]
func (h *StockHandler) CreatePurchase(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req service.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	purchase, err := h.stockService.CreatePurchase(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, purchase))
}

// CreateSale records a stock-out transaction
// @Summary      Record sale
// @Description  Validates every line against locked stock levels, then applies the whole sale atomically; any insufficiency rejects the entire request
// @Tags         pharmacy
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Store ID"
// @Param        payload  body      service.SaleRequest  true  "Sale Payload"
// @Success      201      {object}  response.Response{data=model.Sale}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.ValidationResponse
// @Failure      500      {object}  response.Response
// @Router       /api/pharmacy/stores/{id}/sales [post]
func (h *StockHandler) CreateSale(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req service.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sale, err := h.stockService.CreateSale(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sale))
}

func (h *StockHandler) GetPurchase(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	purchase, err := h.stockService.GetPurchase(c.Request.Context(), principal, c.Param("id"), c.Param("purchaseId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

func (h *StockHandler) GetSale(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	sale, err := h.stockService.GetSale(c.Request.Context(), principal, c.Param("id"), c.Param("saleId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

func (h *StockHandler) ListPurchases(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	purchases, total, err := h.stockService.ListPurchases(c.Request.Context(), principal, c.Param("id"), p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Wrap(purchases, total, p)))
}

func (h *StockHandler) ListSales(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	sales, total, err := h.stockService.ListSales(c.Request.Context(), principal, c.Param("id"), p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Wrap(sales, total, p)))
}

// Inventory returns the store's current stock ledger
// @Summary      Store inventory
// @Tags         pharmacy
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Store ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=pagination.Envelope}
// @Failure      404    {object}  response.Response
// @Router       /api/pharmacy/stores/{id}/inventory [get]
func (h *StockHandler) Inventory(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	rows, total, err := h.stockService.StoreInventory(c.Request.Context(), principal, c.Param("id"), p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Wrap(rows, total, p)))
}

func (h *StockHandler) Movements(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	movements, total, err := h.stockService.StoreMovements(c.Request.Context(), principal, c.Param("id"), p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Wrap(movements, total, p)))
}
