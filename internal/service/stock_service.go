package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pharmacare/internal/model"
	"pharmacare/internal/repository"
	ws "pharmacare/internal/websocket"
	"pharmacare/pkg/apperror"
	"pharmacare/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type PurchaseLineRequest struct {
	ID       string `json:"id" binding:"required,uuid_param"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	// CostPrice is the landed cost of the whole line (the batch invoice
	// amount), not a per-unit price. Purchase totals sum these directly.
	CostPrice       decimal.Decimal `json:"cost_price" binding:"required,dgt0"`
	UnitRetailPrice decimal.Decimal `json:"unit_retail_price" binding:"required,dgt0"`
	BatchNumber     string          `json:"batch_number"`
	ManufactureDate *time.Time      `json:"manufacture_date"`
	ExpiryDate      *time.Time      `json:"expiry_date"`
}

type PurchaseRequest struct {
	Products []PurchaseLineRequest `json:"products" binding:"required,min=1,dive"`
}

type SaleLineRequest struct {
	ID       string `json:"id" binding:"required,uuid_param"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

type SaleRequest struct {
	Products []SaleLineRequest `json:"products" binding:"required,min=1,dive"`
}

// StockEvent is broadcast over the websocket hub after a committed ledger change.
type StockEvent struct {
	Event   string           `json:"event"`
	StoreID string           `json:"store_id"`
	Levels  []StockEventItem `json:"levels"`
}

type StockEventItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// StockService runs the purchase/sale ledger transactions and serves the
// inventory read views.
type StockService interface {
	CreatePurchase(ctx context.Context, principal model.Principal, storeID string, req PurchaseRequest) (*model.Purchase, error)
	CreateSale(ctx context.Context, principal model.Principal, storeID string, req SaleRequest) (*model.Sale, error)
	GetPurchase(ctx context.Context, principal model.Principal, storeID, purchaseID string) (*model.Purchase, error)
	GetSale(ctx context.Context, principal model.Principal, storeID, saleID string) (*model.Sale, error)
	ListPurchases(ctx context.Context, principal model.Principal, storeID string, p pagination.Params) ([]model.Purchase, int64, error)
	ListSales(ctx context.Context, principal model.Principal, storeID string, p pagination.Params) ([]model.Sale, int64, error)
	StoreInventory(ctx context.Context, principal model.Principal, storeID string, p pagination.Params) ([]model.StoreProduct, int64, error)
	StoreMovements(ctx context.Context, principal model.Principal, storeID string, p pagination.Params) ([]model.StockMovement, int64, error)
}

type stockService struct {
	storeRepo    repository.StoreRepository
	productRepo  repository.ProductRepository
	ledgerRepo   repository.StoreProductRepository
	movementRepo repository.StockMovementRepository
	purchaseRepo repository.PurchaseRepository
	saleRepo     repository.SaleRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewStockService(
	storeRepo repository.StoreRepository,
	productRepo repository.ProductRepository,
	ledgerRepo repository.StoreProductRepository,
	movementRepo repository.StockMovementRepository,
	purchaseRepo repository.PurchaseRepository,
	saleRepo repository.SaleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) StockService {
	return &stockService{
		storeRepo:    storeRepo,
		productRepo:  productRepo,
		ledgerRepo:   ledgerRepo,
		movementRepo: movementRepo,
		purchaseRepo: purchaseRepo,
		saleRepo:     saleRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
	}
}

// resolveStore loads the store and enforces facility scoping. Out-of-scope
// stores report as not found so their existence does not leak.
func (s *stockService) resolveStore(ctx context.Context, principal model.Principal, storeID string) (*model.Store, error) {
	id, err := uuid.Parse(storeID)
	if err != nil {
		return nil, apperror.NotFound("store")
	}

	store, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("store")
		}
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	if store.FacilityID != principal.FacilityID || !store.IsActive() {
		return nil, apperror.NotFound("store")
	}

	return store, nil
}

// resolveAssignedStore additionally requires the principal to be in the
// store's assigned-user set. Sales are scoped this way.
func (s *stockService) resolveAssignedStore(ctx context.Context, principal model.Principal, storeID string) (*model.Store, error) {
	store, err := s.resolveStore(ctx, principal, storeID)
	if err != nil {
		return nil, err
	}

	assigned, err := s.storeRepo.IsUserAssigned(ctx, store.ID, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check store assignment: %w", err)
	}
	if !assigned {
		return nil, apperror.NotFound("store")
	}

	return store, nil
}

// CreatePurchase runs the stock-in transaction: every referenced product must
// exist in the acting facility; each line adds quantity to the store's ledger
// row (creating it on first purchase) and overwrites its unit price with the
// line's retail price. All line errors are collected before anything is
// written; the apply phase is one transaction.
func (s *stockService) CreatePurchase(ctx context.Context, principal model.Principal, storeID string, req PurchaseRequest) (*model.Purchase, error) {
	store, err := s.resolveStore(ctx, principal, storeID)
	if err != nil {
		return nil, err
	}

	var purchase *model.Purchase
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		verr := apperror.NewValidationError()
		productIDs := make([]uuid.UUID, len(req.Products))

		for i, line := range req.Products {
			pid, parseErr := uuid.Parse(line.ID)
			if parseErr != nil {
				verr.Add(fmt.Sprintf("products.%d.id", i), "Unknown product.")
				continue
			}

			product, findErr := s.productRepo.FindByID(txCtx, pid)
			if findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					verr.Add(fmt.Sprintf("products.%d.id", i), "Unknown product.")
					continue
				}
				return fmt.Errorf("failed to look up product %s: %w", line.ID, findErr)
			}
			if product.FacilityID != principal.FacilityID || !product.IsActive() {
				verr.Add(fmt.Sprintf("products.%d.id", i), "Unknown product.")
				continue
			}

			productIDs[i] = pid
		}

		if verr.HasErrors() {
			return verr
		}

		total := decimal.Zero
		for _, line := range req.Products {
			total = total.Add(line.CostPrice)
		}

		purchase = &model.Purchase{
			StoreID: store.ID,
			UserID:  principal.UserID,
			Total:   total,
		}
		if createErr := s.purchaseRepo.Create(txCtx, purchase); createErr != nil {
			return fmt.Errorf("failed to create purchase: %w", createErr)
		}

		for i, line := range req.Products {
			pid := productIDs[i]

			row, findErr := s.ledgerRepo.FindForUpdate(txCtx, store.ID, pid)
			switch {
			case findErr == nil:
				row.Quantity += line.Quantity
				row.UnitPrice = line.UnitRetailPrice
				if saveErr := s.ledgerRepo.Save(txCtx, row); saveErr != nil {
					return fmt.Errorf("failed to update ledger row: %w", saveErr)
				}
			case errors.Is(findErr, gorm.ErrRecordNotFound):
				row = &model.StoreProduct{
					StoreID:   store.ID,
					ProductID: pid,
					Quantity:  line.Quantity,
					UnitPrice: line.UnitRetailPrice,
				}
				if createErr := s.ledgerRepo.Create(txCtx, row); createErr != nil {
					return fmt.Errorf("failed to create ledger row: %w", createErr)
				}
			default:
				return fmt.Errorf("failed to lock ledger row: %w", findErr)
			}

			item := &model.PurchaseItem{
				PurchaseID:      purchase.ID,
				ProductID:       pid,
				Quantity:        line.Quantity,
				CostPrice:       line.CostPrice,
				UnitRetailPrice: line.UnitRetailPrice,
				BatchNumber:     line.BatchNumber,
				ManufactureDate: line.ManufactureDate,
				ExpiryDate:      line.ExpiryDate,
			}
			if itemErr := s.purchaseRepo.CreateItem(txCtx, item); itemErr != nil {
				return fmt.Errorf("failed to create purchase item: %w", itemErr)
			}

			movement := &model.StockMovement{
				StoreID:       store.ID,
				ProductID:     pid,
				Direction:     model.MovementIn,
				Quantity:      line.Quantity,
				QuantityAfter: row.Quantity,
				PurchaseID:    &purchase.ID,
			}
			if movErr := s.movementRepo.Create(txCtx, movement); movErr != nil {
				return fmt.Errorf("failed to record stock movement: %w", movErr)
			}
		}

		return s.audit(txCtx, principal, model.ActionPurchase, "purchase", purchase.ID.String(), map[string]interface{}{
			"store_id": store.ID.String(),
			"total":    total.String(),
			"lines":    len(req.Products),
		})
	})

	if err != nil {
		return nil, err
	}

	loaded, err := s.purchaseRepo.FindByIDWithRelations(ctx, purchase.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload purchase: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(loaded.Items))
	for _, item := range loaded.Items {
		ids = append(ids, item.ProductID)
	}
	s.broadcastLevels(ctx, store.ID, ids)
	return loaded, nil
}

// CreateSale runs the stock-out transaction. Ledger rows are locked during
// validation so two concurrent sales of the same (store, product) pair
// serialize; sufficiency is checked against the locked quantity and every
// offending line is reported before anything is written. Lines are priced at
// the ledger's pre-transaction unit price, never a caller-supplied one.
func (s *stockService) CreateSale(ctx context.Context, principal model.Principal, storeID string, req SaleRequest) (*model.Sale, error) {
	store, err := s.resolveAssignedStore(ctx, principal, storeID)
	if err != nil {
		return nil, err
	}

	var sale *model.Sale
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		verr := apperror.NewValidationError()
		rows := make([]*model.StoreProduct, len(req.Products))
		locked := make(map[uuid.UUID]*model.StoreProduct, len(req.Products))
		remaining := make(map[uuid.UUID]int, len(req.Products))

		for i, line := range req.Products {
			pid, parseErr := uuid.Parse(line.ID)
			if parseErr != nil {
				verr.Add(fmt.Sprintf("products.%d.id", i), "Unknown product.")
				continue
			}

			// Duplicate lines for one product share the locked row and draw
			// down the same remaining quantity, so sufficiency is checked
			// against the request as a whole, not per line.
			row, ok := locked[pid]
			if !ok {
				var findErr error
				row, findErr = s.ledgerRepo.FindForUpdate(txCtx, store.ID, pid)
				if findErr != nil {
					if errors.Is(findErr, gorm.ErrRecordNotFound) {
						verr.Add(fmt.Sprintf("products.%d.id", i), "Unknown product.")
						continue
					}
					return fmt.Errorf("failed to lock ledger row: %w", findErr)
				}
				locked[pid] = row
				remaining[pid] = row.Quantity
			}

			if remaining[pid] < line.Quantity {
				verr.Add(fmt.Sprintf("products.%d.quantity", i), fmt.Sprintf("Only %d in stock.", remaining[pid]))
				continue
			}

			remaining[pid] -= line.Quantity
			rows[i] = row
		}

		if verr.HasErrors() {
			return verr
		}

		total := decimal.Zero
		for i, line := range req.Products {
			total = total.Add(rows[i].UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		sale = &model.Sale{
			StoreID: store.ID,
			UserID:  principal.UserID,
			Total:   total,
		}
		if createErr := s.saleRepo.Create(txCtx, sale); createErr != nil {
			return fmt.Errorf("failed to create sale: %w", createErr)
		}

		for i, line := range req.Products {
			row := rows[i]
			unitPrice := row.UnitPrice // pre-transaction price

			row.Quantity -= line.Quantity
			if saveErr := s.ledgerRepo.Save(txCtx, row); saveErr != nil {
				return fmt.Errorf("failed to update ledger row: %w", saveErr)
			}

			item := &model.SaleItem{
				SaleID:    sale.ID,
				ProductID: row.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: unitPrice,
			}
			if itemErr := s.saleRepo.CreateItem(txCtx, item); itemErr != nil {
				return fmt.Errorf("failed to create sale item: %w", itemErr)
			}

			movement := &model.StockMovement{
				StoreID:       store.ID,
				ProductID:     row.ProductID,
				Direction:     model.MovementOut,
				Quantity:      line.Quantity,
				QuantityAfter: row.Quantity,
				SaleID:        &sale.ID,
			}
			if movErr := s.movementRepo.Create(txCtx, movement); movErr != nil {
				return fmt.Errorf("failed to record stock movement: %w", movErr)
			}
		}

		return s.audit(txCtx, principal, model.ActionSale, "sale", sale.ID.String(), map[string]interface{}{
			"store_id": store.ID.String(),
			"total":    total.String(),
			"lines":    len(req.Products),
		})
	})

	if err != nil {
		return nil, err
	}

	loaded, err := s.saleRepo.FindByIDWithRelations(ctx, sale.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload sale: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(loaded.Items))
	for _, item := range loaded.Items {
		ids = append(ids, item.ProductID)
	}
	s.broadcastLevels(ctx, store.ID, ids)
	return loaded, nil
}

func (s *stockService) GetPurchase(ctx context.Context, principal model.Principal, storeID, purchaseID string) (*model.Purchase, error) {
	store, err := s.resolveStore(ctx, principal, storeID)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(purchaseID)
	if err != nil {
		return nil, apperror.NotFound("purchase")
	}

	purchase, err := s.purchaseRepo.FindByIDWithRelations(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("purchase")
		}
		return nil, fmt.Errorf("failed to load purchase: %w", err)
	}
	if purchase.StoreID != store.ID {
		return nil, apperror.NotFound("purchase")
	}

	return purchase, nil
}

func (s *stockService) GetSale(ctx context.Context, principal model.Principal, storeID, saleID string) (*model.Sale, error) {
	store, err := s.resolveStore(ctx, principal, storeID)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(saleID)
	if err != nil {
		return nil, apperror.NotFound("sale")
	}

	sale, err := s.saleRepo.FindByIDWithRelations(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("sale")
		}
		return nil, fmt.Errorf("failed to load sale: %w", err)
	}
	if sale.StoreID != store.ID {
		return nil, apperror.NotFound("sale")
	}

	return sale, nil
}

func (s *stockService) ListPurchases(ctx context.Context, principal model.Principal, storeID string, p pagination.Params) ([]model.Purchase, int64, error) {
	store, err := s.resolveStore(ctx, principal, storeID)
	if err != nil {
		return nil, 0, err
	}
	return s.purchaseRepo.ListByStore(ctx, store.ID, p.Offset, p.Limit)
}

func (s *stockService) ListSales(ctx context.Context, principal model.Principal, storeID string, p pagination.Params) ([]model.Sale, int64, error) {
	store, err := s.resolveStore(ctx, principal, storeID)
	if err != nil {
		return nil, 0, err
	}
	return s.saleRepo.ListByStore(ctx, store.ID, p.Offset, p.Limit)
}

func (s *stockService) StoreInventory(ctx context.Context, principal model.Principal, storeID string, p pagination.Params) ([]model.StoreProduct, int64, error) {
	store, err := s.resolveStore(ctx, principal, storeID)
	if err != nil {
		return nil, 0, err
	}
	return s.ledgerRepo.ListByStore(ctx, store.ID, p.Offset, p.Limit)
}

func (s *stockService) StoreMovements(ctx context.Context, principal model.Principal, storeID string, p pagination.Params) ([]model.StockMovement, int64, error) {
	store, err := s.resolveStore(ctx, principal, storeID)
	if err != nil {
		return nil, 0, err
	}
	return s.movementRepo.ListByStore(ctx, store.ID, p.Offset, p.Limit)
}

func (s *stockService) audit(ctx context.Context, principal model.Principal, action, entityType, entityID string, details map[string]interface{}) error {
	return writeAudit(ctx, s.auditRepo, principal, action, entityType, entityID, details)
}

// broadcastLevels pushes post-commit stock levels to websocket subscribers.
// Best effort; a send failure never affects the committed transaction.
func (s *stockService) broadcastLevels(ctx context.Context, storeID uuid.UUID, productIDs []uuid.UUID) {
	if s.hub == nil {
		return
	}

	event := StockEvent{Event: "stock.updated", StoreID: storeID.String()}
	for _, pid := range productIDs {
		row, err := s.ledgerRepo.Find(ctx, storeID, pid)
		if err != nil {
			continue
		}
		event.Levels = append(event.Levels, StockEventItem{
			ProductID: pid.String(),
			Quantity:  row.Quantity,
		})
	}

	if payload, err := json.Marshal(event); err == nil {
		s.hub.Publish(payload)
	}
}
