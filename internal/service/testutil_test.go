package service

import (
	"context"
	"testing"

	"pharmacare/internal/database"
	"pharmacare/internal/model"
	"pharmacare/internal/repository"
	"pharmacare/pkg/pagination"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	return db
}

// stockFixture wires a real repository stack over an in-memory database with
// one facility, one assigned user, one store and two catalog products.
type stockFixture struct {
	db        *gorm.DB
	svc       StockService
	ledger    repository.StoreProductRepository
	movements repository.StockMovementRepository
	principal model.Principal
	facility  *model.Facility
	store     *model.Store
	productA  *model.Product
	productB  *model.Product
}

func newStockFixture(t *testing.T) *stockFixture {
	t.Helper()

	db := newTestDB(t)
	ctx := context.Background()

	facilityRepo := repository.NewFacilityRepository(db)
	userRepo := repository.NewUserRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	productRepo := repository.NewProductRepository(db)
	ledgerRepo := repository.NewStoreProductRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	facility := &model.Facility{Name: "General Hospital"}
	require.NoError(t, facilityRepo.Create(ctx, facility))

	user := &model.User{
		FacilityID: facility.ID,
		Username:   "pharmacist",
		Email:      "pharmacist@example.com",
		Password:   "irrelevant",
	}
	require.NoError(t, userRepo.Create(ctx, user))

	store := &model.Store{FacilityID: facility.ID, Name: "Main Pharmacy"}
	require.NoError(t, storeRepo.Create(ctx, store))
	require.NoError(t, storeRepo.ReplaceUsers(ctx, store, []model.User{*user}))

	productA := &model.Product{FacilityID: facility.ID, Name: "Amoxicillin 500mg"}
	require.NoError(t, productRepo.Create(ctx, productA))
	productB := &model.Product{FacilityID: facility.ID, Name: "Paracetamol 500mg"}
	require.NoError(t, productRepo.Create(ctx, productB))

	svc := NewStockService(storeRepo, productRepo, ledgerRepo, movementRepo, purchaseRepo, saleRepo, auditRepo, txManager, nil)

	return &stockFixture{
		db:        db,
		svc:       svc,
		ledger:    ledgerRepo,
		movements: movementRepo,
		principal: model.Principal{UserID: user.ID, FacilityID: facility.ID},
		facility:  facility,
		store:     store,
		productA:  productA,
		productB:  productB,
	}
}

// seedStock inserts a ledger row directly.
func (f *stockFixture) seedStock(t *testing.T, product *model.Product, quantity int, unitPrice string) *model.StoreProduct {
	t.Helper()

	row := &model.StoreProduct{
		StoreID:   f.store.ID,
		ProductID: product.ID,
		Quantity:  quantity,
		UnitPrice: decimal.RequireFromString(unitPrice),
	}
	require.NoError(t, f.ledger.Create(context.Background(), row))
	return row
}

func testPage() pagination.Params {
	return pagination.Params{Page: 1, Limit: 20, Offset: 0}
}

func (f *stockFixture) ledgerQuantity(t *testing.T, product *model.Product) int {
	t.Helper()

	row, err := f.ledger.Find(context.Background(), f.store.ID, product.ID)
	require.NoError(t, err)
	return row.Quantity
}
