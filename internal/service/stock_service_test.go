package service

import (
	"context"
	"errors"
	"testing"

	"pharmacare/internal/model"
	"pharmacare/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSaleDecrementsStockAndPricesAtLedger(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()
	f.seedStock(t, f.productA, 10, "200.50")

	sale, err := f.svc.CreateSale(ctx, f.principal, f.store.ID.String(), SaleRequest{
		Products: []SaleLineRequest{{ID: f.productA.ID.String(), Quantity: 5}},
	})
	require.NoError(t, err)

	assert.True(t, sale.Total.Equal(decimal.RequireFromString("1002.50")), "total = %s", sale.Total)
	require.Len(t, sale.Items, 1)
	assert.True(t, sale.Items[0].UnitPrice.Equal(decimal.RequireFromString("200.50")))
	assert.Equal(t, 5, sale.Items[0].Quantity)
	assert.Equal(t, f.principal.UserID, sale.UserID)

	assert.Equal(t, 5, f.ledgerQuantity(t, f.productA))

	movements, total, err := f.movements.ListByStore(ctx, f.store.ID, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, model.MovementOut, movements[0].Direction)
	assert.Equal(t, 5, movements[0].Quantity)
	assert.Equal(t, 5, movements[0].QuantityAfter)
}

func TestCreateSaleInsufficientStock(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()
	f.seedStock(t, f.productA, 10, "200.50")

	_, err := f.svc.CreateSale(ctx, f.principal, f.store.ID.String(), SaleRequest{
		Products: []SaleLineRequest{{ID: f.productA.ID.String(), Quantity: 20}},
	})
	require.Error(t, err)

	verr, ok := apperror.AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Equal(t, []string{"Only 10 in stock."}, verr.Fields["products.0.quantity"])

	// Nothing written.
	assert.Equal(t, 10, f.ledgerQuantity(t, f.productA))
	_, total, err := f.movements.ListByStore(ctx, f.store.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestCreateSaleUnknownProduct(t *testing.T) {
	f := newStockFixture(t)

	_, err := f.svc.CreateSale(context.Background(), f.principal, f.store.ID.String(), SaleRequest{
		Products: []SaleLineRequest{{ID: uuid.NewString(), Quantity: 1}},
	})
	require.Error(t, err)

	verr, ok := apperror.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"Unknown product."}, verr.Fields["products.0.id"])
}

func TestCreateSaleRejectsWholeRequestWhenOneLineFails(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()
	f.seedStock(t, f.productA, 10, "100.00")
	f.seedStock(t, f.productB, 3, "50.00")

	_, err := f.svc.CreateSale(ctx, f.principal, f.store.ID.String(), SaleRequest{
		Products: []SaleLineRequest{
			{ID: f.productA.ID.String(), Quantity: 5},
			{ID: f.productB.ID.String(), Quantity: 4},
		},
	})
	require.Error(t, err)

	verr, ok := apperror.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"Only 3 in stock."}, verr.Fields["products.1.quantity"])
	assert.NotContains(t, verr.Fields, "products.0.quantity")

	// Neither line was applied, including the valid one.
	assert.Equal(t, 10, f.ledgerQuantity(t, f.productA))
	assert.Equal(t, 3, f.ledgerQuantity(t, f.productB))
}

func TestCreateSaleRequiresStoreAssignment(t *testing.T) {
	f := newStockFixture(t)
	f.seedStock(t, f.productA, 10, "100.00")

	stranger := model.Principal{UserID: uuid.New(), FacilityID: f.principal.FacilityID}
	_, err := f.svc.CreateSale(context.Background(), stranger, f.store.ID.String(), SaleRequest{
		Products: []SaleLineRequest{{ID: f.productA.ID.String(), Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestCreatePurchaseIntoEmptyStore(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	purchase, err := f.svc.CreatePurchase(ctx, f.principal, f.store.ID.String(), PurchaseRequest{
		Products: []PurchaseLineRequest{
			{ID: f.productA.ID.String(), Quantity: 100, CostPrice: decimal.RequireFromString("500.00"), UnitRetailPrice: decimal.RequireFromString("7.50")},
			{ID: f.productB.ID.String(), Quantity: 40, CostPrice: decimal.RequireFromString("600.00"), UnitRetailPrice: decimal.RequireFromString("20.00")},
		},
	})
	require.NoError(t, err)

	// Totals are the sum of line cost prices, not cost times quantity.
	assert.True(t, purchase.Total.Equal(decimal.RequireFromString("1100.00")), "total = %s", purchase.Total)
	require.Len(t, purchase.Items, 2)

	rowA, err := f.ledger.Find(ctx, f.store.ID, f.productA.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, rowA.Quantity)
	assert.True(t, rowA.UnitPrice.Equal(decimal.RequireFromString("7.50")))

	rowB, err := f.ledger.Find(ctx, f.store.ID, f.productB.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, rowB.Quantity)
	assert.True(t, rowB.UnitPrice.Equal(decimal.RequireFromString("20.00")))

	_, total, err := f.movements.ListByStore(ctx, f.store.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestCreatePurchaseAddsToExistingRowAndRepricesIt(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()
	f.seedStock(t, f.productA, 10, "5.00")

	_, err := f.svc.CreatePurchase(ctx, f.principal, f.store.ID.String(), PurchaseRequest{
		Products: []PurchaseLineRequest{
			{ID: f.productA.ID.String(), Quantity: 15, CostPrice: decimal.RequireFromString("90.00"), UnitRetailPrice: decimal.RequireFromString("6.25")},
		},
	})
	require.NoError(t, err)

	row, err := f.ledger.Find(ctx, f.store.ID, f.productA.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, row.Quantity)
	assert.True(t, row.UnitPrice.Equal(decimal.RequireFromString("6.25")), "unit price should follow the latest purchase")
}

func TestCreatePurchaseCollectsAllLineErrors(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	otherFacility := &model.Facility{Name: "Other Clinic"}
	require.NoError(t, f.db.Create(otherFacility).Error)
	foreign := &model.Product{FacilityID: otherFacility.ID, Name: "Foreign Product"}
	require.NoError(t, f.db.Create(foreign).Error)

	_, err := f.svc.CreatePurchase(ctx, f.principal, f.store.ID.String(), PurchaseRequest{
		Products: []PurchaseLineRequest{
			{ID: uuid.NewString(), Quantity: 1, CostPrice: decimal.RequireFromString("10.00"), UnitRetailPrice: decimal.RequireFromString("1.00")},
			{ID: f.productA.ID.String(), Quantity: 1, CostPrice: decimal.RequireFromString("10.00"), UnitRetailPrice: decimal.RequireFromString("1.00")},
			{ID: foreign.ID.String(), Quantity: 1, CostPrice: decimal.RequireFromString("10.00"), UnitRetailPrice: decimal.RequireFromString("1.00")},
		},
	})
	require.Error(t, err)

	verr, ok := apperror.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"Unknown product."}, verr.Fields["products.0.id"])
	assert.NotContains(t, verr.Fields, "products.1.id")
	assert.Equal(t, []string{"Unknown product."}, verr.Fields["products.2.id"])

	// The valid middle line was not applied either.
	_, findErr := f.ledger.Find(ctx, f.store.ID, f.productA.ID)
	assert.Error(t, findErr)
}

func TestCreatePurchaseStoreOutsideFacilityReportsNotFound(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	otherFacility := &model.Facility{Name: "Other Clinic"}
	require.NoError(t, f.db.Create(otherFacility).Error)
	foreignStore := &model.Store{FacilityID: otherFacility.ID, Name: "Foreign Store"}
	require.NoError(t, f.db.Create(foreignStore).Error)

	_, err := f.svc.CreatePurchase(ctx, f.principal, foreignStore.ID.String(), PurchaseRequest{
		Products: []PurchaseLineRequest{
			{ID: f.productA.ID.String(), Quantity: 1, CostPrice: decimal.RequireFromString("10.00"), UnitRetailPrice: decimal.RequireFromString("1.00")},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestStockTransactionsWriteAuditRows(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()
	f.seedStock(t, f.productA, 10, "100.00")

	_, err := f.svc.CreateSale(ctx, f.principal, f.store.ID.String(), SaleRequest{
		Products: []SaleLineRequest{{ID: f.productA.ID.String(), Quantity: 2}},
	})
	require.NoError(t, err)

	var entries []model.AuditLog
	require.NoError(t, f.db.Where("facility_id = ?", f.facility.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ActionSale, entries[0].Action)
	assert.Equal(t, "sale", entries[0].EntityType)
}

func TestGetPurchaseScopedToStore(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	purchase, err := f.svc.CreatePurchase(ctx, f.principal, f.store.ID.String(), PurchaseRequest{
		Products: []PurchaseLineRequest{
			{ID: f.productA.ID.String(), Quantity: 5, CostPrice: decimal.RequireFromString("50.00"), UnitRetailPrice: decimal.RequireFromString("12.00")},
		},
	})
	require.NoError(t, err)

	got, err := f.svc.GetPurchase(ctx, f.principal, f.store.ID.String(), purchase.ID.String())
	require.NoError(t, err)
	assert.Equal(t, purchase.ID, got.ID)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].Product)
	assert.Equal(t, f.productA.Name, got.Items[0].Product.Name)

	otherStore := &model.Store{FacilityID: f.facility.ID, Name: "Second Pharmacy"}
	require.NoError(t, f.db.Create(otherStore).Error)

	_, err = f.svc.GetPurchase(ctx, f.principal, otherStore.ID.String(), purchase.ID.String())
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestStoreInventoryAndMovements(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreatePurchase(ctx, f.principal, f.store.ID.String(), PurchaseRequest{
		Products: []PurchaseLineRequest{
			{ID: f.productA.ID.String(), Quantity: 8, CostPrice: decimal.RequireFromString("80.00"), UnitRetailPrice: decimal.RequireFromString("15.00")},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.CreateSale(ctx, f.principal, f.store.ID.String(), SaleRequest{
		Products: []SaleLineRequest{{ID: f.productA.ID.String(), Quantity: 3}},
	})
	require.NoError(t, err)

	rows, total, err := f.svc.StoreInventory(ctx, f.principal, f.store.ID.String(), testPage())
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, 5, rows[0].Quantity)

	movements, total, err := f.svc.StoreMovements(ctx, f.principal, f.store.ID.String(), testPage())
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, movements, 2)
}

func TestCreateSaleAggregatesDuplicateLines(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()
	f.seedStock(t, f.productA, 10, "200.50")

	// Two lines for the same product must be checked against the combined
	// quantity, not against the pre-sale snapshot twice.
	_, err := f.svc.CreateSale(ctx, f.principal, f.store.ID.String(), SaleRequest{
		Products: []SaleLineRequest{
			{ID: f.productA.ID.String(), Quantity: 6},
			{ID: f.productA.ID.String(), Quantity: 6},
		},
	})
	require.Error(t, err)

	verr, ok := apperror.AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Equal(t, []string{"Only 4 in stock."}, verr.Fields["products.1.quantity"])

	// Nothing written.
	assert.Equal(t, 10, f.ledgerQuantity(t, f.productA))
	_, total, err := f.movements.ListByStore(ctx, f.store.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestCreateSaleAppliesDuplicateLinesWithinStock(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()
	f.seedStock(t, f.productA, 10, "200.50")

	sale, err := f.svc.CreateSale(ctx, f.principal, f.store.ID.String(), SaleRequest{
		Products: []SaleLineRequest{
			{ID: f.productA.ID.String(), Quantity: 3},
			{ID: f.productA.ID.String(), Quantity: 3},
		},
	})
	require.NoError(t, err)

	assert.True(t, sale.Total.Equal(decimal.RequireFromString("1203.00")), "total = %s", sale.Total)
	assert.Equal(t, 4, f.ledgerQuantity(t, f.productA))

	movements, total, err := f.movements.ListByStore(ctx, f.store.ID, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	quantitiesAfter := []int{movements[0].QuantityAfter, movements[1].QuantityAfter}
	assert.ElementsMatch(t, []int{7, 4}, quantitiesAfter)
}
