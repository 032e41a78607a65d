package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dailypos/backend/internal/domain"
)

func TestInventoryDeltasApplyAndClamp(t *testing.T) {
	databaseURL := os.Getenv("DAILYPOS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set DAILYPOS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	companyID := fmt.Sprintf("co-inv-it-%d", stamp)
	storeID := fmt.Sprintf("st-inv-it-%d", stamp)
	productID := fmt.Sprintf("pr-inv-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM stores WHERE id = $1`, storeID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM companies WHERE id = $1`, companyID)
	})

	if _, err := s.CreateCompany(ctx, domain.Company{
		ID: companyID, Name: "Inv IT Co", CurrencySymbol: "$", MaxStores: 1,
	}); err != nil {
		t.Fatalf("create company: %v", err)
	}
	if _, err := s.CreateStore(ctx, domain.Store{
		ID: storeID, CompanyID: companyID, Name: "Inv IT Store", TrackInventory: true,
	}); err != nil {
		t.Fatalf("create store: %v", err)
	}

	inventory := decimal.NewFromInt(5)
	if _, err := s.CreateProduct(ctx, domain.Product{
		ID: productID, StoreID: storeID, Name: "Inv IT Product",
		Price: decimal.NewFromInt(3), Inventory: &inventory,
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}

	// Return 2 then deduct 4, net down 2.
	err = s.ApplyInventoryDeltas(ctx, storeID, []domain.InventoryDelta{
		{ProductID: productID, Delta: decimal.NewFromInt(2)},
		{ProductID: productID, Delta: decimal.NewFromInt(-4)},
	})
	if err != nil {
		t.Fatalf("apply deltas: %v", err)
	}

	product, err := s.GetProductByID(ctx, productID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Inventory == nil || !product.Inventory.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("expected inventory 3, got %v", product.Inventory)
	}

	// Deducting past zero clamps, never errors.
	err = s.ApplyInventoryDeltas(ctx, storeID, []domain.InventoryDelta{
		{ProductID: productID, Delta: decimal.NewFromInt(-10)},
	})
	if err != nil {
		t.Fatalf("apply oversell delta: %v", err)
	}

	product, err = s.GetProductByID(ctx, productID)
	if err != nil {
		t.Fatalf("get product after oversell: %v", err)
	}
	if product.Inventory == nil || !product.Inventory.IsZero() {
		t.Fatalf("expected inventory clamped to 0, got %v", product.Inventory)
	}
}
