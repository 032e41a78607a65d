package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dailypos/backend/internal/domain"
	"dailypos/backend/internal/store"
	"dailypos/backend/internal/store/memory"
)

type fixture struct {
	svc      *Service
	ctx      context.Context
	company  domain.Company
	store    domain.Store
	espresso domain.Product
	beans    domain.Product
}

// newFixture builds a tracked store with a unitless product and a
// by-weight product through the ordinary service calls.
func newFixture(t *testing.T, trackInventory bool) fixture {
	t.Helper()
	svc := New(memory.New(), nil)
	ctx := WithActor(context.Background(), domain.Actor{
		Username: "admin",
		Role:     domain.RoleAdmin,
	})

	company, err := svc.CreateCompany(ctx, domain.CompanyCreateRequest{
		Name: "Test Co", CurrencySymbol: "$", MaxStores: 3,
	})
	if err != nil {
		t.Fatalf("create company: %v", err)
	}
	st, err := svc.CreateStore(ctx, domain.StoreCreateRequest{
		CompanyID: company.ID, Name: "Test Shop", TrackInventory: trackInventory,
	})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	inv := decimal.NewFromInt(10)
	espresso, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{
		StoreID: st.ID, Name: "Espresso", Price: decimal.RequireFromString("2.50"),
		Category: "drinks", Inventory: &inv,
	})
	if err != nil {
		t.Fatalf("create espresso: %v", err)
	}
	beansInv := decimal.NewFromInt(25)
	beans, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{
		StoreID: st.ID, Name: "House Blend Beans", Price: decimal.RequireFromString("14.50"),
		Category: "retail", Unit: "kg", Inventory: &beansInv,
	})
	if err != nil {
		t.Fatalf("create beans: %v", err)
	}

	return fixture{svc: svc, ctx: ctx, company: company, store: st, espresso: espresso, beans: beans}
}

func (f fixture) inventoryOf(t *testing.T, productID string) decimal.Decimal {
	t.Helper()
	products, err := f.svc.ListProducts(f.ctx, f.store.ID)
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	for _, p := range products {
		if p.ID == productID {
			if p.Inventory == nil {
				t.Fatalf("product %s has no inventory", p.Name)
			}
			return *p.Inventory
		}
	}
	t.Fatalf("product %s not found", productID)
	return decimal.Zero
}

func TestCreateOrderRejectsEmptyLines(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{StoreID: f.store.ID})
	if !errors.Is(err, store.ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", err)
	}
}

func TestCreateOrderSnapshotsCatalogState(t *testing.T) {
	f := newFixture(t, true)

	order, err := f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
		StoreID: f.store.ID,
		Lines:   []domain.OrderLine{{ProductID: f.espresso.ID, Quantity: decimal.NewFromInt(2)}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if !order.Total.Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("expected total 5.00, got %s", order.Total)
	}

	newName := "Double Espresso"
	newPrice := decimal.RequireFromString("9.99")
	if _, err := f.svc.UpdateProduct(f.ctx, f.espresso.ID, domain.ProductUpdateRequest{
		Name: &newName, Price: &newPrice,
	}); err != nil {
		t.Fatalf("update product: %v", err)
	}

	got, err := f.svc.GetOrder(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Items[0].ProductName != "Espresso" {
		t.Fatalf("snapshot name changed: %s", got.Items[0].ProductName)
	}
	if !got.Items[0].Price.Equal(decimal.RequireFromString("2.50")) {
		t.Fatalf("snapshot price changed: %s", got.Items[0].Price)
	}
	if !got.Total.Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("total changed after catalog edit: %s", got.Total)
	}
}

func TestCreateOrderMergesDuplicateLines(t *testing.T) {
	f := newFixture(t, true)

	order, err := f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
		StoreID: f.store.ID,
		Lines: []domain.OrderLine{
			{ProductID: f.espresso.ID, Quantity: decimal.NewFromInt(1)},
			{ProductID: f.espresso.ID, Quantity: decimal.NewFromInt(2)},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected 1 merged item, got %d", len(order.Items))
	}
	if !order.Items[0].Quantity.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("expected merged quantity 3, got %s", order.Items[0].Quantity)
	}
}

func TestFractionalQuantityRequiresUnit(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
		StoreID: f.store.ID,
		Lines:   []domain.OrderLine{{ProductID: f.espresso.ID, Quantity: decimal.RequireFromString("1.5")}},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for fractional unitless quantity, got %v", err)
	}

	order, err := f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
		StoreID: f.store.ID,
		Lines:   []domain.OrderLine{{ProductID: f.beans.ID, Quantity: decimal.RequireFromString("0.25")}},
	})
	if err != nil {
		t.Fatalf("fractional quantity with unit should be allowed: %v", err)
	}
	if !order.Total.Equal(decimal.RequireFromString("3.63")) {
		t.Fatalf("expected total 3.63 (14.50 * 0.25 rounded), got %s", order.Total)
	}
}

func TestInventoryDeductedAndReturned(t *testing.T) {
	f := newFixture(t, true)

	order, err := f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
		StoreID: f.store.ID,
		Lines:   []domain.OrderLine{{ProductID: f.espresso.ID, Quantity: decimal.NewFromInt(3)}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if got := f.inventoryOf(t, f.espresso.ID); !got.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("expected inventory 7 after sale, got %s", got)
	}

	if err := f.svc.DeleteOrder(f.ctx, order.ID); err != nil {
		t.Fatalf("delete order: %v", err)
	}
	if got := f.inventoryOf(t, f.espresso.ID); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected inventory restored to 10, got %s", got)
	}
}

func TestOversellClampsInventoryAtZero(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
		StoreID: f.store.ID,
		Lines:   []domain.OrderLine{{ProductID: f.espresso.ID, Quantity: decimal.NewFromInt(50)}},
	})
	if err != nil {
		t.Fatalf("oversell must not fail the order: %v", err)
	}
	if got := f.inventoryOf(t, f.espresso.ID); !got.IsZero() {
		t.Fatalf("expected inventory clamped at 0, got %s", got)
	}
}

func TestUntrackedStoreLeavesInventoryAlone(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
		StoreID: f.store.ID,
		Lines:   []domain.OrderLine{{ProductID: f.espresso.ID, Quantity: decimal.NewFromInt(4)}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if got := f.inventoryOf(t, f.espresso.ID); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("untracked store must not touch inventory, got %s", got)
	}
}

func TestUpdateOrderAppendsHistoryAndAdjustsInventory(t *testing.T) {
	f := newFixture(t, true)

	order, err := f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
		StoreID:      f.store.ID,
		CustomerName: "Alex",
		Lines:        []domain.OrderLine{{ProductID: f.espresso.ID, Quantity: decimal.NewFromInt(3)}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if got := f.inventoryOf(t, f.espresso.ID); !got.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("expected inventory 7, got %s", got)
	}

	updated, err := f.svc.UpdateOrder(f.ctx, order.ID, domain.OrderUpdateRequest{
		Lines: []domain.OrderLine{{ProductID: f.espresso.ID, Quantity: decimal.NewFromInt(5)}},
	})
	if err != nil {
		t.Fatalf("update order: %v", err)
	}

	// Old quantities are returned before the new ones are deducted.
	if got := f.inventoryOf(t, f.espresso.ID); !got.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected inventory 5 after edit, got %s", got)
	}
	if !updated.IsEdited {
		t.Fatalf("content edit must set IsEdited")
	}
	if len(updated.EditHistory) != 1 {
		t.Fatalf("expected 1 revision, got %d", len(updated.EditHistory))
	}
	rev := updated.EditHistory[0]
	if rev.CustomerName != "Alex" {
		t.Fatalf("revision should hold pre-update customer name, got %q", rev.CustomerName)
	}
	if !rev.Total.Equal(decimal.RequireFromString("7.50")) {
		t.Fatalf("revision should hold pre-update total, got %s", rev.Total)
	}
	if len(rev.Items) != 1 || !rev.Items[0].Quantity.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("revision should hold pre-update items")
	}
	if !updated.Total.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("expected new total 12.50, got %s", updated.Total)
	}
}

func TestCustomerNameChangeIsContentEdit(t *testing.T) {
	f := newFixture(t, true)

	order, err := f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
		StoreID:      f.store.ID,
		CustomerName: "Alex",
		Lines:        []domain.OrderLine{{ProductID: f.espresso.ID, Quantity: decimal.NewFromInt(1)}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// Same name after trimming is not an edit.
	same := "  Alex  "
	unchanged, err := f.svc.UpdateOrder(f.ctx, order.ID, domain.OrderUpdateRequest{CustomerName: &same})
	if err != nil {
		t.Fatalf("update order: %v", err)
	}
	if unchanged.IsEdited || len(unchanged.EditHistory) != 0 {
		t.Fatalf("unchanged name must not count as an edit")
	}

	other := "Sam"
	edited, err := f.svc.UpdateOrder(f.ctx, order.ID, domain.OrderUpdateRequest{CustomerName: &other})
	if err != nil {
		t.Fatalf("update order: %v", err)
	}
	if !edited.IsEdited || len(edited.EditHistory) != 1 {
		t.Fatalf("name change must append one revision")
	}
}

func TestPaymentChangesAreNotEdits(t *testing.T) {
	f := newFixture(t, true)

	order, err := f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
		StoreID: f.store.ID,
		Lines:   []domain.OrderLine{{ProductID: f.espresso.ID, Quantity: decimal.NewFromInt(1)}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	paid := true
	updated, err := f.svc.UpdateOrder(f.ctx, order.ID, domain.OrderUpdateRequest{IsPaid: &paid})
	if err != nil {
		t.Fatalf("update order: %v", err)
	}
	if !updated.IsPaid {
		t.Fatalf("expected order paid")
	}
	if updated.IsEdited || len(updated.EditHistory) != 0 {
		t.Fatalf("payment update must not mark the order edited")
	}

	toggled, err := f.svc.TogglePayment(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("toggle payment: %v", err)
	}
	if toggled.IsPaid {
		t.Fatalf("expected toggle back to unpaid")
	}
	if toggled.IsEdited || len(toggled.EditHistory) != 0 {
		t.Fatalf("toggle must not mark the order edited")
	}
}

func TestClearTodayReturnsInventoryAndIsIdempotent(t *testing.T) {
	f := newFixture(t, true)

	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
			StoreID: f.store.ID,
			Lines:   []domain.OrderLine{{ProductID: f.espresso.ID, Quantity: decimal.NewFromInt(2)}},
		})
		if err != nil {
			t.Fatalf("create order %d: %v", i, err)
		}
	}
	if got := f.inventoryOf(t, f.espresso.ID); !got.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("expected inventory 4, got %s", got)
	}

	if err := f.svc.ClearToday(f.ctx, f.store.ID); err != nil {
		t.Fatalf("clear today: %v", err)
	}
	if got := f.inventoryOf(t, f.espresso.ID); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected inventory restored to 10, got %s", got)
	}
	orders, err := f.svc.TodayOrders(f.ctx, f.store.ID)
	if err != nil {
		t.Fatalf("today orders: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("expected no orders after clear, got %d", len(orders))
	}

	// Clearing an already-clear day is a no-op.
	if err := f.svc.ClearToday(f.ctx, f.store.ID); err != nil {
		t.Fatalf("second clear should succeed: %v", err)
	}
}

func TestBulkSetPaidReportsPerOrderOutcomes(t *testing.T) {
	f := newFixture(t, true)

	first, err := f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
		StoreID: f.store.ID,
		Lines:   []domain.OrderLine{{ProductID: f.espresso.ID, Quantity: decimal.NewFromInt(1)}},
	})
	if err != nil {
		t.Fatalf("create first order: %v", err)
	}
	second, err := f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
		StoreID: f.store.ID,
		Lines:   []domain.OrderLine{{ProductID: f.espresso.ID, Quantity: decimal.NewFromInt(1)}},
	})
	if err != nil {
		t.Fatalf("create second order: %v", err)
	}

	result, err := f.svc.BulkSetPaid(f.ctx, f.store.ID, domain.BulkPaymentRequest{
		OrderIDs: []string{first.ID, "missing-order", second.ID},
		IsPaid:   true,
	})
	if err != nil {
		t.Fatalf("bulk set paid: %v", err)
	}
	if result.Total != 3 || result.Successful != 2 || result.Failed != 1 {
		t.Fatalf("expected 2/1 split of 3, got %+v", result)
	}
	if len(result.Results) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(result.Results))
	}
	if result.Results[0].OrderID != first.ID || !result.Results[0].Success {
		t.Fatalf("outcomes must keep input order, got %+v", result.Results[0])
	}
	if result.Results[1].OrderID != "missing-order" || result.Results[1].Success {
		t.Fatalf("missing order must fail, got %+v", result.Results[1])
	}
	if result.Results[2].OrderID != second.ID || !result.Results[2].Success {
		t.Fatalf("failure must not stop later orders, got %+v", result.Results[2])
	}

	got, err := f.svc.GetOrder(f.ctx, first.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if !got.IsPaid || got.IsEdited {
		t.Fatalf("bulk payment must set paid without marking edited")
	}
}

func TestCrossCompanyStoreReadsAsNotFound(t *testing.T) {
	f := newFixture(t, true)

	otherCtx := WithActor(context.Background(), domain.Actor{
		Username:  "outsider",
		Role:      domain.RoleUser,
		CompanyID: "some-other-company",
	})
	_, err := f.svc.GetStore(otherCtx, f.store.ID)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-company read, got %v", err)
	}
	_, err = f.svc.ListProducts(otherCtx, f.store.ID)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound listing products cross-company, got %v", err)
	}
}

func TestStoreLimitEnforced(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := WithActor(context.Background(), domain.Actor{Username: "admin", Role: domain.RoleAdmin})

	company, err := svc.CreateCompany(ctx, domain.CompanyCreateRequest{Name: "Tiny Co", MaxStores: 1})
	if err != nil {
		t.Fatalf("create company: %v", err)
	}
	if _, err := svc.CreateStore(ctx, domain.StoreCreateRequest{CompanyID: company.ID, Name: "Only Store"}); err != nil {
		t.Fatalf("create store: %v", err)
	}
	_, err = svc.CreateStore(ctx, domain.StoreCreateRequest{CompanyID: company.ID, Name: "One Too Many"})
	if !errors.Is(err, store.ErrStoreLimit) {
		t.Fatalf("expected ErrStoreLimit, got %v", err)
	}
}

func TestDaySummaryAggregatesByProduct(t *testing.T) {
	f := newFixture(t, true)

	if _, err := f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
		StoreID: f.store.ID,
		IsPaid:  true,
		Lines:   []domain.OrderLine{{ProductID: f.espresso.ID, Quantity: decimal.NewFromInt(2)}},
	}); err != nil {
		t.Fatalf("create paid order: %v", err)
	}
	if _, err := f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
		StoreID: f.store.ID,
		Lines:   []domain.OrderLine{{ProductID: f.beans.ID, Quantity: decimal.NewFromInt(1)}},
	}); err != nil {
		t.Fatalf("create unpaid order: %v", err)
	}

	summary, err := f.svc.DaySummary(f.ctx, f.store.ID, "")
	if err != nil {
		t.Fatalf("day summary: %v", err)
	}
	if summary.Orders != 2 {
		t.Fatalf("expected 2 orders, got %d", summary.Orders)
	}
	if !summary.Revenue.Equal(decimal.RequireFromString("19.50")) {
		t.Fatalf("expected revenue 19.50, got %s", summary.Revenue)
	}
	if !summary.UnpaidDue.Equal(decimal.RequireFromString("14.50")) {
		t.Fatalf("expected unpaid 14.50, got %s", summary.UnpaidDue)
	}
	if len(summary.ByProduct) != 2 {
		t.Fatalf("expected 2 product rows, got %d", len(summary.ByProduct))
	}
	if summary.ByProduct[0].ProductName != "House Blend Beans" {
		t.Fatalf("expected highest revenue first, got %s", summary.ByProduct[0].ProductName)
	}
}

func TestCustomerNamesRecalledByPrefix(t *testing.T) {
	f := newFixture(t, true)

	for _, name := range []string{"Alexandra", "Alexei", "Sam"} {
		if _, err := f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
			StoreID:      f.store.ID,
			CustomerName: name,
			Lines:        []domain.OrderLine{{ProductID: f.espresso.ID, Quantity: decimal.NewFromInt(1)}},
		}); err != nil {
			t.Fatalf("create order for %s: %v", name, err)
		}
	}

	names, err := f.svc.CustomerNames(f.ctx, f.store.ID, "ale")
	if err != nil {
		t.Fatalf("customer names: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 matches for prefix, got %d", len(names))
	}
}

func TestOrdersForDateValidatesFormat(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.OrdersForDate(f.ctx, f.store.ID, "28-08-2026")
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for bad date, got %v", err)
	}
}

func TestUserManagementRequiresAdmin(t *testing.T) {
	f := newFixture(t, true)

	userCtx := WithActor(context.Background(), domain.Actor{
		Username: "clerk", Role: domain.RoleUser, CompanyID: f.company.ID,
	})
	_, err := f.svc.CreateUser(userCtx, domain.UserCreateRequest{
		Username: "newuser", Password: "secret1", Role: domain.RoleUser, CompanyID: f.company.ID,
	})
	if !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin, got %v", err)
	}

	view, err := f.svc.CreateUser(f.ctx, domain.UserCreateRequest{
		Username: "NewUser", Password: "secret1", Role: domain.RoleUser, CompanyID: f.company.ID,
	})
	if err != nil {
		t.Fatalf("admin create user: %v", err)
	}
	if view.Username != "newuser" {
		t.Fatalf("username should be lowercased, got %s", view.Username)
	}
}

func (f fixture) createCombo(t *testing.T) domain.Combo {
	t.Helper()
	combo, err := f.svc.CreateCombo(f.ctx, domain.ComboCreateRequest{
		StoreID: f.store.ID, Name: "Morning Set", Price: decimal.RequireFromString("5.00"),
		Items: []domain.ComboItem{
			{ProductID: f.espresso.ID, Quantity: decimal.NewFromInt(2)},
			{ProductID: f.beans.ID, Quantity: decimal.RequireFromString("0.25")},
		},
	})
	if err != nil {
		t.Fatalf("create combo: %v", err)
	}
	return combo
}

func TestCreateOrderExpandsCombos(t *testing.T) {
	f := newFixture(t, true)
	combo := f.createCombo(t)

	order, err := f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
		StoreID: f.store.ID,
		Lines:   []domain.OrderLine{{ProductID: f.espresso.ID, Quantity: decimal.NewFromInt(1)}},
		Combos:  []domain.ComboLine{{ComboID: combo.ID}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected the combo merged into 2 lines, got %d", len(order.Items))
	}
	if !order.Items[0].Quantity.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("espresso line should merge to 3, got %s", order.Items[0].Quantity)
	}
	if !order.Items[1].Quantity.Equal(decimal.RequireFromString("0.25")) {
		t.Fatalf("beans line should carry 0.25, got %s", order.Items[1].Quantity)
	}
	// components are priced individually, not at the combo price
	if !order.Total.Equal(decimal.RequireFromString("11.13")) {
		t.Fatalf("expected total 11.13, got %s", order.Total)
	}
	if !f.inventoryOf(t, f.espresso.ID).Equal(decimal.NewFromInt(7)) {
		t.Fatalf("espresso inventory should drop to 7")
	}
	if !f.inventoryOf(t, f.beans.ID).Equal(decimal.RequireFromString("24.75")) {
		t.Fatalf("beans inventory should drop to 24.75")
	}
}

func TestCreateOrderComboQuantityRules(t *testing.T) {
	f := newFixture(t, true)
	combo := f.createCombo(t)

	order, err := f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
		StoreID: f.store.ID,
		Combos:  []domain.ComboLine{{ComboID: combo.ID, Quantity: decimal.NewFromInt(2)}},
	})
	if err != nil {
		t.Fatalf("create combo-only order: %v", err)
	}
	if !order.Items[0].Quantity.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("two combos should yield 4 espressos, got %s", order.Items[0].Quantity)
	}
	if !order.Total.Equal(decimal.RequireFromString("17.25")) {
		t.Fatalf("expected total 17.25, got %s", order.Total)
	}

	_, err = f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
		StoreID: f.store.ID,
		Combos:  []domain.ComboLine{{ComboID: combo.ID, Quantity: decimal.RequireFromString("1.5")}},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for fractional combo quantity, got %v", err)
	}

	_, err = f.svc.CreateOrder(f.ctx, domain.OrderCreateRequest{
		StoreID: f.store.ID,
		Combos:  []domain.ComboLine{{ComboID: "missing-combo"}},
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not-found for unknown combo, got %v", err)
	}
}

type recordingSummaryCache struct {
	lastTTL time.Duration
}

func (c *recordingSummaryCache) Get(context.Context, string) (*domain.DaySummary, bool, error) {
	return nil, false, nil
}

func (c *recordingSummaryCache) Set(_ context.Context, _ string, _ *domain.DaySummary, ttl time.Duration) error {
	c.lastTTL = ttl
	return nil
}

func (c *recordingSummaryCache) Invalidate(context.Context, string) error {
	return nil
}

func TestDaySummaryHonorsConfiguredCacheTTL(t *testing.T) {
	rec := &recordingSummaryCache{}
	svc := New(memory.New(), rec)
	svc.SetSummaryTTL(90 * time.Second)
	ctx := WithActor(context.Background(), domain.Actor{
		Username: "admin", Role: domain.RoleAdmin,
	})

	company, err := svc.CreateCompany(ctx, domain.CompanyCreateRequest{
		Name: "Cache Co", CurrencySymbol: "$", MaxStores: 1,
	})
	if err != nil {
		t.Fatalf("create company: %v", err)
	}
	st, err := svc.CreateStore(ctx, domain.StoreCreateRequest{
		CompanyID: company.ID, Name: "Cache Shop",
	})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	if _, err := svc.DaySummary(ctx, st.ID, ""); err != nil {
		t.Fatalf("day summary: %v", err)
	}
	if rec.lastTTL != 90*time.Second {
		t.Fatalf("summary cached with ttl %s, want 90s", rec.lastTTL)
	}

	svc.SetSummaryTTL(0)
	if _, err := svc.DaySummary(ctx, st.ID, ""); err != nil {
		t.Fatalf("day summary: %v", err)
	}
	if rec.lastTTL != 90*time.Second {
		t.Fatalf("non-positive ttl should be ignored, got %s", rec.lastTTL)
	}
}
