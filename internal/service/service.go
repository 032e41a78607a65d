package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"dailypos/backend/internal/cache"
	"dailypos/backend/internal/cart"
	"dailypos/backend/internal/domain"
	"dailypos/backend/internal/store"
	"dailypos/backend/internal/unit"
	"dailypos/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const defaultSummaryTTL = 5 * time.Minute

// moneyPlaces is the rounding applied to order totals.
const moneyPlaces = 2

type Service struct {
	repo       store.Repository
	summaries  cache.SummaryCache
	summaryTTL time.Duration
}

func New(repo store.Repository, summaries cache.SummaryCache) *Service {
	if summaries == nil {
		summaries = cache.NoopSummaryCache{}
	}
	return &Service{repo: repo, summaries: summaries, summaryTTL: defaultSummaryTTL}
}

// SetSummaryTTL overrides how long day summaries stay cached. Values of
// zero or less are ignored.
func (s *Service) SetSummaryTTL(ttl time.Duration) {
	if ttl > 0 {
		s.summaryTTL = ttl
	}
}

// Today returns the current calendar day key, in server-local time, the
// same way the lazily created day sessions are keyed.
func (s *Service) Today() string {
	return time.Now().Format(domain.SessionDateFormat)
}

// storeForActor resolves a store and enforces company scoping. A store
// belonging to another company reads as not found so existence never
// leaks across tenants.
func (s *Service) storeForActor(ctx context.Context, storeID string) (*domain.Store, error) {
	st, err := s.repo.GetStoreByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, store.ErrForbidden
	}
	if !actor.IsAdmin() && actor.CompanyID != st.CompanyID {
		return nil, store.ErrNotFound
	}
	return st, nil
}

func requireAdmin(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || !actor.IsAdmin() {
		return domain.Actor{}, store.ErrForbidden
	}
	return actor, nil
}

// ---- companies ----

func (s *Service) CreateCompany(ctx context.Context, req domain.CompanyCreateRequest) (domain.Company, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Company{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Company{}, fmt.Errorf("%w: company name is required", store.ErrValidation)
	}
	if req.MaxStores < 1 {
		req.MaxStores = 1
	}
	symbol := strings.TrimSpace(req.CurrencySymbol)
	if symbol == "" {
		symbol = "$"
	}
	created, err := s.repo.CreateCompany(ctx, domain.Company{
		ID:             uuid.NewString(),
		Name:           name,
		CurrencySymbol: symbol,
		MaxStores:      req.MaxStores,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return domain.Company{}, err
	}
	return *created, nil
}

func (s *Service) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, store.ErrForbidden
	}
	if actor.IsAdmin() {
		return s.repo.ListCompanies(ctx)
	}
	company, err := s.repo.GetCompanyByID(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	return []domain.Company{*company}, nil
}

func (s *Service) GetCompany(ctx context.Context, companyID string) (domain.Company, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Company{}, store.ErrForbidden
	}
	if !actor.IsAdmin() && actor.CompanyID != companyID {
		return domain.Company{}, store.ErrNotFound
	}
	company, err := s.repo.GetCompanyByID(ctx, companyID)
	if err != nil {
		return domain.Company{}, err
	}
	return *company, nil
}

func (s *Service) UpdateCompany(ctx context.Context, companyID string, req domain.CompanyUpdateRequest) (domain.Company, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Company{}, err
	}
	existing, err := s.repo.GetCompanyByID(ctx, companyID)
	if err != nil {
		return domain.Company{}, err
	}
	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Company{}, fmt.Errorf("%w: company name is required", store.ErrValidation)
		}
		updated.Name = name
	}
	if req.CurrencySymbol != nil {
		symbol := strings.TrimSpace(*req.CurrencySymbol)
		if symbol == "" {
			return domain.Company{}, fmt.Errorf("%w: currency symbol is required", store.ErrValidation)
		}
		updated.CurrencySymbol = symbol
	}
	if req.MaxStores != nil {
		if *req.MaxStores < 1 {
			return domain.Company{}, fmt.Errorf("%w: max stores must be at least 1", store.ErrValidation)
		}
		updated.MaxStores = *req.MaxStores
	}
	saved, err := s.repo.UpdateCompany(ctx, updated)
	if err != nil {
		return domain.Company{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteCompany(ctx context.Context, companyID string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteCompany(ctx, companyID)
}

// ---- stores ----

func (s *Service) CreateStore(ctx context.Context, req domain.StoreCreateRequest) (domain.Store, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Store{}, store.ErrForbidden
	}
	companyID := req.CompanyID
	if !actor.IsAdmin() {
		companyID = actor.CompanyID
	}
	if companyID == "" {
		return domain.Store{}, fmt.Errorf("%w: company id is required", store.ErrValidation)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Store{}, fmt.Errorf("%w: store name is required", store.ErrValidation)
	}
	company, err := s.repo.GetCompanyByID(ctx, companyID)
	if err != nil {
		return domain.Store{}, err
	}
	count, err := s.repo.CountStores(ctx, companyID)
	if err != nil {
		return domain.Store{}, err
	}
	if count >= company.MaxStores {
		return domain.Store{}, store.ErrStoreLimit
	}
	created, err := s.repo.CreateStore(ctx, domain.Store{
		ID:             uuid.NewString(),
		CompanyID:      companyID,
		Name:           name,
		TrackInventory: req.TrackInventory,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return domain.Store{}, err
	}
	return *created, nil
}

func (s *Service) ListStores(ctx context.Context) ([]domain.Store, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, store.ErrForbidden
	}
	if actor.IsAdmin() {
		return s.repo.ListStores(ctx, "")
	}
	return s.repo.ListStores(ctx, actor.CompanyID)
}

func (s *Service) GetStore(ctx context.Context, storeID string) (domain.Store, error) {
	st, err := s.storeForActor(ctx, storeID)
	if err != nil {
		return domain.Store{}, err
	}
	return *st, nil
}

func (s *Service) UpdateStore(ctx context.Context, storeID string, req domain.StoreUpdateRequest) (domain.Store, error) {
	existing, err := s.storeForActor(ctx, storeID)
	if err != nil {
		return domain.Store{}, err
	}
	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Store{}, fmt.Errorf("%w: store name is required", store.ErrValidation)
		}
		updated.Name = name
	}
	if req.TrackInventory != nil {
		updated.TrackInventory = *req.TrackInventory
	}
	saved, err := s.repo.UpdateStore(ctx, updated)
	if err != nil {
		return domain.Store{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteStore(ctx context.Context, storeID string) error {
	if _, err := s.storeForActor(ctx, storeID); err != nil {
		return err
	}
	return s.repo.DeleteStore(ctx, storeID)
}

// ---- products ----

func (s *Service) ListProducts(ctx context.Context, storeID string) ([]domain.Product, error) {
	if _, err := s.storeForActor(ctx, storeID); err != nil {
		return nil, err
	}
	return s.repo.ListProducts(ctx, storeID)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if _, err := s.storeForActor(ctx, req.StoreID); err != nil {
		return domain.Product{}, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	req.Unit = strings.TrimSpace(req.Unit)
	if req.Name == "" {
		return domain.Product{}, fmt.Errorf("%w: product name is required", store.ErrValidation)
	}
	if req.Price.IsNegative() {
		return domain.Product{}, fmt.Errorf("%w: price must not be negative", store.ErrValidation)
	}
	if !unit.Valid(req.Unit) {
		return domain.Product{}, fmt.Errorf("%w: unknown unit %q", store.ErrValidation, req.Unit)
	}
	if req.Inventory != nil && req.Inventory.IsNegative() {
		return domain.Product{}, fmt.Errorf("%w: inventory must not be negative", store.ErrValidation)
	}
	created, err := s.repo.CreateProduct(ctx, domain.Product{
		ID:        uuid.NewString(),
		StoreID:   req.StoreID,
		Name:      req.Name,
		Price:     req.Price,
		Category:  req.Category,
		Unit:      req.Unit,
		Inventory: req.Inventory,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.Product{}, err
	}
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, productID string, req domain.ProductUpdateRequest) (domain.Product, error) {
	existing, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	if _, err := s.storeForActor(ctx, existing.StoreID); err != nil {
		return domain.Product{}, err
	}
	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, fmt.Errorf("%w: product name is required", store.ErrValidation)
		}
		updated.Name = name
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return domain.Product{}, fmt.Errorf("%w: price must not be negative", store.ErrValidation)
		}
		updated.Price = *req.Price
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(*req.Category)
	}
	if req.Unit != nil {
		u := strings.TrimSpace(*req.Unit)
		if !unit.Valid(u) {
			return domain.Product{}, fmt.Errorf("%w: unknown unit %q", store.ErrValidation, u)
		}
		updated.Unit = u
	}
	if req.Inventory != nil {
		inv := *req.Inventory
		if inv.IsNegative() {
			inv = decimal.Zero
		}
		updated.Inventory = &inv
	}
	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}
	return *saved, nil
}

// DeleteProduct removes a catalog entry. Order item snapshots that
// reference the product keep their frozen name and price.
func (s *Service) DeleteProduct(ctx context.Context, productID string) error {
	existing, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		return err
	}
	if _, err := s.storeForActor(ctx, existing.StoreID); err != nil {
		return err
	}
	return s.repo.DeleteProduct(ctx, productID)
}

// ---- combos ----

func (s *Service) ListCombos(ctx context.Context, storeID string) ([]domain.Combo, error) {
	if _, err := s.storeForActor(ctx, storeID); err != nil {
		return nil, err
	}
	return s.repo.ListCombos(ctx, storeID)
}

func (s *Service) CreateCombo(ctx context.Context, req domain.ComboCreateRequest) (domain.Combo, error) {
	if _, err := s.storeForActor(ctx, req.StoreID); err != nil {
		return domain.Combo{}, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Combo{}, fmt.Errorf("%w: combo name is required", store.ErrValidation)
	}
	if len(req.Items) == 0 {
		return domain.Combo{}, fmt.Errorf("%w: combo needs at least one item", store.ErrValidation)
	}
	if req.Price.IsNegative() {
		return domain.Combo{}, fmt.Errorf("%w: price must not be negative", store.ErrValidation)
	}
	created, err := s.repo.CreateCombo(ctx, domain.Combo{
		ID:        uuid.NewString(),
		StoreID:   req.StoreID,
		Name:      req.Name,
		Price:     req.Price,
		Items:     req.Items,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.Combo{}, err
	}
	return *created, nil
}

func (s *Service) UpdateCombo(ctx context.Context, comboID string, req domain.ComboUpdateRequest) (domain.Combo, error) {
	existing, err := s.repo.GetComboByID(ctx, comboID)
	if err != nil {
		return domain.Combo{}, err
	}
	if _, err := s.storeForActor(ctx, existing.StoreID); err != nil {
		return domain.Combo{}, err
	}
	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Combo{}, fmt.Errorf("%w: combo name is required", store.ErrValidation)
		}
		updated.Name = name
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return domain.Combo{}, fmt.Errorf("%w: price must not be negative", store.ErrValidation)
		}
		updated.Price = *req.Price
	}
	if req.Items != nil {
		updated.Items = req.Items
	}
	saved, err := s.repo.UpdateCombo(ctx, updated)
	if err != nil {
		return domain.Combo{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteCombo(ctx context.Context, comboID string) error {
	existing, err := s.repo.GetComboByID(ctx, comboID)
	if err != nil {
		return err
	}
	if _, err := s.storeForActor(ctx, existing.StoreID); err != nil {
		return err
	}
	return s.repo.DeleteCombo(ctx, comboID)
}

// ---- orders ----

func (s *Service) CreateOrder(ctx context.Context, req domain.OrderCreateRequest) (domain.Order, error) {
	st, err := s.storeForActor(ctx, req.StoreID)
	if err != nil {
		return domain.Order{}, err
	}
	if len(req.Lines) == 0 && len(req.Combos) == 0 {
		return domain.Order{}, store.ErrEmptyOrder
	}
	items, err := s.buildItems(ctx, st.ID, req.Lines, req.Combos)
	if err != nil {
		return domain.Order{}, err
	}

	date := s.Today()
	session, err := s.repo.GetOrCreateSession(ctx, st.ID, date)
	if err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		ID:           uuid.NewString(),
		StoreID:      st.ID,
		SessionID:    session.ID,
		CustomerName: strings.TrimSpace(req.CustomerName),
		Items:        items,
		Total:        itemsTotal(items),
		IsPaid:       req.IsPaid,
		CreatedAt:    time.Now().UTC(),
	}
	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.repo.AttachOrderToSession(ctx, session.ID, created.ID); err != nil {
		return domain.Order{}, err
	}
	if err := s.repo.ApplyInventoryDeltas(ctx, st.ID, deltasForItems(created.Items, -1)); err != nil {
		return domain.Order{}, err
	}
	s.rememberCustomer(ctx, st.ID, created.CustomerName)
	s.invalidateSummary(ctx, st.ID, date)
	return *created, nil
}

// UpdateOrder applies a partial update. A change to the customer name or
// the item lines counts as a content edit: the pre-update state is
// appended to the edit history, the total is recomputed, and IsEdited is
// set. Flipping IsPaid alone touches neither.
func (s *Service) UpdateOrder(ctx context.Context, orderID string, req domain.OrderUpdateRequest) (domain.Order, error) {
	existing, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	st, err := s.storeForActor(ctx, existing.StoreID)
	if err != nil {
		return domain.Order{}, err
	}

	updated := *existing
	contentEdited := false

	if req.CustomerName != nil {
		name := strings.TrimSpace(*req.CustomerName)
		if name != existing.CustomerName {
			updated.CustomerName = name
			contentEdited = true
		}
	}

	var deltas []domain.InventoryDelta
	if req.Lines != nil || len(req.Combos) > 0 {
		if len(req.Lines) == 0 && len(req.Combos) == 0 {
			return domain.Order{}, store.ErrEmptyOrder
		}
		items, err := s.buildItems(ctx, st.ID, req.Lines, req.Combos)
		if err != nil {
			return domain.Order{}, err
		}
		// Return the old items first, then deduct the new ones, in a
		// single atomic application.
		deltas = append(deltasForItems(existing.Items, 1), deltasForItems(items, -1)...)
		updated.Items = items
		updated.Total = itemsTotal(items)
		contentEdited = true
	}

	if contentEdited {
		updated.EditHistory = append(updated.EditHistory, domain.OrderRevision{
			ID:           xid.New("rev"),
			CustomerName: existing.CustomerName,
			Items:        existing.Items,
			Total:        existing.Total,
			EditedAt:     time.Now().UTC(),
		})
		updated.IsEdited = true
	}
	if req.IsPaid != nil {
		updated.IsPaid = *req.IsPaid
	}

	saved, err := s.repo.UpdateOrder(ctx, updated)
	if err != nil {
		return domain.Order{}, err
	}
	if len(deltas) > 0 {
		if err := s.repo.ApplyInventoryDeltas(ctx, st.ID, deltas); err != nil {
			return domain.Order{}, err
		}
	}
	if contentEdited {
		s.rememberCustomer(ctx, st.ID, saved.CustomerName)
	}
	s.invalidateSummary(ctx, st.ID, sessionDate(ctx, s.repo, saved))
	return *saved, nil
}

// DeleteOrder returns the order's item quantities to inventory, detaches
// it from its day session, and removes it.
func (s *Service) DeleteOrder(ctx context.Context, orderID string) error {
	existing, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	st, err := s.storeForActor(ctx, existing.StoreID)
	if err != nil {
		return err
	}
	if err := s.repo.ApplyInventoryDeltas(ctx, st.ID, deltasForItems(existing.Items, 1)); err != nil {
		return err
	}
	if existing.SessionID != "" {
		if err := s.repo.DetachOrderFromSession(ctx, existing.SessionID, existing.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	if err := s.repo.DeleteOrder(ctx, orderID); err != nil {
		return err
	}
	s.invalidateSummary(ctx, st.ID, sessionDate(ctx, s.repo, existing))
	return nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	existing, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if _, err := s.storeForActor(ctx, existing.StoreID); err != nil {
		return domain.Order{}, err
	}
	return *existing, nil
}

// TogglePayment flips IsPaid. It is not a content edit: IsEdited and the
// edit history are left alone.
func (s *Service) TogglePayment(ctx context.Context, orderID string) (domain.Order, error) {
	existing, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	st, err := s.storeForActor(ctx, existing.StoreID)
	if err != nil {
		return domain.Order{}, err
	}
	updated := *existing
	updated.IsPaid = !existing.IsPaid
	saved, err := s.repo.UpdateOrder(ctx, updated)
	if err != nil {
		return domain.Order{}, err
	}
	s.invalidateSummary(ctx, st.ID, sessionDate(ctx, s.repo, saved))
	return *saved, nil
}

func (s *Service) OrdersForDate(ctx context.Context, storeID string, date string) ([]domain.Order, error) {
	if _, err := s.storeForActor(ctx, storeID); err != nil {
		return nil, err
	}
	if date == "" {
		date = s.Today()
	}
	if _, err := time.Parse(domain.SessionDateFormat, date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrValidation)
	}
	return s.repo.ListOrders(ctx, storeID, date)
}

func (s *Service) TodayOrders(ctx context.Context, storeID string) ([]domain.Order, error) {
	return s.OrdersForDate(ctx, storeID, s.Today())
}

// ClearToday deletes every order in today's session through the ordinary
// delete path, so inventory is returned, then discards the session.
// Clearing a day with no session is a no-op.
func (s *Service) ClearToday(ctx context.Context, storeID string) error {
	if _, err := s.storeForActor(ctx, storeID); err != nil {
		return err
	}
	date := s.Today()
	session, err := s.repo.GetSessionByDate(ctx, storeID, date)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, orderID := range session.OrderIDs {
		if err := s.DeleteOrder(ctx, orderID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	if err := s.repo.DeleteSession(ctx, session.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	s.invalidateSummary(ctx, storeID, date)
	return nil
}

// BulkSetPaid applies a payment flag across many orders. Each id gets its
// own outcome, in input order; a failure never stops or rolls back the
// rest, and payment changes never mark orders as edited.
func (s *Service) BulkSetPaid(ctx context.Context, storeID string, req domain.BulkPaymentRequest) (domain.BulkPaymentResult, error) {
	if _, err := s.storeForActor(ctx, storeID); err != nil {
		return domain.BulkPaymentResult{}, err
	}
	result := domain.BulkPaymentResult{
		Total:   len(req.OrderIDs),
		Results: make([]domain.BulkPaymentOutcome, 0, len(req.OrderIDs)),
	}
	for _, orderID := range req.OrderIDs {
		outcome := domain.BulkPaymentOutcome{OrderID: orderID}
		existing, err := s.repo.GetOrderByID(ctx, orderID)
		switch {
		case err != nil, existing != nil && existing.StoreID != storeID:
			outcome.Error = "order not found"
		default:
			updated := *existing
			updated.IsPaid = req.IsPaid
			if _, err := s.repo.UpdateOrder(ctx, updated); err != nil {
				outcome.Error = "update failed"
			} else {
				outcome.Success = true
			}
		}
		if outcome.Success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.Results = append(result.Results, outcome)
	}
	s.invalidateSummary(ctx, storeID, s.Today())
	return result, nil
}

// ---- sessions and summaries ----

func (s *Service) SessionForDate(ctx context.Context, storeID string, date string) (domain.Session, error) {
	if _, err := s.storeForActor(ctx, storeID); err != nil {
		return domain.Session{}, err
	}
	if date == "" {
		date = s.Today()
	}
	session, err := s.repo.GetSessionByDate(ctx, storeID, date)
	if err != nil {
		return domain.Session{}, err
	}
	return *session, nil
}

func (s *Service) MarkSessionExported(ctx context.Context, storeID string, date string) (domain.Session, error) {
	session, err := s.SessionForDate(ctx, storeID, date)
	if err != nil {
		return domain.Session{}, err
	}
	marked, err := s.repo.MarkSessionExported(ctx, session.ID)
	if err != nil {
		return domain.Session{}, err
	}
	s.invalidateSummary(ctx, storeID, date)
	return *marked, nil
}

// DaySummary aggregates a day's orders per product. Results are cached
// briefly; every order mutation invalidates the affected day.
func (s *Service) DaySummary(ctx context.Context, storeID string, date string) (domain.DaySummary, error) {
	if _, err := s.storeForActor(ctx, storeID); err != nil {
		return domain.DaySummary{}, err
	}
	if date == "" {
		date = s.Today()
	}
	key := summaryKey(storeID, date)
	if cached, found, err := s.summaries.Get(ctx, key); err == nil && found {
		return *cached, nil
	} else if err != nil {
		log.Printf("[service] WARN: summary cache read failed store=%s date=%s: %v", storeID, date, err)
	}

	orders, err := s.repo.ListOrders(ctx, storeID, date)
	if err != nil {
		return domain.DaySummary{}, err
	}
	summary := summarizeOrders(storeID, date, orders)
	if session, err := s.repo.GetSessionByDate(ctx, storeID, date); err == nil {
		summary.Exported = session.Exported
	}
	if err := s.summaries.Set(ctx, key, &summary, s.summaryTTL); err != nil {
		log.Printf("[service] WARN: summary cache write failed store=%s date=%s: %v", storeID, date, err)
	}
	return summary, nil
}

// ---- customers ----

func (s *Service) CustomerNames(ctx context.Context, storeID string, prefix string) ([]domain.CustomerName, error) {
	if _, err := s.storeForActor(ctx, storeID); err != nil {
		return nil, err
	}
	return s.repo.ListCustomerNames(ctx, storeID, prefix, 20)
}

func (s *Service) rememberCustomer(ctx context.Context, storeID string, name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	err := s.repo.UpsertCustomerName(ctx, domain.CustomerName{
		StoreID:  storeID,
		Name:     name,
		LastUsed: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[service] WARN: failed to remember customer name store=%s: %v", storeID, err)
	}
}

// ---- users ----

func (s *Service) CreateUser(ctx context.Context, req domain.UserCreateRequest) (domain.UserView, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.UserView{}, err
	}
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if len(username) < 4 || strings.ContainsAny(username, " \t\r\n") {
		return domain.UserView{}, fmt.Errorf("%w: username must be at least 4 characters with no spaces", store.ErrValidation)
	}
	if len(req.Password) < 6 {
		return domain.UserView{}, fmt.Errorf("%w: password must be at least 6 characters", store.ErrValidation)
	}
	if req.Role != domain.RoleUser && req.Role != domain.RoleAdmin {
		return domain.UserView{}, fmt.Errorf("%w: role must be user or admin", store.ErrValidation)
	}
	if req.Role == domain.RoleUser {
		if _, err := s.repo.GetCompanyByID(ctx, req.CompanyID); err != nil {
			return domain.UserView{}, err
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.UserView{}, fmt.Errorf("failed to hash password: %w", err)
	}
	created, err := s.repo.CreateUser(ctx, domain.UserAccount{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         req.Role,
		CompanyID:    req.CompanyID,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return domain.UserView{}, err
	}
	return created.View(), nil
}

func (s *Service) ListUsers(ctx context.Context, companyID string) ([]domain.UserView, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	users, err := s.repo.ListUsers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	views := make([]domain.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	return views, nil
}

func (s *Service) UpdateUser(ctx context.Context, username string, req domain.UserUpdateRequest) (domain.UserView, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.UserView{}, err
	}
	existing, err := s.repo.GetUserByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return domain.UserView{}, err
	}
	updated := *existing
	if req.Password != nil {
		if len(*req.Password) < 6 {
			return domain.UserView{}, fmt.Errorf("%w: password must be at least 6 characters", store.ErrValidation)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return domain.UserView{}, fmt.Errorf("failed to hash password: %w", err)
		}
		updated.PasswordHash = string(hash)
	}
	if req.Role != nil {
		if *req.Role != domain.RoleUser && *req.Role != domain.RoleAdmin {
			return domain.UserView{}, fmt.Errorf("%w: role must be user or admin", store.ErrValidation)
		}
		updated.Role = *req.Role
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}
	saved, err := s.repo.UpdateUser(ctx, updated)
	if err != nil {
		return domain.UserView{}, err
	}
	return saved.View(), nil
}

func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteUser(ctx, userID)
}

// ---- helpers ----

// buildItems resolves request lines and combo references against the
// catalog and freezes name and price snapshots. The cart owns the merge,
// snapshot and whole-quantity rules; combo references expand into their
// component product lines.
func (s *Service) buildItems(ctx context.Context, storeID string, lines []domain.OrderLine, comboRefs []domain.ComboLine) ([]domain.OrderItem, error) {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	combos := make([]domain.Combo, 0, len(comboRefs))
	counts := make([]int64, 0, len(comboRefs))
	for _, ref := range comboRefs {
		combo, err := s.repo.GetComboByID(ctx, ref.ComboID)
		if err != nil {
			return nil, err
		}
		if combo.StoreID != storeID {
			return nil, fmt.Errorf("%w: combo %s", store.ErrNotFound, ref.ComboID)
		}
		count := ref.Quantity
		if count.IsZero() {
			count = decimal.New(1, 0)
		}
		if count.Sign() <= 0 || !count.Equal(count.Truncate(0)) {
			return nil, fmt.Errorf("%w: combo %q needs a whole positive quantity", store.ErrValidation, combo.Name)
		}
		combos = append(combos, *combo)
		counts = append(counts, count.IntPart())
		for _, item := range combo.Items {
			ids = append(ids, item.ProductID)
		}
	}

	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	catalog := make(map[string]domain.Product, len(products))
	for id, p := range products {
		if p.StoreID == storeID {
			catalog[id] = p
		}
	}

	c := cart.New()
	for _, line := range lines {
		product, ok := catalog[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, line.ProductID)
		}
		if line.Quantity.Sign() <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive for %q", store.ErrValidation, product.Name)
		}
		if err := c.Add(product, line.Quantity); err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrValidation, err)
		}
	}
	for i, combo := range combos {
		for n := int64(0); n < counts[i]; n++ {
			if err := c.AddCombo(combo, catalog); err != nil {
				return nil, fmt.Errorf("%w: %v", store.ErrValidation, err)
			}
		}
	}

	items := make([]domain.OrderItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, domain.OrderItem{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Price:       l.Price,
			Quantity:    l.Quantity,
		})
	}
	return items, nil
}

func itemsTotal(items []domain.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(item.Quantity))
	}
	return total.Round(moneyPlaces)
}

// deltasForItems builds one signed inventory delta per item. sign is +1
// for returns and -1 for deductions.
func deltasForItems(items []domain.OrderItem, sign int64) []domain.InventoryDelta {
	deltas := make([]domain.InventoryDelta, 0, len(items))
	for _, item := range items {
		deltas = append(deltas, domain.InventoryDelta{
			ProductID: item.ProductID,
			Delta:     item.Quantity.Mul(decimal.New(sign, 0)),
		})
	}
	return deltas
}

func summarizeOrders(storeID string, date string, orders []domain.Order) domain.DaySummary {
	summary := domain.DaySummary{
		StoreID:     storeID,
		Date:        date,
		Orders:      len(orders),
		Revenue:     decimal.Zero,
		UnpaidDue:   decimal.Zero,
		ByProduct:   []domain.DaySummaryProduct{},
		GeneratedAt: time.Now().UTC(),
	}
	type agg struct {
		qty     decimal.Decimal
		revenue decimal.Decimal
	}
	byName := make(map[string]agg)
	names := make([]string, 0)
	for _, order := range orders {
		summary.Revenue = summary.Revenue.Add(order.Total)
		if !order.IsPaid {
			summary.UnpaidDue = summary.UnpaidDue.Add(order.Total)
		}
		if order.IsEdited {
			summary.AnyEdited = true
		}
		for _, item := range order.Items {
			a, seen := byName[item.ProductName]
			if !seen {
				a = agg{qty: decimal.Zero, revenue: decimal.Zero}
				names = append(names, item.ProductName)
			}
			a.qty = a.qty.Add(item.Quantity)
			a.revenue = a.revenue.Add(item.Price.Mul(item.Quantity))
			byName[item.ProductName] = a
		}
	}
	for _, name := range names {
		summary.ByProduct = append(summary.ByProduct, domain.DaySummaryProduct{
			ProductName: name,
			Quantity:    byName[name].qty,
			Revenue:     byName[name].revenue,
		})
	}
	// highest revenue first
	slices.SortStableFunc(summary.ByProduct, func(a, b domain.DaySummaryProduct) int {
		return b.Revenue.Cmp(a.Revenue)
	})
	return summary
}

func summaryKey(storeID string, date string) string {
	return "summary:" + storeID + ":" + date
}

func (s *Service) invalidateSummary(ctx context.Context, storeID string, date string) {
	if err := s.summaries.Invalidate(ctx, summaryKey(storeID, date)); err != nil {
		log.Printf("[service] WARN: summary cache invalidate failed store=%s date=%s: %v", storeID, date, err)
	}
}

// sessionDate finds the calendar day an order belongs to, falling back to
// its creation time when the session is gone.
func sessionDate(ctx context.Context, repo store.Repository, order *domain.Order) string {
	if order.SessionID != "" {
		if session, err := repo.GetSessionByID(ctx, order.SessionID); err == nil {
			return session.Date
		}
	}
	return order.CreatedAt.Format(domain.SessionDateFormat)
}
