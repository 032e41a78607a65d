package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"dailypos/backend/internal/domain"
	"dailypos/backend/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	companiesByID   map[string]domain.Company
	storesByID      map[string]domain.Store
	productsByID    map[string]domain.Product
	combosByID      map[string]domain.Combo
	ordersByID      map[string]*domain.Order
	sessionsByID    map[string]*domain.Session
	sessionIDByKey  map[string]string
	customerNames   map[string]map[string]domain.CustomerName
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials come from SEED_ADMIN_PASSWORD and SEED_USER_PASSWORD; if
// unset, hardcoded dev defaults are used with a warning. These credentials
// are never used in production (the backend uses PostgreSQL when
// DATABASE_URL is set).
func seedUsers(companyID string) map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	userPwd := envOr("SEED_USER_PASSWORD", "user123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_USER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_USER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username  string
		password  string
		role      string
		companyID string
	}{
		{"admin", adminPwd, domain.RoleAdmin, ""},
		{"demo", userPwd, domain.RoleUser, companyID},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			ID:           uuid.NewString(),
			Username:     u.username,
			PasswordHash: string(hash),
			Role:         u.role,
			CompanyID:    u.companyID,
			Active:       true,
			CreatedAt:    now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func New() *Store {
	return &Store{
		companiesByID:   make(map[string]domain.Company),
		storesByID:      make(map[string]domain.Store),
		productsByID:    make(map[string]domain.Product),
		combosByID:      make(map[string]domain.Combo),
		ordersByID:      make(map[string]*domain.Order),
		sessionsByID:    make(map[string]*domain.Session),
		sessionIDByKey:  make(map[string]string),
		customerNames:   make(map[string]map[string]domain.CustomerName),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	company := domain.Company{
		ID:             uuid.NewString(),
		Name:           "Demo Trading Co",
		CurrencySymbol: "$",
		MaxStores:      3,
		CreatedAt:      now,
	}
	s.companiesByID[company.ID] = company

	tracked := domain.Store{
		ID:             uuid.NewString(),
		CompanyID:      company.ID,
		Name:           "Corner Shop",
		TrackInventory: true,
		CreatedAt:      now,
	}
	untracked := domain.Store{
		ID:             uuid.NewString(),
		CompanyID:      company.ID,
		Name:           "Market Stall",
		TrackInventory: false,
		CreatedAt:      now,
	}
	s.storesByID[tracked.ID] = tracked
	s.storesByID[untracked.ID] = untracked

	inv := func(v int64) *decimal.Decimal {
		d := decimal.New(v, 0)
		return &d
	}
	products := []domain.Product{
		{ID: uuid.NewString(), StoreID: tracked.ID, Name: "Espresso", Price: decimal.New(250, -2), Category: "drinks", Inventory: inv(120), CreatedAt: now},
		{ID: uuid.NewString(), StoreID: tracked.ID, Name: "Flat White", Price: decimal.New(380, -2), Category: "drinks", Inventory: inv(120), CreatedAt: now},
		{ID: uuid.NewString(), StoreID: tracked.ID, Name: "Croissant", Price: decimal.New(320, -2), Category: "bakery", Inventory: inv(40), CreatedAt: now},
		{ID: uuid.NewString(), StoreID: tracked.ID, Name: "Sourdough Loaf", Price: decimal.New(650, -2), Category: "bakery", Inventory: inv(15), CreatedAt: now},
		{ID: uuid.NewString(), StoreID: tracked.ID, Name: "House Blend Beans", Price: decimal.New(1450, -2), Category: "retail", Unit: "kg", Inventory: inv(25), CreatedAt: now},
		{ID: uuid.NewString(), StoreID: untracked.ID, Name: "Lemonade", Price: decimal.New(300, -2), Category: "drinks", CreatedAt: now},
		{ID: uuid.NewString(), StoreID: untracked.ID, Name: "Fruit Cup", Price: decimal.New(450, -2), Category: "food", CreatedAt: now},
	}
	for _, p := range products {
		s.productsByID[p.ID] = p
	}

	s.usersByUsername = seedUsers(company.ID)
	return s
}

func (s *Store) CreateCompany(_ context.Context, company domain.Company) (*domain.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if company.Name == "" || company.MaxStores < 1 {
		return nil, store.ErrValidation
	}
	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	if company.CreatedAt.IsZero() {
		company.CreatedAt = time.Now().UTC()
	}
	if company.CurrencySymbol == "" {
		company.CurrencySymbol = "$"
	}
	s.companiesByID[company.ID] = company
	created := company
	return &created, nil
}

func (s *Store) GetCompanyByID(_ context.Context, companyID string) (*domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	company, exists := s.companiesByID[companyID]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyCompany := company
	return &copyCompany, nil
}

func (s *Store) ListCompanies(_ context.Context) ([]domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	companies := make([]domain.Company, 0, len(s.companiesByID))
	for _, c := range s.companiesByID {
		companies = append(companies, c)
	}
	slices.SortFunc(companies, func(a, b domain.Company) int {
		return cmpString(a.Name, b.Name)
	})
	return companies, nil
}

func (s *Store) UpdateCompany(_ context.Context, company domain.Company) (*domain.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if company.Name == "" || company.MaxStores < 1 {
		return nil, store.ErrValidation
	}
	if _, exists := s.companiesByID[company.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.companiesByID[company.ID] = company
	updated := company
	return &updated, nil
}

func (s *Store) DeleteCompany(_ context.Context, companyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.companiesByID[companyID]; !exists {
		return store.ErrNotFound
	}
	delete(s.companiesByID, companyID)
	return nil
}

func (s *Store) CreateStore(_ context.Context, st domain.Store) (*domain.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.Name == "" || st.CompanyID == "" {
		return nil, store.ErrValidation
	}
	if _, exists := s.companiesByID[st.CompanyID]; !exists {
		return nil, store.ErrNotFound
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	s.storesByID[st.ID] = st
	created := st
	return &created, nil
}

func (s *Store) GetStoreByID(_ context.Context, storeID string) (*domain.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.storesByID[storeID]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyStore := st
	return &copyStore, nil
}

func (s *Store) ListStores(_ context.Context, companyID string) ([]domain.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stores := make([]domain.Store, 0, len(s.storesByID))
	for _, st := range s.storesByID {
		if companyID != "" && st.CompanyID != companyID {
			continue
		}
		stores = append(stores, st)
	}
	slices.SortFunc(stores, func(a, b domain.Store) int {
		return cmpString(a.Name, b.Name)
	})
	return stores, nil
}

func (s *Store) CountStores(_ context.Context, companyID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, st := range s.storesByID {
		if st.CompanyID == companyID {
			count++
		}
	}
	return count, nil
}

func (s *Store) UpdateStore(_ context.Context, st domain.Store) (*domain.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.Name == "" {
		return nil, store.ErrValidation
	}
	if _, exists := s.storesByID[st.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.storesByID[st.ID] = st
	updated := st
	return &updated, nil
}

func (s *Store) DeleteStore(_ context.Context, storeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.storesByID[storeID]; !exists {
		return store.ErrNotFound
	}
	delete(s.storesByID, storeID)
	for id, p := range s.productsByID {
		if p.StoreID == storeID {
			delete(s.productsByID, id)
		}
	}
	return nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.Name == "" || product.StoreID == "" || product.Price.IsNegative() {
		return nil, store.ErrValidation
	}
	if _, exists := s.storesByID[product.StoreID]; !exists {
		return nil, store.ErrNotFound
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	s.productsByID[product.ID] = cloneProduct(product)
	created := cloneProduct(product)
	return &created, nil
}

func (s *Store) GetProductByID(_ context.Context, productID string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.productsByID[productID]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := cloneProduct(product)
	return &copyProduct, nil
}

func (s *Store) ListProducts(_ context.Context, storeID string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productsByID))
	for _, p := range s.productsByID {
		if p.StoreID != storeID {
			continue
		}
		products = append(products, cloneProduct(p))
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Category, b.Category)
	})
	return products, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, productIDs []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(productIDs))
	for _, id := range productIDs {
		if p, exists := s.productsByID[id]; exists {
			result[id] = cloneProduct(p)
		}
	}
	return result, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.Name == "" || product.Price.IsNegative() {
		return nil, store.ErrValidation
	}
	if _, exists := s.productsByID[product.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.productsByID[product.ID] = cloneProduct(product)
	updated := cloneProduct(product)
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.productsByID[productID]; !exists {
		return store.ErrNotFound
	}
	delete(s.productsByID, productID)
	return nil
}

// ApplyInventoryDeltas applies the deltas in slice order under one lock
// section. Each application clamps the product at zero. Stores that do not
// track inventory and products without an inventory value are no-ops.
func (s *Store) ApplyInventoryDeltas(_ context.Context, storeID string, deltas []domain.InventoryDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, exists := s.storesByID[storeID]
	if !exists {
		return store.ErrNotFound
	}
	if !st.TrackInventory {
		return nil
	}
	for _, d := range deltas {
		p, ok := s.productsByID[d.ProductID]
		if !ok || p.StoreID != storeID || p.Inventory == nil {
			continue
		}
		next := p.Inventory.Add(d.Delta)
		if next.IsNegative() {
			next = decimal.Zero
		}
		p.Inventory = &next
		s.productsByID[d.ProductID] = p
	}
	return nil
}

func (s *Store) CreateCombo(_ context.Context, combo domain.Combo) (*domain.Combo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if combo.Name == "" || combo.StoreID == "" || len(combo.Items) == 0 || combo.Price.IsNegative() {
		return nil, store.ErrValidation
	}
	for _, item := range combo.Items {
		p, exists := s.productsByID[item.ProductID]
		if !exists || p.StoreID != combo.StoreID {
			return nil, store.ErrNotFound
		}
		if item.Quantity.Sign() <= 0 {
			return nil, store.ErrValidation
		}
	}
	if combo.ID == "" {
		combo.ID = uuid.NewString()
	}
	if combo.CreatedAt.IsZero() {
		combo.CreatedAt = time.Now().UTC()
	}
	s.combosByID[combo.ID] = cloneCombo(combo)
	created := cloneCombo(combo)
	return &created, nil
}

func (s *Store) GetComboByID(_ context.Context, comboID string) (*domain.Combo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	combo, exists := s.combosByID[comboID]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyCombo := cloneCombo(combo)
	return &copyCombo, nil
}

func (s *Store) ListCombos(_ context.Context, storeID string) ([]domain.Combo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	combos := make([]domain.Combo, 0, len(s.combosByID))
	for _, c := range s.combosByID {
		if c.StoreID != storeID {
			continue
		}
		combos = append(combos, cloneCombo(c))
	}
	slices.SortFunc(combos, func(a, b domain.Combo) int {
		return cmpString(a.Name, b.Name)
	})
	return combos, nil
}

func (s *Store) UpdateCombo(_ context.Context, combo domain.Combo) (*domain.Combo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if combo.Name == "" || len(combo.Items) == 0 || combo.Price.IsNegative() {
		return nil, store.ErrValidation
	}
	if _, exists := s.combosByID[combo.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.combosByID[combo.ID] = cloneCombo(combo)
	updated := cloneCombo(combo)
	return &updated, nil
}

func (s *Store) DeleteCombo(_ context.Context, comboID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.combosByID[comboID]; !exists {
		return store.ErrNotFound
	}
	delete(s.combosByID, comboID)
	return nil
}

func (s *Store) CreateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.StoreID == "" {
		return nil, store.ErrValidation
	}
	if len(order.Items) == 0 {
		return nil, store.ErrEmptyOrder
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	s.ordersByID[order.ID] = cloneOrder(&order)
	return cloneOrder(&order), nil
}

func (s *Store) GetOrderByID(_ context.Context, orderID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.ordersByID[orderID]
	if !exists {
		return nil, store.ErrNotFound
	}
	return cloneOrder(order), nil
}

// ListOrders returns a store's orders, newest first. When date is set only
// the orders of that day's session are returned; a missing session yields
// an empty slice.
func (s *Store) ListOrders(_ context.Context, storeID string, date string) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.Order, 0)
	if date != "" {
		sessionID, exists := s.sessionIDByKey[sessionKey(storeID, date)]
		if !exists {
			return orders, nil
		}
		session := s.sessionsByID[sessionID]
		for _, orderID := range session.OrderIDs {
			if o, ok := s.ordersByID[orderID]; ok {
				orders = append(orders, *cloneOrder(o))
			}
		}
	} else {
		for _, o := range s.ordersByID {
			if o.StoreID != storeID {
				continue
			}
			orders = append(orders, *cloneOrder(o))
		}
	}
	slices.SortFunc(orders, func(a, b domain.Order) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return orders, nil
}

func (s *Store) UpdateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(order.Items) == 0 {
		return nil, store.ErrEmptyOrder
	}
	if _, exists := s.ordersByID[order.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.ordersByID[order.ID] = cloneOrder(&order)
	return cloneOrder(&order), nil
}

func (s *Store) DeleteOrder(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ordersByID[orderID]; !exists {
		return store.ErrNotFound
	}
	delete(s.ordersByID, orderID)
	return nil
}

func (s *Store) GetOrCreateSession(_ context.Context, storeID string, date string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.storesByID[storeID]; !exists {
		return nil, store.ErrNotFound
	}
	key := sessionKey(storeID, date)
	if sessionID, exists := s.sessionIDByKey[key]; exists {
		return cloneSession(s.sessionsByID[sessionID]), nil
	}
	session := &domain.Session{
		ID:        uuid.NewString(),
		StoreID:   storeID,
		Date:      date,
		OrderIDs:  []string{},
		CreatedAt: time.Now().UTC(),
	}
	s.sessionsByID[session.ID] = session
	s.sessionIDByKey[key] = session.ID
	return cloneSession(session), nil
}

func (s *Store) GetSessionByID(_ context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessionsByID[sessionID]
	if !exists {
		return nil, store.ErrNotFound
	}
	return cloneSession(session), nil
}

func (s *Store) GetSessionByDate(_ context.Context, storeID string, date string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessionID, exists := s.sessionIDByKey[sessionKey(storeID, date)]
	if !exists {
		return nil, store.ErrNotFound
	}
	return cloneSession(s.sessionsByID[sessionID]), nil
}

func (s *Store) AttachOrderToSession(_ context.Context, sessionID string, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessionsByID[sessionID]
	if !exists {
		return store.ErrNotFound
	}
	if slices.Contains(session.OrderIDs, orderID) {
		return nil
	}
	session.OrderIDs = append(session.OrderIDs, orderID)
	return nil
}

func (s *Store) DetachOrderFromSession(_ context.Context, sessionID string, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessionsByID[sessionID]
	if !exists {
		return store.ErrNotFound
	}
	session.OrderIDs = slices.DeleteFunc(session.OrderIDs, func(id string) bool {
		return id == orderID
	})
	return nil
}

func (s *Store) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessionsByID[sessionID]
	if !exists {
		return store.ErrNotFound
	}
	delete(s.sessionIDByKey, sessionKey(session.StoreID, session.Date))
	delete(s.sessionsByID, sessionID)
	return nil
}

func (s *Store) MarkSessionExported(_ context.Context, sessionID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessionsByID[sessionID]
	if !exists {
		return nil, store.ErrNotFound
	}
	session.Exported = true
	return cloneSession(session), nil
}

func (s *Store) UpsertCustomerName(_ context.Context, name domain.CustomerName) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trimmed := strings.TrimSpace(name.Name)
	if trimmed == "" || name.StoreID == "" {
		return nil
	}
	byName, exists := s.customerNames[name.StoreID]
	if !exists {
		byName = make(map[string]domain.CustomerName)
		s.customerNames[name.StoreID] = byName
	}
	if name.LastUsed.IsZero() {
		name.LastUsed = time.Now().UTC()
	}
	name.Name = trimmed
	byName[strings.ToLower(trimmed)] = name
	return nil
}

func (s *Store) ListCustomerNames(_ context.Context, storeID string, prefix string, limit int) ([]domain.CustomerName, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lowered := strings.ToLower(strings.TrimSpace(prefix))
	names := make([]domain.CustomerName, 0)
	for key, n := range s.customerNames[storeID] {
		if lowered != "" && !strings.HasPrefix(key, lowered) {
			continue
		}
		names = append(names, n)
	}
	slices.SortFunc(names, func(a, b domain.CustomerName) int {
		if a.LastUsed.Equal(b.LastUsed) {
			return cmpString(a.Name, b.Name)
		}
		if a.LastUsed.After(b.LastUsed) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" || user.PasswordHash == "" {
		return nil, store.ErrValidation
	}
	if _, exists := s.usersByUsername[user.Username]; exists {
		return nil, store.ErrValidation
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.usersByUsername[user.Username] = user
	created := user
	return &created, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyUser := user
	return &copyUser, nil
}

func (s *Store) ListUsers(_ context.Context, companyID string) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		if companyID != "" && u.CompanyID != companyID {
			continue
		}
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUser(_ context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.usersByUsername[user.Username]
	if !exists || existing.ID != user.ID {
		return nil, store.ErrNotFound
	}
	s.usersByUsername[user.Username] = user
	updated := user
	return &updated, nil
}

func (s *Store) DeleteUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for username, u := range s.usersByUsername {
		if u.ID == userID {
			delete(s.usersByUsername, username)
			return nil
		}
	}
	return store.ErrNotFound
}

func sessionKey(storeID string, date string) string {
	return storeID + "|" + date
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneProduct(src domain.Product) domain.Product {
	dup := src
	if src.Inventory != nil {
		inv := *src.Inventory
		dup.Inventory = &inv
	}
	return dup
}

func cloneCombo(src domain.Combo) domain.Combo {
	dup := src
	items := make([]domain.ComboItem, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return dup
}

func cloneOrder(src *domain.Order) *domain.Order {
	if src == nil {
		return nil
	}
	dup := *src
	items := make([]domain.OrderItem, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	history := make([]domain.OrderRevision, len(src.EditHistory))
	for i, rev := range src.EditHistory {
		revItems := make([]domain.OrderItem, len(rev.Items))
		copy(revItems, rev.Items)
		rev.Items = revItems
		history[i] = rev
	}
	dup.EditHistory = history
	return &dup
}

func cloneSession(src *domain.Session) *domain.Session {
	if src == nil {
		return nil
	}
	dup := *src
	orderIDs := make([]string, len(src.OrderIDs))
	copy(orderIDs, src.OrderIDs)
	dup.OrderIDs = orderIDs
	return &dup
}
