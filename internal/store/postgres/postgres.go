package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"dailypos/backend/internal/domain"
	"dailypos/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ---- companies ----

func (s *Store) CreateCompany(ctx context.Context, company domain.Company) (*domain.Company, error) {
	if company.Name == "" || company.MaxStores < 1 {
		return nil, store.ErrValidation
	}
	if company.CreatedAt.IsZero() {
		company.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, currency_symbol, max_stores, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, company.ID, company.Name, company.CurrencySymbol, company.MaxStores, company.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		return nil, err
	}
	created := company
	return &created, nil
}

func (s *Store) GetCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	var company domain.Company
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, currency_symbol, max_stores, created_at
		FROM companies
		WHERE id = $1
	`, companyID).Scan(&company.ID, &company.Name, &company.CurrencySymbol, &company.MaxStores, &company.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &company, nil
}

func (s *Store) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, currency_symbol, max_stores, created_at
		FROM companies
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := make([]domain.Company, 0, 16)
	for rows.Next() {
		var c domain.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.CurrencySymbol, &c.MaxStores, &c.CreatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (s *Store) UpdateCompany(ctx context.Context, company domain.Company) (*domain.Company, error) {
	if company.Name == "" || company.MaxStores < 1 {
		return nil, store.ErrValidation
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE companies
		SET name = $2, currency_symbol = $3, max_stores = $4
		WHERE id = $1
	`, company.ID, company.Name, company.CurrencySymbol, company.MaxStores)
	if err != nil {
		return nil, err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := company
	return &updated, nil
}

func (s *Store) DeleteCompany(ctx context.Context, companyID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM companies WHERE id = $1`, companyID)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ---- stores ----

func (s *Store) CreateStore(ctx context.Context, st domain.Store) (*domain.Store, error) {
	if st.Name == "" || st.CompanyID == "" {
		return nil, store.ErrValidation
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stores (id, company_id, name, track_inventory, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, st.ID, st.CompanyID, st.Name, st.TrackInventory, st.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	created := st
	return &created, nil
}

func (s *Store) GetStoreByID(ctx context.Context, storeID string) (*domain.Store, error) {
	var st domain.Store
	err := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, name, track_inventory, created_at
		FROM stores
		WHERE id = $1
	`, storeID).Scan(&st.ID, &st.CompanyID, &st.Name, &st.TrackInventory, &st.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

func (s *Store) ListStores(ctx context.Context, companyID string) ([]domain.Store, error) {
	query := `
		SELECT id, company_id, name, track_inventory, created_at
		FROM stores
		ORDER BY name
	`
	args := []any{}
	if companyID != "" {
		query = `
			SELECT id, company_id, name, track_inventory, created_at
			FROM stores
			WHERE company_id = $1
			ORDER BY name
		`
		args = append(args, companyID)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stores := make([]domain.Store, 0, 16)
	for rows.Next() {
		var st domain.Store
		if err := rows.Scan(&st.ID, &st.CompanyID, &st.Name, &st.TrackInventory, &st.CreatedAt); err != nil {
			return nil, err
		}
		stores = append(stores, st)
	}
	return stores, rows.Err()
}

func (s *Store) CountStores(ctx context.Context, companyID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM stores WHERE company_id = $1`, companyID).Scan(&count)
	return count, err
}

func (s *Store) UpdateStore(ctx context.Context, st domain.Store) (*domain.Store, error) {
	if st.Name == "" {
		return nil, store.ErrValidation
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE stores
		SET name = $2, track_inventory = $3
		WHERE id = $1
	`, st.ID, st.Name, st.TrackInventory)
	if err != nil {
		return nil, err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := st
	return &updated, nil
}

func (s *Store) DeleteStore(ctx context.Context, storeID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM stores WHERE id = $1`, storeID)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ---- products ----

const productColumns = `id, store_id, name, price, category, unit, inventory, created_at`

func scanProduct(scanner interface{ Scan(...any) error }) (domain.Product, error) {
	var p domain.Product
	var inventory decimal.NullDecimal
	err := scanner.Scan(&p.ID, &p.StoreID, &p.Name, &p.Price, &p.Category, &p.Unit, &inventory, &p.CreatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	if inventory.Valid {
		inv := inventory.Decimal
		p.Inventory = &inv
	}
	return p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.StoreID == "" || product.Price.IsNegative() {
		return nil, store.ErrValidation
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, store_id, name, price, category, unit, inventory, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, product.ID, product.StoreID, product.Name, product.Price, product.Category, product.Unit, nullDecimal(product.Inventory), product.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	created := product
	return &created, nil
}

func (s *Store) GetProductByID(ctx context.Context, productID string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, productID)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) ListProducts(ctx context.Context, storeID string) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE store_id = $1
		ORDER BY category, name
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) GetProductsByIDs(ctx context.Context, productIDs []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ANY($1)
	`, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	return result, rows.Err()
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.Price.IsNegative() {
		return nil, store.ErrValidation
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, price = $3, category = $4, unit = $5, inventory = $6
		WHERE id = $1
	`, product.ID, product.Name, product.Price, product.Category, product.Unit, nullDecimal(product.Inventory))
	if err != nil {
		return nil, err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, productID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ApplyInventoryDeltas applies the deltas in slice order inside one
// transaction. Each application clamps the level at zero. Untracked stores
// and products without an inventory value are left alone.
func (s *Store) ApplyInventoryDeltas(ctx context.Context, storeID string, deltas []domain.InventoryDelta) error {
	var trackInventory bool
	err := s.db.QueryRowContext(ctx, `SELECT track_inventory FROM stores WHERE id = $1`, storeID).Scan(&trackInventory)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}
	if !trackInventory || len(deltas) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, d := range deltas {
		_, err := tx.ExecContext(ctx, `
			UPDATE products
			SET inventory = GREATEST(inventory + $3, 0)
			WHERE id = $1 AND store_id = $2 AND inventory IS NOT NULL
		`, d.ProductID, storeID, d.Delta)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ---- combos ----

func scanCombo(scanner interface{ Scan(...any) error }) (domain.Combo, error) {
	var c domain.Combo
	var items []byte
	if err := scanner.Scan(&c.ID, &c.StoreID, &c.Name, &c.Price, &items, &c.CreatedAt); err != nil {
		return domain.Combo{}, err
	}
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return domain.Combo{}, fmt.Errorf("decode combo items: %w", err)
	}
	return c, nil
}

func (s *Store) CreateCombo(ctx context.Context, combo domain.Combo) (*domain.Combo, error) {
	if combo.Name == "" || combo.StoreID == "" || len(combo.Items) == 0 || combo.Price.IsNegative() {
		return nil, store.ErrValidation
	}
	if combo.CreatedAt.IsZero() {
		combo.CreatedAt = time.Now().UTC()
	}
	items, err := json.Marshal(combo.Items)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO combos (id, store_id, name, price, items, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, combo.ID, combo.StoreID, combo.Name, combo.Price, items, combo.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	created := combo
	return &created, nil
}

func (s *Store) GetComboByID(ctx context.Context, comboID string) (*domain.Combo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, store_id, name, price, items, created_at FROM combos WHERE id = $1
	`, comboID)
	combo, err := scanCombo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &combo, nil
}

func (s *Store) ListCombos(ctx context.Context, storeID string) ([]domain.Combo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, name, price, items, created_at
		FROM combos
		WHERE store_id = $1
		ORDER BY name
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	combos := make([]domain.Combo, 0, 16)
	for rows.Next() {
		c, err := scanCombo(rows)
		if err != nil {
			return nil, err
		}
		combos = append(combos, c)
	}
	return combos, rows.Err()
}

func (s *Store) UpdateCombo(ctx context.Context, combo domain.Combo) (*domain.Combo, error) {
	if combo.Name == "" || len(combo.Items) == 0 || combo.Price.IsNegative() {
		return nil, store.ErrValidation
	}
	items, err := json.Marshal(combo.Items)
	if err != nil {
		return nil, err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE combos
		SET name = $2, price = $3, items = $4
		WHERE id = $1
	`, combo.ID, combo.Name, combo.Price, items)
	if err != nil {
		return nil, err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := combo
	return &updated, nil
}

func (s *Store) DeleteCombo(ctx context.Context, comboID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM combos WHERE id = $1`, comboID)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ---- orders ----

const orderColumns = `id, store_id, session_id, customer_name, items, total, is_paid, is_edited, edit_history, created_at`

func scanOrder(scanner interface{ Scan(...any) error }) (domain.Order, error) {
	var o domain.Order
	var sessionID sql.NullString
	var items, history []byte
	err := scanner.Scan(&o.ID, &o.StoreID, &sessionID, &o.CustomerName, &items, &o.Total, &o.IsPaid, &o.IsEdited, &history, &o.CreatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	o.SessionID = sessionID.String
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return domain.Order{}, fmt.Errorf("decode order items: %w", err)
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &o.EditHistory); err != nil {
			return domain.Order{}, fmt.Errorf("decode edit history: %w", err)
		}
	}
	return o, nil
}

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	if order.StoreID == "" {
		return nil, store.ErrValidation
	}
	if len(order.Items) == 0 {
		return nil, store.ErrEmptyOrder
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	items, err := json.Marshal(order.Items)
	if err != nil {
		return nil, err
	}
	history, err := json.Marshal(order.EditHistory)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (id, store_id, session_id, customer_name, items, total, is_paid, is_edited, edit_history, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, order.ID, order.StoreID, nullIfEmpty(order.SessionID), order.CustomerName, items, order.Total, order.IsPaid, order.IsEdited, history, order.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	created := order
	return &created, nil
}

func (s *Store) GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *Store) ListOrders(ctx context.Context, storeID string, date string) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE store_id = $1 ORDER BY created_at DESC, id DESC`
	args := []any{storeID}
	if date != "" {
		query = `
			SELECT ` + orderColumns + `
			FROM orders
			WHERE store_id = $1
			  AND session_id = (SELECT id FROM sessions WHERE store_id = $1 AND date = $2)
			ORDER BY created_at DESC, id DESC
		`
		args = append(args, date)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, 64)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *Store) UpdateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	if len(order.Items) == 0 {
		return nil, store.ErrEmptyOrder
	}
	items, err := json.Marshal(order.Items)
	if err != nil {
		return nil, err
	}
	history, err := json.Marshal(order.EditHistory)
	if err != nil {
		return nil, err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET customer_name = $2, items = $3, total = $4, is_paid = $5, is_edited = $6, edit_history = $7
		WHERE id = $1
	`, order.ID, order.CustomerName, items, order.Total, order.IsPaid, order.IsEdited, history)
	if err != nil {
		return nil, err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := order
	return &updated, nil
}

func (s *Store) DeleteOrder(ctx context.Context, orderID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ---- sessions ----

func (s *Store) GetOrCreateSession(ctx context.Context, storeID string, date string) (*domain.Session, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, store_id, date, exported, created_at)
		VALUES (gen_random_uuid(), $1, $2, false, now())
		ON CONFLICT (store_id, date) DO NOTHING
	`, storeID, date)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return s.GetSessionByDate(ctx, storeID, date)
}

func (s *Store) loadSessionOrders(ctx context.Context, session *domain.Session) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM orders WHERE session_id = $1 ORDER BY created_at, id
	`, session.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	session.OrderIDs = make([]string, 0, 16)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		session.OrderIDs = append(session.OrderIDs, id)
	}
	return rows.Err()
}

func (s *Store) GetSessionByID(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, store_id, date, exported, created_at FROM sessions WHERE id = $1
	`, sessionID).Scan(&session.ID, &session.StoreID, &session.Date, &session.Exported, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := s.loadSessionOrders(ctx, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Store) GetSessionByDate(ctx context.Context, storeID string, date string) (*domain.Session, error) {
	var session domain.Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, store_id, date, exported, created_at FROM sessions WHERE store_id = $1 AND date = $2
	`, storeID, date).Scan(&session.ID, &session.StoreID, &session.Date, &session.Exported, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := s.loadSessionOrders(ctx, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Store) AttachOrderToSession(ctx context.Context, sessionID string, orderID string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE orders SET session_id = $1 WHERE id = $2`, sessionID, orderID)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DetachOrderFromSession(ctx context.Context, sessionID string, orderID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE orders SET session_id = NULL WHERE id = $1 AND session_id = $2
	`, orderID, sessionID)
	return err
}

func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) MarkSessionExported(ctx context.Context, sessionID string) (*domain.Session, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE sessions SET exported = true WHERE id = $1`, sessionID)
	if err != nil {
		return nil, err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetSessionByID(ctx, sessionID)
}

// ---- customer names ----

func (s *Store) UpsertCustomerName(ctx context.Context, name domain.CustomerName) error {
	if name.StoreID == "" || name.Name == "" {
		return nil
	}
	if name.LastUsed.IsZero() {
		name.LastUsed = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customer_names (store_id, name, last_used)
		VALUES ($1,$2,$3)
		ON CONFLICT (store_id, lower(name)) DO UPDATE SET last_used = EXCLUDED.last_used
	`, name.StoreID, name.Name, name.LastUsed)
	return err
}

func (s *Store) ListCustomerNames(ctx context.Context, storeID string, prefix string, limit int) ([]domain.CustomerName, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT store_id, name, last_used
		FROM customer_names
		WHERE store_id = $1 AND lower(name) LIKE lower($2) || '%'
		ORDER BY last_used DESC, name
		LIMIT $3
	`, storeID, prefix, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]domain.CustomerName, 0, limit)
	for rows.Next() {
		var n domain.CustomerName
		if err := rows.Scan(&n.StoreID, &n.Name, &n.LastUsed); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// ---- users ----

func scanUser(scanner interface{ Scan(...any) error }) (domain.UserAccount, error) {
	var u domain.UserAccount
	var companyID sql.NullString
	err := scanner.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &companyID, &u.Active, &u.CreatedAt)
	if err != nil {
		return domain.UserAccount{}, err
	}
	u.CompanyID = companyID.String
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	if user.Username == "" || user.PasswordHash == "" {
		return nil, store.ErrValidation
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, company_id, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, user.ID, user.Username, user.PasswordHash, user.Role, nullIfEmpty(user.CompanyID), user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		return nil, err
	}
	created := user
	return &created, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, company_id, active, created_at
		FROM users
		WHERE username = $1
	`, username)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context, companyID string) ([]domain.UserAccount, error) {
	query := `
		SELECT id, username, password_hash, role, company_id, active, created_at
		FROM users
		ORDER BY username
	`
	args := []any{}
	if companyID != "" {
		query = `
			SELECT id, username, password_hash, role, company_id, active, created_at
			FROM users
			WHERE company_id = $1
			ORDER BY username
		`
		args = append(args, companyID)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2, role = $3, active = $4
		WHERE id = $1
	`, user.ID, user.PasswordHash, user.Role, user.Active)
	if err != nil {
		return nil, err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := user
	return &updated, nil
}

func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ---- helpers ----

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullDecimal(val *decimal.Decimal) any {
	if val == nil {
		return nil
	}
	return *val
}
