package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Company struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CurrencySymbol string    `json:"currency_symbol"`
	MaxStores      int       `json:"max_stores"`
	CreatedAt      time.Time `json:"created_at"`
}

type CompanyCreateRequest struct {
	Name           string `json:"name"`
	CurrencySymbol string `json:"currency_symbol"`
	MaxStores      int    `json:"max_stores"`
}

type CompanyUpdateRequest struct {
	Name           *string `json:"name,omitempty"`
	CurrencySymbol *string `json:"currency_symbol,omitempty"`
	MaxStores      *int    `json:"max_stores,omitempty"`
}

type Store struct {
	ID             string    `json:"id"`
	CompanyID      string    `json:"company_id"`
	Name           string    `json:"name"`
	TrackInventory bool      `json:"track_inventory"`
	CreatedAt      time.Time `json:"created_at"`
}

type StoreCreateRequest struct {
	CompanyID      string `json:"company_id,omitempty"`
	Name           string `json:"name"`
	TrackInventory bool   `json:"track_inventory"`
}

type StoreUpdateRequest struct {
	Name           *string `json:"name,omitempty"`
	TrackInventory *bool   `json:"track_inventory,omitempty"`
}

type Product struct {
	ID        string           `json:"id"`
	StoreID   string           `json:"store_id"`
	Name      string           `json:"name"`
	Price     decimal.Decimal  `json:"price"`
	Category  string           `json:"category,omitempty"`
	Unit      string           `json:"unit,omitempty"`
	Inventory *decimal.Decimal `json:"inventory,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

type ProductCreateRequest struct {
	StoreID   string           `json:"store_id"`
	Name      string           `json:"name"`
	Price     decimal.Decimal  `json:"price"`
	Category  string           `json:"category,omitempty"`
	Unit      string           `json:"unit,omitempty"`
	Inventory *decimal.Decimal `json:"inventory,omitempty"`
}

type ProductUpdateRequest struct {
	Name      *string          `json:"name,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Category  *string          `json:"category,omitempty"`
	Unit      *string          `json:"unit,omitempty"`
	Inventory *decimal.Decimal `json:"inventory,omitempty"`
}

// InventoryDelta is one signed stock adjustment. Deltas for a single
// order mutation are applied atomically, in slice order, clamped at zero.
type InventoryDelta struct {
	ProductID string
	Delta     decimal.Decimal
}

type ComboItem struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type Combo struct {
	ID        string          `json:"id"`
	StoreID   string          `json:"store_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Items     []ComboItem     `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
}

type ComboCreateRequest struct {
	StoreID string          `json:"store_id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Items   []ComboItem     `json:"items"`
}

type ComboUpdateRequest struct {
	Name  *string          `json:"name,omitempty"`
	Price *decimal.Decimal `json:"price,omitempty"`
	Items []ComboItem      `json:"items,omitempty"`
}

// OrderLine is a request-side line; name and price are resolved from the
// catalog at submission time and frozen into OrderItem snapshots.
type OrderLine struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// ComboLine is a request-side combo reference; it is expanded into the
// combo's component product lines at submission time. Quantity must be a
// whole number and defaults to 1.
type ComboLine struct {
	ComboID  string          `json:"combo_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// OrderItem is an immutable snapshot of a product at sale time. Later
// catalog changes never alter it.
type OrderItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// OrderRevision is the pre-update state of an order, recorded before a
// content edit is applied.
type OrderRevision struct {
	ID           string          `json:"id"`
	CustomerName string          `json:"customer_name,omitempty"`
	Items        []OrderItem     `json:"items"`
	Total        decimal.Decimal `json:"total"`
	EditedAt     time.Time       `json:"edited_at"`
}

type Order struct {
	ID           string          `json:"id"`
	StoreID      string          `json:"store_id"`
	SessionID    string          `json:"session_id"`
	CustomerName string          `json:"customer_name,omitempty"`
	Items        []OrderItem     `json:"items"`
	Total        decimal.Decimal `json:"total"`
	IsPaid       bool            `json:"is_paid"`
	IsEdited     bool            `json:"is_edited"`
	EditHistory  []OrderRevision `json:"edit_history,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type OrderCreateRequest struct {
	StoreID      string      `json:"store_id"`
	CustomerName string      `json:"customer_name,omitempty"`
	Lines        []OrderLine `json:"lines"`
	Combos       []ComboLine `json:"combos,omitempty"`
	IsPaid       bool        `json:"is_paid"`
}

type OrderUpdateRequest struct {
	CustomerName *string     `json:"customer_name,omitempty"`
	Lines        []OrderLine `json:"lines,omitempty"`
	Combos       []ComboLine `json:"combos,omitempty"`
	IsPaid       *bool       `json:"is_paid,omitempty"`
}

type BulkPaymentRequest struct {
	OrderIDs []string `json:"order_ids"`
	IsPaid   bool     `json:"is_paid"`
}

type BulkPaymentOutcome struct {
	OrderID string `json:"order_id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type BulkPaymentResult struct {
	Total      int                  `json:"total"`
	Successful int                  `json:"successful"`
	Failed     int                  `json:"failed"`
	Results    []BulkPaymentOutcome `json:"results"`
}

// Session groups one store's orders for one calendar day. At most one
// session exists per (store, date); it is created lazily with the first
// order of the day.
type Session struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	Date      string    `json:"date"`
	OrderIDs  []string  `json:"order_ids"`
	Exported  bool      `json:"exported"`
	CreatedAt time.Time `json:"created_at"`
}

type CustomerName struct {
	StoreID  string    `json:"store_id"`
	Name     string    `json:"name"`
	LastUsed time.Time `json:"last_used"`
}

type DaySummaryProduct struct {
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type DaySummary struct {
	StoreID     string              `json:"store_id"`
	Date        string              `json:"date"`
	Orders      int                 `json:"orders"`
	Revenue     decimal.Decimal     `json:"revenue"`
	UnpaidDue   decimal.Decimal     `json:"unpaid_due"`
	AnyEdited   bool                `json:"any_edited"`
	ByProduct   []DaySummaryProduct `json:"by_product"`
	Exported    bool                `json:"exported"`
	GeneratedAt time.Time           `json:"generated_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	CompanyID   string `json:"company_id,omitempty"`
	ExpiresAt   string `json:"expires_at"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type Actor struct {
	Username  string
	Role      string
	CompanyID string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	CompanyID    string
	Active       bool
	CreatedAt    time.Time
}

type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CompanyID string    `json:"company_id,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type UserCreateRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	CompanyID string `json:"company_id"`
}

type UserUpdateRequest struct {
	Password *string `json:"password,omitempty"`
	Role     *string `json:"role,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

func (u UserAccount) View() UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CompanyID: u.CompanyID,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	UnitTypeWeight = "weight"
	UnitTypeVolume = "volume"
	UnitTypeCount  = "count"
	UnitTypeLength = "length"
)

// SessionDateFormat is the canonical calendar-day key, local to the server.
const SessionDateFormat = "2006-01-02"
