package store

import (
	"context"
	"errors"

	"dailypos/backend/internal/domain"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrEmptyOrder  = errors.New("order has no items")
	ErrValidation  = errors.New("validation failed")
	ErrForbidden   = errors.New("forbidden")
	ErrStoreLimit  = errors.New("store limit reached")
	ErrPersistence = errors.New("persistence failure")
)

type Repository interface {
	CreateCompany(ctx context.Context, company domain.Company) (*domain.Company, error)
	GetCompanyByID(ctx context.Context, companyID string) (*domain.Company, error)
	ListCompanies(ctx context.Context) ([]domain.Company, error)
	UpdateCompany(ctx context.Context, company domain.Company) (*domain.Company, error)
	DeleteCompany(ctx context.Context, companyID string) error

	CreateStore(ctx context.Context, st domain.Store) (*domain.Store, error)
	GetStoreByID(ctx context.Context, storeID string) (*domain.Store, error)
	ListStores(ctx context.Context, companyID string) ([]domain.Store, error)
	CountStores(ctx context.Context, companyID string) (int, error)
	UpdateStore(ctx context.Context, st domain.Store) (*domain.Store, error)
	DeleteStore(ctx context.Context, storeID string) error

	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, productID string) (*domain.Product, error)
	ListProducts(ctx context.Context, storeID string) ([]domain.Product, error)
	GetProductsByIDs(ctx context.Context, productIDs []string) (map[string]domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	ApplyInventoryDeltas(ctx context.Context, storeID string, deltas []domain.InventoryDelta) error

	CreateCombo(ctx context.Context, combo domain.Combo) (*domain.Combo, error)
	GetComboByID(ctx context.Context, comboID string) (*domain.Combo, error)
	ListCombos(ctx context.Context, storeID string) ([]domain.Combo, error)
	UpdateCombo(ctx context.Context, combo domain.Combo) (*domain.Combo, error)
	DeleteCombo(ctx context.Context, comboID string) error

	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, storeID string, date string) ([]domain.Order, error)
	UpdateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	DeleteOrder(ctx context.Context, orderID string) error

	GetOrCreateSession(ctx context.Context, storeID string, date string) (*domain.Session, error)
	GetSessionByID(ctx context.Context, sessionID string) (*domain.Session, error)
	GetSessionByDate(ctx context.Context, storeID string, date string) (*domain.Session, error)
	AttachOrderToSession(ctx context.Context, sessionID string, orderID string) error
	DetachOrderFromSession(ctx context.Context, sessionID string, orderID string) error
	DeleteSession(ctx context.Context, sessionID string) error
	MarkSessionExported(ctx context.Context, sessionID string) (*domain.Session, error)

	UpsertCustomerName(ctx context.Context, name domain.CustomerName) error
	ListCustomerNames(ctx context.Context, storeID string, prefix string, limit int) ([]domain.CustomerName, error)

	CreateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error)
	ListUsers(ctx context.Context, companyID string) ([]domain.UserAccount, error)
	UpdateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error)
	DeleteUser(ctx context.Context, userID string) error
}
