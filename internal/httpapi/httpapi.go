package httpapi

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"dailypos/backend/internal/domain"
	"dailypos/backend/internal/export"
	"dailypos/backend/internal/service"
	"dailypos/backend/internal/store"
	"dailypos/backend/internal/unit"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
	csrfSecret    []byte
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string) *API {
	csrfSecret := make([]byte, 32)
	if _, err := rand.Read(csrfSecret); err != nil {
		// Fall back to a deterministic secret if crypto/rand fails (should not happen in practice).
		csrfSecret = []byte("csrf-fallback-secret-change-me!!")
	}
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
		csrfSecret:    csrfSecret,
	}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{a.allowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-CSRF-Token"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(a.withSecurity)

	r.Get("/healthz", a.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", a.handleLogin)
		r.Get("/auth/csrf-token", a.handleCSRFToken)

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth(domain.RoleUser, domain.RoleAdmin))

			r.Get("/auth/me", a.handleMe)
			r.Post("/auth/change-password", a.handleChangePassword)
			r.Get("/units", a.handleUnits)

			r.Get("/stores", a.handleListStores)
			r.Post("/stores", a.handleCreateStore)
			r.Route("/stores/{storeID}", func(r chi.Router) {
				r.Get("/", a.handleGetStore)
				r.Patch("/", a.handleUpdateStore)
				r.Delete("/", a.handleDeleteStore)

				r.Get("/products", a.handleListProducts)
				r.Post("/products", a.handleCreateProduct)
				r.Get("/combos", a.handleListCombos)
				r.Post("/combos", a.handleCreateCombo)
				r.Get("/customers", a.handleCustomerNames)

				r.Get("/orders", a.handleListOrders)
				r.Post("/orders", a.handleCreateOrder)
				r.Post("/orders/bulk-payment", a.handleBulkPayment)
				r.Delete("/orders/today", a.handleClearToday)

				r.Get("/summary", a.handleDaySummary)
				r.Get("/sessions/{date}", a.handleGetSession)
				r.Post("/sessions/{date}/export", a.handleMarkExported)
				r.Get("/export/csv", a.handleExportCSV)
				r.Get("/export/summary", a.handleExportSummary)
			})

			r.Patch("/products/{productID}", a.handleUpdateProduct)
			r.Delete("/products/{productID}", a.handleDeleteProduct)
			r.Patch("/combos/{comboID}", a.handleUpdateCombo)
			r.Delete("/combos/{comboID}", a.handleDeleteCombo)

			r.Get("/orders/{orderID}", a.handleGetOrder)
			r.Patch("/orders/{orderID}", a.handleUpdateOrder)
			r.Delete("/orders/{orderID}", a.handleDeleteOrder)
			r.Post("/orders/{orderID}/toggle-payment", a.handleTogglePayment)
		})

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth(domain.RoleAdmin))

			r.Get("/admin/companies", a.handleListCompanies)
			r.Post("/admin/companies", a.handleCreateCompany)
			r.Get("/admin/companies/{companyID}", a.handleGetCompany)
			r.Patch("/admin/companies/{companyID}", a.handleUpdateCompany)
			r.Delete("/admin/companies/{companyID}", a.handleDeleteCompany)

			r.Get("/admin/users", a.handleListUsers)
			r.Post("/admin/users", a.handleCreateUser)
			r.Patch("/admin/users/{username}", a.handleUpdateUser)
			r.Delete("/admin/users/{userID}", a.handleDeleteUser)
		})
	})

	return r
}

func (a *API) requireAuth(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorization := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
				writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
				return
			}

			token := strings.TrimSpace(authorization[len("Bearer "):])
			actor, err := a.auth.ParseToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err)
				return
			}

			if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
				writeError(w, http.StatusForbidden, errors.New("forbidden role"))
				return
			}

			next.ServeHTTP(w, r.WithContext(service.WithActor(r.Context(), actor)))
		})
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	actor, _ := service.ActorFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"username":   actor.Username,
		"role":       actor.Role,
		"company_id": actor.CompanyID,
	})
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, _ := service.ActorFromContext(r.Context())
	var req domain.ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.auth.ChangePassword(r.Context(), actor, req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (a *API) handleUnits(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"units": unit.All()})
}

// ---- stores ----

func (a *API) handleListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := a.service.ListStores(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stores": stores})
}

func (a *API) handleCreateStore(w http.ResponseWriter, r *http.Request) {
	var req domain.StoreCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := a.service.CreateStore(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleGetStore(w http.ResponseWriter, r *http.Request) {
	st, err := a.service.GetStore(r.Context(), chi.URLParam(r, "storeID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) handleUpdateStore(w http.ResponseWriter, r *http.Request) {
	var req domain.StoreUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := a.service.UpdateStore(r.Context(), chi.URLParam(r, "storeID"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteStore(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteStore(r.Context(), chi.URLParam(r, "storeID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// ---- products ----

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.ListProducts(r.Context(), chi.URLParam(r, "storeID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.StoreID = chi.URLParam(r, "storeID")
	created, err := a.service.CreateProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := a.service.UpdateProduct(r.Context(), chi.URLParam(r, "productID"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteProduct(r.Context(), chi.URLParam(r, "productID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// ---- combos ----

func (a *API) handleListCombos(w http.ResponseWriter, r *http.Request) {
	combos, err := a.service.ListCombos(r.Context(), chi.URLParam(r, "storeID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"combos": combos})
}

func (a *API) handleCreateCombo(w http.ResponseWriter, r *http.Request) {
	var req domain.ComboCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.StoreID = chi.URLParam(r, "storeID")
	created, err := a.service.CreateCombo(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleUpdateCombo(w http.ResponseWriter, r *http.Request) {
	var req domain.ComboUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := a.service.UpdateCombo(r.Context(), chi.URLParam(r, "comboID"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteCombo(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteCombo(r.Context(), chi.URLParam(r, "comboID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// ---- orders ----

func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := a.service.OrdersForDate(r.Context(), chi.URLParam(r, "storeID"), r.URL.Query().Get("date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (a *API) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.StoreID = chi.URLParam(r, "storeID")
	created, err := a.service.CreateOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := a.service.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (a *API) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := a.service.UpdateOrder(r.Context(), chi.URLParam(r, "orderID"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteOrder(r.Context(), chi.URLParam(r, "orderID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (a *API) handleTogglePayment(w http.ResponseWriter, r *http.Request) {
	updated, err := a.service.TogglePayment(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleBulkPayment(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := a.service.BulkSetPaid(r.Context(), chi.URLParam(r, "storeID"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleClearToday(w http.ResponseWriter, r *http.Request) {
	if err := a.service.ClearToday(r.Context(), chi.URLParam(r, "storeID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
}

// ---- sessions, summaries, exports ----

func (a *API) handleDaySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.service.DaySummary(r.Context(), chi.URLParam(r, "storeID"), r.URL.Query().Get("date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := a.service.SessionForDate(r.Context(), chi.URLParam(r, "storeID"), chi.URLParam(r, "date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (a *API) handleMarkExported(w http.ResponseWriter, r *http.Request) {
	session, err := a.service.MarkSessionExported(r.Context(), chi.URLParam(r, "storeID"), chi.URLParam(r, "date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (a *API) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")
	date := r.URL.Query().Get("date")
	st, orders, _, err := a.exportData(r, storeID, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	payload, err := export.CSV(st.Name, orders)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.markExported(r, storeID, date, orders)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFileName(st.Name, date, "csv")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(payload))
}

func (a *API) handleExportSummary(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")
	date := r.URL.Query().Get("date")
	st, orders, symbol, err := a.exportData(r, storeID, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if date == "" {
		date = a.service.Today()
	}
	payload := export.TextSummary(st.Name, date, orders, symbol)
	a.markExported(r, storeID, date, orders)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFileName(st.Name, date, "txt")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(payload))
}

// markExported records a successful download on the day's session. A day
// with no orders has no session to mark, and a marking failure never
// blocks the download itself.
func (a *API) markExported(r *http.Request, storeID string, date string, orders []domain.Order) {
	if len(orders) == 0 {
		return
	}
	if _, err := a.service.MarkSessionExported(r.Context(), storeID, date); err != nil {
		log.Printf("mark session exported failed store=%s date=%s: %v", storeID, date, err)
	}
}

func (a *API) exportData(r *http.Request, storeID string, date string) (domain.Store, []domain.Order, string, error) {
	st, err := a.service.GetStore(r.Context(), storeID)
	if err != nil {
		return domain.Store{}, nil, "", err
	}
	orders, err := a.service.OrdersForDate(r.Context(), storeID, date)
	if err != nil {
		return domain.Store{}, nil, "", err
	}
	symbol := "$"
	if company, err := a.service.GetCompany(r.Context(), st.CompanyID); err == nil {
		symbol = company.CurrencySymbol
	}
	return st, orders, symbol, nil
}

func exportFileName(storeName string, date string, ext string) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(storeName), " ", "-"))
	if date == "" {
		date = time.Now().Format(domain.SessionDateFormat)
	}
	return fmt.Sprintf("%s-%s.%s", slug, date, ext)
}

// ---- customers ----

func (a *API) handleCustomerNames(w http.ResponseWriter, r *http.Request) {
	names, err := a.service.CustomerNames(r.Context(), chi.URLParam(r, "storeID"), r.URL.Query().Get("prefix"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": names})
}

// ---- admin ----

func (a *API) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := a.service.ListCompanies(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"companies": companies})
}

func (a *API) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req domain.CompanyCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := a.service.CreateCompany(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	company, err := a.service.GetCompany(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (a *API) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	var req domain.CompanyUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := a.service.UpdateCompany(r.Context(), chi.URLParam(r, "companyID"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteCompany(r.Context(), chi.URLParam(r, "companyID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.service.ListUsers(r.Context(), r.URL.Query().Get("company_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UserCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := a.service.CreateUser(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UserUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := a.service.UpdateUser(r.Context(), chi.URLParam(r, "username"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// ---- csrf ----

// handleCSRFToken returns a stateless CSRF token valid for the current hour bucket.
// Clients must include this token in the X-CSRF-Token header for all mutating requests.
func (a *API) handleCSRFToken(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"token":       a.generateCSRFToken(),
		"valid_until": time.Now().UTC().Truncate(time.Hour).Add(2 * time.Hour).Format(time.RFC3339),
	})
}

// csrfTokenForHour computes an HMAC-SHA256 token for the given hour bucket
// (expressed as Unix time truncated to the hour). The token is hex-encoded.
func (a *API) csrfTokenForHour(hourBucket int64) string {
	h := hmac.New(sha256.New, a.csrfSecret)
	fmt.Fprintf(h, "%d", hourBucket)
	return hex.EncodeToString(h.Sum(nil))
}

func (a *API) generateCSRFToken() string {
	now := time.Now().UTC()
	bucket := now.Truncate(time.Hour).Unix()
	return a.csrfTokenForHour(bucket)
}

// validateCSRFToken checks whether the provided token matches the current or
// previous hour bucket, giving a 2-hour validity window.
func (a *API) validateCSRFToken(token string) bool {
	if token == "" {
		return false
	}
	now := time.Now().UTC()
	currentBucket := now.Truncate(time.Hour).Unix()
	prevBucket := currentBucket - 3600

	expected1 := a.csrfTokenForHour(currentBucket)
	expected2 := a.csrfTokenForHour(prevBucket)

	return hmac.Equal([]byte(token), []byte(expected1)) ||
		hmac.Equal([]byte(token), []byte(expected2))
}

var csrfExemptPaths = []string{
	"/api/v1/auth/login",
	"/api/v1/auth/csrf-token",
	"/healthz",
}

func (a *API) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
		return true
	}
	for _, path := range csrfExemptPaths {
		if r.URL.Path == path {
			return true
		}
	}
	if !a.validateCSRFToken(r.Header.Get("X-CSRF-Token")) {
		writeError(w, http.StatusForbidden, errors.New("missing or invalid CSRF token"))
		return false
	}
	return true
}

// ---- middleware and helpers ----

func (a *API) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		// Enforce CSRF protection for all state-changing requests.
		if !a.checkCSRF(w, r) {
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, store.ErrValidation), errors.Is(err, store.ErrEmptyOrder):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrStoreLimit):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusForError(err), err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	// For 5xx responses, return a generic message to avoid leaking internal
	// implementation details (stack traces, SQL errors, file paths, etc.).
	// 4xx responses are user-facing so we return the original error message.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
