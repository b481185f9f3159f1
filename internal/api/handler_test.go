package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"delivery-service/internal/localcache"
	"delivery-service/internal/models"
	"delivery-service/internal/notify"
	"delivery-service/internal/service"
	"delivery-service/internal/store"
	"delivery-service/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrders struct {
	orders  []models.Order
	listErr error
	watch   func([]models.Order)
}

func (f *fakeOrders) ListOrders(context.Context) ([]models.Order, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.orders, nil
}

func (f *fakeOrders) GetOrder(_ context.Context, id string) (*models.Order, error) {
	for i := range f.orders {
		if f.orders[i].ID == id {
			o := f.orders[i]
			return &o, nil
		}
	}
	return nil, fmt.Errorf("order %s: %w", id, store.ErrNotFound)
}

func (f *fakeOrders) CreateOrder(_ context.Context, in validation.OrderInput) (*models.Order, error) {
	newOrder, err := validation.ValidateOrder(in)
	if err != nil {
		return nil, err
	}
	order := models.Order{
		ID:           "o-new",
		OrderNumber:  int64(len(f.orders) + 1),
		CustomerName: newOrder.CustomerName,
		Items:        newOrder.Items,
		TotalAmount:  newOrder.TotalAmount,
		Status:       newOrder.Status,
	}
	f.orders = append(f.orders, order)
	return &order, nil
}

func (f *fakeOrders) Watch(_ context.Context, onChange func([]models.Order)) func() {
	f.watch = onChange
	onChange(f.orders)
	return func() {}
}

type fakeLifecycle struct {
	orders *fakeOrders
}

func (f *fakeLifecycle) Transition(ctx context.Context, id string, to models.OrderStatus) (*service.TransitionResult, error) {
	order, err := f.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, service.ErrTerminalState
	}
	order.Status = to
	return &service.TransitionResult{Order: order, Sound: service.SoundFor(to), Toast: "ok"}, nil
}

func (f *fakeLifecycle) SetPaymentStatus(ctx context.Context, id string, status models.PaymentStatus) (*service.TransitionResult, error) {
	order, err := f.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	order.PaymentStatus = status
	return &service.TransitionResult{Order: order, Toast: "ok"}, nil
}

func (f *fakeLifecycle) SendConfirmation(ctx context.Context, id string) (*notify.Outcome, error) {
	order, err := f.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return &notify.Outcome{Destination: notify.NormalizePhone(order.CustomerPhone), Sent: true}, nil
}

func (f *fakeLifecycle) Delete(context.Context, string) error {
	return service.ErrUpdateFailed
}

type memorySettings struct {
	settings models.Settings
}

func (m *memorySettings) FetchSettings(context.Context) models.Settings { return m.settings }

func (m *memorySettings) UpdateSettings(_ context.Context, patch models.SettingsPatch) (models.Settings, error) {
	m.settings = patch.Apply(m.settings)
	return m.settings, nil
}

type fakeCatalog struct{}

func (fakeCatalog) List(context.Context) ([]models.Product, error) {
	return []models.Product{{ID: "p1", Name: "Pizza", Image: models.ImageRef{Kind: models.ImageWrapped, Location: "https://x/p.png"}}}, nil
}

func (fakeCatalog) Create(_ context.Context, in validation.ProductInput) (*models.Product, error) {
	p, err := validation.ValidateProduct(in)
	if err != nil {
		return nil, err
	}
	p.ID = "p-new"
	return &p, nil
}

func (fakeCatalog) Update(_ context.Context, id string, _ validation.ProductInput) (*models.Product, error) {
	return nil, fmt.Errorf("product %s: %w", id, store.ErrNotFound)
}

func (fakeCatalog) Delete(context.Context, string) error { return nil }

func setupRouter(t *testing.T) (*gin.Engine, *fakeOrders) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	orders := &fakeOrders{orders: []models.Order{
		{ID: "o-1", OrderNumber: 1, CustomerPhone: "11987654321", Status: models.OrderStatusPending},
		{ID: "o-2", OrderNumber: 2, Status: models.OrderStatusDelivered},
	}}
	settings := &memorySettings{settings: models.Settings{DeliveryFee: decimal.NewFromInt(5)}}
	promos := service.NewPromoService(localcache.NewMemoryCache())

	h := NewHandler(Dependencies{
		Orders:    orders,
		Lifecycle: &fakeLifecycle{orders: orders},
		Settings:  settings,
		Promos:    promos,
		Catalog:   fakeCatalog{},
		Checkout:  service.NewCheckout(settings, promos),
		Ready:     func() error { return nil },
	})

	router := gin.New()
	h.SetupRoutes(router)
	return router, orders
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthAndReady(t *testing.T) {
	router, _ := setupRouter(t)

	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodGet, "/ready", nil).Code)
}

func TestReadyReportsDatabaseDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(Dependencies{Ready: func() error { return errors.New("dial tcp: refused") }})
	router := gin.New()
	h.SetupRoutes(router)

	assert.Equal(t, http.StatusServiceUnavailable, doJSON(router, http.MethodGet, "/ready", nil).Code)
}

func TestListOrders(t *testing.T) {
	router, orders := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got []models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 2)

	orders.listErr = errors.New("connection refused")
	w = doJSON(router, http.MethodGet, "/api/v1/orders", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCreateOrder(t *testing.T) {
	router, _ := setupRouter(t)

	body := map[string]interface{}{
		"customer_name":    "Maria Silva",
		"customer_phone":   "11987654321",
		"customer_address": "Rua das Flores, 123",
		"items":            []map[string]interface{}{{"name": "Pizza", "quantity": 1, "price": 45.9}},
		"total_amount":     45.9,
		"payment_method":   "cash",
	}
	w := doJSON(router, http.MethodPost, "/api/v1/orders", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body["customer_name"] = "M"
	body["items"] = []interface{}{}
	w = doJSON(router, http.MethodPost, "/api/v1/orders", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Error)
	assert.GreaterOrEqual(t, len(resp.Details), 2)
	assert.Equal(t, resp.Details[0], resp.Error)
}

func TestGetOrderNotFound(t *testing.T) {
	router, _ := setupRouter(t)
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodGet, "/api/v1/orders/missing", nil).Code)
}

func TestAllowedTransitionsEndpoint(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/orders/o-2/transitions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Transitions []models.OrderStatus `json:"transitions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Transitions)
}

func TestUpdateStatus(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPatch, "/api/v1/orders/o-1/status", gin.H{"status": "processing"})
	require.Equal(t, http.StatusOK, w.Code)
	var result service.TransitionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, service.SoundOrderReceived, result.Sound)

	w = doJSON(router, http.MethodPatch, "/api/v1/orders/o-1/status", gin.H{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPatch, "/api/v1/orders/o-2/status", gin.H{"status": "cancelled"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdatePaymentStatusAndConfirmation(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPatch, "/api/v1/orders/o-1/payment-status", gin.H{"payment_status": "paid"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPatch, "/api/v1/orders/o-1/payment-status", gin.H{"payment_status": "refunded"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/orders/o-1/confirmation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "5511987654321")
}

func TestDeleteOrderFailure(t *testing.T) {
	router, _ := setupRouter(t)
	assert.Equal(t, http.StatusInternalServerError, doJSON(router, http.MethodDelete, "/api/v1/orders/o-1", nil).Code)
}

func TestSettingsEndpoints(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPut, "/api/v1/settings", gin.H{"delivery_fee": 7.5, "company_name": "Bella"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var settings models.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
	assert.True(t, settings.DeliveryFee.Equal(decimal.NewFromFloat(7.5)))
	assert.Equal(t, "Bella", settings.CompanyName)
}

func TestPromoEndpoints(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/promo-codes",
		gin.H{"code": "dez", "discount_type": "percentage", "discount_value": 10, "max_uses": 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(router, http.MethodPost, "/api/v1/promo-codes",
		gin.H{"code": "DEZ", "discount_type": "fixed", "discount_value": 5})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/promo-codes/validate", gin.H{"code": "dez", "subtotal": 50})
	require.Equal(t, http.StatusOK, w.Code)
	var discount service.Discount
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &discount))
	assert.True(t, discount.Amount.Equal(decimal.NewFromInt(5)))

	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/api/v1/promo-codes/DEZ/redeem", nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, doJSON(router, http.MethodPost, "/api/v1/promo-codes/DEZ/redeem", nil).Code)

	assert.Equal(t, http.StatusNoContent, doJSON(router, http.MethodDelete, "/api/v1/promo-codes/dez", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodDelete, "/api/v1/promo-codes/dez", nil).Code)
}

func TestProductEndpoints(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"image":"https://x/p.png"`)

	w = doJSON(router, http.MethodPost, "/api/v1/products", gin.H{"name": "Calzone", "price": 39.9})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/products", gin.H{"name": "X", "price": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPut, "/api/v1/products/nope", gin.H{"name": "Calzone", "price": 39.9})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutQuote(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/checkout/quote", gin.H{
		"items": []gin.H{{"name": "Pizza", "quantity": 2, "price": 10}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var quote service.Quote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))
	assert.True(t, quote.Total.Equal(decimal.NewFromInt(25)))

	w = doJSON(router, http.MethodPost, "/api/v1/checkout/quote", gin.H{"items": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// closeNotifyingRecorder lets gin's Stream run against a recorder
type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyingRecorder) CloseNotify() <-chan bool { return r.closed }

func TestStreamOrders(t *testing.T) {
	router, _ := setupRouter(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/stream", nil).WithContext(ctx)
	w := &closeNotifyingRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	router.ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), "event:orders")
	assert.Contains(t, w.Body.String(), `"id":"o-1"`)
}

func TestMetricsServerServesOnlyMetrics(t *testing.T) {
	srv := NewMetricsServer(":0")

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")

	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
