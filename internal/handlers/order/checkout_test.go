package order

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mesa_back_end/internal/alerts"
	"mesa_back_end/internal/database"
	"mesa_back_end/internal/models"
	"mesa_back_end/internal/payments"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeOrderStore struct {
	inserted  []*models.Order
	insertErr error
	refs      map[primitive.ObjectID]string
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{refs: map[primitive.ObjectID]string{}}
}

func (f *fakeOrderStore) Insert(_ context.Context, order *models.Order) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, order)
	return nil
}

func (f *fakeOrderStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	for _, o := range f.inserted {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeOrderStore) FindByIDForUser(_ context.Context, id, userID primitive.ObjectID) (*models.Order, error) {
	for _, o := range f.inserted {
		if o.ID == id && o.UserID != nil && *o.UserID == userID {
			return o, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeOrderStore) ListByUser(_ context.Context, _ primitive.ObjectID) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrderStore) SetPaymentReference(_ context.Context, id primitive.ObjectID, reference string) error {
	f.refs[id] = reference
	return nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, _ primitive.ObjectID, _ string) (*models.Order, error) {
	return nil, mongo.ErrNoDocuments
}

func (f *fakeOrderStore) ListAdmin(_ context.Context, _ database.AdminListOptions) ([]models.Order, int64, error) {
	return nil, 0, nil
}

type fakeGateway struct {
	enabled      bool
	intent       *payments.Intent
	err          error
	lastAmount   int64
	lastCurrency string
	lastMetadata map[string]string
}

func (f *fakeGateway) Enabled() bool { return f.enabled }

func (f *fakeGateway) CreateIntent(amountCents int64, currency string, metadata map[string]string) (*payments.Intent, error) {
	f.lastAmount = amountCents
	f.lastCurrency = currency
	f.lastMetadata = metadata
	if f.err != nil {
		return nil, f.err
	}
	return f.intent, nil
}

func newCheckoutRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/orders", h.Checkout)
	return r
}

func validBody(productID string, method string) map[string]interface{} {
	return map[string]interface{}{
		"items":         []map[string]interface{}{{"productId": productID, "qty": 2}},
		"email":         "client@example.com",
		"paymentMethod": method,
		"shippingAddress": map[string]interface{}{
			"name":   "Maria Lopez",
			"street": "12 Calle Mayor",
			"city":   "Madrid",
			"phone":  "+34 600 123 456",
		},
	}
}

func doCheckout(t *testing.T, r *gin.Engine, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCheckoutMockPaidImmediately(t *testing.T) {
	p1 := newProduct("SKU-1", 19.99)
	store := newFakeOrderStore()
	bus := alerts.New()
	h := NewHandler(store, &fakeProductFinder{products: []models.Product{p1}}, &fakeGateway{}, bus)

	w := doCheckout(t, newCheckoutRouter(h), validBody(p1.ID.Hex(), "mock"))
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 39.98, resp["total"], 1e-9)
	assert.NotEmpty(t, resp["orderNumber"])
	assert.NotEmpty(t, resp["publicToken"])
	assert.NotContains(t, resp, "clientSecret")

	require.Len(t, store.inserted, 1)
	order := store.inserted[0]
	assert.Equal(t, models.StatusPaid, order.Status)
	require.NotNil(t, order.Payment.PaidAt)
	require.NotNil(t, order.Payment.Reference)
	assert.Equal(t, "mock_"+order.PublicToken, *order.Payment.Reference)
	assert.Equal(t, DeriveOrderNumber(order.ID), order.OrderNumber)
	assert.InDelta(t, 39.98, order.Subtotal, 1e-9)
	assert.Zero(t, order.Tax)
	assert.Zero(t, order.Shipping)
}

func TestCheckoutCardWithGateway(t *testing.T) {
	p1 := newProduct("SKU-1", 19.99)
	store := newFakeOrderStore()
	gw := &fakeGateway{enabled: true, intent: &payments.Intent{ID: "pi_123", ClientSecret: "cs_test_123"}}
	h := NewHandler(store, &fakeProductFinder{products: []models.Product{p1}}, gw, alerts.New())

	w := doCheckout(t, newCheckoutRouter(h), validBody(p1.ID.Hex(), "card"))
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "cs_test_123", resp["clientSecret"])

	require.Len(t, store.inserted, 1)
	order := store.inserted[0]
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Nil(t, order.Payment.PaidAt)

	// L'intent référence la commande via les métadonnées, en centimes
	assert.Equal(t, int64(3998), gw.lastAmount)
	assert.Equal(t, "usd", gw.lastCurrency)
	assert.Equal(t, order.ID.Hex(), gw.lastMetadata["orderId"])
	assert.Equal(t, order.OrderNumber, gw.lastMetadata["orderNumber"])
	assert.Equal(t, "client@example.com", gw.lastMetadata["email"])

	// L'id de l'intent est enregistré comme référence de paiement
	assert.Equal(t, "pi_123", store.refs[order.ID])
}

func TestCheckoutCardGatewayAbsent(t *testing.T) {
	p1 := newProduct("SKU-1", 10)
	store := newFakeOrderStore()
	h := NewHandler(store, &fakeProductFinder{products: []models.Product{p1}}, &fakeGateway{enabled: false}, alerts.New())

	w := doCheckout(t, newCheckoutRouter(h), validBody(p1.ID.Hex(), "card"))

	// La commande survit au gateway absent, sans client secret
	require.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotContains(t, resp, "clientSecret")

	require.Len(t, store.inserted, 1)
	assert.Equal(t, models.StatusPending, store.inserted[0].Status)
}

func TestCheckoutCODStaysPending(t *testing.T) {
	p1 := newProduct("SKU-1", 10)
	store := newFakeOrderStore()
	h := NewHandler(store, &fakeProductFinder{products: []models.Product{p1}}, &fakeGateway{}, alerts.New())

	w := doCheckout(t, newCheckoutRouter(h), validBody(p1.ID.Hex(), "cod"))
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, store.inserted, 1)
	order := store.inserted[0]
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Nil(t, order.Payment.PaidAt)
	assert.Nil(t, order.Payment.Reference)
}

func TestCheckoutUnknownProductNoSideEffects(t *testing.T) {
	store := newFakeOrderStore()
	bus := alerts.New()
	h := NewHandler(store, &fakeProductFinder{}, &fakeGateway{}, bus)

	w := doCheckout(t, newCheckoutRouter(h), validBody(primitive.NewObjectID().Hex(), "mock"))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.inserted)
	assert.Empty(t, bus.Recent())
}

func TestCheckoutMalformedProductID(t *testing.T) {
	store := newFakeOrderStore()
	h := NewHandler(store, &fakeProductFinder{}, &fakeGateway{}, alerts.New())

	w := doCheckout(t, newCheckoutRouter(h), validBody("zzz", "mock"))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "zzz", resp["invalidId"])
	assert.Empty(t, store.inserted)
}

func TestCheckoutValidationErrors(t *testing.T) {
	p1 := newProduct("SKU-1", 10)
	h := NewHandler(newFakeOrderStore(), &fakeProductFinder{products: []models.Product{p1}}, &fakeGateway{}, alerts.New())
	r := newCheckoutRouter(h)

	cases := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{"items vides", func(b map[string]interface{}) { b["items"] = []map[string]interface{}{} }},
		{"email invalide", func(b map[string]interface{}) { b["email"] = "pas-un-email" }},
		{"adresse sans rue", func(b map[string]interface{}) {
			b["shippingAddress"] = map[string]interface{}{"name": "Maria Lopez", "city": "Madrid"}
		}},
		{"quantité nulle", func(b map[string]interface{}) {
			b["items"] = []map[string]interface{}{{"productId": p1.ID.Hex(), "qty": 0}}
		}},
		{"méthode inconnue", func(b map[string]interface{}) { b["paymentMethod"] = "virement" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := validBody(p1.ID.Hex(), "mock")
			tc.mutate(body)
			w := doCheckout(t, r, body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCheckoutPublishesAlert(t *testing.T) {
	p1 := newProduct("SKU-1", 19.99)
	store := newFakeOrderStore()
	bus := alerts.New()
	h := NewHandler(store, &fakeProductFinder{products: []models.Product{p1}}, &fakeGateway{}, bus)

	w := doCheckout(t, newCheckoutRouter(h), validBody(p1.ID.Hex(), "mock"))
	require.Equal(t, http.StatusCreated, w.Code)

	recent := bus.Recent()
	require.Len(t, recent, 1)
	order := store.inserted[0]
	assert.Equal(t, "order", recent[0].Type)
	assert.Equal(t, order.ID.Hex(), recent[0].OrderID)
	assert.Equal(t, order.OrderNumber, recent[0].OrderNumber)
	assert.InDelta(t, 39.98, recent[0].Amount, 1e-9)
	assert.Equal(t, "Maria Lopez", recent[0].CustomerName)
}

func TestCheckoutInsertFailureNo500Leak(t *testing.T) {
	p1 := newProduct("SKU-1", 10)
	store := newFakeOrderStore()
	store.insertErr = mongo.ErrClientDisconnected
	bus := alerts.New()
	h := NewHandler(store, &fakeProductFinder{products: []models.Product{p1}}, &fakeGateway{}, bus)

	w := doCheckout(t, newCheckoutRouter(h), validBody(p1.ID.Hex(), "mock"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, store.inserted)
	assert.Empty(t, bus.Recent())
}
