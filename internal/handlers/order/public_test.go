package order

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mesa_back_end/internal/alerts"
	"mesa_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newPublicRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/orders/public/:id", h.GetPublicOrder)
	r.PATCH("/api/orders/admin/:id", h.AdminUpdateStatus)
	return r
}

func seedOrder(store *fakeOrderStore) *models.Order {
	order := &models.Order{
		ID:          primitive.NewObjectID(),
		OrderNumber: "MES-ABC123",
		Email:       "client@example.com",
		PublicToken: "tok-secret",
		Status:      models.StatusPending,
	}
	store.inserted = append(store.inserted, order)
	return order
}

func TestPublicOrderWithToken(t *testing.T) {
	store := newFakeOrderStore()
	order := seedOrder(store)
	h := NewHandler(store, &fakeProductFinder{}, &fakeGateway{}, alerts.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/orders/public/"+order.ID.Hex()+"?t=tok-secret", nil)
	newPublicRouter(h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, "MES-ABC123", got.OrderNumber)
}

func TestPublicOrderUnknownID(t *testing.T) {
	store := newFakeOrderStore()
	h := NewHandler(store, &fakeProductFinder{}, &fakeGateway{}, alerts.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/orders/public/"+primitive.NewObjectID().Hex()+"?t=x", nil)
	newPublicRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublicOrderMalformedID(t *testing.T) {
	h := NewHandler(newFakeOrderStore(), &fakeProductFinder{}, &fakeGateway{}, alerts.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/orders/public/pas-un-id?t=x", nil)
	newPublicRouter(h).ServeHTTP(w, req)

	// Un id illisible est indistinguable d'une commande absente
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublicOrderTokenMismatch(t *testing.T) {
	store := newFakeOrderStore()
	order := seedOrder(store)
	h := NewHandler(store, &fakeProductFinder{}, &fakeGateway{}, alerts.New())
	r := newPublicRouter(h)

	for _, token := range []string{"", "?t=", "?t=mauvais-token"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/orders/public/"+order.ID.Hex()+token, nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, "token %q", token)
	}
}

func TestAdminUpdateStatusRejectsUnknownStatus(t *testing.T) {
	store := newFakeOrderStore()
	order := seedOrder(store)
	h := NewHandler(store, &fakeProductFinder{}, &fakeGateway{}, alerts.New())

	body, _ := json.Marshal(map[string]string{"status": "téléporté"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/orders/admin/"+order.ID.Hex(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	newPublicRouter(h).ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "valid_statuses")
}

func TestAdminUpdateStatusUnknownOrder(t *testing.T) {
	h := NewHandler(newFakeOrderStore(), &fakeProductFinder{}, &fakeGateway{}, alerts.New())

	body, _ := json.Marshal(map[string]string{"status": models.StatusShipped})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/orders/admin/"+primitive.NewObjectID().Hex(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	newPublicRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
