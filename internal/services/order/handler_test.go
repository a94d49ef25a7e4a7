package order

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-api/internal/auth"
	"storefront-api/internal/logger"
)

type handlerFixture struct {
	*serviceFixture
	mux        *http.ServeMux
	auth       *auth.Manager
	buyerToken string
	adminToken string
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	f := newFixture()
	authManager := auth.NewManager("test-jwt-secret")
	handler := NewHandler(f.service, authManager, logger.New("test"))

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	buyerToken, err := authManager.Issue("user-1", auth.RoleBuyer, time.Hour)
	if err != nil {
		t.Fatalf("failed to issue buyer token: %v", err)
	}
	adminToken, err := authManager.Issue("admin-1", auth.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("failed to issue admin token: %v", err)
	}

	return &handlerFixture{
		serviceFixture: f,
		mux:            mux,
		auth:           authManager,
		buyerToken:     buyerToken,
		adminToken:     adminToken,
	}
}

func (f *handlerFixture) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response is not JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return envelope
}

func placeOrderBody(amount int64) map[string]interface{} {
	return map[string]interface{}{
		"items": []map[string]interface{}{{"productId": "p1", "quantity": 2}},
		"address": map[string]interface{}{
			"email":   "buyer@example.com",
			"street":  "12 MG Road",
			"city":    "Bengaluru",
			"state":   "Karnataka",
			"zipcode": "560001",
			"phone":   "9876543210",
		},
		"amount":         amount,
		"deliveryMethod": "delivery",
	}
}

func TestHandlePlaceOrder(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.request(t, http.MethodPost, "/api/order/place", f.buyerToken, placeOrderBody(200))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201\nbody: %s", rec.Code, rec.Body.String())
	}

	envelope := decodeEnvelope(t, rec)
	if envelope["success"] != true {
		t.Errorf("success = %v, want true", envelope["success"])
	}
	// Checkout fields sit flat in the envelope, not nested under a sub-object.
	if _, nested := envelope["order"]; nested {
		t.Errorf("response nests an order object: %v", envelope)
	}
	if id, ok := envelope["orderId"].(string); !ok || id == "" {
		t.Errorf("orderId = %v, want non-empty string", envelope["orderId"])
	}
	if id, ok := envelope["gatewayOrderId"].(string); !ok || id == "" {
		t.Errorf("gatewayOrderId = %v, want non-empty string", envelope["gatewayOrderId"])
	}
	if envelope["amount"] != float64(805*100) {
		t.Errorf("amount = %v, want %d paise", envelope["amount"], 805*100)
	}
	if envelope["key"] != "key_test" {
		t.Errorf("key = %v, want key_test", envelope["key"])
	}
}

func TestHandlePlaceOrderErrors(t *testing.T) {
	f := newHandlerFixture(t)

	tests := []struct {
		name       string
		token      string
		body       interface{}
		wantStatus int
	}{
		{"no token", "", placeOrderBody(200), http.StatusUnauthorized},
		{"amount mismatch", f.buyerToken, placeOrderBody(999), http.StatusBadRequest},
		{"unknown field", f.buyerToken, map[string]interface{}{"surprise": 1}, http.StatusBadRequest},
		{"empty body", f.buyerToken, map[string]interface{}{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.request(t, http.MethodPost, "/api/order/place", tt.token, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d\nbody: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			envelope := decodeEnvelope(t, rec)
			if envelope["success"] != false {
				t.Errorf("success = %v, want false", envelope["success"])
			}
			if envelope["message"] == "" {
				t.Error("failure envelope has no message")
			}
		})
	}
}

func TestHandleVerifyPaymentGatewayErrorsMapTo400(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.request(t, http.MethodPost, "/api/order/place", f.buyerToken, placeOrderBody(200))
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout failed: %s", rec.Body.String())
	}
	envelope := decodeEnvelope(t, rec)

	verify := map[string]interface{}{
		"orderId":           envelope["orderId"],
		"razorpayPaymentId": "pay_1",
		"razorpayOrderId":   envelope["gatewayOrderId"],
		"razorpaySignature": "bogus",
	}
	rec = f.request(t, http.MethodPost, "/api/order/verify", f.buyerToken, verify)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleAdminRoutes(t *testing.T) {
	f := newHandlerFixture(t)

	t.Run("buyer denied on admin list", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/order/list", f.buyerToken, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("admin list", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/order/list", f.adminToken, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		envelope := decodeEnvelope(t, rec)
		if _, ok := envelope["data"].([]interface{}); !ok {
			t.Errorf("data should be a JSON array even when empty: %v", envelope)
		}
	})

	t.Run("status update on unknown order", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/order/status", f.adminToken, map[string]interface{}{
			"orderId": "11111111-2222-3333-4444-555555555555",
			"status":  "confirmed",
		})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandleCancelConflict(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.request(t, http.MethodPost, "/api/order/place", f.buyerToken, placeOrderBody(200))
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout failed: %s", rec.Body.String())
	}
	cancel := map[string]interface{}{"orderId": decodeEnvelope(t, rec)["orderId"]}

	rec = f.request(t, http.MethodPost, "/api/order/cancel", f.buyerToken, cancel)
	if rec.Code != http.StatusOK {
		t.Fatalf("first cancel status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	rec = f.request(t, http.MethodPost, "/api/order/cancel", f.buyerToken, cancel)
	if rec.Code != http.StatusConflict {
		t.Errorf("second cancel status = %d, want 409", rec.Code)
	}
}

func TestHandleCart(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.request(t, http.MethodPost, "/api/cart/add", f.buyerToken, map[string]interface{}{
		"productId": "p1",
		"quantity":  2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	rec = f.request(t, http.MethodPost, "/api/cart/merge", f.buyerToken, map[string]interface{}{
		"cartData": map[string]int{"p1": 1, "p2": 3},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("merge status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	envelope := decodeEnvelope(t, rec)
	cartData, ok := envelope["cartData"].(map[string]interface{})
	if !ok {
		t.Fatalf("merge response missing cartData: %v", envelope)
	}
	if cartData["p1"] != float64(3) || cartData["p2"] != float64(3) {
		t.Errorf("merged cart = %v, want p1=3 p2=3", cartData)
	}

	rec = f.request(t, http.MethodGet, "/api/cart", f.buyerToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d, want 200", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.request(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
