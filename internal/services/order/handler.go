package order

import (
	"encoding/json"
	"net/http"

	"storefront-api/internal/auth"
	"storefront-api/internal/logger"
	"storefront-api/internal/models"
)

// Handler exposes the order workflow over HTTP.
type Handler struct {
	service *Service
	auth    *auth.Manager
	logger  *logger.Logger
}

// NewHandler creates the HTTP handler for the order service.
func NewHandler(service *Service, authManager *auth.Manager, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		auth:    authManager,
		logger:  log,
	}
}

// RegisterRoutes attaches all order and cart endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/order/place", h.withLogging(h.auth.Middleware(false, h.handlePlaceOrder)))
	mux.HandleFunc("POST /api/order/verify", h.withLogging(h.auth.Middleware(false, h.handleVerifyPayment)))
	mux.HandleFunc("POST /api/order/userorders", h.withLogging(h.auth.Middleware(false, h.handleUserOrders)))
	mux.HandleFunc("GET /api/order/list", h.withLogging(h.auth.Middleware(true, h.handleListOrders)))
	mux.HandleFunc("POST /api/order/status", h.withLogging(h.auth.Middleware(true, h.handleUpdateStatus)))
	mux.HandleFunc("POST /api/order/cancel", h.withLogging(h.auth.Middleware(false, h.handleCancelOrder)))
	mux.HandleFunc("GET /api/order/{id}/history", h.withLogging(h.auth.Middleware(false, h.handleStatusHistory)))

	mux.HandleFunc("GET /api/cart", h.withLogging(h.auth.Middleware(false, h.handleGetCart)))
	mux.HandleFunc("POST /api/cart/add", h.withLogging(h.auth.Middleware(false, h.handleAddToCart)))
	mux.HandleFunc("POST /api/cart/remove", h.withLogging(h.auth.Middleware(false, h.handleRemoveFromCart)))
	mux.HandleFunc("POST /api/cart/merge", h.withLogging(h.auth.Middleware(false, h.handleMergeCart)))

	mux.HandleFunc("GET /health", h.withLogging(h.handleHealth))
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, r, models.AuthenticationError{Message: "missing identity"})
		return
	}

	var req models.PlaceOrderRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.service.PlaceOrder(r.Context(), identity.UserID, &req, requestIDFrom(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":        true,
		"message":        "Order created",
		"orderId":        resp.OrderID,
		"gatewayOrderId": resp.GatewayOrderID,
		"amount":         resp.Amount,
		"key":            resp.Key,
	})
}

func (h *Handler) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.VerifyPayment(r.Context(), &req, requestIDFrom(r)); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Payment verified",
	})
}

func (h *Handler) handleUserOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, r, models.AuthenticationError{Message: "missing identity"})
		return
	}

	orders, err := h.service.ListUserOrders(r.Context(), identity.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    orders,
	})
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListAllOrders(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    orders,
	})
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, r, models.AuthenticationError{Message: "missing identity"})
		return
	}

	var req models.UpdateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.UpdateStatus(r.Context(), identity.UserID, &req, requestIDFrom(r)); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Status updated",
	})
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, r, models.AuthenticationError{Message: "missing identity"})
		return
	}

	var req models.CancelOrderRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	refundID, err := h.service.CancelOrder(r.Context(), identity.UserID, req.OrderID, requestIDFrom(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := map[string]interface{}{
		"success": true,
		"message": "Order cancelled",
	}
	if refundID != "" {
		resp["refundId"] = refundID
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStatusHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, r, models.AuthenticationError{Message: "missing identity"})
		return
	}

	orderID := r.PathValue("id")
	history, err := h.service.GetStatusHistory(r.Context(), identity.UserID, orderID, identity.Role == auth.RoleAdmin)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if history == nil {
		history = []models.OrderStatusHistory{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"history": history,
	})
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, r, models.AuthenticationError{Message: "missing identity"})
		return
	}

	snapshot, err := h.service.GetCart(r.Context(), identity.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"cartData": snapshot,
	})
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity,omitempty"`
}

func (h *Handler) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, r, models.AuthenticationError{Message: "missing identity"})
		return
	}

	var req cartItemRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if err := h.service.AddToCart(r.Context(), identity.UserID, req.ProductID, req.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Added to cart",
	})
}

func (h *Handler) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, r, models.AuthenticationError{Message: "missing identity"})
		return
	}

	var req cartItemRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.RemoveFromCart(r.Context(), identity.UserID, req.ProductID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Removed from cart",
	})
}

type mergeCartRequest struct {
	CartData models.CartSnapshot `json:"cartData"`
}

func (h *Handler) handleMergeCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, r, models.AuthenticationError{Message: "missing identity"})
		return
	}

	var req mergeCartRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	merged, err := h.service.MergeCart(r.Context(), identity.UserID, req.CartData)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"cartData": merged,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  "ok",
	})
}

// decodeBody parses a JSON request body, rejecting unknown fields so typos
// and stale clients fail loudly instead of silently dropping data.
func decodeBody(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return models.ValidationError{Message: "invalid request body: " + err.Error()}
	}
	return nil
}

func requestIDFrom(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return logger.GenerateRequestID()
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("response_encode_failed", "Failed to encode response", "", err, nil)
	}
}

// writeError maps a service error onto the HTTP status taxonomy and the
// standard failure envelope. Internal errors are logged in full but reported
// generically.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := models.HTTPStatus(err)

	message := err.Error()
	if statusCode == http.StatusInternalServerError {
		h.logger.Error("request_failed", "Internal error handling request", requestIDFrom(r), err, map[string]interface{}{
			"path": r.URL.Path,
		})
		message = "internal server error"
	}

	h.writeJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// withLogging wraps a handler with request logging.
func (h *Handler) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := requestIDFrom(r)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(wrapped, r)

		h.logger.Debug("http_request", "Handled HTTP request", requestID, map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": wrapped.statusCode,
		})
	}
}

// responseWriter captures the status code for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
