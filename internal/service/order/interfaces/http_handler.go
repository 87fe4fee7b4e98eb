package interfaces

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"storefront/internal/service/order/application"
	"storefront/internal/service/order/domain"
	promotiondomain "storefront/internal/service/promotion/domain"
)

// OrderHandler 封装结算和订单生命周期的 HTTP 处理器。
type OrderHandler struct {
	checkout  *application.CheckoutService
	lifecycle *application.OrderLifecycleService
}

func NewOrderHandler(checkout *application.CheckoutService, lifecycle *application.OrderLifecycleService) *OrderHandler {
	return &OrderHandler{checkout: checkout, lifecycle: lifecycle}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/checkout", h.handleCheckout)
	mux.HandleFunc("/orders", h.handleGet)
	mux.HandleFunc("/orders/confirm", h.transitionHandler(h.lifecycle.Confirm))
	mux.HandleFunc("/orders/ship", h.transitionHandler(h.lifecycle.Ship))
	mux.HandleFunc("/orders/deliver", h.transitionHandler(h.lifecycle.Deliver))
	mux.HandleFunc("/orders/cancel", h.transitionHandler(h.lifecycle.Cancel))
	mux.HandleFunc("/payments/webhook", h.handlePaymentWebhook)
}

type orderResponse struct {
	OrderID             string `json:"order_id"`
	Status              string `json:"status"`
	PaymentStatus       string `json:"payment_status"`
	AppliedDiscountCode string `json:"applied_discount_code,omitempty"`
	SubtotalCents       int64  `json:"subtotal_cents"`
	DiscountCents       int64  `json:"discount_cents"`
	ShippingCents       int64  `json:"shipping_cents"`
	TotalCents          int64  `json:"total_cents"`
}

func toOrderResponse(order *domain.Order) orderResponse {
	return orderResponse{
		OrderID:             order.ID,
		Status:              string(order.Status),
		PaymentStatus:       string(order.PaymentStatus),
		AppliedDiscountCode: order.AppliedDiscountCode,
		SubtotalCents:       order.SubtotalCents,
		DiscountCents:       order.DiscountCents,
		ShippingCents:       order.ShippingCents,
		TotalCents:          order.TotalCents,
	}
}

func (h *OrderHandler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		http.Error(w, "missing X-User-Id header", http.StatusBadRequest)
		return
	}

	var req struct {
		DiscountCode string `json:"discount_code"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	order, err := h.checkout.Checkout(ctx, userID, req.DiscountCode)
	if err != nil {
		writeOrderError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toOrderResponse(order))
}

func (h *OrderHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	orderID := r.URL.Query().Get("order_id")
	order, err := h.lifecycle.Get(ctx, orderID)
	if err != nil {
		writeOrderError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toOrderResponse(order))
}

// transitionHandler 为四个生命周期流转生成同构的处理函数。
func (h *OrderHandler) transitionHandler(fn func(ctx context.Context, orderID string) (*domain.Order, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		var req struct {
			OrderID string `json:"order_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		order, err := fn(ctx, req.OrderID)
		if err != nil {
			writeOrderError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(toOrderResponse(order))
	}
}

func (h *OrderHandler) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req struct {
		EventID string `json:"event_id"`
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.EventID == "" || req.OrderID == "" {
		http.Error(w, "event_id and order_id are required", http.StatusBadRequest)
		return
	}

	err := h.lifecycle.ApplyPaymentEvent(ctx, application.PaymentEvent{
		EventID: req.EventID,
		OrderID: req.OrderID,
		Status:  domain.PaymentStatus(req.Status),
	})
	if err != nil {
		writeOrderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeOrderError(w http.ResponseWriter, err error) {
	var ineligible *promotiondomain.IneligibleError
	if errors.As(err, &ineligible) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"error":  "discount not eligible",
			"reason": string(ineligible.Reason),
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrCartEmpty):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, promotiondomain.ErrDiscountNotFound), errors.Is(err, promotiondomain.ErrInvalidCode):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrProductUnavailable),
		errors.Is(err, domain.ErrInvalidStatusTransition),
		errors.Is(err, domain.ErrOrderCannotCancel),
		errors.Is(err, domain.ErrInvalidPaymentTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
