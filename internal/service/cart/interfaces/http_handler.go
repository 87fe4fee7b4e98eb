package interfaces

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"storefront/internal/service/cart/application"
	"storefront/internal/service/cart/domain"
)

// CartHandler 封装购物车服务的 HTTP 处理器。
// userID 由网关的身份解析中间件放进请求头，这里不做任何鉴权。
type CartHandler struct {
	service *application.CartService
}

func NewCartHandler(service *application.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *CartHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/cart", h.handleGetCart)
	mux.HandleFunc("/cart/items", h.handleAddItem)
	mux.HandleFunc("/cart/items/quantity", h.handleUpdateQuantity)
	mux.HandleFunc("/cart/items/delta", h.handleChangeDelta)
	mux.HandleFunc("/cart/items/remove", h.handleRemoveItem)
}

type cartItemResponse struct {
	ID        string `json:"id"`
	VariantID string `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		http.Error(w, "missing user identity", http.StatusBadRequest)
		return
	}

	cart, err := h.service.GetCart(ctx, userID)
	if err != nil {
		writeCartError(w, err)
		return
	}

	items := make([]cartItemResponse, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, cartItemResponse{ID: it.ID, VariantID: it.VariantID, Quantity: it.Quantity})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"user_id": cart.UserID, "items": items})
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	userID := r.Header.Get("X-User-Id")
	var req struct {
		VariantID string `json:"variant_id"`
		Quantity  int64  `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.AddItem(ctx, userID, req.VariantID, req.Quantity); err != nil {
		writeCartError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	userID := r.Header.Get("X-User-Id")
	var req struct {
		CartItemID string `json:"cart_item_id"`
		Quantity   int64  `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateQuantity(ctx, userID, req.CartItemID, req.Quantity); err != nil {
		writeCartError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) handleChangeDelta(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	userID := r.Header.Get("X-User-Id")
	var req struct {
		CartItemID string `json:"cart_item_id"`
		Delta      int64  `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.ChangeQuantityDelta(ctx, userID, req.CartItemID, req.Delta); err != nil {
		writeCartError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	userID := r.Header.Get("X-User-Id")
	var req struct {
		CartItemID string `json:"cart_item_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.RemoveItem(ctx, userID, req.CartItemID); err != nil {
		writeCartError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeCartError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrCartItemNotFound:
		http.Error(w, err.Error(), http.StatusNotFound)
	case domain.ErrInvalidQuantity, domain.ErrProductUnavailable:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case domain.ErrQuantityTooLarge:
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
