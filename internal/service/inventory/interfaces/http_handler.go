package interfaces

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"storefront/internal/service/inventory/application"
	"storefront/internal/service/inventory/domain"
)

// StockHandler 封装库存台账的 HTTP 处理器（补货和可售量查询）。
type StockHandler struct {
	service *application.StockLedgerService
}

func NewStockHandler(service *application.StockLedgerService) *StockHandler {
	return &StockHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *StockHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/stock/restock", h.handleRestock)
	mux.HandleFunc("/stock/availability", h.handleAvailability)
}

func (h *StockHandler) handleRestock(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req struct {
		VariantID string `json:"variant_id"`
		Delta     int64  `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Restock(ctx, req.VariantID, req.Delta); err != nil {
		writeStockError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StockHandler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	variantID := r.URL.Query().Get("variant_id")
	available, err := h.service.Available(ctx, variantID)
	if err != nil {
		writeStockError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"variant_id": variantID,
		"available":  strconv.FormatInt(available, 10),
	})
}

func writeStockError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrVariantNotFound:
		http.Error(w, err.Error(), http.StatusNotFound)
	case domain.ErrInvalidQuantity:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case domain.ErrInsufficientStock, domain.ErrInvalidState:
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
