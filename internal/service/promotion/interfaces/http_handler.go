package interfaces

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"storefront/internal/service/promotion/application"
	"storefront/internal/service/promotion/domain"
)

// PromotionHandler 封装折扣服务的 HTTP 处理器。
// 结算前的"试算折扣"入口，不消耗任何用量。
type PromotionHandler struct {
	service *application.PromotionService
}

func NewPromotionHandler(service *application.PromotionService) *PromotionHandler {
	return &PromotionHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *PromotionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/discount/preview", h.handlePreview)
}

func (h *PromotionHandler) handlePreview(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req struct {
		Code          string   `json:"code"`
		UserID        string   `json:"user_id"`
		SubtotalCents int64    `json:"subtotal_cents"`
		ShippingCents int64    `json:"shipping_cents"`
		VariantIDs    []string `json:"variant_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	fact := domain.Fact{
		SubtotalCents: req.SubtotalCents,
		ItemCount:     int64(len(req.VariantIDs)),
		VariantIDs:    req.VariantIDs,
	}
	assessment, err := h.service.Assess(ctx, req.Code, req.UserID, req.SubtotalCents, req.ShippingCents, fact)
	if err != nil {
		writeDiscountError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code":         assessment.Code,
		"type":         assessment.Type,
		"amount_cents": assessment.AmountCents,
	})
}

func writeDiscountError(w http.ResponseWriter, err error) {
	var ineligible *domain.IneligibleError
	switch {
	case err == domain.ErrDiscountNotFound:
		http.Error(w, err.Error(), http.StatusNotFound)
	case err == domain.ErrInvalidCode:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case asIneligible(err, &ineligible):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"reason": string(ineligible.Reason)})
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func asIneligible(err error, target **domain.IneligibleError) bool {
	ie, ok := err.(*domain.IneligibleError)
	if ok {
		*target = ie
	}
	return ok
}
