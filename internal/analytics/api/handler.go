package analytics_api

import (
	"fmt"
	"net/http"

	"bom-tracker/internal/analytics"
	"bom-tracker/internal/auth"
	"bom-tracker/internal/logger"
	"bom-tracker/internal/utils"

	"github.com/go-chi/chi/v5"
)

// Handler handles analytics HTTP endpoints
type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, logger *logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  logger,
	}
}

// RegisterRoutes registers the analytics routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/analytics/orders", h.GetOrderAnalytics)
}

// GetOrderAnalytics returns the caller's order and cost summary
func (h *Handler) GetOrderAnalytics(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	h.Logger.Debug("ANALYTICS", fmt.Sprintf("Order analytics for user %d", userID))

	result, err := h.Service.GetOrderAnalytics(r.Context(), userID)
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("Failed to build order analytics: %v", err))
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}
