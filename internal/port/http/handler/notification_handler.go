package handler

import (
	"net/http"
	"strconv"

	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/logger"
	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/metrics"
	"github.com/AlphaIsYour/creanomic-sub002/internal/port/http/middleware"
	"github.com/AlphaIsYour/creanomic-sub002/internal/service"
	"github.com/go-chi/chi/v5"
)

type NotificationHandler struct {
	notifications service.NotificationService
	logger        logger.Logger
	metrics       *metrics.MetricsManager
}

func NewNotificationHandler(notifications service.NotificationService, log logger.Logger, m *metrics.MetricsManager) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		logger:        log,
		metrics:       m,
	}
}

func (h *NotificationHandler) HandleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorInfo{Kind: KindUnauthenticated, Message: "authentication required"}})
		return
	}

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	notifications, err := h.notifications.ListNotifications(r.Context(), userID, limit)
	if err != nil {
		writeError(w, h.logger, h.metrics, "ListNotifications", err)
		return
	}

	writeJSON(w, http.StatusOK, notifications)
}

func (h *NotificationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorInfo{Kind: KindUnauthenticated, Message: "authentication required"}})
		return
	}

	id := chi.URLParam(r, "id")

	if err := h.notifications.MarkRead(r.Context(), id, userID); err != nil {
		writeError(w, h.logger, h.metrics, "MarkNotificationRead", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "notification marked as read"})
}
