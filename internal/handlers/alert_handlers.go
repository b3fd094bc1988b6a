package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"inventario-backend/internal/models"
	"inventario-backend/internal/repository"
	"inventario-backend/internal/services"
)

type AlertHandler struct {
	alerts *services.AlertService
}

func NewAlertHandler(alerts *services.AlertService) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// ListAlerts returns alerts, defaulting to the OPEN ones the dashboard polls
// GET /api/v1/alertas?status=OPEN|ACK|RESOLVED|all
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	page, limit := getPagination(c)

	var status *models.AlertStatus
	raw := strings.ToUpper(c.DefaultQuery("status", string(models.AlertStatusOpen)))
	switch raw {
	case "ALL":
		// no filter
	case string(models.AlertStatusOpen), string(models.AlertStatusAck), string(models.AlertStatusResolved):
		s := models.AlertStatus(raw)
		status = &s
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "VALIDATION_ERROR", Message: "status must be OPEN, ACK, RESOLVED or all"},
		})
		return
	}

	alerts, total, err := h.alerts.List(c.Request.Context(), status, page, limit)
	if err != nil {
		respondInternalError(c, "Failed to list alerts")
		return
	}

	c.JSON(http.StatusOK, models.ListResponse{
		Success:    true,
		Data:       alerts,
		Pagination: buildPagination(page, limit, total),
	})
}

// CountAlerts returns totals per lifecycle state, for the badge counter
// GET /api/v1/alertas/count
func (h *AlertHandler) CountAlerts(c *gin.Context) {
	counts, err := h.alerts.CountByStatus(c.Request.Context())
	if err != nil {
		respondInternalError(c, "Failed to count alerts")
		return
	}

	c.JSON(http.StatusOK, models.AlertCountResponse{Success: true, Data: counts})
}

// AcknowledgeAlert marks an alert as seen; idempotent
// PATCH /api/v1/alertas/:id/ack
func (h *AlertHandler) AcknowledgeAlert(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	alert, err := h.alerts.Acknowledge(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: alert})
}

// ResolveAlert closes an alert episode manually; idempotent
// PATCH /api/v1/alertas/:id/resolve
func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	alert, err := h.alerts.Resolve(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: alert})
}

// SweepAlerts re-evaluates every stock-tracked inventory on demand
// POST /api/v1/alertas/sweep
func (h *AlertHandler) SweepAlerts(c *gin.Context) {
	result, err := h.alerts.Sweep(c.Request.Context())
	if err != nil {
		respondInternalError(c, "Failed to sweep alerts")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: result})
}

// ListNotifications returns the notification feed for the polling UI
// GET /api/v1/notificaciones?unread=true
func (h *AlertHandler) ListNotifications(c *gin.Context) {
	page, limit := getPagination(c)
	unreadOnly := c.DefaultQuery("unread", "false") == "true"

	notifications, total, err := h.alerts.Notifications(c.Request.Context(), unreadOnly, page, limit)
	if err != nil {
		respondInternalError(c, "Failed to list notifications")
		return
	}

	c.JSON(http.StatusOK, models.ListResponse{
		Success:    true,
		Data:       notifications,
		Pagination: buildPagination(page, limit, total),
	})
}

// MarkNotificationRead stamps one notification as read
// PATCH /api/v1/notificaciones/:id/read
func (h *AlertHandler) MarkNotificationRead(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.alerts.MarkNotificationRead(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "NOTIFICATION_NOT_FOUND", Message: "Notificación no encontrada"},
			})
			return
		}
		respondInternalError(c, "Failed to mark notification as read")
		return
	}

	msg := "Notificación marcada como leída"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}
