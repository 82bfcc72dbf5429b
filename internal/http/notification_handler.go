package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"circlerate/internal/repository"
)

// NotificationHandler expone la bandeja de notificaciones del usuario.
type NotificationHandler struct {
	logger        *zap.Logger
	notifications repository.NotificationRepository
}

func NewNotificationHandler(logger *zap.Logger, notifications repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{
		logger:        logger,
		notifications: notifications,
	}
}

// List maneja GET /notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	notifications, err := h.notifications.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("list notifications failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load notifications"})
		return
	}

	unread := 0
	for _, n := range notifications {
		if !n.Read {
			unread++
		}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "unread_count": unread})
}

// MarkRead maneja PUT /notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	id := c.Param("id")
	if !h.owns(c, claims.UserID, id) {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), id); err != nil {
		h.logger.Error("mark notification read failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update notification"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MarkAllRead maneja PUT /notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	if err := h.notifications.MarkAllRead(c.Request.Context(), claims.UserID); err != nil {
		h.logger.Error("mark all notifications read failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Delete maneja DELETE /notifications/:id.
func (h *NotificationHandler) Delete(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	id := c.Param("id")
	if !h.owns(c, claims.UserID, id) {
		return
	}
	if err := h.notifications.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("delete notification failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete notification"})
		return
	}
	c.Status(http.StatusNoContent)
}

// owns verifica que la notificación pertenezca al usuario autenticado.
// Las mutaciones por id pasan por acá para no tocar bandejas ajenas.
func (h *NotificationHandler) owns(c *gin.Context, userID, notificationID string) bool {
	notifications, err := h.notifications.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("ownership check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load notifications"})
		return false
	}
	for _, n := range notifications {
		if n.ID == notificationID {
			return true
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
	return false
}
