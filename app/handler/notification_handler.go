package handler

import (
	"net/http"

	"nodemonitor/app/middleware"
	"nodemonitor/internal/model"
	"nodemonitor/internal/service"

	"github.com/gin-gonic/gin"
)

// NotificationHandler handles notification settings HTTP requests
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GetPreferences returns the user's notification preferences
// @Summary Get notification preferences
// @Tags notifications
// @Produce json
// @Success 200 {object} model.PreferencesResponse
// @Router /api/notifications/preferences [get]
func (h *NotificationHandler) GetPreferences(c *gin.Context) {
	prefs, err := h.notificationService.GetPreferences(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "get preferences")
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// UpdatePreferences changes the given preference flags
// @Summary Update notification preferences
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body model.PreferencesRequest true "Flags to change"
// @Success 200 {object} model.PreferencesResponse
// @Router /api/notifications/preferences [put]
func (h *NotificationHandler) UpdatePreferences(c *gin.Context) {
	var req model.PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prefs, err := h.notificationService.UpdatePreferences(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		respondError(c, err, "update preferences")
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// RegisterToken stores a push device token
// @Summary Register device token
// @Tags notifications
// @Accept json
// @Param request body model.RegisterTokenRequest true "Device token"
// @Success 204
// @Router /api/notifications/register-token [post]
func (h *NotificationHandler) RegisterToken(c *gin.Context) {
	var req model.RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.notificationService.RegisterToken(c.Request.Context(), middleware.UserID(c), req.Token, req.Platform); err != nil {
		respondError(c, err, "register token")
		return
	}
	c.Status(http.StatusNoContent)
}

// UnregisterToken removes a push device token
// @Summary Unregister device token
// @Tags notifications
// @Accept json
// @Param request body model.RegisterTokenRequest true "Device token"
// @Success 204
// @Router /api/notifications/register-token [delete]
func (h *NotificationHandler) UnregisterToken(c *gin.Context) {
	var req model.RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.notificationService.UnregisterToken(c.Request.Context(), middleware.UserID(c), req.Token); err != nil {
		respondError(c, err, "unregister token")
		return
	}
	c.Status(http.StatusNoContent)
}

// TelegramStatus reports whether a Telegram chat is linked
// @Summary Telegram link status
// @Tags notifications
// @Produce json
// @Success 200 {object} model.TelegramStatusResponse
// @Router /api/notifications/telegram/status [get]
func (h *NotificationHandler) TelegramStatus(c *gin.Context) {
	status, err := h.notificationService.TelegramStatus(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "get telegram status")
		return
	}
	c.JSON(http.StatusOK, status)
}

// LinkTelegram links a Telegram chat using a code issued by the bot
// @Summary Link Telegram
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body model.TelegramLinkRequest true "Link code"
// @Success 200 {object} model.TelegramStatusResponse
// @Failure 400 {object} map[string]string "invalid or expired code"
// @Router /api/notifications/telegram/link [post]
func (h *NotificationHandler) LinkTelegram(c *gin.Context) {
	var req model.TelegramLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := h.notificationService.LinkTelegram(c.Request.Context(), middleware.UserID(c), req.Code)
	if err != nil {
		respondError(c, err, "link telegram")
		return
	}
	c.JSON(http.StatusOK, status)
}

// UnlinkTelegram removes the Telegram link
// @Summary Unlink Telegram
// @Tags notifications
// @Success 204
// @Router /api/notifications/telegram/link [delete]
func (h *NotificationHandler) UnlinkTelegram(c *gin.Context) {
	if err := h.notificationService.UnlinkTelegram(c.Request.Context(), middleware.UserID(c)); err != nil {
		respondError(c, err, "unlink telegram")
		return
	}
	c.Status(http.StatusNoContent)
}

// SendTest sends a test notification over every configured channel
// @Summary Send test notification
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} map[string]string
// @Router /api/notifications/test [post]
func (h *NotificationHandler) SendTest(c *gin.Context) {
	if err := h.notificationService.SendTest(c.Request.Context(), middleware.UserID(c)); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}
