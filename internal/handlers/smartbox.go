package handlers

import (
	"errors"
	"net/http"

	"smartbox_dashboard/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK           = "ok"
	statusSent         = "sent"
	statusReconnected  = "reconnected"
	statusDisconnected = "disconnected"

	errGetState    = "failed to load state"
	errSendWarning = "failed to send warning"
	errReconnect   = "failed to reconnect"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Request DTO for sending a warning.
type warningRequest struct {
	Type     string `json:"type" binding:"required"`     // temperature | humidity | system
	Message  string `json:"message" binding:"required"`  // free text shown on the device
	Severity string `json:"severity" binding:"required"` // low | medium | high
}

// SendWarningRequest is an exported model for Swagger docs of the warning payload.
type SendWarningRequest struct {
	// Warning category. Allowed: temperature, humidity, system
	Type string `json:"type" example:"system"`
	// Free-text message for the device operator
	Message string `json:"message" example:"Temperature: 2.50°C (Safe Point)"`
	// Severity. Allowed: low, medium, high
	Severity string `json:"severity" example:"high"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get Smart Box state
// @Tags         smartbox
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/smartbox/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.services.Telemetry.GetState(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "smartbox_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"smartbox":   st,
		"connection": h.services.Connection.Status(ctx),
	})
}

// @Summary      Send warning to device
// @Description  Publishes a warning command on the outbound topic, fire-and-forget
// @Tags         smartbox
// @Accept       json
// @Produce      json
// @Param        body  body   SendWarningRequest  true  "Warning payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/smartbox/warning [post]
// @Security     BearerAuth
func (h *Handler) sendWarning(c *gin.Context) {
	var req warningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	ctx := c.Request.Context()
	cmd, err := h.services.Warning.Send(ctx, service.WarningParams{
		Type:     req.Type,
		Message:  req.Message,
		Severity: req.Severity,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotConnected) {
			h.logAndJSONError(c, http.StatusServiceUnavailable, errSendWarning, "warning_send_not_connected", err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSent, "warning": cmd})
}

// @Summary      Get connection status
// @Tags         connection
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/connection [get]
// @Security     BearerAuth
func (h *Handler) getConnection(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Connection.Status(c.Request.Context()))
}

// @Summary      Reconnect to broker
// @Tags         connection
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/connection/reconnect [post]
// @Security     BearerAuth
func (h *Handler) reconnect(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Connection.Reconnect(ctx); err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errReconnect, "connection_reconnect_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     statusReconnected,
		"connection": h.services.Connection.Status(ctx),
	})
}

// @Summary      Disconnect from broker
// @Tags         connection
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/connection/disconnect [post]
// @Security     BearerAuth
func (h *Handler) disconnect(c *gin.Context) {
	ctx := c.Request.Context()
	_ = h.services.Connection.Disconnect(ctx)
	c.JSON(http.StatusOK, gin.H{
		"status":     statusDisconnected,
		"connection": h.services.Connection.Status(ctx),
	})
}
