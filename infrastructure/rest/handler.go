package rest

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"counsel-chat/auth"
	"counsel-chat/domain"
	"counsel-chat/domain/chat"
	cerrors "counsel-chat/errors"
	"counsel-chat/observability"
	"counsel-chat/services"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

const maxLimit = 200

type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MessageResponse is the history contract: ordered records of
// {sender_id, sender_name, text, created_at} for one room.
type MessageResponse struct {
	MessageID  string    `json:"message_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

type HTTPHandler struct {
	service  services.IChatService
	verifier *auth.TokenVerifier
	stats    *observability.Collector
	log      *slog.Logger
}

func NewHTTPHandler(log *slog.Logger, service services.IChatService,
	verifier *auth.TokenVerifier, stats *observability.Collector) *HTTPHandler {
	return &HTTPHandler{service: service, verifier: verifier, stats: stats, log: log}
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	api.Use(h.requireToken)
	{
		api.GET("/rooms/:room_id/messages", h.GetHistory)
	}

	r.GET("/health", h.HealthCheck)
	r.GET("/stats", h.Stats)
}

// requireToken verifies the bearer token. The chat subsystem does not decide
// who may read a room; the platform only issues tokens to participants it
// has already authorized.
func (h *HTTPHandler) requireToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		const prefix = "Bearer "
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, prefix) {
			token = strings.TrimPrefix(header, prefix)
		}
	}
	if _, err := h.verifier.Verify(token); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, APIResponse{
			Success: false,
			Error:   "invalid token",
		})
		return
	}
	c.Next()
}

// GetHistory returns the room's durable messages in ascending creation
// order. Without a limit query the whole conversation is returned, so a
// room open always renders from the first message; an explicit limit keeps
// only the newest messages, capped to bound one response. A storage failure
// is reported as-is; the caller degrades to an empty history without
// blocking room entry.
func (h *HTTPHandler) GetHistory(c *gin.Context) {
	roomID := c.Param("room_id")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: "room_id is required"})
		return
	}

	var limit *int
	if limitStr := c.Query("limit"); limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil || parsedLimit < 1 {
			c.JSON(http.StatusBadRequest, APIResponse{
				Success: false,
				Error:   "limit must be a positive integer",
			})
			return
		}
		if parsedLimit > maxLimit {
			parsedLimit = maxLimit
		}
		limit = &parsedLimit
	}

	messages, err := h.service.History(c.Request.Context(), chat.HistoryCommand{
		Room:  domain.RoomID(roomID),
		Limit: limit,
	})
	if err != nil {
		h.log.Warn("History fetch failed", "room", roomID, "error", err)
		c.JSON(cerrors.HTTPStatus(err), APIResponse{Success: false, Error: "failed to get history"})
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: lo.Map(messages, func(m domain.Message, _ int) MessageResponse {
			return MessageResponse{
				MessageID:  m.ID.String(),
				SenderID:   m.SenderID,
				SenderName: m.SenderName,
				Text:       m.Content,
				CreatedAt:  m.CreatedAt,
			}
		}),
	})
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Stats reports process self-metrics for operational visibility.
func (h *HTTPHandler) Stats(c *gin.Context) {
	snapshot, err := h.stats.Snapshot()
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: "stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: snapshot})
}
