package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"defense_queue/internal/apperr"
	"defense_queue/internal/queue"
	"defense_queue/internal/response"
	"defense_queue/internal/topics"
	"defense_queue/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler собирает HTTP-обработчики очередей и тем.
type Handler struct {
	Queues *queue.Engine
	Topics *topics.Engine
	Render response.Renderer
	Hub    *ws.Hub
	Logger *slog.Logger
}

// Register навешивает маршруты на r. authMW определяет вызывающего;
// WebSocket-маршруты открыты, так как браузер не передаёт заголовки при подключении.
func (h *Handler) Register(r gin.IRouter, authMW gin.HandlerFunc) {
	queues := r.Group("/api/queues")
	{
		queues.GET("/:id/ws", h.QueueWebSocketHandler)

		authed := queues.Group("", authMW)
		authed.GET("/subject/:subjectId", h.GetQueueBySubjectHandler)
		authed.GET("/:id", h.GetQueueHandler)
		authed.GET("/:id/config", h.GetQueueConfigHandler)
		authed.PATCH("/:id/config", h.UpdateQueueConfigHandler)
		authed.POST("/:id/join", h.JoinQueueHandler)
		authed.POST("/:id/leave", h.LeaveQueueHandler)
		authed.POST("/:id/kick", h.KickHandler)
		authed.PATCH("/:id/status", h.ChangeStatusHandler)
		authed.POST("/:id/move", h.MoveHandler)
		authed.POST("/:id/toggle", h.ToggleQueueHandler)
	}

	topicGroup := r.Group("/api/topics")
	{
		topicGroup.GET("/subject/:subjectId/ws", h.TopicsWebSocketHandler)

		authed := topicGroup.Group("", authMW)
		authed.POST("", h.CreateTopicsHandler)
		authed.GET("/subject/:subjectId", h.GetTopicsHandler)
		authed.POST("/subject/:subjectId/claim", h.ClaimTopicHandler)
		authed.POST("/subject/:subjectId/release", h.ReleaseTopicHandler)
	}
}

const requestIDKey = "requestID"

// RequestID помечает запрос идентификатором (входящий X-Request-ID или новый uuid).
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindInvalidTransition:
		return http.StatusUnprocessableEntity
	case apperr.KindLimitExceeded:
		return http.StatusTooManyRequests
	case apperr.KindDisabled:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}

// respondError переводит ошибку движка в ErrorResponse.
func (h *Handler) respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		c.JSON(statusFor(appErr.Kind), response.ErrorResponse{
			Code:    appErr.Code,
			Message: appErr.Message,
		})
		return
	}

	h.Logger.Error("request failed",
		slog.String("request_id", c.GetString(requestIDKey)),
		slog.String("path", c.FullPath()),
		slog.Any("error", err))
	c.JSON(http.StatusInternalServerError, response.ErrorResponse{
		Code:    "DB_ERROR",
		Message: "Внутренняя ошибка сервера",
		Details: err.Error(),
	})
}

func validationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.ErrorResponse{
		Code:    "VALIDATION_ERROR",
		Message: "Ошибка валидации данных",
		Details: err.Error(),
	})
}

func queueID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_QUEUE_ID",
			Message: "Неверный идентификатор очереди",
		})
		return 0, false
	}
	return uint(id), true
}
