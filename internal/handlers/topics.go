package handlers

import (
	"errors"
	"net/http"

	"defense_queue/internal/apperr"
	"defense_queue/internal/auth"
	"defense_queue/internal/events"
	"defense_queue/internal/models"

	"github.com/gin-gonic/gin"
)

type CreateTopicsRequest struct {
	SubjectID string `json:"subjectId" binding:"required" example:"history"`
	MaxTopics int    `json:"maxTopics" example:"30"`
}

type TopicRequest struct {
	TopicNumber int `json:"topicNumber" example:"3"`
}

func (h *Handler) topicsResult(c *gin.Context, l *models.TopicList, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Render.TopicList(c.Request.Context(), l))
}

// CreateTopicsHandler создаёт список тем предмета
// @Summary		Создание списка тем
// @Description	Только для администратора, один раз на предмет. maxTopics от 1 до 100
// @Tags			topics
// @Accept			json
// @Produce		json
// @Param			request	body		CreateTopicsRequest	true	"Предмет и число тем"
// @Security		BearerAuth
// @Success		201	{object}	response.TopicListView
// @Failure		400	{object}	response.ErrorResponse	"INVALID_MAX_TOPICS, VALIDATION_ERROR"
// @Failure		403	{object}	response.ErrorResponse	"FORBIDDEN"
// @Failure		409	{object}	response.ErrorResponse	"TOPICS_ALREADY_EXIST"
// @Router			/api/topics [post]
func (h *Handler) CreateTopicsHandler(c *gin.Context) {
	var req CreateTopicsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	l, err := h.Topics.Create(c.Request.Context(), req.SubjectID, auth.Actor(c), req.MaxTopics)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.Render.TopicList(c.Request.Context(), l))
}

// GetTopicsHandler возвращает список тем предмета
// @Summary		Список тем
// @Tags			topics
// @Produce		json
// @Param			subjectId	path		string	true	"ID предмета"
// @Security		BearerAuth
// @Success		200	{object}	response.TopicListView
// @Failure		404	{object}	response.ErrorResponse	"TOPICS_NOT_CREATED"
// @Router			/api/topics/subject/{subjectId} [get]
func (h *Handler) GetTopicsHandler(c *gin.Context) {
	l, err := h.Topics.Get(c.Request.Context(), c.Param("subjectId"))
	h.topicsResult(c, l, err)
}

// ClaimTopicHandler закрепляет тему за вызывающим
// @Summary		Выбор темы
// @Tags			topics
// @Accept			json
// @Produce		json
// @Param			subjectId	path		string			true	"ID предмета"
// @Param			request		body		TopicRequest	true	"Номер темы"
// @Security		BearerAuth
// @Success		200	{object}	response.TopicListView
// @Failure		400	{object}	response.ErrorResponse	"TOPIC_OUT_OF_RANGE"
// @Failure		404	{object}	response.ErrorResponse	"TOPICS_NOT_CREATED"
// @Failure		409	{object}	response.ErrorResponse	"TOPIC_TAKEN"
// @Failure		429	{object}	response.ErrorResponse	"CLAIM_LIMIT_REACHED"
// @Router			/api/topics/subject/{subjectId}/claim [post]
func (h *Handler) ClaimTopicHandler(c *gin.Context) {
	var req TopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	l, err := h.Topics.Claim(c.Request.Context(), c.Param("subjectId"), auth.Actor(c), req.TopicNumber)
	h.topicsResult(c, l, err)
}

// ReleaseTopicHandler освобождает свою тему
// @Summary		Отказ от темы
// @Tags			topics
// @Accept			json
// @Produce		json
// @Param			subjectId	path		string			true	"ID предмета"
// @Param			request		body		TopicRequest	true	"Номер темы"
// @Security		BearerAuth
// @Success		200	{object}	response.TopicListView
// @Failure		403	{object}	response.ErrorResponse	"NOT_OWNER"
// @Failure		404	{object}	response.ErrorResponse	"TOPICS_NOT_CREATED, TOPIC_FREE"
// @Router			/api/topics/subject/{subjectId}/release [post]
func (h *Handler) ReleaseTopicHandler(c *gin.Context) {
	var req TopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	l, err := h.Topics.Release(c.Request.Context(), c.Param("subjectId"), auth.Actor(c), req.TopicNumber)
	h.topicsResult(c, l, err)
}

// TopicsWebSocketHandler подписывает клиента на изменения списка тем.
// Подписаться можно и до создания списка: первым придёт событие topics_created.
// URL-пример: /api/topics/subject/{subjectId}/ws
func (h *Handler) TopicsWebSocketHandler(c *gin.Context) {
	subjectID := c.Param("subjectId")
	ctx := c.Request.Context()
	channel := events.TopicsChannel(subjectID)

	if _, err := h.Topics.Get(ctx, subjectID); err != nil && !errors.Is(err, apperr.ErrTopicsNotCreated) {
		h.respondError(c, err)
		return
	}
	h.Hub.Serve(c, channel, func() ([]byte, error) {
		l, err := h.Topics.Get(ctx, subjectID)
		if errors.Is(err, apperr.ErrTopicsNotCreated) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return h.Render.Event(ctx, events.New(events.Snapshot, channel, l))
	})
}
