package handlers

import (
	"net/http"

	"defense_queue/internal/auth"
	"defense_queue/internal/events"
	"defense_queue/internal/models"
	"defense_queue/internal/queue"

	"github.com/gin-gonic/gin"
)

type JoinQueueRequest struct {
	LabNumber    int `json:"labNumber" example:"2"`
	SlotPosition int `json:"slotPosition" example:"3"`
}

type TargetUserRequest struct {
	UserID string `json:"userId" binding:"required" example:"42"`
}

type ChangeStatusRequest struct {
	UserID string `json:"userId" binding:"required" example:"42"`
	Status string `json:"status" binding:"required" example:"defending"`
}

// MoveRequest — запись задаётся userId или fromSlot.
type MoveRequest struct {
	UserID     string `json:"userId" example:"42"`
	FromSlot   int    `json:"fromSlot" example:"5"`
	TargetSlot int    `json:"targetSlot" example:"1"`
	Swap       bool   `json:"swap"`
}

// ConfigPatch — частичное изменение настроек; отсутствующие поля не меняются.
type ConfigPatch struct {
	MaxSlots       *int                   `json:"maxSlots" example:"31"`
	MinMaxRule     *bool                  `json:"minMaxRule" example:"true"`
	PriorityMove   *bool                  `json:"priorityMove" example:"true"`
	MaxAttempts    *int                   `json:"maxAttempts" example:"3"`
	EvictExhausted *bool                  `json:"evictExhausted" example:"false"`
	HighWaterReset *models.HighWaterReset `json:"highWaterReset" example:"never"`
}

func (p ConfigPatch) apply(cfg *models.RuleConfig) {
	if p.MaxSlots != nil {
		cfg.MaxSlots = *p.MaxSlots
	}
	if p.MinMaxRule != nil {
		cfg.MinMaxRule = *p.MinMaxRule
	}
	if p.PriorityMove != nil {
		cfg.PriorityMove = *p.PriorityMove
	}
	if p.MaxAttempts != nil {
		cfg.MaxAttempts = *p.MaxAttempts
	}
	if p.EvictExhausted != nil {
		cfg.EvictExhausted = *p.EvictExhausted
	}
	if p.HighWaterReset != nil {
		cfg.HighWaterReset = *p.HighWaterReset
	}
}

func (h *Handler) queueResult(c *gin.Context, q *models.Queue, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Render.Queue(c.Request.Context(), q))
}

// GetQueueBySubjectHandler возвращает очередь предмета, создавая её при первом обращении
// @Summary		Очередь предмета
// @Description	Возвращает очередь по идентификатору предмета; при первом обращении очередь создаётся с настройками по умолчанию
// @Tags			queue
// @Produce		json
// @Param			subjectId	path		string	true	"ID предмета"
// @Security		BearerAuth
// @Success		200	{object}	response.QueueView
// @Failure		400	{object}	response.ErrorResponse	"INVALID_SUBJECT_ID"
// @Failure		500	{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/queues/subject/{subjectId} [get]
func (h *Handler) GetQueueBySubjectHandler(c *gin.Context) {
	q, err := h.Queues.GetOrCreate(c.Request.Context(), c.Param("subjectId"))
	h.queueResult(c, q, err)
}

// GetQueueHandler возвращает снимок очереди
// @Summary		Получение очереди
// @Description	Возвращает состояние очереди, список записей с именами участников и текущий лимит мест
// @Tags			queue
// @Produce		json
// @Param			id	path		int	true	"ID очереди"
// @Security		BearerAuth
// @Success		200	{object}	response.QueueView
// @Failure		400	{object}	response.ErrorResponse	"INVALID_QUEUE_ID"
// @Failure		404	{object}	response.ErrorResponse	"QUEUE_NOT_FOUND"
// @Router			/api/queues/{id} [get]
func (h *Handler) GetQueueHandler(c *gin.Context) {
	id, ok := queueID(c)
	if !ok {
		return
	}
	q, err := h.Queues.Get(c.Request.Context(), id)
	h.queueResult(c, q, err)
}

// GetQueueConfigHandler возвращает настройки очереди
// @Summary		Настройки очереди
// @Tags			queue
// @Produce		json
// @Param			id	path		int	true	"ID очереди"
// @Security		BearerAuth
// @Success		200	{object}	models.RuleConfig
// @Failure		404	{object}	response.ErrorResponse	"QUEUE_NOT_FOUND"
// @Router			/api/queues/{id}/config [get]
func (h *Handler) GetQueueConfigHandler(c *gin.Context) {
	id, ok := queueID(c)
	if !ok {
		return
	}
	q, err := h.Queues.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q.Config)
}

// UpdateQueueConfigHandler меняет настройки очереди
// @Summary		Изменение настроек очереди
// @Description	Только для администратора. Передаются лишь изменяемые поля. Нельзя уменьшить maxSlots ниже занятого места
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id		path		int			true	"ID очереди"
// @Param			config	body		ConfigPatch	true	"Изменяемые настройки"
// @Security		BearerAuth
// @Success		200	{object}	response.QueueView
// @Failure		400	{object}	response.ErrorResponse	"INVALID_CONFIG, VALIDATION_ERROR"
// @Failure		403	{object}	response.ErrorResponse	"FORBIDDEN"
// @Failure		409	{object}	response.ErrorResponse	"CONFIG_CONFLICT"
// @Router			/api/queues/{id}/config [patch]
func (h *Handler) UpdateQueueConfigHandler(c *gin.Context) {
	id, ok := queueID(c)
	if !ok {
		return
	}
	var patch ConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		validationError(c, err)
		return
	}
	q, err := h.Queues.PatchConfig(c.Request.Context(), id, auth.Actor(c), patch.apply)
	h.queueResult(c, q, err)
}

// JoinQueueHandler обрабатывает запрос на запись в очередь
// @Summary		Запись в очередь
// @Description	Занимает выбранное место. При включённом правиле мин-макс доступны места до пика заполненности + 2
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id		path		int					true	"ID очереди"
// @Param			request	body		JoinQueueRequest	true	"Номер лабораторной и место"
// @Security		BearerAuth
// @Success		200	{object}	response.QueueView
// @Failure		400	{object}	response.ErrorResponse	"SLOT_OUT_OF_RANGE, INVALID_LAB_NUMBER"
// @Failure		404	{object}	response.ErrorResponse	"QUEUE_NOT_FOUND"
// @Failure		409	{object}	response.ErrorResponse	"SLOT_OCCUPIED, ALREADY_IN_QUEUE"
// @Failure		423	{object}	response.ErrorResponse	"QUEUE_CLOSED"
// @Failure		429	{object}	response.ErrorResponse	"SLOT_OUT_OF_RANGE (правило мин-макс)"
// @Router			/api/queues/{id}/join [post]
func (h *Handler) JoinQueueHandler(c *gin.Context) {
	id, ok := queueID(c)
	if !ok {
		return
	}
	var req JoinQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	q, err := h.Queues.Join(c.Request.Context(), queue.JoinRequest{
		QueueID:   id,
		UserID:    auth.Actor(c),
		LabNumber: req.LabNumber,
		Slot:      req.SlotPosition,
	})
	h.queueResult(c, q, err)
}

// LeaveQueueHandler обрабатывает запрос на выход из очереди
// @Summary		Выход из очереди
// @Description	Удаляет собственную запись; место сразу освобождается
// @Tags			queue
// @Produce		json
// @Param			id	path		int	true	"ID очереди"
// @Security		BearerAuth
// @Success		200	{object}	response.QueueView
// @Failure		404	{object}	response.ErrorResponse	"QUEUE_NOT_FOUND, NOT_IN_QUEUE"
// @Router			/api/queues/{id}/leave [post]
func (h *Handler) LeaveQueueHandler(c *gin.Context) {
	id, ok := queueID(c)
	if !ok {
		return
	}
	q, err := h.Queues.Leave(c.Request.Context(), id, auth.Actor(c))
	h.queueResult(c, q, err)
}

// KickHandler удаляет чужую запись
// @Summary		Удаление участника
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id		path		int					true	"ID очереди"
// @Param			request	body		TargetUserRequest	true	"Кого удалить"
// @Security		BearerAuth
// @Success		200	{object}	response.QueueView
// @Failure		403	{object}	response.ErrorResponse	"FORBIDDEN"
// @Failure		404	{object}	response.ErrorResponse	"NOT_IN_QUEUE"
// @Router			/api/queues/{id}/kick [post]
func (h *Handler) KickHandler(c *gin.Context) {
	id, ok := queueID(c)
	if !ok {
		return
	}
	var req TargetUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	q, err := h.Queues.Kick(c.Request.Context(), id, auth.Actor(c), req.UserID)
	h.queueResult(c, q, err)
}

// ChangeStatusHandler меняет статус записи
// @Summary		Смена статуса участника
// @Description	waiting → preparing → defending → completed|failed; failed → waiting расходует попытку; skipped возвращается в waiting
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id		path		int					true	"ID очереди"
// @Param			request	body		ChangeStatusRequest	true	"Участник и новый статус"
// @Security		BearerAuth
// @Success		200	{object}	response.QueueView
// @Failure		400	{object}	response.ErrorResponse	"INVALID_STATUS"
// @Failure		403	{object}	response.ErrorResponse	"FORBIDDEN"
// @Failure		404	{object}	response.ErrorResponse	"NOT_IN_QUEUE"
// @Failure		422	{object}	response.ErrorResponse	"INVALID_TRANSITION"
// @Router			/api/queues/{id}/status [patch]
func (h *Handler) ChangeStatusHandler(c *gin.Context) {
	id, ok := queueID(c)
	if !ok {
		return
	}
	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	q, err := h.Queues.ChangeStatus(c.Request.Context(), id, auth.Actor(c), req.UserID, req.Status)
	h.queueResult(c, q, err)
}

// MoveHandler переносит запись на другое место
// @Summary		Перемещение участника
// @Description	Только для администратора и только при включённом priorityMove. swap=true меняет местами с занятым местом
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id		path		int			true	"ID очереди"
// @Param			request	body		MoveRequest	true	"Кого и куда переместить"
// @Security		BearerAuth
// @Success		200	{object}	response.QueueView
// @Failure		400	{object}	response.ErrorResponse	"SLOT_OUT_OF_RANGE"
// @Failure		403	{object}	response.ErrorResponse	"FORBIDDEN"
// @Failure		409	{object}	response.ErrorResponse	"SLOT_OCCUPIED"
// @Failure		423	{object}	response.ErrorResponse	"MOVE_DISABLED"
// @Router			/api/queues/{id}/move [post]
func (h *Handler) MoveHandler(c *gin.Context) {
	id, ok := queueID(c)
	if !ok {
		return
	}
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	q, err := h.Queues.Move(c.Request.Context(), queue.MoveRequest{
		QueueID:    id,
		ActorID:    auth.Actor(c),
		UserID:     req.UserID,
		FromSlot:   req.FromSlot,
		TargetSlot: req.TargetSlot,
		Swap:       req.Swap,
	})
	h.queueResult(c, q, err)
}

// ToggleQueueHandler открывает или закрывает запись в очередь
// @Summary		Открыть/закрыть очередь
// @Tags			queue
// @Produce		json
// @Param			id	path		int	true	"ID очереди"
// @Security		BearerAuth
// @Success		200	{object}	response.QueueView
// @Failure		403	{object}	response.ErrorResponse	"FORBIDDEN"
// @Router			/api/queues/{id}/toggle [post]
func (h *Handler) ToggleQueueHandler(c *gin.Context) {
	id, ok := queueID(c)
	if !ok {
		return
	}
	q, err := h.Queues.Toggle(c.Request.Context(), id, auth.Actor(c))
	h.queueResult(c, q, err)
}

// QueueWebSocketHandler подписывает клиента на изменения очереди.
// Первое сообщение — текущий снимок, далее — снимок после каждого изменения.
// URL-пример: /api/queues/{id}/ws
func (h *Handler) QueueWebSocketHandler(c *gin.Context) {
	id, ok := queueID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Queues.Get(ctx, id); err != nil {
		h.respondError(c, err)
		return
	}
	channel := events.QueueChannel(id)
	h.Hub.Serve(c, channel, func() ([]byte, error) {
		q, err := h.Queues.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return h.Render.Event(ctx, events.New(events.Snapshot, channel, q))
	})
}
