// Package queue реализует движок очереди на сдачу: запись на место, выход,
// модерацию статусов и настройки. Каждая операция сериализуется хранилищем
// по своей очереди; разные очереди друг друга не блокируют.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"defense_queue/internal/access"
	"defense_queue/internal/apperr"
	"defense_queue/internal/events"
	"defense_queue/internal/models"
	"defense_queue/internal/storage"
)

type Engine struct {
	store     storage.QueueStore
	gate      access.Gate
	publisher events.Publisher
	defaults  models.RuleConfig
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Engine)

// WithDefaults задаёт настройки для лениво создаваемых очередей.
func WithDefaults(cfg models.RuleConfig) Option {
	return func(e *Engine) { e.defaults = cfg }
}

func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store storage.QueueStore, gate access.Gate, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		gate:      gate,
		publisher: events.Nop{},
		defaults:  models.DefaultRuleConfig(),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// JoinRequest — запись пользователя на конкретное место.
type JoinRequest struct {
	QueueID   uint
	UserID    string
	LabNumber int
	Slot      int
}

// MoveRequest — перенос записи администратором. Запись задаётся UserID
// или FromSlot; Swap разрешает обмен с занятым TargetSlot.
type MoveRequest struct {
	QueueID    uint
	ActorID    string
	UserID     string
	FromSlot   int
	TargetSlot int
	Swap       bool
}

// GetOrCreate возвращает очередь предмета, создавая её при первом обращении.
func (e *Engine) GetOrCreate(ctx context.Context, subjectID string) (*models.Queue, error) {
	if subjectID == "" {
		return nil, apperr.ErrInvalidSubjectID
	}
	return e.store.GetOrCreateQueue(ctx, subjectID, e.defaults)
}

func (e *Engine) Get(ctx context.Context, queueID uint) (*models.Queue, error) {
	return e.store.GetQueue(ctx, queueID)
}

func (e *Engine) Join(ctx context.Context, req JoinRequest) (*models.Queue, error) {
	if req.UserID == "" {
		return nil, apperr.ErrInvalidUserID
	}
	if req.LabNumber <= 0 {
		return nil, apperr.ErrInvalidLabNumber
	}

	return e.mutate(ctx, req.QueueID, events.QueueJoined, func(q *models.Queue) error {
		if !q.IsActive {
			return apperr.ErrQueueClosed
		}
		if req.Slot < models.MinSlots || req.Slot > q.Config.MaxSlots {
			return apperr.ErrSlotOutOfRange.WithMessage("место %d вне диапазона 1..%d", req.Slot, q.Config.MaxSlots)
		}
		if ceiling := q.EffectiveCeiling(); req.Slot > ceiling {
			return apperr.ErrSlotAboveCeiling.WithMessage("правило мин-макс: доступны места 1..%d", ceiling)
		}
		if q.EntryAt(req.Slot) >= 0 {
			return apperr.ErrSlotOccupied
		}
		if q.EntryOf(req.UserID) >= 0 {
			return apperr.ErrAlreadyInQueue
		}

		q.Entries = append(q.Entries, models.QueueEntry{
			Slot:      req.Slot,
			UserID:    req.UserID,
			LabNumber: req.LabNumber,
			Status:    models.StatusWaiting,
			JoinedAt:  e.now().UTC(),
		})
		q.SortEntries()
		q.TrackHighWater()
		return nil
	})
}

// Leave удаляет собственную запись пользователя.
func (e *Engine) Leave(ctx context.Context, queueID uint, userID string) (*models.Queue, error) {
	return e.mutate(ctx, queueID, events.QueueLeft, func(q *models.Queue) error {
		i := q.EntryOf(userID)
		if userID == "" || i < 0 {
			return apperr.ErrNotInQueue
		}
		q.RemoveAt(i)
		return nil
	})
}

// Kick удаляет чужую запись; только для администратора.
func (e *Engine) Kick(ctx context.Context, queueID uint, actorID, targetUserID string) (*models.Queue, error) {
	return e.mutate(ctx, queueID, events.QueueKicked, func(q *models.Queue) error {
		if !e.gate.IsAdmin(ctx, actorID, q.SubjectID) {
			return apperr.ErrForbidden
		}
		i := q.EntryOf(targetUserID)
		if i < 0 {
			return apperr.ErrNotInQueue
		}
		q.RemoveAt(i)
		return nil
	})
}

// ChangeStatus переводит запись по графу статусов. Если evictExhausted включён,
// запись, исчерпавшая попытки, удаляется тем же шагом.
func (e *Engine) ChangeStatus(ctx context.Context, queueID uint, actorID, targetUserID, newStatus string) (*models.Queue, error) {
	to, ok := models.ParseStatus(newStatus)
	if !ok {
		return nil, apperr.ErrInvalidStatus.WithMessage("неизвестный статус %q", newStatus)
	}

	return e.mutate(ctx, queueID, events.QueueStatusChanged, func(q *models.Queue) error {
		if !e.gate.IsAdmin(ctx, actorID, q.SubjectID) {
			return apperr.ErrForbidden
		}
		i := q.EntryOf(targetUserID)
		if i < 0 {
			return apperr.ErrNotInQueue
		}
		if err := applyTransition(&q.Entries[i], to, q.Config.MaxAttempts); err != nil {
			return err
		}
		if q.Config.EvictExhausted && q.Entries[i].Exhausted(q.Config.MaxAttempts) {
			removed := q.RemoveAt(i)
			e.logger.Info("entry evicted after last attempt",
				slog.Uint64("queue_id", uint64(q.ID)),
				slog.String("user_id", removed.UserID),
				slog.Int("attempts", removed.Attempts))
		}
		return nil
	})
}

// Move переносит запись на TargetSlot или меняет местами две записи.
// Выключенный priorityMove проверяется раньше прав.
func (e *Engine) Move(ctx context.Context, req MoveRequest) (*models.Queue, error) {
	return e.mutate(ctx, req.QueueID, events.QueueMoved, func(q *models.Queue) error {
		if !q.Config.PriorityMove {
			return apperr.ErrMoveDisabled
		}
		if !e.gate.IsAdmin(ctx, req.ActorID, q.SubjectID) {
			return apperr.ErrForbidden
		}
		if req.TargetSlot < models.MinSlots || req.TargetSlot > q.Config.MaxSlots {
			return apperr.ErrSlotOutOfRange.WithMessage("место %d вне диапазона 1..%d", req.TargetSlot, q.Config.MaxSlots)
		}

		src := -1
		if req.UserID != "" {
			src = q.EntryOf(req.UserID)
		} else if req.FromSlot > 0 {
			src = q.EntryAt(req.FromSlot)
		}
		if src < 0 {
			return apperr.ErrNotInQueue
		}

		from := q.Entries[src].Slot
		if from == req.TargetSlot {
			return nil
		}
		if dst := q.EntryAt(req.TargetSlot); dst >= 0 {
			if !req.Swap {
				return apperr.ErrSlotOccupied
			}
			q.Entries[dst].Slot = from
		}
		q.Entries[src].Slot = req.TargetSlot
		q.SortEntries()
		return nil
	})
}

// Toggle открывает или закрывает запись. Существующие записи не трогает.
func (e *Engine) Toggle(ctx context.Context, queueID uint, actorID string) (*models.Queue, error) {
	return e.mutate(ctx, queueID, events.QueueToggled, func(q *models.Queue) error {
		if !e.gate.IsAdmin(ctx, actorID, q.SubjectID) {
			return apperr.ErrForbidden
		}
		q.IsActive = !q.IsActive
		if q.IsActive && q.Config.HighWaterReset == models.HighWaterOnReopen {
			q.ResetHighWater()
		}
		return nil
	})
}

// UpdateConfig заменяет настройки целиком. Уменьшение maxSlots ниже занятого
// места отклоняется: записи сначала нужно убрать.
func (e *Engine) UpdateConfig(ctx context.Context, queueID uint, actorID string, cfg models.RuleConfig) (*models.Queue, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return e.mutate(ctx, queueID, events.QueueConfigUpdated, func(q *models.Queue) error {
		return e.replaceConfig(ctx, q, actorID, cfg)
	})
}

// PatchConfig применяет apply к текущим настройкам под блокировкой очереди,
// так что параллельные частичные изменения не затирают друг друга.
func (e *Engine) PatchConfig(ctx context.Context, queueID uint, actorID string, apply func(cfg *models.RuleConfig)) (*models.Queue, error) {
	return e.mutate(ctx, queueID, events.QueueConfigUpdated, func(q *models.Queue) error {
		cfg := q.Config
		apply(&cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		return e.replaceConfig(ctx, q, actorID, cfg)
	})
}

func (e *Engine) replaceConfig(ctx context.Context, q *models.Queue, actorID string, cfg models.RuleConfig) error {
	if !e.gate.IsAdmin(ctx, actorID, q.SubjectID) {
		return apperr.ErrForbidden
	}
	for _, entry := range q.Entries {
		if entry.Slot > cfg.MaxSlots {
			return apperr.ErrConfigConflict.WithMessage("место %d занято, maxSlots не может быть меньше", entry.Slot)
		}
	}
	q.Config = cfg
	return nil
}

// ResetHighWater сбрасывает пик заполненности у очередей с заданной политикой.
// Возвращает число затронутых очередей.
func (e *Engine) ResetHighWater(ctx context.Context, policy models.HighWaterReset) (int, error) {
	queues, err := e.store.ListQueues(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, snapshot := range queues {
		if snapshot.Config.HighWaterReset != policy {
			continue
		}
		_, err := e.mutate(ctx, snapshot.ID, events.QueueHighWaterSet, func(q *models.Queue) error {
			q.ResetHighWater()
			return nil
		})
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// mutate выполняет fn под блокировкой очереди, проверяет инварианты
// и публикует снимок после успешной записи.
func (e *Engine) mutate(ctx context.Context, queueID uint, eventType string, fn func(q *models.Queue) error) (*models.Queue, error) {
	q, err := e.store.UpdateQueue(ctx, queueID, func(q *models.Queue) error {
		if err := fn(q); err != nil {
			return err
		}
		if err := q.CheckInvariants(); err != nil {
			return fmt.Errorf("invariant violated: %w", err)
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			e.logger.Error("queue mutation failed",
				slog.Uint64("queue_id", uint64(queueID)),
				slog.String("event", eventType),
				slog.Any("error", err))
		}
		return nil, err
	}

	e.publisher.Publish(ctx, events.New(eventType, events.QueueChannel(q.ID), q.Clone()))
	return q, nil
}
