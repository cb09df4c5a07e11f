// Package topics реализует распределение тем: каждая тема закрепляется
// максимум за одним студентом, у студента не больше maxClaims тем.
package topics

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

const DefaultMaxClaimsPerUser = 2

type Engine struct {
	store     storage.TopicStore
	gate      access.Gate
	publisher events.Publisher
	maxClaims int
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Engine)

// WithMaxClaims задаёт лимит тем на пользователя; значения < 1 игнорируются.
func WithMaxClaims(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxClaims = n
		}
	}
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

func NewEngine(store storage.TopicStore, gate access.Gate, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		gate:      gate,
		publisher: events.Nop{},
		maxClaims: DefaultMaxClaimsPerUser,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) MaxClaims() int {
	return e.maxClaims
}

// Create — разовое административное создание списка тем.
func (e *Engine) Create(ctx context.Context, subjectID, actorID string, maxTopics int) (*models.TopicList, error) {
	if subjectID == "" {
		return nil, apperr.ErrInvalidSubjectID
	}
	if !e.gate.IsAdmin(ctx, actorID, subjectID) {
		return nil, apperr.ErrForbidden
	}
	if maxTopics < 1 || maxTopics > models.MaxTopicsLimit {
		return nil, apperr.ErrInvalidMaxTopics
	}

	l, err := e.store.CreateTopicList(ctx, models.NewTopicList(subjectID, maxTopics))
	if err != nil {
		return nil, err
	}
	e.publisher.Publish(ctx, events.New(events.TopicsCreated, events.TopicsChannel(subjectID), l.Clone()))
	return l, nil
}

func (e *Engine) Get(ctx context.Context, subjectID string) (*models.TopicList, error) {
	return e.store.GetTopicList(ctx, subjectID)
}

// Claim закрепляет тему за пользователем. Повторный захват своей же темы — TopicTaken.
func (e *Engine) Claim(ctx context.Context, subjectID, userID string, topic int) (*models.TopicList, error) {
	if userID == "" {
		return nil, apperr.ErrInvalidUserID
	}

	return e.mutate(ctx, subjectID, events.TopicClaimed, func(l *models.TopicList) error {
		if topic < 1 || topic > l.MaxTopics {
			return apperr.ErrTopicOutOfRange.WithMessage("тема %d вне диапазона 1..%d", topic, l.MaxTopics)
		}
		if l.EntryFor(topic) >= 0 {
			return apperr.ErrTopicTaken
		}
		if l.ClaimsOf(userID) >= e.maxClaims {
			return apperr.ErrClaimLimitReached.WithMessage("можно занять не больше %d тем", e.maxClaims)
		}
		l.Entries = append(l.Entries, models.TopicEntry{
			TopicNumber: topic,
			UserID:      userID,
			ClaimedAt:   e.now().UTC(),
		})
		l.SortEntries()
		return nil
	})
}

// Release освобождает тему; освободить можно только свою.
func (e *Engine) Release(ctx context.Context, subjectID, userID string, topic int) (*models.TopicList, error) {
	return e.mutate(ctx, subjectID, events.TopicReleased, func(l *models.TopicList) error {
		if topic < 1 || topic > l.MaxTopics {
			return apperr.ErrTopicOutOfRange.WithMessage("тема %d вне диапазона 1..%d", topic, l.MaxTopics)
		}
		i := l.EntryFor(topic)
		if i < 0 {
			return apperr.ErrTopicFree
		}
		if l.Entries[i].UserID != userID {
			return apperr.ErrNotOwner
		}
		l.RemoveAt(i)
		return nil
	})
}

func (e *Engine) mutate(ctx context.Context, subjectID, eventType string, fn func(l *models.TopicList) error) (*models.TopicList, error) {
	l, err := e.store.UpdateTopicList(ctx, subjectID, func(l *models.TopicList) error {
		if err := fn(l); err != nil {
			return err
		}
		// Лимит на пользователя проверяет Claim: уже занятые темы не отбираются,
		// даже если лимит в конфигурации уменьшили.
		if err := l.CheckInvariants(0); err != nil {
			return fmt.Errorf("invariant violated: %w", err)
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			e.logger.Error("topic mutation failed",
				slog.String("subject_id", subjectID),
				slog.String("event", eventType),
				slog.Any("error", err))
		}
		return nil, err
	}

	e.publisher.Publish(ctx, events.New(eventType, events.TopicsChannel(subjectID), l.Clone()))
	return l, nil
}
