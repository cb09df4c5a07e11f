package models

import (
	"defense_queue/internal/apperr"
)

const (
	MinSlots       = 1
	MaxSlotsLimit  = 100
	MinAttempts    = 1
	MaxAttemptsCap = 10

	// Запас мест сверх пиковой заполненности при включённом правиле мин-макс.
	MinMaxHeadroom = 2
)

// HighWaterReset — политика сброса пиковой заполненности очереди.
type HighWaterReset string

const (
	HighWaterNever    HighWaterReset = "never"
	HighWaterOnReopen HighWaterReset = "on_reopen"
	HighWaterDaily    HighWaterReset = "daily"
)

func (r HighWaterReset) Valid() bool {
	switch r {
	case HighWaterNever, HighWaterOnReopen, HighWaterDaily:
		return true
	}
	return false
}

// RuleConfig — настройки очереди. Меняются только администратором.
type RuleConfig struct {
	MaxSlots       int            `json:"maxSlots" example:"31"`
	MinMaxRule     bool           `json:"minMaxRule" example:"true"`
	PriorityMove   bool           `json:"priorityMove" example:"true"`
	MaxAttempts    int            `json:"maxAttempts" example:"3"`
	EvictExhausted bool           `json:"evictExhausted"`                    // Убирать запись, исчерпавшую попытки
	HighWaterReset HighWaterReset `json:"highWaterReset" example:"never"` // never | on_reopen | daily
}

// DefaultRuleConfig — значения по умолчанию для новой очереди.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		MaxSlots:       31,
		MinMaxRule:     true,
		PriorityMove:   true,
		MaxAttempts:    3,
		HighWaterReset: HighWaterNever,
	}
}

// Validate проверяет диапазоны. Пустая политика сброса трактуется как never.
func (c *RuleConfig) Validate() error {
	if c.MaxSlots < MinSlots || c.MaxSlots > MaxSlotsLimit {
		return apperr.ErrInvalidConfig.WithMessage("maxSlots должен быть от %d до %d", MinSlots, MaxSlotsLimit)
	}
	if c.MaxAttempts < MinAttempts || c.MaxAttempts > MaxAttemptsCap {
		return apperr.ErrInvalidConfig.WithMessage("maxAttempts должен быть от %d до %d", MinAttempts, MaxAttemptsCap)
	}
	if c.HighWaterReset == "" {
		c.HighWaterReset = HighWaterNever
	}
	if !c.HighWaterReset.Valid() {
		return apperr.ErrInvalidConfig.WithMessage("неизвестная политика highWaterReset: %q", c.HighWaterReset)
	}
	return nil
}
