// Package identity превращает непрозрачные идентификаторы записей
// в отображаемые имена. Очередь и темы хранят только id.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"defense_queue/internal/models"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// ErrUnknownUser — источник не знает такого пользователя.
var ErrUnknownUser = errors.New("identity: unknown user")

// Directory возвращает имя для показа. Если имя неизвестно, возвращается сам id.
type Directory interface {
	DisplayName(ctx context.Context, userID string) string
}

// Source — первичный источник имён.
type Source interface {
	Lookup(ctx context.Context, userID string) (string, error)
}

// Passthrough показывает id как есть; используется без базы пользователей.
type Passthrough struct{}

func (Passthrough) DisplayName(_ context.Context, userID string) string { return userID }

// UserSource читает имена из таблицы users по ExternalID.
type UserSource struct {
	db *gorm.DB
}

func NewUserSource(db *gorm.DB) *UserSource {
	return &UserSource{db: db}
}

func (s *UserSource) Lookup(ctx context.Context, userID string) (string, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("external_id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrUnknownUser
	}
	if err != nil {
		return "", fmt.Errorf("lookup user %s: %w", userID, err)
	}
	name := u.DisplayName()
	if name == "" {
		return "", ErrUnknownUser
	}
	return name, nil
}

// Cached — Directory поверх Source с кэшем в Redis. Одновременные запросы
// одного id к источнику склеиваются. rdb == nil отключает кэш.
type Cached struct {
	source Source
	rdb    *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

func NewCached(source Source, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{source: source, rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(userID string) string {
	return "display_name:" + userID
}

func (c *Cached) DisplayName(ctx context.Context, userID string) string {
	if userID == "" {
		return ""
	}

	if c.rdb != nil {
		cached, err := c.rdb.Get(ctx, cacheKey(userID)).Result()
		if err == nil && cached != "" {
			return cached
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			c.logger.Warn("display name cache read failed", slog.String("user_id", userID), slog.Any("error", err))
		}
	}

	v, err, _ := c.group.Do(userID, func() (any, error) {
		name, err := c.source.Lookup(ctx, userID)
		if err != nil {
			return "", err
		}
		if c.rdb != nil {
			if err := c.rdb.Set(ctx, cacheKey(userID), name, c.ttl).Err(); err != nil {
				c.logger.Warn("display name cache write failed", slog.String("user_id", userID), slog.Any("error", err))
			}
		}
		return name, nil
	})
	if err != nil {
		if !errors.Is(err, ErrUnknownUser) {
			c.logger.Error("display name lookup failed", slog.String("user_id", userID), slog.Any("error", err))
		}
		return userID
	}
	return v.(string)
}

var (
	_ Directory = Passthrough{}
	_ Directory = (*Cached)(nil)
	_ Source    = (*UserSource)(nil)
)
