package ws

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"defense_queue/internal/events"

	"github.com/go-redis/redis/v8"
)

const (
	relayPrefix = "defense_queue:"

	relayMinBackoff = 500 * time.Millisecond
	relayMaxBackoff = 30 * time.Second
)

var errSubscriptionClosed = errors.New("redis subscription closed")

// Relay разносит события между экземплярами сервиса через Redis pub/sub:
// Publish отправляет снимок в Redis, Run доставляет всё полученное в локальный Hub.
// Пока подписка не подтверждена, события доставляются локальным подписчикам напрямую.
type Relay struct {
	rdb *redis.Client
	hub *Hub

	subscribed atomic.Bool
	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewRelay(rdb *redis.Client, hub *Hub) *Relay {
	return &Relay{rdb: rdb, hub: hub, minBackoff: relayMinBackoff, maxBackoff: relayMaxBackoff}
}

// Subscribed — подписка на Redis активна.
func (r *Relay) Subscribed() bool {
	return r.subscribed.Load()
}

func (r *Relay) Publish(ctx context.Context, ev events.Event) {
	payload, err := r.hub.render(ctx, ev)
	if err != nil {
		r.hub.logger.Error("relay render failed", slog.String("event", ev.Type), slog.Any("error", err))
		return
	}

	if !r.subscribed.Load() {
		// Локальные подписчики получают снимок сами; Redis — для остальных экземпляров.
		r.hub.Broadcast(ev.Channel, payload)
		if err := r.rdb.Publish(ctx, relayPrefix+ev.Channel, payload).Err(); err != nil {
			r.hub.logger.Debug("relay publish skipped", slog.String("channel", ev.Channel), slog.Any("error", err))
		}
		return
	}

	if err := r.rdb.Publish(ctx, relayPrefix+ev.Channel, payload).Err(); err != nil {
		r.hub.logger.Warn("relay publish failed, delivering locally", slog.String("channel", ev.Channel), slog.Any("error", err))
		r.hub.Broadcast(ev.Channel, payload)
	}
}

// Run слушает Redis до отмены ctx, переподписываясь с экспоненциальной задержкой.
func (r *Relay) Run(ctx context.Context) error {
	backoff := r.minBackoff
	for {
		confirmed, err := r.listen(ctx)
		r.subscribed.Store(false)
		if ctx.Err() != nil {
			return nil
		}
		if confirmed {
			backoff = r.minBackoff
		}
		r.hub.logger.Warn("redis relay disconnected, retrying",
			slog.Duration("backoff", backoff), slog.Any("error", err))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > r.maxBackoff {
			backoff = r.maxBackoff
		}
	}
}

// listen держит одну подписку; confirmed сообщает, была ли она установлена.
func (r *Relay) listen(ctx context.Context) (confirmed bool, err error) {
	sub := r.rdb.PSubscribe(ctx, relayPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return false, err
	}
	r.subscribed.Store(true)
	r.hub.logger.Info("redis relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return true, errSubscriptionClosed
			}
			r.hub.Broadcast(strings.TrimPrefix(msg.Channel, relayPrefix), []byte(msg.Payload))
		}
	}
}

var _ events.Publisher = (*Relay)(nil)
