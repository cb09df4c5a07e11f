package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Типы событий, которые получают подписчики очереди или списка тем.
const (
	// Snapshot — первое сообщение после подписки.
	Snapshot = "snapshot"

	QueueJoined        = "user_joined"
	QueueLeft          = "user_left"
	QueueKicked        = "user_kicked"
	QueueStatusChanged = "status_changed"
	QueueMoved         = "entry_moved"
	QueueToggled       = "queue_toggled"
	QueueConfigUpdated = "config_updated"
	QueueHighWaterSet  = "high_water_reset"

	TopicsCreated = "topics_created"
	TopicClaimed  = "topic_claimed"
	TopicReleased = "topic_released"
)

// Event — изменение ресурса. Data — свежий снимок очереди или списка тем.
type Event struct {
	ID      string    `json:"id"`
	Type    string    `json:"event_type"`
	Channel string    `json:"channel"`
	Data    any       `json:"data"`
	At      time.Time `json:"at"`
}

func New(eventType, channel string, data any) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    eventType,
		Channel: channel,
		Data:    data,
		At:      time.Now(),
	}
}

// Publisher доставляет события подписчикам. Publish не должен блокировать
// движок: доставка — забота реализации.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

func QueueChannel(queueID uint) string {
	return fmt.Sprintf("queue:%d", queueID)
}

func TopicsChannel(subjectID string) string {
	return "topics:" + subjectID
}
