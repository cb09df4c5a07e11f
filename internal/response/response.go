package response

import (
	"time"

	"defense_queue/internal/models"
)

// SuccessResponse представляет успешный ответ API
type SuccessResponse struct {
	Message string `json:"message" example:"Операция успешно выполнена"`
}

// ErrorResponse представляет ответ с ошибкой API
type ErrorResponse struct {
	// Код ошибки для программной обработки
	// example: SLOT_OCCUPIED
	Code string `json:"code"`

	// Человекочитаемое сообщение об ошибке
	// example: Место уже занято
	Message string `json:"message"`

	// Дополнительные детали об ошибке (опционально)
	// example: правило мин-макс: доступны места 1..7
	Details string `json:"details,omitempty"`
}

// EntryView — запись очереди с именем участника.
type EntryView struct {
	SlotPosition int       `json:"slotPosition" example:"3"`
	UserID       string    `json:"userId" example:"42"`
	DisplayName  string    `json:"displayName" example:"Иван Иванов"`
	LabNumber    int       `json:"labNumber" example:"2"`
	Status       string    `json:"status" example:"waiting"`
	Attempts     int       `json:"attempts" example:"0"`
	Exhausted    bool      `json:"exhausted"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// QueueView — снимок очереди, одинаковый для HTTP-ответов и WebSocket.
type QueueView struct {
	ID        uint              `json:"id" example:"1"`
	SubjectID string            `json:"subjectId" example:"math"`
	IsActive  bool              `json:"isActive"`
	Config    models.RuleConfig `json:"config"`
	HighWater int               `json:"highWater" example:"5"`
	// Максимальный номер места, на который сейчас можно записаться
	Ceiling   int         `json:"ceiling" example:"7"`
	Entries   []EntryView `json:"entries"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// TopicView — занятая тема.
type TopicView struct {
	TopicNumber int       `json:"topicNumber" example:"3"`
	UserID      string    `json:"userId" example:"42"`
	DisplayName string    `json:"displayName" example:"Иван Иванов"`
	ClaimedAt   time.Time `json:"claimedAt"`
}

// TopicListView — список тем предмета. Незанятые темы в Entries не попадают.
type TopicListView struct {
	SubjectID        string      `json:"subjectId" example:"history"`
	MaxTopics        int         `json:"maxTopics" example:"30"`
	MaxClaimsPerUser int         `json:"maxClaimsPerUser" example:"2"`
	Entries          []TopicView `json:"entries"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// EventMessage — сообщение, которое получают подписчики канала.
type EventMessage struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type" example:"user_joined"`
	Channel   string    `json:"channel" example:"queue:1"`
	Data      any       `json:"data"`
	At        time.Time `json:"at"`
}
