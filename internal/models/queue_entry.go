package models

import (
	"time"
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusPreparing Status = "preparing"
	StatusDefending Status = "defending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// ParseStatus возвращает false для значений вне жизненного цикла записи.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusWaiting, StatusPreparing, StatusDefending, StatusCompleted, StatusFailed, StatusSkipped:
		return st, true
	}
	return "", false
}

// QueueEntry — занятое пользователем место. Хранится внутри Queue и вне неё не существует.
type QueueEntry struct {
	Slot      int       `json:"slotPosition"`
	UserID    string    `json:"userId"`
	LabNumber int       `json:"labNumber"`
	Status    Status    `json:"status"`
	Attempts  int       `json:"attempts"` // Число циклов failed -> waiting
	JoinedAt  time.Time `json:"joinedAt"`
	// Статус до пропуска; пусто, если запись не в skipped.
	SkippedFrom Status `json:"skippedFrom,omitempty"`
}

// Exhausted — запись провалена и попыток больше нет.
func (e QueueEntry) Exhausted(maxAttempts int) bool {
	return e.Status == StatusFailed && e.Attempts >= maxAttempts
}
