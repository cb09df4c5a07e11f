package models

import (
	"fmt"
	"sort"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Queue — очередь на сдачу по одному предмету. Записи хранятся вместе с очередью
// одним JSONB-полем: блокировка строки очереди блокирует и все её места.
type Queue struct {
	gorm.Model
	SubjectID string                           `gorm:"uniqueIndex;not null"` // Одна очередь на предмет
	IsActive  bool                             `gorm:"not null;default:true"`
	Config    RuleConfig                       `gorm:"embedded;embeddedPrefix:cfg_"`
	HighWater int                              `gorm:"not null;default:0"` // Пиковое число одновременно занятых мест
	Entries   datatypes.JSONSlice[QueueEntry] `gorm:"type:jsonb"`
}

// NewQueue создаёт открытую очередь с заданными настройками.
func NewQueue(subjectID string, cfg RuleConfig) *Queue {
	return &Queue{
		SubjectID: subjectID,
		IsActive:  true,
		Config:    cfg,
		Entries:   datatypes.JSONSlice[QueueEntry]{},
	}
}

// Clone — глубокая копия для выдачи снимка наружу.
func (q *Queue) Clone() *Queue {
	c := *q
	c.Entries = make(datatypes.JSONSlice[QueueEntry], len(q.Entries))
	copy(c.Entries, q.Entries)
	return &c
}

// EntryAt возвращает индекс записи на месте slot или -1.
func (q *Queue) EntryAt(slot int) int {
	for i, e := range q.Entries {
		if e.Slot == slot {
			return i
		}
	}
	return -1
}

// EntryOf возвращает индекс записи пользователя или -1.
func (q *Queue) EntryOf(userID string) int {
	for i, e := range q.Entries {
		if e.UserID == userID {
			return i
		}
	}
	return -1
}

// Occupied — текущее число занятых мест.
func (q *Queue) Occupied() int {
	return len(q.Entries)
}

// EffectiveCeiling — верхняя граница номера места для записи.
// С правилом мин-макс очередь растёт не дальше пика + MinMaxHeadroom.
func (q *Queue) EffectiveCeiling() int {
	ceiling := q.Config.MaxSlots
	if q.Config.MinMaxRule {
		if c := q.HighWater + MinMaxHeadroom; c < ceiling {
			ceiling = c
		}
	}
	return ceiling
}

// TrackHighWater поднимает пик заполненности; никогда его не уменьшает.
func (q *Queue) TrackHighWater() {
	if n := q.Occupied(); n > q.HighWater {
		q.HighWater = n
	}
}

// ResetHighWater опускает пик до текущей заполненности.
func (q *Queue) ResetHighWater() {
	q.HighWater = q.Occupied()
}

// RemoveAt удаляет запись по индексу, сохраняя порядок остальных.
func (q *Queue) RemoveAt(i int) QueueEntry {
	e := q.Entries[i]
	q.Entries = append(q.Entries[:i], q.Entries[i+1:]...)
	return e
}

// SortEntries упорядочивает записи по номеру места.
func (q *Queue) SortEntries() {
	sort.Slice(q.Entries, func(i, j int) bool { return q.Entries[i].Slot < q.Entries[j].Slot })
}

// CheckInvariants проверяет, что места и пользователи не повторяются и места в диапазоне.
func (q *Queue) CheckInvariants() error {
	slots := make(map[int]string, len(q.Entries))
	users := make(map[string]int, len(q.Entries))
	for _, e := range q.Entries {
		if e.Slot < MinSlots || e.Slot > q.Config.MaxSlots {
			return fmt.Errorf("queue %d: slot %d out of range 1..%d", q.ID, e.Slot, q.Config.MaxSlots)
		}
		if other, ok := slots[e.Slot]; ok {
			return fmt.Errorf("queue %d: slot %d held by %s and %s", q.ID, e.Slot, other, e.UserID)
		}
		if other, ok := users[e.UserID]; ok {
			return fmt.Errorf("queue %d: user %s holds slots %d and %d", q.ID, e.UserID, other, e.Slot)
		}
		slots[e.Slot] = e.UserID
		users[e.UserID] = e.Slot
	}
	return nil
}
