package models

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const MaxTopicsLimit = 100

// TopicEntry — тема, закреплённая за пользователем.
type TopicEntry struct {
	TopicNumber int       `json:"topicNumber"`
	UserID      string    `json:"userId"`
	ClaimedAt   time.Time `json:"claimedAt"`
}

// TopicList — список тем предмета. Создаётся администратором явно;
// отсутствие списка и пустой список — разные состояния.
type TopicList struct {
	gorm.Model
	SubjectID string                           `gorm:"uniqueIndex;not null"`
	MaxTopics int                              `gorm:"not null"`
	Entries   datatypes.JSONSlice[TopicEntry] `gorm:"type:jsonb"`
}

func NewTopicList(subjectID string, maxTopics int) *TopicList {
	return &TopicList{
		SubjectID: subjectID,
		MaxTopics: maxTopics,
		Entries:   datatypes.JSONSlice[TopicEntry]{},
	}
}

func (l *TopicList) Clone() *TopicList {
	c := *l
	c.Entries = make(datatypes.JSONSlice[TopicEntry], len(l.Entries))
	copy(c.Entries, l.Entries)
	return &c
}

// EntryFor возвращает индекс записи по номеру темы или -1.
func (l *TopicList) EntryFor(topic int) int {
	for i, e := range l.Entries {
		if e.TopicNumber == topic {
			return i
		}
	}
	return -1
}

// ClaimsOf — сколько тем держит пользователь.
func (l *TopicList) ClaimsOf(userID string) int {
	n := 0
	for _, e := range l.Entries {
		if e.UserID == userID {
			n++
		}
	}
	return n
}

func (l *TopicList) RemoveAt(i int) {
	l.Entries = append(l.Entries[:i], l.Entries[i+1:]...)
}

func (l *TopicList) SortEntries() {
	sort.Slice(l.Entries, func(i, j int) bool { return l.Entries[i].TopicNumber < l.Entries[j].TopicNumber })
}

// CheckInvariants: тема занята не более чем одним пользователем, номера в диапазоне,
// у пользователя не больше maxClaims тем (maxClaims <= 0 — без ограничения).
func (l *TopicList) CheckInvariants(maxClaims int) error {
	seen := make(map[int]string, len(l.Entries))
	perUser := make(map[string]int)
	for _, e := range l.Entries {
		if e.TopicNumber < 1 || e.TopicNumber > l.MaxTopics {
			return fmt.Errorf("topics %s: topic %d out of range 1..%d", l.SubjectID, e.TopicNumber, l.MaxTopics)
		}
		if other, ok := seen[e.TopicNumber]; ok {
			return fmt.Errorf("topics %s: topic %d held by %s and %s", l.SubjectID, e.TopicNumber, other, e.UserID)
		}
		seen[e.TopicNumber] = e.UserID
		perUser[e.UserID]++
		if maxClaims > 0 && perUser[e.UserID] > maxClaims {
			return fmt.Errorf("topics %s: user %s holds %d topics, limit %d", l.SubjectID, e.UserID, perUser[e.UserID], maxClaims)
		}
	}
	return nil
}
