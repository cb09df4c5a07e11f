package storage

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"defense_queue/internal/apperr"
	"defense_queue/internal/models"
)

var (
	_ QueueStore = (*MemoryStore)(nil)
	_ TopicStore = (*MemoryStore)(nil)
)

// Каждая очередь и каждый список тем — отдельная единица блокировки.
type queueRecord struct {
	mu sync.RWMutex
	q  *models.Queue
}

type topicRecord struct {
	mu sync.RWMutex
	l  *models.TopicList
}

// MemoryStore — хранилище в памяти процесса. Безопасно для конкурентного доступа,
// общей блокировки нет: реестры на sync.Map, данные под мьютексом своей записи.
// Изменения применяются к копии и публикуются целиком, поэтому читатель
// никогда не видит частично применённую операцию.
type MemoryStore struct {
	nextID atomic.Uint64

	queuesBySubject sync.Map // subjectID -> *queueRecord
	queuesByID      sync.Map // uint -> *queueRecord
	topics          sync.Map // subjectID -> *topicRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) newID() uint {
	return uint(m.nextID.Add(1))
}

func (r *queueRecord) snapshot() *models.Queue {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.q.Clone()
}

func (m *MemoryStore) GetOrCreateQueue(_ context.Context, subjectID string, defaults models.RuleConfig) (*models.Queue, error) {
	if v, ok := m.queuesBySubject.Load(subjectID); ok {
		return v.(*queueRecord).snapshot(), nil
	}

	now := time.Now()
	q := models.NewQueue(subjectID, defaults)
	q.ID = m.newID()
	q.CreatedAt, q.UpdatedAt = now, now
	rec := &queueRecord{q: q}

	// Запись по ID публикуется до регистрации по предмету, чтобы победитель гонки
	// сразу был доступен по своему ID; проигравший кандидат удаляется.
	m.queuesByID.Store(q.ID, rec)
	actual, loaded := m.queuesBySubject.LoadOrStore(subjectID, rec)
	if loaded {
		m.queuesByID.Delete(q.ID)
	}
	return actual.(*queueRecord).snapshot(), nil
}

func (m *MemoryStore) GetQueue(_ context.Context, id uint) (*models.Queue, error) {
	v, ok := m.queuesByID.Load(id)
	if !ok {
		return nil, apperr.ErrQueueNotFound
	}
	return v.(*queueRecord).snapshot(), nil
}

func (m *MemoryStore) GetQueueBySubject(_ context.Context, subjectID string) (*models.Queue, error) {
	v, ok := m.queuesBySubject.Load(subjectID)
	if !ok {
		return nil, apperr.ErrQueueNotFound
	}
	return v.(*queueRecord).snapshot(), nil
}

func (m *MemoryStore) UpdateQueue(_ context.Context, id uint, fn func(q *models.Queue) error) (*models.Queue, error) {
	v, ok := m.queuesByID.Load(id)
	if !ok {
		return nil, apperr.ErrQueueNotFound
	}
	rec := v.(*queueRecord)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	work := rec.q.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	work.UpdatedAt = time.Now()
	rec.q = work
	return work.Clone(), nil
}

func (m *MemoryStore) ListQueues(_ context.Context) ([]*models.Queue, error) {
	var out []*models.Queue
	m.queuesBySubject.Range(func(_, v any) bool {
		out = append(out, v.(*queueRecord).snapshot())
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *topicRecord) snapshot() *models.TopicList {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.l.Clone()
}

func (m *MemoryStore) CreateTopicList(_ context.Context, l *models.TopicList) (*models.TopicList, error) {
	now := time.Now()
	created := l.Clone()
	created.ID = m.newID()
	created.CreatedAt, created.UpdatedAt = now, now

	if _, loaded := m.topics.LoadOrStore(created.SubjectID, &topicRecord{l: created}); loaded {
		return nil, apperr.ErrTopicsExist
	}
	return created.Clone(), nil
}

func (m *MemoryStore) GetTopicList(_ context.Context, subjectID string) (*models.TopicList, error) {
	v, ok := m.topics.Load(subjectID)
	if !ok {
		return nil, apperr.ErrTopicsNotCreated
	}
	return v.(*topicRecord).snapshot(), nil
}

func (m *MemoryStore) UpdateTopicList(_ context.Context, subjectID string, fn func(l *models.TopicList) error) (*models.TopicList, error) {
	v, ok := m.topics.Load(subjectID)
	if !ok {
		return nil, apperr.ErrTopicsNotCreated
	}
	rec := v.(*topicRecord)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	work := rec.l.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	work.UpdatedAt = time.Now()
	rec.l = work
	return work.Clone(), nil
}
