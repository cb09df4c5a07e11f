package storage

import (
	"context"
	"errors"
	"fmt"

	"defense_queue/internal/apperr"
	"defense_queue/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	_ QueueStore = (*PostgresStore)(nil)
	_ TopicStore = (*PostgresStore)(nil)
)

// PostgresStore хранит очередь и список тем одной строкой с JSONB-записями.
// Изменения идут в транзакции с SELECT ... FOR UPDATE по строке ресурса,
// поэтому операции над одной очередью сериализуются и между экземплярами сервиса.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetOrCreateQueue(ctx context.Context, subjectID string, defaults models.RuleConfig) (*models.Queue, error) {
	db := s.db.WithContext(ctx)

	// Уникальный индекс по subject_id гарантирует единственное создание:
	// проигравший гонку INSERT ничего не делает и читает чужую строку.
	candidate := models.NewQueue(subjectID, defaults)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject_id"}},
		DoNothing: true,
	}).Create(candidate).Error; err != nil {
		return nil, fmt.Errorf("upsert queue %q: %w", subjectID, err)
	}
	return s.GetQueueBySubject(ctx, subjectID)
}

func (s *PostgresStore) GetQueue(ctx context.Context, id uint) (*models.Queue, error) {
	var q models.Queue
	if err := s.db.WithContext(ctx).First(&q, id).Error; err != nil {
		return nil, notFound(err, apperr.ErrQueueNotFound)
	}
	return &q, nil
}

func (s *PostgresStore) GetQueueBySubject(ctx context.Context, subjectID string) (*models.Queue, error) {
	var q models.Queue
	if err := s.db.WithContext(ctx).Where("subject_id = ?", subjectID).First(&q).Error; err != nil {
		return nil, notFound(err, apperr.ErrQueueNotFound)
	}
	return &q, nil
}

func (s *PostgresStore) UpdateQueue(ctx context.Context, id uint, fn func(q *models.Queue) error) (*models.Queue, error) {
	var q models.Queue
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&q, id).Error; err != nil {
			return notFound(err, apperr.ErrQueueNotFound)
		}
		if err := fn(&q); err != nil {
			return err
		}
		return tx.Save(&q).Error
	})
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *PostgresStore) ListQueues(ctx context.Context) ([]*models.Queue, error) {
	var queues []*models.Queue
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&queues).Error; err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}
	return queues, nil
}

func (s *PostgresStore) CreateTopicList(ctx context.Context, l *models.TopicList) (*models.TopicList, error) {
	created := l.Clone()
	if err := s.db.WithContext(ctx).Create(created).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.ErrTopicsExist
		}
		return nil, fmt.Errorf("create topics %q: %w", l.SubjectID, err)
	}
	return created, nil
}

func (s *PostgresStore) GetTopicList(ctx context.Context, subjectID string) (*models.TopicList, error) {
	var l models.TopicList
	if err := s.db.WithContext(ctx).Where("subject_id = ?", subjectID).First(&l).Error; err != nil {
		return nil, notFound(err, apperr.ErrTopicsNotCreated)
	}
	return &l, nil
}

func (s *PostgresStore) UpdateTopicList(ctx context.Context, subjectID string, fn func(l *models.TopicList) error) (*models.TopicList, error) {
	var l models.TopicList
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("subject_id = ?", subjectID).First(&l).Error; err != nil {
			return notFound(err, apperr.ErrTopicsNotCreated)
		}
		if err := fn(&l); err != nil {
			return err
		}
		return tx.Save(&l).Error
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func notFound(err error, sentinel *apperr.Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return fmt.Errorf("db: %w", err)
}
