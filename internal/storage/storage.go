package storage

import (
	"context"
	"fmt"
	"log"

	"defense_queue/internal/config"
	"defense_queue/internal/models"

	"github.com/go-redis/redis/v8"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// QueueStore хранит очереди. UpdateQueue выполняет fn под эксклюзивной блокировкой
// очереди; если fn вернула ошибку, изменения не сохраняются.
type QueueStore interface {
	GetOrCreateQueue(ctx context.Context, subjectID string, defaults models.RuleConfig) (*models.Queue, error)
	GetQueue(ctx context.Context, id uint) (*models.Queue, error)
	GetQueueBySubject(ctx context.Context, subjectID string) (*models.Queue, error)
	UpdateQueue(ctx context.Context, id uint, fn func(q *models.Queue) error) (*models.Queue, error)
	ListQueues(ctx context.Context) ([]*models.Queue, error)
}

// TopicStore хранит списки тем, по одному на предмет.
type TopicStore interface {
	CreateTopicList(ctx context.Context, l *models.TopicList) (*models.TopicList, error)
	GetTopicList(ctx context.Context, subjectID string) (*models.TopicList, error)
	UpdateTopicList(ctx context.Context, subjectID string, fn func(l *models.TopicList) error) (*models.TopicList, error)
}

func dsn(db config.Database) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.User, db.Password, db.Name, db.SSLMode)
}

// ConnectDatabase открывает подключение к Postgres.
func ConnectDatabase(cfg config.Database) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn(cfg)), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("Ошибка подключения к базе данных:", err)
	}

	log.Println("Подключение к базе данных успешно!")
	return db
}

// Migrate создаёт или обновляет таблицы сервиса.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Queue{}, &models.TopicList{})
}

// InitRedis создаёт клиента Redis. Пустой адрес — Redis не используется.
func InitRedis(cfg config.Redis) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
