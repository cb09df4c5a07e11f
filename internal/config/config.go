package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Database struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// QueueDefaults — настройки, с которыми создаётся новая очередь.
type QueueDefaults struct {
	MaxSlots     int  `env:"MAX_SLOTS" envDefault:"31"`
	MinMaxRule   bool `env:"MIN_MAX_RULE" envDefault:"true"`
	PriorityMove bool `env:"PRIORITY_MOVE" envDefault:"true"`
	MaxAttempts  int  `env:"MAX_ATTEMPTS" envDefault:"3"`
}

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	// memory — всё в памяти процесса, postgres — через gorm.
	Storage string `env:"STORAGE" envDefault:"postgres"`

	DB     Database `envPrefix:"DB_"`
	TestDB Database `envPrefix:"TEST_DB_"`
	Redis  Redis    `envPrefix:"REDIS_"`

	AccessSecret string `env:"JWT_ACCESS_SECRET"`

	// Администраторы всех предметов и администраторы отдельных предметов
	// в формате "subject:id1|id2,subject2:id3".
	AdminIDs      []string          `env:"ADMIN_IDS" envSeparator:","`
	SubjectAdmins map[string]string `env:"SUBJECT_ADMINS" envSeparator:"," envKeyValSeparator:":"`

	QueueDefaults    QueueDefaults `envPrefix:"QUEUE_"`
	MaxClaimsPerUser int           `env:"MAX_CLAIMS_PER_USER" envDefault:"2"`

	IdentityCacheTTL time.Duration `env:"IDENTITY_CACHE_TTL" envDefault:"6h"`
	HighWaterCron    string        `env:"HIGH_WATER_CRON" envDefault:"0 0 3 * * *"`
}

// Load подтягивает .env (если не выставлен ENV_CHEK) и разбирает окружение.
func Load() (*Config, error) {
	if os.Getenv("ENV_CHEK") == "" {
		log.Println("Подключение к .env")
		if err := godotenv.Load(); err != nil {
			log.Println("Файл .env не найден, используется окружение процесса")
		}
	}
	return Parse()
}

// Parse разбирает переменные окружения без чтения .env.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MaxClaimsPerUser < 1 {
		return nil, fmt.Errorf("MAX_CLAIMS_PER_USER must be positive, got %d", cfg.MaxClaimsPerUser)
	}
	if cfg.Storage != "postgres" && cfg.Storage != "memory" {
		return nil, fmt.Errorf("unknown STORAGE %q", cfg.Storage)
	}
	// Пустой секрет допустим только для локального запуска в памяти.
	if cfg.AccessSecret == "" && cfg.Storage != "memory" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required for STORAGE=%s", cfg.Storage)
	}
	return &cfg, nil
}
