package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "defense_queue/docs"
	"defense_queue/internal/access"
	"defense_queue/internal/auth"
	"defense_queue/internal/config"
	"defense_queue/internal/events"
	"defense_queue/internal/handlers"
	"defense_queue/internal/identity"
	"defense_queue/internal/models"
	"defense_queue/internal/queue"
	"defense_queue/internal/response"
	"defense_queue/internal/storage"
	"defense_queue/internal/tasks"
	"defense_queue/internal/topics"
	"defense_queue/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @Title						Очередь на защиту лабораторных и распределение тем
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Ошибка конфигурации: ", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		queueStore storage.QueueStore
		topicStore storage.TopicStore
		directory  identity.Directory = identity.Passthrough{}
	)
	rdb := storage.InitRedis(cfg.Redis)

	switch cfg.Storage {
	case "memory":
		mem := storage.NewMemoryStore()
		queueStore, topicStore = mem, mem
		logger.Warn("using in-memory storage, state is lost on restart")
		if cfg.AccessSecret == "" {
			logger.Warn("JWT_ACCESS_SECRET is empty, every token will be rejected")
		}
	default:
		db := storage.ConnectDatabase(cfg.DB)
		if err := storage.Migrate(db); err != nil {
			log.Fatal("Ошибка при миграции... ", err.Error())
		}
		pg := storage.NewPostgresStore(db)
		queueStore, topicStore = pg, pg
		directory = identity.NewCached(identity.NewUserSource(db), rdb, cfg.IdentityCacheTTL, logger)
	}

	render := response.Renderer{Directory: directory, MaxClaimsPerUser: cfg.MaxClaimsPerUser}
	hub := ws.NewHub(render.Event, logger)
	go hub.Run(ctx)

	var publisher events.Publisher = hub
	if rdb != nil {
		relay := ws.NewRelay(rdb, hub)
		publisher = relay
		go func() {
			if err := relay.Run(ctx); err != nil {
				logger.Error("redis relay stopped", slog.Any("error", err))
			}
		}()
	}

	defaults := models.RuleConfig{
		MaxSlots:       cfg.QueueDefaults.MaxSlots,
		MinMaxRule:     cfg.QueueDefaults.MinMaxRule,
		PriorityMove:   cfg.QueueDefaults.PriorityMove,
		MaxAttempts:    cfg.QueueDefaults.MaxAttempts,
		HighWaterReset: models.HighWaterNever,
	}
	if err := defaults.Validate(); err != nil {
		log.Fatal("Некорректные настройки очереди по умолчанию: ", err)
	}

	gate := access.NewAllowlist(cfg.AdminIDs, cfg.SubjectAdmins)
	queueEngine := queue.NewEngine(queueStore, gate,
		queue.WithDefaults(defaults),
		queue.WithPublisher(publisher),
		queue.WithLogger(logger))
	topicEngine := topics.NewEngine(topicStore, gate,
		topics.WithMaxClaims(cfg.MaxClaimsPerUser),
		topics.WithPublisher(publisher),
		topics.WithLogger(logger))

	scheduler, err := tasks.InitScheduler(ctx, cfg.HighWaterCron, queueEngine, logger)
	if err != nil {
		log.Fatal("Ошибка запуска cron-планировщика: ", err)
	}
	defer scheduler.Stop()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
	}))
	r.Use(handlers.RequestID())

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	h := &handlers.Handler{
		Queues: queueEngine,
		Topics: topicEngine,
		Render: render,
		Hub:    hub,
		Logger: logger,
	}
	h.Register(r, auth.AuthMiddleware([]byte(cfg.AccessSecret)))

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Ошибка запуска сервера...", err.Error())
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
}
