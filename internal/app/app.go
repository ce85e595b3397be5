package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"greengate-back/internal/api/http/handler"
	"greengate-back/internal/api/http/route"
	"greengate-back/internal/apperrors"
	"greengate-back/internal/config"
	"greengate-back/internal/model"
	"greengate-back/internal/msg/outbox"
	"greengate-back/internal/repository"
	"greengate-back/internal/service"
	"greengate-back/pkg/kafka"
	"greengate-back/pkg/postgres"
	"greengate-back/pkg/redis"
	"greengate-back/pkg/server"
	"greengate-back/pkg/whatsapp"
)

type HealthRepository interface {
	Ping(ctx context.Context) error
}

type HealthService interface {
	Check(ctx context.Context) *model.HealthStatus
}

type HealthHandler interface {
	Ping(c *gin.Context)
	Health(c *gin.Context)
	Info(c *gin.Context)
}

type MessageRepository interface {
	Pool() *pgxpool.Pool
	InsertMessage(ctx context.Context, ext repository.RepoExtension, message *model.Message) error
	SelectMessageByWhatsAppID(ctx context.Context, ext repository.RepoExtension, whatsappID string) (*model.Message, error)
	SelectMessageByID(ctx context.Context, ext repository.RepoExtension, id int64) (*model.Message, error)
	SelectMessages(ctx context.Context, ext repository.RepoExtension, limit int) ([]model.Message, error)
	UpdateStatusByWhatsAppID(ctx context.Context, ext repository.RepoExtension, whatsappID, status string) error
	DeleteMessage(ctx context.Context, ext repository.RepoExtension, id int64) error
}

type TemplateRepository interface {
	InsertTemplate(ctx context.Context, ext repository.RepoExtension, template *model.Template) error
	UpsertTemplateByName(ctx context.Context, ext repository.RepoExtension, template *model.Template) error
	SelectTemplates(ctx context.Context, ext repository.RepoExtension) ([]model.Template, error)
	SelectTemplateByID(ctx context.Context, ext repository.RepoExtension, id int64) (*model.Template, error)
	SelectTemplateByName(ctx context.Context, ext repository.RepoExtension, name string) (*model.Template, error)
	UpdateTemplate(ctx context.Context, ext repository.RepoExtension, id int64, update *model.TemplateUpdate) error
	DeleteTemplate(ctx context.Context, ext repository.RepoExtension, id int64) error
}

type ConfigRepository interface {
	SelectValue(ctx context.Context, ext repository.RepoExtension, key string) (string, error)
	UpsertValue(ctx context.Context, ext repository.RepoExtension, key, value string) error
}

type OutboxRepository interface {
	InsertMessage(ctx context.Context, ext repository.RepoExtension, message model.OutboxMessage) error
	UpdateAsSent(ctx context.Context, ext repository.RepoExtension, messageID uuid.UUID) error
	SelectUnsentBatch(ctx context.Context, ext repository.RepoExtension, batchSize int) ([]model.OutboxMessage, error)
	DeleteSentBefore(ctx context.Context, ext repository.RepoExtension, before time.Time) (int64, error)
}

type WebhookService interface {
	Verify(ctx context.Context, query model.VerifyQuery) (string, error)
	Ingest(raw []byte)
	Shutdown() error
}

type Publisher interface {
	Run(ctx context.Context)
}

type App struct {
	Cfg        *config.Config
	Log        *zap.Logger
	Handler    *Handler
	Service    *Service
	DB         postgres.Postgres
	RDB        redis.Redis
	HTTPServer server.HTTPServer
	EBus       *EBus
}

type Repository struct {
	HealthRepository   HealthRepository
	MessageRepository  MessageRepository
	TemplateRepository TemplateRepository
	ConfigRepository   ConfigRepository
	OutboxRepository   OutboxRepository
}

type Service struct {
	HealthService   HealthService
	ConfigService   *service.ConfigService
	EventService    *service.EventService
	WebhookService  WebhookService
	MessageService  *service.MessageService
	TemplateService *service.TemplateService
}

type Handler struct {
	HealthHandler   HealthHandler
	WebhookHandler  *handler.WebhookHandler
	ConfigHandler   *handler.ConfigHandler
	MessageHandler  *handler.MessageHandler
	TemplateHandler *handler.TemplateHandler
}

// EBus is nil when kafka is disabled.
type EBus struct {
	Producer        kafka.Producer
	OutboxPublisher Publisher

	cancel context.CancelFunc
	done   chan struct{}
}

// Start runs the outbox publisher until Stop is called or ctx is done.
func (e *EBus) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})

	go func() {
		defer close(e.done)

		e.OutboxPublisher.Run(ctx)
	}()
}

// Stop waits for the publisher to return before closing the producer it writes to.
func (e *EBus) Stop() error {
	if e.cancel != nil {
		e.cancel()
		<-e.done
	}

	return e.Producer.Close()
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := initDB(&cfg.Database)
	if err != nil {
		log.Error("Failed to initialize database", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	log.Debug("Database initialized")

	var rdb redis.Redis

	if cfg.Redis.Enable {
		rdb, err = initRedis(&cfg.Redis)
		if err != nil {
			db.Close()
			log.Error("Failed to initialize redis", zap.Error(err))

			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}

		log.Debug("Redis initialized")
	}

	repo := initRepository(log, db)

	svc := initService(log, cfg, repo, rdb)

	hdl := initHandler(log, cfg, svc)

	httpServer := initHTTPServer(log, cfg, hdl)

	var eBus *EBus

	if cfg.Kafka.Enabled {
		eBus, err = initEBus(log, &cfg.Kafka, repo)
		if err != nil {
			db.Close()

			if rdb != nil {
				_ = rdb.Close()
			}

			return nil, fmt.Errorf("failed to initialize ebus: %w", err)
		}
	}

	return &App{
		Cfg:        cfg,
		Log:        log,
		Handler:    hdl,
		Service:    svc,
		DB:         db,
		RDB:        rdb,
		HTTPServer: httpServer,
		EBus:       eBus,
	}, nil
}

func MustNew(cfg *config.Config, log *zap.Logger) *App {
	app, err := New(cfg, log)
	if err != nil {
		panic(err)
	}

	return app
}

func (a *App) Run(ctx context.Context) error {
	errs := make(chan error, 1)

	go func() {
		a.Log.Info("HTTP server started",
			zap.String("host", a.Cfg.HTTPServer.Host),
			zap.Uint16("port", a.Cfg.HTTPServer.Port),
		)

		if err := a.HTTPServer.Run(); err != nil {
			errs <- err
		}
	}()

	if a.EBus != nil {
		a.EBus.Start(ctx)
	}

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		return nil
	}
}

// Shutdown stops intake first, then lets accepted webhook deliveries finish before closing stores.
func (a *App) Shutdown() error {
	var errs []error

	if err := a.HTTPServer.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown http server: %w", err))
	}

	a.Log.Debug("Http server shutdown")

	if err := a.Service.WebhookService.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("failed to drain webhook deliveries: %w", err))
	}

	a.Log.Debug("Webhook deliveries drained")

	if a.EBus != nil {
		if err := a.EBus.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close kafka producer: %w", err))
		}

		a.Log.Debug("Outbox publisher stopped, kafka producer closed")
	}

	if a.RDB != nil {
		if err := a.RDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close RDB: %w", err))
		}

		a.Log.Debug("Redis closed")
	}

	a.DB.Close()
	a.Log.Debug("Database closed")

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", apperrors.ErrShutdown, errors.Join(errs...))
	}

	return nil
}

func initDB(cfg *config.Database) (postgres.Postgres, error) {
	postgresCfg := &postgres.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Name:     cfg.Name,
		SSLMode:  cfg.SSLMode,
		MaxConns: cfg.MaxConns,
		MinConns: cfg.MinConns,
		Migration: postgres.Migration{
			Path:      cfg.Migration.Path,
			AutoApply: cfg.Migration.AutoApply,
		},
	}

	return postgres.New(postgresCfg)
}

func initRedis(cfg *config.Redis) (redis.Redis, error) {
	redisCfg := &redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	return redis.New(redisCfg)
}

func initRepository(log *zap.Logger, db postgres.Postgres) *Repository {
	healthRepo := repository.NewHealthRepository(db.Pool())
	log.Debug("Health repository initialized")

	messageRepo := repository.NewMessageRepository(db.Pool())
	log.Debug("Message repository initialized")

	templateRepo := repository.NewTemplateRepository(db.Pool())
	log.Debug("Template repository initialized")

	configRepo := repository.NewConfigRepository(db.Pool())
	log.Debug("Config repository initialized")

	outboxRepo := repository.NewOutboxRepository(db.Pool())
	log.Debug("Outbox repository initialized")

	return &Repository{
		HealthRepository:   healthRepo,
		MessageRepository:  messageRepo,
		TemplateRepository: templateRepo,
		ConfigRepository:   configRepo,
		OutboxRepository:   outboxRepo,
	}
}

func initService(log *zap.Logger, cfg *config.Config, repo *Repository, rdb redis.Redis) *Service {
	healthSvc := service.NewHealthService(log, repo.HealthRepository)
	log.Debug("Health service initialized")

	var cache service.ConfigCache
	if rdb != nil {
		cache = repository.NewConfigCache(rdb.RDB(), cfg.Redis.CacheTTL)
		log.Debug("Config cache initialized")
	}

	configSvc := service.NewConfigService(log, repo.ConfigRepository, cache, model.WhatsAppConfig{
		AccessToken:   cfg.WhatsApp.AccessToken,
		WabaID:        cfg.WhatsApp.WabaID,
		PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
		VerifyToken:   cfg.WhatsApp.VerifyToken,
	}, cfg.WhatsApp.WebhookURL)
	log.Debug("Config service initialized")

	eventSvc := service.NewEventService(log, cfg.Kafka.Enabled, cfg.Kafka.Producer.Topic, repo.OutboxRepository)
	log.Debug("Event service initialized")

	webhookSvc := service.NewWebhookService(log, service.WebhookConfig{
		ProcessingTimeout: cfg.Webhook.ProcessingTimeout,
		ShutdownGrace:     cfg.Webhook.ShutdownGrace,
	}, repo.MessageRepository, configSvc, eventSvc)
	log.Debug("Webhook service initialized")

	waClient := whatsapp.NewClient(whatsapp.Config{
		BaseURL:    cfg.WhatsApp.BaseURL,
		APIVersion: cfg.WhatsApp.APIVersion,
		Timeout:    cfg.WhatsApp.HTTPTimeout,
	}, nil)
	log.Debug("WhatsApp client initialized")

	messageSvc := service.NewMessageService(log, repo.MessageRepository, repo.TemplateRepository, configSvc, waClient, eventSvc)
	log.Debug("Message service initialized")

	templateSvc := service.NewTemplateService(log, repo.TemplateRepository, configSvc, waClient)
	log.Debug("Template service initialized")

	return &Service{
		HealthService:   healthSvc,
		ConfigService:   configSvc,
		EventService:    eventSvc,
		WebhookService:  webhookSvc,
		MessageService:  messageSvc,
		TemplateService: templateSvc,
	}
}

func initHandler(log *zap.Logger, cfg *config.Config, svc *Service) *Handler {
	healthHandler := handler.NewHealthHandler(log, svc.HealthService, model.ServiceInfo{
		Name:    cfg.App.ServiceName,
		Version: cfg.App.Version,
	})
	log.Debug("Health handler initialized")

	webhookHandler := handler.NewWebhookHandler(log, svc.WebhookService, cfg.Webhook.MaxBodyBytes)
	log.Debug("Webhook handler initialized")

	configHandler := handler.NewConfigHandler(log, svc.ConfigService, cfg.Webhook.Path)
	log.Debug("Config handler initialized")

	messageHandler := handler.NewMessageHandler(log, svc.MessageService)
	log.Debug("Message handler initialized")

	templateHandler := handler.NewTemplateHandler(log, svc.TemplateService)
	log.Debug("Template handler initialized")

	return &Handler{
		HealthHandler:   healthHandler,
		WebhookHandler:  webhookHandler,
		ConfigHandler:   configHandler,
		MessageHandler:  messageHandler,
		TemplateHandler: templateHandler,
	}
}

func initHTTPServer(log *zap.Logger, cfg *config.Config, hdl *Handler) server.HTTPServer {
	router := route.SetupRouter(
		log,
		cfg,
		hdl.HealthHandler,
		hdl.WebhookHandler,
		hdl.ConfigHandler,
		hdl.MessageHandler,
		hdl.TemplateHandler,
	)

	httpServer := server.NewHTTPServer(
		server.WithAddr(cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		server.WithTimeout(cfg.HTTPServer.Timeout.Read, cfg.HTTPServer.Timeout.Write, cfg.HTTPServer.Timeout.Idle),
		server.WithHandler(router),
	)

	log.Debug("HTTP server initialized")

	return httpServer
}

func initEBus(log *zap.Logger, cfg *config.Kafka, repo *Repository) (*EBus, error) {
	producer, err := kafka.NewProducer(
		cfg.Brokers,
		kafka.WithBalancer(kafka.RoundRobin),
		kafka.WithRequiredAcks(kafka.RequireAll),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init kafka producer: %w", err)
	}

	log.Debug("Kafka producer initialized")

	publisher := outbox.NewPublisher(
		log,
		outbox.Config{
			Name:         cfg.Producer.Name,
			WorkerCount:  cfg.Producer.WorkerCount,
			PollInterval: cfg.Producer.PollInterval,
			BatchSize:    cfg.Producer.BatchSize,
			Retention:    cfg.Producer.Retention,
		},
		producer,
		repo.OutboxRepository,
	)

	log.Debug("Outbox publisher initialized")

	return &EBus{
		Producer:        producer,
		OutboxPublisher: publisher,
	}, nil
}
