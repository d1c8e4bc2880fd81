package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"courier/internal/config"
	"courier/internal/database"
	"courier/internal/handlers"
	"courier/internal/logger"
	"courier/internal/middleware"
	"courier/internal/repositories"
	"courier/internal/services"
	"courier/pkg/rabbitmq"
)

// stores groups the directory and message store chosen by DB_DRIVER.
type stores struct {
	users    repositories.UserRepository
	roles    repositories.RoleRepository
	messages repositories.MessageRepository
	health   func() error
}

func main() {
	cfg := config.Load()

	log, flush := logger.New(logger.Options{
		Level:      cfg.LogLevel,
		JSON:       cfg.LogJSON,
		File:       cfg.LogFile,
		MaxSizeMB:  100,
		MaxBackups: 5,
		MaxAgeDays: 30,
	})
	defer flush()

	st, err := openStores(cfg)
	if err != nil {
		log.Fatal("failed to open stores", zap.Error(err))
	}
	if err := st.roles.EnsureDefaults(); err != nil {
		log.Fatal("failed to seed roles", zap.Error(err))
	}

	// --- Audit publishing is optional ---
	var publisher services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{
			URL:      cfg.RabbitMQURL,
			Exchange: cfg.AuditExchange,
			Queue:    cfg.AuditQueue,
		}, log)
		if err != nil {
			log.Fatal("failed to initialize RabbitMQ client", zap.Error(err))
		}
		defer mqClient.Close()
		publisher = mqClient
		startAuditConsumer(mqClient, log)
	} else {
		log.Info("RABBITMQ_URL not set, audit events are only logged")
	}
	auditor := services.NewAuditor(publisher, cfg.AuditExchange, log)

	// --- Services ---
	authService := services.NewAuthService(st.users, st.roles, cfg.JWTSecret, cfg.JWTTTL, log)
	messageService := services.NewMessageService(st.users, st.messages, auditor, log)
	userService := services.NewUserService(st.users, st.roles, auditor, log)

	if cfg.BootstrapGodUsername != "" {
		if err := authService.EnsureBootstrapUser(cfg.BootstrapGodUsername, cfg.BootstrapGodEmail, cfg.BootstrapGodPassword); err != nil {
			log.Fatal("failed to create bootstrap user", zap.Error(err))
		}
	}

	// --- Fiber app ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(reg)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{Output: zap.NewStdLog(log).Writer()}))
	app.Use(metrics.Handler())

	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		code := fiber.StatusOK
		if err := st.health(); err != nil {
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status":   status,
			"time":     time.Now().Format(time.RFC3339),
			"auditBus": mqClient != nil,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(authService, log).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService, log))
	handlers.NewMessageHandler(messageService, log).RegisterRoutes(protected)
	handlers.NewUserHandler(userService, log).RegisterRoutes(protected)

	// --- Start HTTP server with graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("starting server", zap.String("addr", cfg.AppPort), zap.String("db_driver", cfg.DBDriver))
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("error during Fiber shutdown", zap.Error(err))
	}
	log.Info("server gracefully stopped")
}

func openStores(cfg *config.Config) (*stores, error) {
	if cfg.DBDriver == "memory" {
		users := repositories.NewMockUserRepository()
		return &stores{
			users:    users,
			roles:    repositories.NewMockRoleRepository(),
			messages: repositories.NewMockMessageRepository(users),
			health:   func() error { return nil },
		}, nil
	}

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN, cfg.DBLogLevel)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return &stores{
		users:    repositories.NewGORMUserRepository(db),
		roles:    repositories.NewGORMRoleRepository(db),
		messages: repositories.NewGORMMessageRepository(db),
		health:   sqlDB.Ping,
	}, nil
}

// startAuditConsumer logs every audit event read back from the broker.
func startAuditConsumer(mq *rabbitmq.Client, log *zap.Logger) {
	err := mq.Consume(func(msg amqp.Delivery) error {
		if len(msg.Body) == 0 {
			return errors.New("empty audit event")
		}
		log.Info("audit event received",
			zap.String("routing_key", msg.RoutingKey),
			zap.ByteString("body", msg.Body))
		return nil
	})
	if err != nil {
		log.Error("failed to start audit consumer", zap.Error(err))
	}
}
