package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	uploadconfig "antares-helpdesk/config"
	"antares-helpdesk/internal/listeners"
	"antares-helpdesk/internal/repositories"
	"antares-helpdesk/internal/routes"
	"antares-helpdesk/internal/services"
	"antares-helpdesk/migrations"
	"antares-helpdesk/pkg/api"
	"antares-helpdesk/pkg/config"
	"antares-helpdesk/pkg/database/postgresql"
	apperrors "antares-helpdesk/pkg/errors"
	"antares-helpdesk/pkg/eventbus"
	"antares-helpdesk/pkg/filestorage"
	applogger "antares-helpdesk/pkg/logger"
	"antares-helpdesk/pkg/middleware"
	"antares-helpdesk/pkg/service"
	"antares-helpdesk/pkg/validation"
	"antares-helpdesk/pkg/websocket"
)

func main() {
	cfg := config.New()
	logger := applogger.NewLogger(cfg.Server.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Хранилища
	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer dbConn.Close()

	if cfg.Postgres.RunMigrations {
		if err := migrations.Up(ctx, dbConn, logger); err != nil {
			logger.Fatal("не удалось применить миграции", zap.Error(err))
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Fatal("не удалось подключиться к Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
	}

	fileStorage, err := filestorage.NewLocalFileStorage(cfg.Storage.BasePath,
		uploadconfig.BucketTicketAttachments, uploadconfig.BucketMessageAttachments)
	if err != nil {
		logger.Fatal("не удалось создать файловое хранилище", zap.Error(err))
	}

	// 2. Репозитории
	txManager := repositories.NewTxManager(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	userRepo := repositories.NewUserRepository(dbConn)
	profileRepo := repositories.NewProfileRepository(dbConn)
	categoryRepo := repositories.NewCategoryRepository(dbConn)
	ticketRepo := repositories.NewTicketRepository(dbConn)
	messageRepo := repositories.NewMessageRepository(dbConn)
	historyRepo := repositories.NewTicketHistoryRepository(dbConn)
	attachmentRepo := repositories.NewAttachmentRepository(dbConn)
	outboxRepo := repositories.NewOutboxRepository(dbConn)
	notificationRepo := repositories.NewNotificationRepository(dbConn)
	feedbackRepo := repositories.NewFeedbackRepository(dbConn)
	tagRepo := repositories.NewTagRepository(dbConn)
	userTagRepo := repositories.NewUserTagRepository(dbConn)

	// 3. Сервисы
	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL, logger)
	mailer := services.NewMockMailer(cfg.Storage.PublicURL, logger)

	authService := services.NewAuthService(userRepo, profileRepo, cacheRepo, jwtSvc, mailer, cfg.Auth, logger)
	storedFiles := services.NewStoredFiles(attachmentRepo, messageRepo, fileStorage, logger)
	notificationService := services.NewNotificationService(txManager, notificationRepo, outboxRepo, profileRepo, ticketRepo, cacheRepo, cfg.Realtime.UnreadCountTTL, logger)
	svc := routes.Services{
		Auth:         authService,
		Ticket:       services.NewTicketService(txManager, ticketRepo, profileRepo, categoryRepo, historyRepo, outboxRepo, storedFiles, logger),
		Export:       services.NewExportService(ticketRepo, logger),
		Message:      services.NewMessageService(txManager, messageRepo, ticketRepo, outboxRepo, storedFiles, logger),
		Attachment:   services.NewAttachmentService(txManager, attachmentRepo, ticketRepo, messageRepo, historyRepo, fileStorage, jwtSvc, cfg.Storage, logger),
		History:      services.NewTicketHistoryService(historyRepo, ticketRepo, logger),
		Feedback:     services.NewFeedbackService(txManager, feedbackRepo, ticketRepo, logger),
		Category:     services.NewCategoryService(categoryRepo, logger),
		Tag:          services.NewTagService(txManager, tagRepo, ticketRepo, historyRepo, logger),
		UserTag:      services.NewUserTagService(userTagRepo, profileRepo, logger),
		User:         services.NewUserService(profileRepo, categoryRepo, logger),
		Notification: notificationService,
	}

	// 4. Уведомления: outbox -> шина -> websocket
	hub := websocket.NewHub(logger)
	var broker services.FeedBroker
	if cfg.Realtime.EnableRedisRelay {
		broker = services.NewRedisBroker(redisClient)
	}
	feed := services.NewRealtimeFeed(hub, broker, cfg.Realtime.Channel, logger)

	bus := eventbus.New(logger)
	listeners.NewNotificationListener(feed, notificationService, logger).Register(bus)
	dispatcher := services.NewOutboxDispatcher(txManager, outboxRepo, notificationRepo, bus, cfg.Dispatcher, logger)

	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		dispatcher.Run(ctx)
	}()
	go func() {
		defer workers.Done()
		feed.RunRelay(ctx)
	}()

	// 5. HTTP
	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("Паника при обработке запроса",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				_ = api.ErrorResponse(c, apperrors.NewHttpError(http.StatusInternalServerError, "Error interno del servidor", err, nil), nil)
			}
			return err
		},
	}))
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		ExposeHeaders:    []string{"Content-Disposition"},
	}))
	e.Use(echomw.ContextTimeoutWithConfig(echomw.ContextTimeoutConfig{
		Timeout: cfg.Server.RequestTimeout,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/api/ws"
		},
	}))

	authMW := middleware.NewAuthMiddleware(jwtSvc, authService, profileRepo,
		cfg.Auth.SessionRetryAttempts, cfg.Auth.SessionRetryBackoff, logger)
	routes.InitRouter(e, svc, authMW, hub, cfg, logger)

	go func() {
		logger.Info("Сервер запущен", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Получен сигнал остановки, завершаем работу")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки HTTP-сервера", zap.Error(err))
	}
	workers.Wait()
	hub.Close()
	bus.Wait()
	logger.Info("Сервер остановлен")
}
