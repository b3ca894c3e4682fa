package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookline/service-booking/internal/application"
	"github.com/bookline/service-booking/internal/clock"
	"github.com/bookline/service-booking/internal/config"
	bookingEvents "github.com/bookline/service-booking/internal/events"
	"github.com/bookline/service-booking/internal/events/consumer"
	"github.com/bookline/service-booking/internal/handler"
	"github.com/bookline/service-booking/internal/middleware"
	"github.com/bookline/service-booking/internal/payments"
	"github.com/bookline/service-booking/internal/platform/database"
	"github.com/bookline/service-booking/internal/platform/kafka"
	"github.com/bookline/service-booking/internal/platform/logger"
	"github.com/bookline/service-booking/internal/repository"
	"github.com/bookline/service-booking/internal/scheduler"
	"github.com/bookline/service-booking/internal/tasks"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-booking")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
	)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal("invalid timezone", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	// Connect to database
	db, err := database.Connect(cfg.DB, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(&repository.BookingModel{}, &repository.ServicePolicyModel{}); err != nil {
		log.Fatal("failed to run auto-migration", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := middleware.NewJWTManager(cfg.JWTSecret)

	// Initialize Kafka producer and notifier
	kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()
	notifier := bookingEvents.NewKafkaNotifier(kafkaProducer)

	// Initialize payment gateway
	gateway := payments.NewStripeGateway(cfg.StripeAPIKey, log)

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	policyRepo := repository.NewGormServicePolicyRepository(db)

	// Initialize reminder scheduling (asynq over Redis)
	reminderClient := tasks.NewReminderClient(cfg.RedisAddr)
	defer func() { _ = reminderClient.Close() }()

	// Initialize application services
	clk := clock.System{}
	bookingService := application.NewBookingService(
		bookingRepo,
		policyRepo,
		gateway,
		notifier,
		reminderClient,
		clk,
		loc,
		cfg.ReminderOffset,
		log,
	)
	noShowService := application.NewNoShowService(bookingRepo, bookingService, log)

	// Initialize and start payment event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paymentConsumer := consumer.NewPaymentEventConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.GroupID,
		bookingService,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	go func() {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	// Start the reminder worker
	reminderWorker := tasks.NewReminderWorker(cfg.RedisAddr, bookingRepo, notifier, log)
	go func() {
		log.Info("starting reminder worker")
		if err := reminderWorker.Start(); err != nil {
			log.Error("reminder worker error", zap.Error(err))
		}
	}()

	// Start the no-show sweep
	sweep := scheduler.NewScheduler(noShowService, clk, cfg.SweepSchedule, log)
	if err := sweep.Start(); err != nil {
		log.Fatal("failed to start no-show sweep", zap.Error(err))
	}

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService)
	adminHandler := handler.NewAdminHandler(bookingRepo)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Register routes
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	cancel()
	reminderWorker.Shutdown()
	<-sweep.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
