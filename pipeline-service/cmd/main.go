package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"satisfaction/pipeline-service/internal/app/pipeline/config"
	"satisfaction/pipeline-service/internal/app/pipeline/entity"
	"satisfaction/pipeline-service/internal/app/pipeline/handler"
	"satisfaction/pipeline-service/internal/app/pipeline/processor"
	"satisfaction/pipeline-service/internal/app/pipeline/repository"
	"satisfaction/pipeline-service/internal/app/pipeline/service"
	applogger "satisfaction/pkg/logger"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	log.Println("Starting Pipeline Service...")

	// === ИНИЦИАЛИЗАЦИЯ КОНФИГУРАЦИИ ===
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// === ИНИЦИАЛИЗАЦИЯ ЛОГГЕРА ===
	applogger.Init("pipeline-service", cfg.LogLevel)

	// Создаем основной контекст приложения
	ctx := context.Background()

	// === ПОДКЛЮЧЕНИЕ К POSTGRESQL ===
	// База хранит журнал прогонов и очищенные строки датасета
	db, err := connectDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Successfully connected to PostgreSQL")

	// === МИГРАЦИИ ===
	if err := db.AutoMigrate(&entity.PipelineRun{}, &entity.CleanedOrderItem{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations applied")

	// === ПОДКЛЮЧЕНИЕ К REDIS ===
	// Redis хранит сводку последнего прогона для быстрых статусных запросов
	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Successfully connected to Redis")

	// === ИНИЦИАЛИЗАЦИЯ KAFKA PRODUCER ===
	kafkaProducer := processor.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()
	log.Printf("Kafka producer initialized (topic: %s)", cfg.Kafka.Topic)

	// === ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ ===
	datasetRepo := repository.NewDatasetRepository(cfg.Dataset)
	runRepo := repository.NewRunRepository(db)
	statusRepo := repository.NewStatusRepository(redisClient, time.Duration(cfg.Redis.TTLMinutes)*time.Minute)
	exporter := repository.NewXLSXExporter()
	log.Println("Repositories initialized")

	// === ИНИЦИАЛИЗАЦИЯ СЕРВИСОВ ===
	pipelineSvc := service.NewPipelineService(
		cfg,
		datasetRepo,
		runRepo,
		statusRepo,
		exporter,
		kafkaProducer,
	)
	log.Println("Services initialized")

	// === ИНИЦИАЛИЗАЦИЯ CRON SCHEDULER ===
	cronScheduler := processor.NewCronScheduler(pipelineSvc)

	// Запускаем cron для периодического прогона конвейера
	if err := cronScheduler.Start(ctx, cfg.Cron.RunPipeline, cfg.Cron.RunOnStart); err != nil {
		log.Fatalf("Failed to start cron scheduler: %v", err)
	}
	defer cronScheduler.Stop()
	log.Printf("Cron scheduler started (schedule: %s)", cfg.Cron.RunPipeline)

	// === НАСТРОЙКА HTTP СЕРВЕРА ===
	healthHandler := handler.NewHealthHandler(db, redisClient)
	statusHandler := handler.NewStatusHandler(statusRepo, runRepo, cronScheduler)
	router := handler.SetupRoutes(healthHandler, statusHandler)

	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: router,
	}

	// Запускаем HTTP сервер в отдельной горутине
	go func() {
		log.Printf("Starting HTTP server on :%s...", cfg.HTTP.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()
	log.Println("HTTP endpoints available:")
	log.Println("  - GET  /health")
	log.Println("  - GET  /health/readiness")
	log.Println("  - GET  /health/liveness")
	log.Println("  - GET  /runs/latest")
	log.Println("  - POST /runs")
	log.Println("  - GET  /metrics")

	// === ЗАПУСК ЗАВЕРШЕН ===
	log.Println("Pipeline Service is running")
	log.Printf("Dataset directory: %s", cfg.Dataset.Dir)
	log.Printf("Pipeline will run according to schedule: %s", cfg.Cron.RunPipeline)

	// === GRACEFUL SHUTDOWN ===
	// Ожидаем сигнала завершения (SIGINT или SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down Pipeline Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Pipeline Service stopped gracefully")
}

// connectDB устанавливает соединение с PostgreSQL используя GORM
func connectDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	// Retry logic для устойчивости при запуске в Docker
	var db *gorm.DB
	var err error

	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				err = sqlErr
			} else {
				if pingErr := sqlDB.Ping(); pingErr != nil {
					err = pingErr
				} else {
					// Настраиваем connection pool
					sqlDB.SetMaxOpenConns(10)
					sqlDB.SetMaxIdleConns(5)
					sqlDB.SetConnMaxLifetime(5 * time.Minute)
					sqlDB.SetConnMaxIdleTime(1 * time.Minute)
					return db, nil
				}
			}
		}
		log.Printf("Failed to connect to database (attempt %d/10): %v", i+1, err)
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}

// connectRedis устанавливает соединение с Redis
func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// Проверяем соединение с retry logic
	for i := 0; i < 10; i++ {
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		log.Printf("Failed to connect to Redis (attempt %d/10)", i+1)
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect to Redis after 10 attempts")
}
