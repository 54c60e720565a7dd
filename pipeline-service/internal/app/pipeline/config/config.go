package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Config содержит все настройки Pipeline Service:
// пути к датасету, PostgreSQL, Redis, Kafka, расписание cron и HTTP порт
type Config struct {
	Dataset  DatasetConfig
	Export   ExportConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Cron     CronConfig
	HTTP     HTTPConfig
	LogLevel string `validate:"required"`
}

// DatasetConfig - расположение входных CSV файлов
type DatasetConfig struct {
	Dir string `validate:"required"` // Каталог с CSV файлами датасета

	CustomersFile    string `validate:"required"`
	GeolocationFile  string `validate:"required"`
	OrderItemsFile   string `validate:"required"`
	PaymentsFile     string `validate:"required"`
	ReviewsFile      string `validate:"required"`
	OrdersFile       string `validate:"required"`
	ProductsFile     string `validate:"required"`
	SellersFile      string `validate:"required"`
	TranslationsFile string `validate:"required"`
	CategoriesFile   string `validate:"required"` // Справочник укрупнённых категорий
}

// ExportConfig - настройки экспорта артефактов
type ExportConfig struct {
	XLSXPath    string `validate:"required"` // Путь итогового XLSX с очищенной таблицей
	PersistRows bool   // Сохранять ли очищенные строки в PostgreSQL
}

// DatabaseConfig - настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string `validate:"required"`
	Port     string `validate:"required"`
	User     string `validate:"required"`
	Password string
	DBName   string `validate:"required"`
	SSLMode  string `validate:"required"`
}

// RedisConfig - настройки Redis для кеша сводки последнего прогона
type RedisConfig struct {
	Host       string `validate:"required"`
	Port       string `validate:"required"`
	Password   string
	DB         int
	TTLMinutes int `validate:"gte=0"` // TTL сводки, 0 = без истечения
}

// KafkaConfig - настройки отправки событий о завершении прогона
type KafkaConfig struct {
	Brokers []string `validate:"required,min=1"`
	Topic   string   `validate:"required"`
}

// CronConfig - расписание автоматических прогонов
type CronConfig struct {
	RunPipeline string `validate:"required"` // Стандартный 5-польный формат cron
	RunOnStart  bool   // Выполнить прогон сразу при старте сервиса
}

// HTTPConfig - настройки HTTP сервера статуса и health проверок
type HTTPConfig struct {
	Port string `validate:"required"`
}

// Load загружает конфигурацию из переменных окружения и валидирует её
func Load() (*Config, error) {
	cfg := &Config{
		Dataset: DatasetConfig{
			Dir:              getEnv("DATASET_DIR", "./data"),
			CustomersFile:    getEnv("DATASET_CUSTOMERS_FILE", "olist_customers_dataset.csv"),
			GeolocationFile:  getEnv("DATASET_GEOLOCATION_FILE", "olist_geolocation_dataset.csv"),
			OrderItemsFile:   getEnv("DATASET_ORDER_ITEMS_FILE", "olist_order_items_dataset.csv"),
			PaymentsFile:     getEnv("DATASET_PAYMENTS_FILE", "olist_order_payments_dataset.csv"),
			ReviewsFile:      getEnv("DATASET_REVIEWS_FILE", "olist_order_reviews_dataset.csv"),
			OrdersFile:       getEnv("DATASET_ORDERS_FILE", "olist_orders_dataset.csv"),
			ProductsFile:     getEnv("DATASET_PRODUCTS_FILE", "olist_products_dataset.csv"),
			SellersFile:      getEnv("DATASET_SELLERS_FILE", "olist_sellers_dataset.csv"),
			TranslationsFile: getEnv("DATASET_TRANSLATIONS_FILE", "product_category_name_translation.csv"),
			CategoriesFile:   getEnv("DATASET_CATEGORIES_FILE", "refined_product_categories.csv"),
		},
		Export: ExportConfig{
			XLSXPath:    getEnv("EXPORT_XLSX_PATH", "Final_database.xlsx"),
			PersistRows: getEnvBool("EXPORT_PERSIST_ROWS", true),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "pipeline_service"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:       getEnv("REDIS_HOST", "localhost"),
			Port:       getEnv("REDIS_PORT", "6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvInt("REDIS_DB", 0),
			TTLMinutes: getEnvInt("REDIS_SUMMARY_TTL_MINUTES", 1440), // Сутки по умолчанию
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			Topic:   getEnv("KAFKA_TOPIC", "pipeline_events"),
		},
		Cron: CronConfig{
			// По умолчанию ежедневный прогон в 03:00
			RunPipeline: getEnv("CRON_RUN_PIPELINE", "0 3 * * *"),
			RunOnStart:  getEnvBool("CRON_RUN_ON_START", false),
		},
		HTTP: HTTPConfig{
			Port: getEnv("HTTP_PORT", "8080"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

// getEnv получает значение переменной окружения или значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает значение переменной окружения как int
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool получает значение переменной окружения как bool
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
