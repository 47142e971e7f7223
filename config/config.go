package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Catalog   CatalogConfig
	Cache     CacheConfig
	Telemetry TelemetryConfig
	Stock     StockConfig
}

type ServerConfig struct {
	AppEnv      string
	ServiceName string
	GRPCPort    string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers             []string
	GroupID             string
	TopicProductCreated string
	TopicProductUpdated string
	TopicProductDeleted string
}

// CatalogConfig selects and configures the product catalog gateway.
type CatalogConfig struct {
	Transport string // grpc or http
	GRPCAddr  string
	HTTPURL   string
	Timeout   time.Duration
}

type CacheConfig struct {
	SummaryTTL     time.Duration
	OpTimeout      time.Duration
	ComputeTimeout time.Duration
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
}

type StockConfig struct {
	LowStockThreshold int64
	ReconcileInterval time.Duration
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:      getEnv("APP_ENV", "dev"),
			ServiceName: getEnv("SERVICE_NAME", "omnipos-inventory-service"),
			GRPCPort:    getEnv("GRPC_PORT", ":8083"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_inventory"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:             getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			GroupID:             getEnv("KAFKA_GROUP_INVENTORY", "inventory"),
			TopicProductCreated: getEnv("KAFKA_TOPIC_PRODUCT_CREATED", "product.created"),
			TopicProductUpdated: getEnv("KAFKA_TOPIC_PRODUCT_UPDATED", "product.updated"),
			TopicProductDeleted: getEnv("KAFKA_TOPIC_PRODUCT_DELETED", "product.deleted"),
		},
		Catalog: CatalogConfig{
			Transport: getEnv("CATALOG_TRANSPORT", "grpc"),
			GRPCAddr:  getEnv("CATALOG_GRPC_ADDR", "localhost:8082"),
			HTTPURL:   getEnv("CATALOG_HTTP_URL", "http://localhost:8080"),
			Timeout:   time.Duration(getEnvInt("CATALOG_TIMEOUT_MS", 5000)) * time.Millisecond,
		},
		Cache: CacheConfig{
			SummaryTTL:     time.Duration(getEnvInt("CACHE_SUMMARY_TTL", 60)) * time.Second,
			OpTimeout:      time.Duration(getEnvInt("CACHE_OP_TIMEOUT_MS", 2000)) * time.Millisecond,
			ComputeTimeout: time.Duration(getEnvInt("SUMMARY_COMPUTE_TIMEOUT_MS", 30000)) * time.Millisecond,
		},
		Telemetry: TelemetryConfig{
			Enabled:      getEnvBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Stock: StockConfig{
			LowStockThreshold: int64(getEnvInt("LOW_STOCK_THRESHOLD", 5)),
			ReconcileInterval: time.Duration(getEnvInt("RECONCILE_INTERVAL", 0)) * time.Second,
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.Split(value, ",")
	}
	return fallback
}
