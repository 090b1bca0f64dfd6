package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Источники данных
const (
	DataSourceFile     = "file"
	DataSourcePostgres = "postgres"
)

type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Log      LogConfig
	Viewer   ViewerConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Env         string
	CORSOrigins string
}

// DataConfig - откуда читать слои и эталонные итоги
type DataConfig struct {
	Source            string
	Dir               string
	AssetsPattern     string
	FloodplainPattern string
	BoundariesFile    string
	GroundTruthFile   string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	GroundTruthTTL time.Duration
	StatsTTL       time.Duration
	ExportTTL      time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// ViewerConfig - параметры сессий просмотра и headless рендерера
type ViewerConfig struct {
	DefaultYear         int
	DefaultMunicipality string
	LegendWait          time.Duration
	SessionIdleTTL      time.Duration
	SweepInterval       time.Duration
	MaxSessions         int
	TileZoom            int
	TileBuffer          float64
	HitTolerance        float64
	ShowFloodGrowth     bool
	Methodology         string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	ExportTimeout     time.Duration
	MetricsPort       int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// .env необязателен: в контейнере конфигурация приходит из окружения
	if err := viper.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	setDefaults()

	cfg := &Config{
		Server: ServerConfig{
			Host:        viper.GetString("API_HOST"),
			Port:        viper.GetInt("API_PORT"),
			Env:         viper.GetString("API_ENV"),
			CORSOrigins: viper.GetString("API_CORS_ORIGINS"),
		},
		Data: DataConfig{
			Source:            strings.ToLower(viper.GetString("DATA_SOURCE")),
			Dir:               viper.GetString("DATA_DIR"),
			AssetsPattern:     viper.GetString("DATA_ASSETS_PATTERN"),
			FloodplainPattern: viper.GetString("DATA_FLOODPLAIN_PATTERN"),
			BoundariesFile:    viper.GetString("DATA_BOUNDARIES_FILE"),
			GroundTruthFile:   viper.GetString("DATA_GROUND_TRUTH_FILE"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("REDIS_ENABLED"),
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			GroundTruthTTL: time.Duration(viper.GetInt("GROUND_TRUTH_CACHE_TTL")) * time.Second,
			StatsTTL:       time.Duration(viper.GetInt("STATS_CACHE_TTL")) * time.Second,
			ExportTTL:      time.Duration(viper.GetInt("EXPORT_CACHE_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
		},
		Viewer: ViewerConfig{
			DefaultYear:         viper.GetInt("VIEWER_DEFAULT_YEAR"),
			DefaultMunicipality: viper.GetString("VIEWER_DEFAULT_MUNICIPALITY"),
			LegendWait:          time.Duration(viper.GetInt("VIEWER_LEGEND_WAIT")) * time.Millisecond,
			SessionIdleTTL:      time.Duration(viper.GetInt("VIEWER_SESSION_IDLE_TTL")) * time.Second,
			SweepInterval:       time.Duration(viper.GetInt("VIEWER_SWEEP_INTERVAL")) * time.Second,
			MaxSessions:         viper.GetInt("VIEWER_MAX_SESSIONS"),
			TileZoom:            viper.GetInt("VIEWER_TILE_ZOOM"),
			TileBuffer:          viper.GetFloat64("VIEWER_TILE_BUFFER"),
			HitTolerance:        viper.GetFloat64("VIEWER_HIT_TOLERANCE"),
			ShowFloodGrowth:     viper.GetBool("VIEWER_SHOW_FLOOD_GROWTH"),
			Methodology:         viper.GetString("VIEWER_METHODOLOGY"),
		},
		Worker: WorkerConfig{
			Enabled:           viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     viper.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(viper.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			MaxRetries:        viper.GetInt("WORKER_MAX_RETRIES"),
			RetryDelay:        time.Duration(viper.GetInt("WORKER_RETRY_DELAY")) * time.Millisecond,
			ExportTimeout:     time.Duration(viper.GetInt("WORKER_EXPORT_TIMEOUT")) * time.Second,
			MetricsPort:       viper.GetInt("WORKER_METRICS_PORT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("API_HOST", "0.0.0.0")
	viper.SetDefault("API_PORT", 8080)
	viper.SetDefault("API_ENV", "development")

	viper.SetDefault("DATA_SOURCE", DataSourceFile)
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("DATA_ASSETS_PATTERN", "assets_%d.geojson")
	viper.SetDefault("DATA_FLOODPLAIN_PATTERN", "floodplain_%d.geojson")
	viper.SetDefault("DATA_BOUNDARIES_FILE", "municipal_boundaries.geojson")
	viper.SetDefault("DATA_GROUND_TRUTH_FILE", "asset_totals.csv")

	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", 3600)
	viper.SetDefault("DB_CONN_MAX_IDLE_TIME", 600)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)

	viper.SetDefault("GROUND_TRUTH_CACHE_TTL", 86400)
	viper.SetDefault("STATS_CACHE_TTL", 300)
	viper.SetDefault("EXPORT_CACHE_TTL", 3600)

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")

	viper.SetDefault("VIEWER_DEFAULT_YEAR", 2025)
	viper.SetDefault("VIEWER_DEFAULT_MUNICIPALITY", "NEWARK CITY")
	viper.SetDefault("VIEWER_LEGEND_WAIT", 1500)
	viper.SetDefault("VIEWER_SESSION_IDLE_TTL", 1800)
	viper.SetDefault("VIEWER_SWEEP_INTERVAL", 60)
	viper.SetDefault("VIEWER_MAX_SESSIONS", 500)
	viper.SetDefault("VIEWER_TILE_ZOOM", 12)
	viper.SetDefault("VIEWER_TILE_BUFFER", 0.03125)
	viper.SetDefault("VIEWER_HIT_TOLERANCE", 0.0005)
	viper.SetDefault("VIEWER_SHOW_FLOOD_GROWTH", true)
	viper.SetDefault("VIEWER_METHODOLOGY", defaultMethodology)

	viper.SetDefault("WORKER_CONSUMER_GROUP", "flood-export-workers")
	viper.SetDefault("WORKER_STREAM_READ_TIMEOUT", 5000)
	viper.SetDefault("WORKER_MAX_RETRIES", 3)
	viper.SetDefault("WORKER_RETRY_DELAY", 2000)
	viper.SetDefault("WORKER_EXPORT_TIMEOUT", 30)
	viper.SetDefault("WORKER_METRICS_PORT", 9091)
}

const defaultMethodology = "Public assets are counted as exposed when they fall inside the projected " +
	"floodplain for the selected scenario year. Percentages compare exposed assets against the total " +
	"number of assets of each type in the municipality."

// Validate проверяет значения, которые нельзя исправить значением по умолчанию
func (c *Config) Validate() error {
	switch c.Data.Source {
	case DataSourceFile, DataSourcePostgres:
	default:
		return fmt.Errorf("unsupported DATA_SOURCE %q", c.Data.Source)
	}
	if c.Viewer.DefaultYear != 2025 && c.Viewer.DefaultYear != 2050 {
		return fmt.Errorf("VIEWER_DEFAULT_YEAR must be 2025 or 2050, got %d", c.Viewer.DefaultYear)
	}
	if c.Viewer.TileZoom < 0 || c.Viewer.TileZoom > 22 {
		return fmt.Errorf("VIEWER_TILE_ZOOM out of range: %d", c.Viewer.TileZoom)
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return c.Database.DSN()
}

func (c *Config) GetRedisAddr() string {
	return c.Redis.Addr()
}

// DSN - строка подключения key=value, понятная и pgx, и lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
