package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Таблицы сценарных данных, очищаются между прогонами
var floodTables = []string{
	"flood_assets",
	"floodplains",
	"municipal_boundaries",
	"asset_totals",
}

// TestDB - подключение к тестовой PostGIS
type TestDB struct {
	DB     *sqlx.DB
	Logger *zap.Logger
	t      testing.TB
}

// SetupTestDB подключается к базе из TEST_DB_*.
// Без TEST_DB_HOST тест пропускается.
func SetupTestDB(t testing.TB) *TestDB {
	t.Helper()

	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST is not set, skipping PostGIS integration tests")
	}

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host,
		envOr("TEST_DB_PORT", "5433"),
		envOr("TEST_DB_USER", "postgres"),
		envOr("TEST_DB_PASSWORD", "postgres"),
		envOr("TEST_DB_NAME", "flood_test"),
		envOr("TEST_DB_SSLMODE", "disable"),
	)

	db, err := connect(dsn, 5, 500*time.Millisecond, t)
	if err != nil {
		t.Fatalf("connect to test database: %v", err)
	}

	return &TestDB{DB: db, Logger: zap.NewNop(), t: t}
}

// connect ждет, пока контейнер с базой поднимется
func connect(dsn string, attempts int, delay time.Duration, t testing.TB) (*sqlx.DB, error) {
	var lastErr error
	for i := 1; i <= attempts; i++ {
		db, err := sqlx.Connect("postgres", dsn)
		if err == nil {
			return db, nil
		}
		lastErr = err
		if i < attempts {
			t.Logf("database not ready (attempt %d/%d), retrying in %v", i, attempts, delay)
			time.Sleep(delay)
			delay *= 2
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

func (tdb *TestDB) Close() {
	if tdb.DB != nil {
		_ = tdb.DB.Close()
	}
}

// Cleanup очищает таблицы сценариев. Отсутствующие таблицы пропускаются.
func (tdb *TestDB) Cleanup(ctx context.Context) error {
	for _, table := range floodTables {
		if _, err := tdb.DB.ExecContext(ctx, "TRUNCATE TABLE "+table); err != nil {
			tdb.t.Logf("truncate %s: %v", table, err)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
