package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/udisondev/bubblebuff/internal/db/migrations"
)

const (
	postgresImage = "postgres:16-alpine"
	// Учётные данные тестового контейнера.
	PostgresUser     = "test"
	PostgresPassword = "test"
	PostgresDB       = "testdb"
)

// StartPostgres поднимает пустой PostgreSQL testcontainer и возвращает его DSN.
// Пропускает тест в -short режиме и когда Docker недоступен.
// Контейнер останавливается при завершении теста.
func StartPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase(PostgresDB),
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminating postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}
	return dsn
}

// SetupTestDB поднимает контейнер через StartPostgres, применяет миграции
// и возвращает pool, закрываемый при завершении теста.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := StartPostgres(t)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connecting to test db: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrateUp(ctx, pool); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return pool
}

// migrateUp применяет embedded миграции. Пакет db не импортируется:
// его тесты сами зависят от testutil.
func migrateUp(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	return goose.UpContext(ctx, sqlDB, ".")
}
