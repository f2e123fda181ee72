package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/xconnect/internal/server/repositories/mappings"
	"github.com/dmitrijs2005/xconnect/internal/server/repositories/secrets"
	"github.com/pressly/goose/v3"
)

func withMockOpen(t *testing.T, ping bool) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(ping))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	orig := sqlOpen
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		if driver != "pgx" {
			t.Fatalf("unexpected driver %q", driver)
		}
		return db, nil
	}
	t.Cleanup(func() { sqlOpen = orig; _ = db.Close() })
	return mock
}

func withGoose(t *testing.T, fn func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error) {
	t.Helper()
	orig := gooseUpContext
	gooseUpContext = fn
	t.Cleanup(func() { gooseUpContext = orig })
}

func TestNewPostgresRepositoryManager_Success(t *testing.T) {
	withMockOpen(t, false)
	withGoose(t, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	})

	m, err := NewPostgresRepositoryManager(context.Background(), "postgres://x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var _ RepositoryManager = m

	var _ secrets.Repository = m.Secrets()
	var _ mappings.Repository = m.Mappings()
	if m.Secrets() == nil || m.Mappings() == nil {
		t.Fatal("nil repository")
	}
}

func TestNewPostgresRepositoryManager_PingError(t *testing.T) {
	mock := withMockOpen(t, true)
	mock.ExpectPing().WillReturnError(errors.New("refused"))
	withGoose(t, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		t.Fatal("migrations must not run without a connection")
		return nil
	})

	if _, err := NewPostgresRepositoryManager(context.Background(), "postgres://x"); err == nil {
		t.Fatal("expected ping error")
	}
}

func TestNewPostgresRepositoryManager_MigrationError(t *testing.T) {
	withMockOpen(t, false)
	withGoose(t, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	})

	_, err := NewPostgresRepositoryManager(context.Background(), "postgres://x")
	if err == nil || !errorsContains(err, "boom") {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestNew_EmptyDSNIsMemory(t *testing.T) {
	m, err := New(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(*MemoryRepositoryManager); !ok {
		t.Fatalf("expected memory manager, got %T", m)
	}
	if err := m.RunMigrations(context.Background()); err != nil {
		t.Fatalf("memory migrations: %v", err)
	}
	if m.Secrets() == nil || m.Mappings() == nil {
		t.Fatal("nil repository")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func errorsContains(err error, s string) bool {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if e.Error() == s {
			return true
		}
	}
	return false
}
