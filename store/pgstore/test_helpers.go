package pgstore

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"testing"

	"candle/cryptoutil"
	"candle/store"

	"github.com/go-kit/log"
	pgx "github.com/jackc/pgx/v4"
)

// NewTestStore returns a store backed by a fresh database on the server
// named by PGCONNSTRING. The database is dropped when the test passes, and
// left behind for inspection when it fails.
func NewTestStore(t *testing.T) store.Store {
	t.Helper()

	connStr := os.Getenv("PGCONNSTRING")
	if connStr == "" {
		t.Skipf("set PGCONNSTRING to run this test")
	}

	ctx := context.Background()

	admin, err := pgx.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("parse connection string: %v", err)
	}
	admin.Database = "postgres"

	dbName := fmt.Sprintf("candle-test-%x", cryptoutil.RandomBytes(6))
	createTestDatabase(t, ctx, admin, dbName)

	u, err := url.Parse(admin.ConnString())
	if err != nil {
		t.Fatalf("re-parse test DB connection string: %v", err)
	}
	u.Path = dbName

	t.Logf("test database %s", dbName)

	s, err := NewStore(ctx, u.String(), log.NewNopLogger())
	if err != nil {
		t.Fatalf("create test DB store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close test DB store: %v", err)
		}
	})

	return s
}

func createTestDatabase(t *testing.T, ctx context.Context, admin *pgx.ConnConfig, dbName string) {
	t.Helper()

	conn, err := pgx.ConnectConfig(ctx, admin)
	if err != nil {
		t.Fatalf("connect to admin database: %v", err)
	}

	ident := pgx.Identifier{dbName}.Sanitize()

	if _, err := conn.Exec(ctx, `create database `+ident); err != nil {
		conn.Close(ctx)
		t.Fatalf("create test DB: %v", err)
	}

	// Registered before the store's own cleanup, so it runs after it.
	t.Cleanup(func() {
		defer conn.Close(ctx)

		if t.Failed() {
			t.Logf("database %s left intact", dbName)
			return
		}

		if _, err := conn.Exec(ctx, `select pg_terminate_backend(pid) from pg_stat_activity where datname = $1`, dbName); err != nil {
			t.Errorf("terminate test DB clients: %v", err)
		}

		if _, err := conn.Exec(ctx, `drop database if exists `+ident); err != nil {
			t.Errorf("drop test DB: %v", err)
		}
	})
}
