package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/platformbuilds/salescope-core/pkg/logger"
)

// recorder collects every statement executed across all stub connections, in
// order, so tests can assert the scope/reset discipline.
type recorder struct {
	mu    sync.Mutex
	stmts []string
}

func (r *recorder) record(q string) {
	r.mu.Lock()
	r.stmts = append(r.stmts, q)
	r.mu.Unlock()
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.stmts...)
}

type stubConnector struct{ rec *recorder }

func (c stubConnector) Connect(context.Context) (driver.Conn, error) {
	return &stubConn{rec: c.rec}, nil
}

func (c stubConnector) Driver() driver.Driver { return stubDriver{} }

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open via connector only")
}

type stubConn struct{ rec *recorder }

func (c *stubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *stubConn) Close() error { return nil }

func (c *stubConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (c *stubConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.rec.record(query)
	return driver.RowsAffected(0), nil
}

func (c *stubConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.rec.record(query)
	return nil, errors.New("queries not supported")
}

func newStubExecutor(rec *recorder) *ScopedExecutor {
	db := sql.OpenDB(stubConnector{rec: rec})
	return NewScopedExecutor(&Client{DB: db}, logger.Noop())
}

func TestScopedExecutor_SetsAndResetsSearchPath(t *testing.T) {
	rec := &recorder{}
	exec := newStubExecutor(rec)

	err := exec.Run(context.Background(), "tenant_alpha", "probe", func(ctx context.Context, q Querier) error {
		_, err := q.ExecContext(ctx, "SELECT 1")
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stmts := rec.all()
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %v", stmts)
	}
	if stmts[0] != `SET search_path TO "tenant_alpha", public` {
		t.Fatalf("wrong scope statement: %q", stmts[0])
	}
	if stmts[1] != "SELECT 1" {
		t.Fatalf("wrong payload statement: %q", stmts[1])
	}
	if stmts[2] != "SET search_path TO public" {
		t.Fatalf("wrong reset statement: %q", stmts[2])
	}
}

func TestScopedExecutor_ResetRunsOnFailure(t *testing.T) {
	rec := &recorder{}
	exec := newStubExecutor(rec)

	opErr := errors.New("relation does not exist")
	err := exec.Run(context.Background(), "tenant_alpha", "probe", func(ctx context.Context, q Querier) error {
		return opErr
	})
	if err == nil || !errors.Is(err, opErr) {
		t.Fatalf("expected wrapped operation error, got %v", err)
	}

	stmts := rec.all()
	if stmts[len(stmts)-1] != "SET search_path TO public" {
		t.Fatalf("reset must run even when the operation fails, got %v", stmts)
	}
}

func TestScopedExecutor_RetriesTransientOnce(t *testing.T) {
	rec := &recorder{}
	exec := newStubExecutor(rec)

	attempts := 0
	err := exec.Run(context.Background(), "tenant_alpha", "probe", func(ctx context.Context, q Querier) error {
		attempts++
		if attempts == 1 {
			return errors.New("read tcp: connection reset by peer")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", attempts)
	}
}

func TestScopedExecutor_PermanentErrorNotRetried(t *testing.T) {
	rec := &recorder{}
	exec := newStubExecutor(rec)

	attempts := 0
	err := exec.Run(context.Background(), "tenant_alpha", "probe", func(ctx context.Context, q Querier) error {
		attempts++
		return errors.New("syntax error at or near SELECT")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if attempts != 1 {
		t.Fatalf("permanent errors get no retry, got %d attempts", attempts)
	}
}

func TestScopedExecutor_RejectsBadSchemaBeforeTouchingPool(t *testing.T) {
	rec := &recorder{}
	exec := newStubExecutor(rec)

	err := exec.Run(context.Background(), `tenant"; DROP SCHEMA public`, "probe", func(ctx context.Context, q Querier) error {
		t.Fatal("operation must not run for an invalid schema")
		return nil
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if len(rec.all()) != 0 {
		t.Fatalf("no statement may reach the store, got %v", rec.all())
	}
}

func TestScopedExecutor_InterleavedTenantsKeepSeparateScopes(t *testing.T) {
	rec := &recorder{}
	exec := newStubExecutor(rec)

	var wg sync.WaitGroup
	for _, schema := range []string{"tenant_alpha", "tenant_beta"} {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(schema string) {
				defer wg.Done()
				_ = exec.Run(context.Background(), schema, "probe", func(ctx context.Context, q Querier) error {
					_, err := q.ExecContext(ctx, "SELECT 1")
					return err
				})
			}(schema)
		}
	}
	wg.Wait()

	// Every scope statement is eventually matched by a reset, so no
	// connection ends the test pinned to a tenant schema.
	var scopes, resets int
	for _, s := range rec.all() {
		if strings.HasPrefix(s, "SET search_path TO \"tenant_") {
			scopes++
		}
		if s == "SET search_path TO public" {
			resets++
		}
	}
	if scopes != 20 || resets != 20 {
		t.Fatalf("expected 20 scopes and 20 resets, got %d and %d", scopes, resets)
	}
}
