package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/platformbuilds/salescope-core/internal/models"
	"github.com/platformbuilds/salescope-core/internal/monitoring"
	"github.com/platformbuilds/salescope-core/pkg/logger"
)

// Querier is the statement surface handed to scoped operations. Implemented
// by *sql.Conn; services receive it so tests can substitute fakes.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Executor runs one logical operation inside a tenant schema. The schema
// search path is set before fn runs and unconditionally reset before the
// connection goes back to the pool.
type Executor interface {
	Run(ctx context.Context, schema, op string, fn func(ctx context.Context, q Querier) error) error
}

// Tenant schema names come from the tenant directory, but they are the one
// value spliced into a statement, so they are still allow-listed here.
var schemaNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidateSchemaName rejects anything but lowercase alphanumeric/underscore
// identifiers before the name is used in a SET search_path statement.
func ValidateSchemaName(schema string) error {
	if !schemaNamePattern.MatchString(schema) {
		return fmt.Errorf("%w: schema name %q", models.ErrInvalidParameter, schema)
	}
	return nil
}

// ScopedExecutor pins a pooled connection to one tenant schema for one
// operation. Each operation owns its connection exclusively, so concurrent
// operations for different tenants never share search-path state.
type ScopedExecutor struct {
	db     *sql.DB
	logger logger.Logger
}

func NewScopedExecutor(client *Client, log logger.Logger) *ScopedExecutor {
	return &ScopedExecutor{db: client.DB, logger: log}
}

// Run executes fn with the search path set to [schema, public]. Transient
// connection failures get one retry on a fresh connection; resolution and
// statement errors surface as-is.
func (e *ScopedExecutor) Run(ctx context.Context, schema, op string, fn func(ctx context.Context, q Querier) error) error {
	if err := ValidateSchemaName(schema); err != nil {
		return err
	}

	start := time.Now()
	err := e.runOnce(ctx, schema, fn)
	if err != nil && models.IsTransient(err) && ctx.Err() == nil {
		e.logger.Warn("Transient store failure, retrying with fresh connection",
			"op", op, "schema", schema, "error", err)
		err = e.runOnce(ctx, schema, fn)
	}
	monitoring.RecordDBOperation(op, schema, time.Since(start), err == nil)
	return err
}

func (e *ScopedExecutor) runOnce(ctx context.Context, schema string, fn func(ctx context.Context, q Querier) error) (err error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return models.NewDataAccessError("acquire connection", isTransientErr(err), err)
	}

	dirty := true
	defer func() {
		// The reset runs on every exit path. A connection whose search path
		// could not be proven clean is discarded, never returned to the pool,
		// so a later checkout for a different tenant cannot inherit it.
		if dirty {
			poison(conn)
		}
		if cerr := conn.Close(); cerr != nil && err == nil && !errors.Is(cerr, sql.ErrConnDone) {
			err = models.NewDataAccessError("release connection", false, cerr)
		}
	}()

	setStmt := fmt.Sprintf("SET search_path TO %s, public", pq.QuoteIdentifier(schema))
	if _, err := conn.ExecContext(ctx, setStmt); err != nil {
		return models.NewDataAccessError("set search_path", isTransientErr(err), err)
	}

	fnErr := fn(ctx, conn)

	// Reset uses its own deadline: the caller's context may already be
	// cancelled, and the reset must still run before pool release.
	resetCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, rerr := conn.ExecContext(resetCtx, "SET search_path TO public"); rerr == nil {
		dirty = false
	} else {
		e.logger.Warn("search_path reset failed; discarding connection", "schema", schema, "error", rerr)
	}

	if fnErr != nil {
		var dae *models.DataAccessError
		if errors.As(fnErr, &dae) {
			return fnErr
		}
		return models.NewDataAccessError("scoped statement", isTransientErr(fnErr), fnErr)
	}
	return nil
}

// poison marks the underlying driver connection bad so database/sql drops it
// instead of recycling it in an indeterminate schema state.
func poison(conn *sql.Conn) {
	_ = conn.Raw(func(driverConn interface{}) error {
		return driver.ErrBadConn
	})
}

// isTransientErr classifies failures worth a single retry on a fresh
// connection.
func isTransientErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08: connection exceptions, class 57: operator intervention
		// (admin shutdown, crash shutdown).
		class := string(pqErr.Code.Class())
		return class == "08" || class == "57"
	}
	msg := err.Error()
	for _, marker := range []string{"connection reset", "broken pipe", "unexpected EOF", "connection refused"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
