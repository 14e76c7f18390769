// Package store is the relational-store gateway (spec §4.C): a bounded
// connection pool fronted by a circuit breaker, offering single-statement
// and transactional-batch execution.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/romaingrosos/myguildmanager-core/errkind"
)

// ErrPoolExhausted is returned when connection acquisition times out.
var ErrPoolExhausted = errors.New("store: connection pool exhausted")

// ErrCircuitOpen is returned when the breaker is Open and a call fast-fails.
var ErrCircuitOpen = errors.New("store: circuit open")

// Config configures the gateway's pool, timeouts and breaker.
type Config struct {
	DSN                     string
	MaxOpenConns            int
	AcquireTimeout          time.Duration
	QueryTimeout            time.Duration
	BreakerFailureThreshold uint32
	BreakerCooldown         time.Duration
	SlowQueryThreshold       time.Duration
}

// DefaultSlowQueryThreshold matches spec §4.C's default of 100ms.
const DefaultSlowQueryThreshold = 100 * time.Millisecond

// Statement is one (sql, params) pair of a transactional batch.
type Statement struct {
	SQL    string
	Params []interface{}
}

// Gateway is the store gateway singleton.
type Gateway struct {
	db      *sqlx.DB
	log     zerolog.Logger
	cfg     Config
	breaker *gobreaker.CircuitBreaker
	metrics *queryMetrics
}

// Open creates the connection pool and circuit breaker described by cfg.
func Open(cfg Config, log zerolog.Logger) (*Gateway, error) {
	if cfg.SlowQueryThreshold == 0 {
		cfg.SlowQueryThreshold = DefaultSlowQueryThreshold
	}
	db, err := sqlx.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)

	threshold := cfg.BreakerFailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	cooldown := cfg.BreakerCooldown
	if cooldown == 0 {
		cooldown = 30 * time.Second
	}

	gw := &Gateway{
		db:      db,
		log:     log.With().Str("component", "store").Logger(),
		cfg:     cfg,
		metrics: newQueryMetrics(),
	}

	gw.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "store-gateway",
		MaxRequests: 1, // single trial in HalfOpen
		Interval:    0,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			gw.log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})

	return gw, nil
}

// Close closes the underlying pool.
func (g *Gateway) Close() error {
	return g.db.Close()
}

// withBreaker runs fn through the circuit breaker, translating gobreaker's
// sentinel errors into the store package's own error kinds.
func (g *Gateway) withBreaker(fn func() (interface{}, error)) (interface{}, error) {
	result, err := g.breaker.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrCircuitOpen
		}
		return nil, err
	}
	return result, nil
}

func (g *Gateway) queryTimeout() time.Duration {
	if g.cfg.QueryTimeout > 0 {
		return g.cfg.QueryTimeout
	}
	return 15 * time.Second
}

func (g *Gateway) acquireTimeout() time.Duration {
	if g.cfg.AcquireTimeout > 0 {
		return g.cfg.AcquireTimeout
	}
	return g.queryTimeout()
}

// acquireConn waits for a pooled connection up to AcquireTimeout, separate
// from the QueryTimeout budget that covers the statement itself (spec §4.C
// "wait with a configured timeout, yielding a pool-exhausted error on
// expiry"). The caller must Close the returned conn to release it.
func (g *Gateway) acquireConn(ctx context.Context) (*sqlx.Conn, error) {
	actx, cancel := context.WithTimeout(ctx, g.acquireTimeout())
	defer cancel()

	conn, err := g.db.Connx(actx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errkind.New(errkind.StoreTimeout, ErrPoolExhausted)
		}
		return nil, classifyStoreError(err)
	}
	return conn, nil
}

// classifyStoreError maps a driver/breaker/timeout error onto the spec §7
// taxonomy so callers (the reliability envelope's retry/degradation
// decisions) can classify without parsing driver-specific error strings.
func classifyStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errkind.KindOf(err) != errkind.Unknown {
		return err
	}
	if errors.Is(err, ErrCircuitOpen) {
		return errkind.New(errkind.CircuitOpen, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errkind.New(errkind.StoreTimeout, err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errkind.New(errkind.NotFound, err)
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062, 1048, 1216, 1217, 1451, 1452:
			return errkind.New(errkind.StoreConstraint, err)
		}
	}
	return err
}

// FetchAll runs a SELECT and scans every row into dest (a pointer to a
// slice of structs or maps), per spec §4.C "Fetch-one / fetch-all".
func (g *Gateway) FetchAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	conn, err := g.acquireConn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, g.queryTimeout())
	defer cancel()

	start := time.Now()
	_, err = g.withBreaker(func() (interface{}, error) {
		return nil, conn.SelectContext(ctx, dest, query, args...)
	})
	err = classifyStoreError(err)
	g.metrics.observe(kindSelect, time.Since(start), g.cfg.SlowQueryThreshold, err)
	return err
}

// FetchOne runs a SELECT expected to return a single row.
func (g *Gateway) FetchOne(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	conn, err := g.acquireConn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, g.queryTimeout())
	defer cancel()

	start := time.Now()
	_, err = g.withBreaker(func() (interface{}, error) {
		return nil, conn.GetContext(ctx, dest, query, args...)
	})
	err = classifyStoreError(err)
	g.metrics.observe(kindSelect, time.Since(start), g.cfg.SlowQueryThreshold, err)
	return err
}

// Exec runs a single mutating statement (insert/update/delete) outside a
// transaction and returns the driver result.
func (g *Gateway) Exec(ctx context.Context, kind QueryKind, query string, args ...interface{}) (sql.Result, error) {
	conn, err := g.acquireConn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, g.queryTimeout())
	defer cancel()

	start := time.Now()
	res, err := g.withBreaker(func() (interface{}, error) {
		return conn.ExecContext(ctx, query, args...)
	})
	err = classifyStoreError(err)
	g.metrics.observe(kind, time.Since(start), g.cfg.SlowQueryThreshold, err)
	if err != nil {
		return nil, err
	}
	return res.(sql.Result), nil
}

// TransactionalBatch executes every statement in order on a single
// connection, atomically: the first error rolls back the whole batch and
// is surfaced to the caller (spec §4.C "Transactional batch").
func (g *Gateway) TransactionalBatch(ctx context.Context, stmts []Statement) error {
	conn, err := g.acquireConn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, g.queryTimeout())
	defer cancel()

	batchID := uuid.NewString()
	log := g.log.With().Str("batch_id", batchID).Int("statements", len(stmts)).Logger()
	log.Debug().Msg("starting transactional batch")

	start := time.Now()
	_, err = g.withBreaker(func() (interface{}, error) {
		tx, err := conn.BeginTxx(ctx, nil)
		if err != nil {
			return nil, err
		}
		for _, st := range stmts {
			if _, err := tx.ExecContext(ctx, st.SQL, st.Params...); err != nil {
				_ = tx.Rollback()
				return nil, err
			}
		}
		return nil, tx.Commit()
	})
	err = classifyStoreError(err)
	g.metrics.observe(kindTransaction, time.Since(start), g.cfg.SlowQueryThreshold, err)
	if err != nil {
		log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("transactional batch failed, rolled back")
	} else {
		log.Debug().Dur("elapsed", time.Since(start)).Msg("transactional batch committed")
	}
	return err
}

// Metrics returns the per-query-kind observability snapshot.
func (g *Gateway) Metrics() Metrics {
	return g.metrics.snapshot()
}
