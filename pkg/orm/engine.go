// Package orm is the process-scoped ORM engine.
//
// An Engine owns the schema registry, one connection pool, the transaction
// registry and the identity map. Every CRUD operation looks up the model
// schema, compiles a statement for the connected dialect, runs it on the
// pool or on a begun transaction, and decodes rows into Records that a
// Hydrator turns into caller objects.
//
// An Engine starts Uninitialized. Connect moves it to Connected; Reset and
// Close move it back. Pooled operations on an Uninitialized engine fail with
// core.ErrEngineNotInitialized.
package orm

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leaporm/pkg/adapter"
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/decode"
	"github.com/leapstack-labs/leaporm/pkg/query"
	"github.com/leapstack-labs/leaporm/pkg/schema"
	"golang.org/x/sync/singleflight"
)

// Engine is the ORM state object. It is safe for concurrent use.
type Engine struct {
	mu       sync.RWMutex
	db       adapter.Adapter
	compiler *query.Compiler

	registry *schema.Registry
	decoder  *decode.Decoder
	hydrator Hydrator
	identity IdentityMap
	txs      TxRegistry
	fetches  singleflight.Group

	poolSize int
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. nil discards.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithHydrator sets how records become handles. The default hands out *Record.
func WithHydrator(h Hydrator) Option {
	return func(e *Engine) { e.hydrator = h }
}

// WithRegistry shares a schema registry with the engine.
func WithRegistry(r *schema.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithPoolSize sets the pool size used when the adapter config leaves it unset.
func WithPoolSize(n int) Option {
	return func(e *Engine) { e.poolSize = n }
}

// New creates an Uninitialized engine.
func New(opts ...Option) *Engine {
	e := &Engine{decoder: decode.New()}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	if e.registry == nil {
		e.registry = schema.NewRegistry()
	}
	if e.hydrator == nil {
		e.hydrator = recordHydrator{}
	}
	if e.poolSize <= 0 {
		e.poolSize = core.DefaultPoolSize
	}
	return e
}

// Registry returns the engine's schema registry.
func (e *Engine) Registry() *schema.Registry { return e.registry }

// Identity returns the engine's identity map.
func (e *Engine) Identity() *IdentityMap { return &e.identity }

// OpenTransactions returns the number of transactions not yet ended.
func (e *Engine) OpenTransactions() int { return e.txs.Len() }

// Adapter returns the connected adapter.
func (e *Engine) Adapter() (adapter.Adapter, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.db == nil {
		return nil, core.ErrEngineNotInitialized
	}
	return e.db, nil
}

// Connected reports whether the engine holds a pool.
func (e *Engine) Connected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.db != nil
}

// Connect opens the pool described by cfg. A connected engine is reset
// first. With autoMigrate every registered model's tables are created.
func (e *Engine) Connect(ctx context.Context, cfg core.AdapterConfig, autoMigrate bool) error {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = e.poolSize
	}

	a, err := adapter.Open(ctx, cfg, e.logger)
	if err != nil {
		return err
	}

	e.mu.Lock()
	old := e.db
	e.db = a
	e.compiler = query.NewCompiler(a.Dialect())
	e.mu.Unlock()

	if old != nil {
		e.resetState()
		if err := old.Close(); err != nil {
			e.logger.Warn("failed to close previous pool", "error", err)
		}
	}

	e.logger.Info("connected", "adapter", cfg.Type, "dialect", a.Dialect().Name, "pool_size", cfg.PoolSize)

	if autoMigrate {
		return e.CreateTables(ctx)
	}
	return nil
}

// ConnectURL parses a database URL and connects to it.
func (e *Engine) ConnectURL(ctx context.Context, url string, autoMigrate bool) error {
	cfg, err := adapter.ParseURL(url)
	if err != nil {
		return err
	}
	return e.Connect(ctx, cfg, autoMigrate)
}

// Reset rolls back every open transaction, clears the identity map and
// closes the pool. The schema registry is kept.
func (e *Engine) Reset() error {
	e.mu.Lock()
	old := e.db
	e.db = nil
	e.compiler = nil
	e.mu.Unlock()

	e.resetState()
	if old == nil {
		return nil
	}
	if err := old.Close(); err != nil {
		return fmt.Errorf("failed to close pool: %w", err)
	}
	e.logger.Info("engine reset")
	return nil
}

// Close releases the pool. It is Reset under the io.Closer name.
func (e *Engine) Close() error {
	return e.Reset()
}

// ClearRegistry removes every registered schema.
func (e *Engine) ClearRegistry() {
	e.registry.Clear()
}

func (e *Engine) resetState() {
	for _, tc := range e.txs.drain() {
		tc.mu.Lock()
		if err := e.rollback("", tc); err != nil {
			e.logger.Warn("failed to roll back open transaction", "error", err)
		}
		tc.mu.Unlock()
	}
	e.identity.Clear()
}

// pool returns the connected pool and compiler.
func (e *Engine) pool() (*sql.DB, *query.Compiler, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.db == nil || e.db.Pool() == nil {
		return nil, nil, core.ErrEngineNotInitialized
	}
	return e.db.Pool(), e.compiler, nil
}

// querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// run calls fn with the transaction named by txID, or with the pool when
// txID is empty. Statements on one transaction are serialized. written
// marks model as modified for rollback eviction.
func (e *Engine) run(ctx context.Context, txID, written string, fn func(q querier) error) error {
	db, _, err := e.pool()
	if err != nil {
		return err
	}
	if txID == "" {
		return fn(db)
	}
	return e.withTx(txID, written, fn)
}

// runConn is run, but a pooled call gets a single dedicated connection so
// follow-up statements see the same session.
func (e *Engine) runConn(ctx context.Context, txID, written string, fn func(q querier) error) error {
	db, _, err := e.pool()
	if err != nil {
		return err
	}
	if txID != "" {
		return e.withTx(txID, written, fn)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()
	return fn(conn)
}

func (e *Engine) withTx(txID, written string, fn func(q querier) error) error {
	tc, err := e.txs.get(txID)
	if err != nil {
		return err
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.done {
		return fmt.Errorf("%w: %s", core.ErrTransactionNotFound, txID)
	}
	if written != "" {
		tc.touched[written] = struct{}{}
	}
	return fn(tc.tx)
}

// prepare resolves the model schema and the compiler.
func (e *Engine) prepare(model string) (*core.ModelSchema, *query.Compiler, error) {
	_, c, err := e.pool()
	if err != nil {
		return nil, nil, err
	}
	s, err := e.registry.Get(model)
	if err != nil {
		return nil, nil, err
	}
	return s, c, nil
}
