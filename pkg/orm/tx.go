package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leaporm/pkg/core"
)

// txConn is a begun transaction. mu serializes statements on its connection.
type txConn struct {
	mu   sync.Mutex
	tx   *sql.Tx
	done bool
	// touched holds models written through this transaction.
	touched map[string]struct{}

	// view maps handles read through this transaction. It joins the
	// engine's identity map on Commit and is dropped otherwise.
	view IdentityMap
}

// wrote reports whether model was written through the transaction.
func (tc *txConn) wrote(model string) bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	_, ok := tc.touched[model]
	return ok
}

// TxRegistry maps transaction ids to begun transactions.
type TxRegistry struct {
	m sync.Map // string -> *txConn
}

func (r *TxRegistry) add(tx *sql.Tx) string {
	id := uuid.NewString()
	r.m.Store(id, &txConn{tx: tx, touched: make(map[string]struct{})})
	return id
}

func (r *TxRegistry) get(id string) (*txConn, error) {
	v, ok := r.m.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrTransactionNotFound, id)
	}
	return v.(*txConn), nil
}

// take removes id from the registry and returns its transaction.
func (r *TxRegistry) take(id string) (*txConn, error) {
	v, ok := r.m.LoadAndDelete(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrTransactionNotFound, id)
	}
	return v.(*txConn), nil
}

// Len returns the number of begun transactions.
func (r *TxRegistry) Len() int {
	n := 0
	r.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// drain removes and returns every registered transaction.
func (r *TxRegistry) drain() []*txConn {
	var out []*txConn
	r.m.Range(func(k, v any) bool {
		if _, ok := r.m.LoadAndDelete(k); ok {
			out = append(out, v.(*txConn))
		}
		return true
	})
	return out
}

// Begin checks out a connection, starts a transaction on it and returns its id.
// The transaction outlives ctx; end it with Commit or Rollback.
func (e *Engine) Begin(ctx context.Context) (string, error) {
	db, _, err := e.pool()
	if err != nil {
		return "", err
	}
	tx, err := db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	id := e.txs.add(tx)
	e.logger.Debug("transaction begun", "tx_id", id)
	return id, nil
}

// Commit commits and forgets the transaction. Mapped handles of models
// written through it are evicted and replaced by the transaction's own.
func (e *Engine) Commit(_ context.Context, txID string) error {
	tc, err := e.txs.take(txID)
	if err != nil {
		return err
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.done = true
	if err := tc.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction %s: %w", txID, err)
	}
	for model := range tc.touched {
		e.identity.EvictModel(model)
	}
	tc.view.mergeInto(&e.identity)
	e.logger.Debug("transaction committed", "tx_id", txID)
	return nil
}

// Rollback rolls back and forgets the transaction together with the handles
// read through it.
func (e *Engine) Rollback(_ context.Context, txID string) error {
	tc, err := e.txs.take(txID)
	if err != nil {
		return err
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return e.rollback(txID, tc)
}

// rollback requires tc.mu to be held.
func (e *Engine) rollback(txID string, tc *txConn) error {
	tc.done = true
	tc.view.Clear()
	if err := tc.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back transaction %s: %w", txID, err)
	}
	e.logger.Debug("transaction rolled back", "tx_id", txID)
	return nil
}

// InTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back on error, panic or cancellation of ctx.
func (e *Engine) InTx(ctx context.Context, fn func(txID string) error) error {
	id, err := e.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = e.Rollback(ctx, id)
			panic(p)
		}
	}()

	if err := fn(id); err != nil {
		if rbErr := e.Rollback(ctx, id); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	if err := ctx.Err(); err != nil {
		if rbErr := e.Rollback(ctx, id); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return e.Commit(ctx, id)
}
