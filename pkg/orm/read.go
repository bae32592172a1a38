package orm

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/query"
)

// FetchAll returns every row of model.
func (e *Engine) FetchAll(ctx context.Context, model, txID string) ([]Handle, error) {
	s, c, err := e.prepare(model)
	if err != nil {
		return nil, err
	}
	stmt, err := c.Select(s, &core.QueryDef{Model: model})
	if err != nil {
		return nil, err
	}
	return e.fetch(ctx, s, stmt, txID)
}

// FetchFiltered returns the rows matching a query document.
func (e *Engine) FetchFiltered(ctx context.Context, model string, queryJSON []byte, txID string) ([]Handle, error) {
	s, c, def, err := e.prepareQuery(model, queryJSON)
	if err != nil {
		return nil, err
	}
	stmt, err := c.Select(s, def)
	if err != nil {
		return nil, err
	}
	return e.fetch(ctx, s, stmt, txID)
}

// FetchOne returns the row whose primary key is pk. The identity map is
// consulted before any I/O and concurrent misses for one key share a query.
// A caller whose ctx ends stops waiting; the shared query runs on for the rest.
func (e *Engine) FetchOne(ctx context.Context, model, pk, txID string) (Handle, bool, error) {
	s, c, err := e.prepare(model)
	if err != nil {
		return nil, false, err
	}
	key, err := canonicalKey(s, pk)
	if err != nil {
		return nil, false, err
	}
	tc, err := e.txFor(txID)
	if err != nil {
		return nil, false, err
	}
	if h, ok := e.cached(tc, model, key); ok {
		return h, true, nil
	}

	flight := context.WithoutCancel(ctx)
	ch := e.fetches.DoChan(txID+keySep+identityKey(model, key), func() (any, error) {
		stmt, err := c.SelectByKey(s, key)
		if err != nil {
			return nil, err
		}
		handles, err := e.fetch(flight, s, stmt, txID)
		if err != nil || len(handles) == 0 {
			return nil, err
		}
		return handles[0], nil
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, false, r.Err
		}
		return r.Val, r.Val != nil, nil
	}
}

// Refresh evicts (model, pk) and fetches it again.
func (e *Engine) Refresh(ctx context.Context, model, pk, txID string) (Handle, bool, error) {
	s, err := e.registry.Get(model)
	if err != nil {
		return nil, false, err
	}
	key, err := canonicalKey(s, pk)
	if err != nil {
		return nil, false, err
	}
	tc, err := e.txFor(txID)
	if err != nil {
		return nil, false, err
	}
	e.identity.Evict(model, key)
	if tc != nil {
		tc.view.Evict(model, key)
	}
	return e.FetchOne(ctx, model, key, txID)
}

// CountFiltered counts the rows matching a query document.
func (e *Engine) CountFiltered(ctx context.Context, model string, queryJSON []byte, txID string) (int64, error) {
	s, c, def, err := e.prepareQuery(model, queryJSON)
	if err != nil {
		return 0, err
	}
	stmt, err := c.Count(s, def)
	if err != nil {
		return 0, err
	}

	var n int64
	err = e.run(ctx, txID, "", func(q querier) error {
		return q.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&n)
	})
	if err != nil {
		return 0, wrapSQL(model, "count", err)
	}
	return n, nil
}

// Exists reports whether any row matches a query document.
func (e *Engine) Exists(ctx context.Context, model string, queryJSON []byte, txID string) (bool, error) {
	n, err := e.CountFiltered(ctx, model, queryJSON, txID)
	return n > 0, err
}

// RegisterHandle maps (model, pk) to h, for objects the caller built itself.
func (e *Engine) RegisterHandle(model, pk string, h Handle) {
	e.identity.Insert(model, e.keyText(model, pk), h)
}

// EvictHandle removes (model, pk) from the identity map.
func (e *Engine) EvictHandle(model, pk string) {
	e.identity.Evict(model, e.keyText(model, pk))
}

// txFor returns the transaction named by txID, or nil for the pool.
func (e *Engine) txFor(txID string) (*txConn, error) {
	if txID == "" {
		return nil, nil //nolint:nilnil // nil selects the pool
	}
	return e.txs.get(txID)
}

// cached returns the handle a read sees for (model, key). A transaction
// sees its own handles first, then committed ones of models it has not
// written.
func (e *Engine) cached(tc *txConn, model, key string) (Handle, bool) {
	if tc == nil {
		return e.identity.Get(model, key)
	}
	if h, ok := tc.view.Get(model, key); ok {
		return h, true
	}
	if tc.wrote(model) {
		return nil, false
	}
	return e.identity.Get(model, key)
}

// remember maps a hydrated handle where reads through tc will find it and
// returns the handle that won.
func (e *Engine) remember(tc *txConn, model, key string, h Handle) Handle {
	im := &e.identity
	if tc != nil {
		im = &tc.view
	}
	h, _ = im.LoadOrStore(model, key, h)
	return h
}

// forget evicts key, or every handle of model when key is empty, from the
// map that reads through txID use.
func (e *Engine) forget(txID, model, key string) {
	im := &e.identity
	if tc, err := e.txFor(txID); err == nil && tc != nil {
		im = &tc.view
	}
	if key == "" {
		im.EvictModel(model)
		return
	}
	im.Evict(model, key)
}

// keyText canonicalizes pk when the model is registered and pk parses.
func (e *Engine) keyText(model, pk string) string {
	s, err := e.registry.Get(model)
	if err != nil {
		return pk
	}
	if key, err := canonicalKey(s, pk); err == nil {
		return key
	}
	return pk
}

func (e *Engine) prepareQuery(model string, queryJSON []byte) (*core.ModelSchema, *query.Compiler, *core.QueryDef, error) {
	s, c, err := e.prepare(model)
	if err != nil {
		return nil, nil, nil, err
	}
	def, err := query.Parse(queryJSON)
	if err != nil {
		return nil, nil, nil, err
	}
	if def.Model == "" {
		def.Model = model
	}
	return s, c, def, nil
}

// fetch runs a SELECT and maps every row to a handle, reusing mapped handles.
func (e *Engine) fetch(ctx context.Context, s *core.ModelSchema, stmt query.Statement, txID string) ([]Handle, error) {
	tc, err := e.txFor(txID)
	if err != nil {
		return nil, err
	}
	var records []*Record
	err = e.run(ctx, txID, "", func(q querier) error {
		rows, err := q.QueryContext(ctx, stmt.SQL, stmt.Args...)
		if err != nil {
			return err
		}
		records, err = e.scan(s, rows)
		return err
	})
	if err != nil {
		return nil, wrapSQL(s.Name, "fetch", err)
	}

	handles := make([]Handle, 0, len(records))
	for _, rec := range records {
		if rec.Key != "" {
			if h, ok := e.cached(tc, s.Name, rec.Key); ok {
				handles = append(handles, h)
				continue
			}
		}
		h, err := e.hydrator.Hydrate(s.Name, rec)
		if err != nil {
			return nil, fmt.Errorf("failed to hydrate %s: %w", s.Name, err)
		}
		if rec.Key != "" {
			h = e.remember(tc, s.Name, rec.Key, h)
		}
		handles = append(handles, h)
	}
	return handles, nil
}

func (e *Engine) scan(s *core.ModelSchema, rows *sql.Rows) ([]*Record, error) {
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	pkIndex := -1
	if pk := s.PrimaryKey(); pk != nil {
		for i, name := range cols {
			if name == pk.Name {
				pkIndex = i
				break
			}
		}
	}

	var records []*Record
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := &Record{Model: s.Name, Fields: e.decoder.DecodeRow(s, cols, raw)}
		if pkIndex >= 0 {
			if v := rec.Fields[pkIndex].Value; !v.IsNull() {
				rec.Key = v.KeyText()
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// canonicalKey normalizes primary-key text so "007" and "7" share an entry
// on integer keys.
func canonicalKey(s *core.ModelSchema, pk string) (string, error) {
	col := s.PrimaryKey()
	if col == nil {
		return "", fmt.Errorf("%w: %s", core.ErrNoPrimaryKey, s.Name)
	}
	v, err := query.KeyArg(pk, col)
	if err != nil {
		return "", err
	}
	if i, ok := v.(int64); ok {
		return strconv.FormatInt(i, 10), nil
	}
	return pk, nil
}

func wrapSQL(model, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isEngineError(err):
		return err
	default:
		return &core.SQLError{Model: model, Op: op, Err: err}
	}
}
