package orm

import (
	"context"
	"database/sql"
	"errors"

	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/query"
)

// LinkSpec names a many-to-many join table and the source row whose links
// are maintained.
type LinkSpec = core.M2MContext

// Save inserts a record, or updates it when its primary key already exists,
// and returns the primary key. Generated keys are read back on the same
// connection that ran the insert.
func (e *Engine) Save(ctx context.Context, model string, recordJSON []byte, txID string) (any, error) {
	s, c, err := e.prepare(model)
	if err != nil {
		return nil, err
	}
	rec, err := query.ParseRecord(recordJSON)
	if err != nil {
		return nil, err
	}
	stmt, err := c.Insert(s, rec)
	if err != nil {
		return nil, err
	}

	key := stmt.Key
	err = e.runConn(ctx, txID, model, func(q querier) error {
		if stmt.Returning {
			var got any
			err := q.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&got)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				// ON CONFLICT DO NOTHING returns no row; the key was supplied.
				return nil
			case err != nil:
				return err
			}
			if key == nil {
				key = got
			}
			return nil
		}

		res, err := q.ExecContext(ctx, stmt.SQL, stmt.Args...)
		if err != nil {
			return err
		}
		if key != nil || s.PrimaryKey() == nil {
			return nil
		}
		if id, err := res.LastInsertId(); err == nil && id > 0 {
			key = id
			return nil
		}
		if lq, ok := c.LastInsertID(); ok {
			var id int64
			if err := q.QueryRowContext(ctx, lq.SQL).Scan(&id); err == nil && id > 0 {
				key = id
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapSQL(model, "save", err)
	}
	e.logger.Debug("saved record", "model", model, "key", key, "tx_id", txID)
	return key, nil
}

// SaveBulk inserts records with one multi-row statement and returns the
// number of rows inserted. It never updates existing rows.
func (e *Engine) SaveBulk(ctx context.Context, model string, recordsJSON []byte, txID string) (int64, error) {
	s, c, err := e.prepare(model)
	if err != nil {
		return 0, err
	}
	recs, err := query.ParseRecords(recordsJSON)
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		return 0, nil
	}
	stmt, err := c.BulkInsert(s, recs)
	if err != nil {
		return 0, err
	}
	return e.exec(ctx, model, "save bulk", txID, stmt)
}

// DeleteOne deletes the row whose primary key is pk and evicts it from the
// identity map.
func (e *Engine) DeleteOne(ctx context.Context, model, pk, txID string) error {
	s, c, err := e.prepare(model)
	if err != nil {
		return err
	}
	key, err := canonicalKey(s, pk)
	if err != nil {
		return err
	}
	stmt, err := c.DeleteByKey(s, key)
	if err != nil {
		return err
	}
	if _, err := e.exec(ctx, model, "delete", txID, stmt); err != nil {
		return err
	}
	e.forget(txID, model, key)
	return nil
}

// DeleteFiltered deletes the rows matching a query document. Every mapped
// handle of the model is evicted afterwards.
func (e *Engine) DeleteFiltered(ctx context.Context, model string, queryJSON []byte, txID string) (int64, error) {
	s, c, def, err := e.prepareQuery(model, queryJSON)
	if err != nil {
		return 0, err
	}
	stmt, err := c.Delete(s, def)
	if err != nil {
		return 0, err
	}
	n, err := e.exec(ctx, model, "delete", txID, stmt)
	if err != nil {
		return 0, err
	}
	e.forget(txID, model, "")
	return n, nil
}

// UpdateFiltered applies assignments to the rows matching a query document.
// Every mapped handle of the model is evicted afterwards.
func (e *Engine) UpdateFiltered(ctx context.Context, model string, queryJSON, assignmentsJSON []byte, txID string) (int64, error) {
	s, c, def, err := e.prepareQuery(model, queryJSON)
	if err != nil {
		return 0, err
	}
	assignments, err := query.ParseRecord(assignmentsJSON)
	if err != nil {
		return 0, err
	}
	stmt, err := c.Update(s, def, assignments)
	if err != nil {
		return 0, err
	}
	n, err := e.exec(ctx, model, "update", txID, stmt)
	if err != nil {
		return 0, err
	}
	e.forget(txID, model, "")
	return n, nil
}

// AddLinks inserts join rows from link.SourceID to every target.
func (e *Engine) AddLinks(ctx context.Context, link LinkSpec, targetIDs []any, txID string) error {
	if len(targetIDs) == 0 {
		return nil
	}
	_, c, err := e.pool()
	if err != nil {
		return err
	}
	stmt, err := c.AddLinks(&link, targetIDs)
	if err != nil {
		return err
	}
	_, err = e.exec(ctx, link.JoinTable, "add links", txID, stmt)
	return err
}

// RemoveLinks deletes the join rows from link.SourceID to the targets.
func (e *Engine) RemoveLinks(ctx context.Context, link LinkSpec, targetIDs []any, txID string) error {
	if len(targetIDs) == 0 {
		return nil
	}
	_, c, err := e.pool()
	if err != nil {
		return err
	}
	stmt, err := c.RemoveLinks(&link, targetIDs)
	if err != nil {
		return err
	}
	_, err = e.exec(ctx, link.JoinTable, "remove links", txID, stmt)
	return err
}

// ClearLinks deletes every join row from link.SourceID.
func (e *Engine) ClearLinks(ctx context.Context, link LinkSpec, txID string) error {
	_, c, err := e.pool()
	if err != nil {
		return err
	}
	stmt, err := c.ClearLinks(&link)
	if err != nil {
		return err
	}
	_, err = e.exec(ctx, link.JoinTable, "clear links", txID, stmt)
	return err
}

// exec runs a statement that returns no rows and reports rows affected.
func (e *Engine) exec(ctx context.Context, model, op, txID string, stmt query.Statement) (int64, error) {
	var n int64
	err := e.run(ctx, txID, model, func(q querier) error {
		res, err := q.ExecContext(ctx, stmt.SQL, stmt.Args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, wrapSQL(model, op, err)
	}
	e.logger.Debug("executed statement", "model", model, "op", op, "rows", n, "tx_id", txID)
	return n, nil
}

func isEngineError(err error) bool {
	return errors.Is(err, core.ErrEngineNotInitialized) ||
		errors.Is(err, core.ErrTransactionNotFound)
}
