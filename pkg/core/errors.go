package core

import (
	"errors"
	"fmt"
)

// Sentinel errors. Wrap them with fmt.Errorf("...: %w", Err...) and test with errors.Is.
var (
	ErrInvalidSchema        = errors.New("invalid schema")
	ErrInvalidQuery         = errors.New("invalid query")
	ErrInvalidRecord        = errors.New("invalid record")
	ErrInvalidOperand       = errors.New("invalid operand")
	ErrModelNotFound        = errors.New("model not found")
	ErrNoPrimaryKey         = errors.New("model has no primary key")
	ErrEngineNotInitialized = errors.New("engine not initialized")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrUnknownAdapter       = errors.New("unknown adapter")
)

// ConnectionError is returned when the pool cannot be established.
type ConnectionError struct {
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// SQLError wraps a database error with the model and operation that caused it.
type SQLError struct {
	Model string
	Op    string
	Err   error
}

func (e *SQLError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Model, e.Err)
}

func (e *SQLError) Unwrap() error { return e.Err }
