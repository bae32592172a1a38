// Package core defines the shared language of the leaporm system.
//
// This package contains:
//   - Model schemas (ModelSchema, Column, ForeignKey)
//   - The query tree (QueryDef, QueryNode, OrderBy)
//   - Typed domain values (Value)
//   - Adapter configuration and table metadata
//   - Sentinel and structured errors
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
