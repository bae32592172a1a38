package core

// Compound operators joining two query nodes.
const (
	OpAnd = "AND"
	OpOr  = "OR"
)

// Simple comparison operators.
const (
	OpEq   = "=="
	OpNe   = "!="
	OpGt   = ">"
	OpGte  = ">="
	OpLt   = "<"
	OpLte  = "<="
	OpIn   = "IN"
	OpLike = "LIKE"
)

// QueryNode is a node of a filter tree.
//
// A compound node carries Left, Right and an AND/OR operator.
// A simple node carries Column, a comparison operator and an operand Value
// holding a decoded JSON value (nil, bool, number, string, []any or map[string]any).
type QueryNode struct {
	Compound bool       `json:"is_compound"`
	Operator string     `json:"operator"`
	Column   string     `json:"column,omitempty"`
	Value    any        `json:"value,omitempty"`
	Left     *QueryNode `json:"left,omitempty"`
	Right    *QueryNode `json:"right,omitempty"`
}

// Simple builds a leaf comparison node.
func Simple(column, op string, value any) *QueryNode {
	return &QueryNode{Operator: op, Column: column, Value: value}
}

// And joins two nodes with AND.
func And(left, right *QueryNode) *QueryNode {
	return &QueryNode{Compound: true, Operator: OpAnd, Left: left, Right: right}
}

// Or joins two nodes with OR.
func Or(left, right *QueryNode) *QueryNode {
	return &QueryNode{Compound: true, Operator: OpOr, Left: left, Right: right}
}

// OrderBy is one ORDER BY term.
type OrderBy struct {
	Column    string
	Direction string
}

// M2MContext restricts a query to rows linked from a source row through a join table.
type M2MContext struct {
	JoinTable string `json:"join_table"`
	SourceCol string `json:"source_col"`
	TargetCol string `json:"target_col"`
	SourceID  any    `json:"source_id"`
}

// QueryDef is a complete query over one model.
// Top-level Where entries are joined by AND.
type QueryDef struct {
	Model   string
	Where   []*QueryNode
	OrderBy []OrderBy
	Limit   *int64
	Offset  *int64
	M2M     *M2MContext
}
