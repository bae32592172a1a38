package query

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/leapstack-labs/leaporm/pkg/core"
)

// Arg converts a decoded JSON value into a driver bind value.
//
// Integral numbers bind as int64 and other numbers as float64, except on
// decimal columns where the literal text is kept. Booleans bind as 0/1
// because boolean columns are integer typed. Objects and arrays bind as
// serialized JSON text.
func Arg(v any, col *core.Column) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case json.Number:
		if col != nil && col.Decimal {
			return x.String(), nil
		}
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q", core.ErrInvalidOperand, x.String())
		}
		return f, nil
	case float64:
		if col != nil && col.Decimal {
			return strconv.FormatFloat(x, 'f', -1, 64), nil
		}
		if x == float64(int64(x)) && col != nil && col.Type() == core.TypeInteger {
			return int64(x), nil
		}
		return x, nil
	case int:
		return int64(x), nil
	case int64, string, []byte:
		return x, nil
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidOperand, err)
		}
		return string(b), nil
	default:
		return nil, fmt.Errorf("%w: unsupported value type %T", core.ErrInvalidOperand, v)
	}
}

// likeText renders a LIKE operand as text, verbatim. No escaping is added.
func likeText(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case nil:
		return "", fmt.Errorf("%w: LIKE requires a non-null operand", core.ErrInvalidOperand)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "", fmt.Errorf("%w: %v", core.ErrInvalidOperand, err)
		}
		return string(b), nil
	}
}

// KeyArg converts primary-key text into the bind value for col.
// Integer keys must parse as base-10 integers.
func KeyArg(pk string, col *core.Column) (any, error) {
	if col.Type() != core.TypeInteger {
		return pk, nil
	}
	i, err := strconv.ParseInt(pk, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: primary key %q is not an integer", core.ErrInvalidOperand, pk)
	}
	return i, nil
}
