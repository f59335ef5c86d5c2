package gate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rollupscore/rollupscore/internal/score"
)

// ErrGateFired is returned by Check when at least one condition fires.
var ErrGateFired = errors.New("gate condition fired")

// Condition is one parsed "field operator value" expression.
type Condition struct {
	Field string
	Op    string
	Value string

	threshold float64
}

// String returns the condition in its canonical textual form.
func (c Condition) String() string {
	return c.Field + " " + c.Op + " " + c.Value
}

// Parse parses a condition expression.
//
// Supported expressions (field operator value):
//
//	final_score < 0.5
//	final_score >= 0.6
//	latency_ms > 250
//	rollup == aztec
//	rollup != zama
func Parse(expr string) (Condition, error) {
	parts := strings.Fields(expr)
	if len(parts) != 3 {
		return Condition{}, fmt.Errorf("gate: %q: want \"field op value\"", expr)
	}
	c := Condition{Field: parts[0], Op: parts[1], Value: parts[2]}

	switch c.Field {
	case "rollup":
		if c.Op != "==" && c.Op != "!=" {
			return Condition{}, fmt.Errorf("gate: %q: rollup supports only == and !=", expr)
		}
		return c, nil

	case "final_score", "latency_ms":
		if !validOp(c.Op) {
			return Condition{}, fmt.Errorf("gate: %q: unknown operator %q", expr, c.Op)
		}
		v, err := strconv.ParseFloat(c.Value, 64)
		if err != nil {
			return Condition{}, fmt.Errorf("gate: %q: threshold: %w", expr, err)
		}
		c.threshold = v
		return c, nil

	default:
		return Condition{}, fmt.Errorf("gate: %q: unknown field %q", expr, c.Field)
	}
}

// Eval evaluates the condition against a score result.
// Returns (fires bool, triggering value float64); the value is 0 for the
// rollup field.
func (c Condition) Eval(res score.Result) (bool, float64) {
	switch c.Field {
	case "rollup":
		if c.Op == "==" {
			return res.Rollup == c.Value, 0
		}
		return res.Rollup != c.Value, 0
	default:
		v := numericField(c.Field, res)
		return compareFloat(v, c.Op, c.threshold), v
	}
}

// Check parses and evaluates every expression and returns an error wrapping
// ErrGateFired that names each condition that fired.
func Check(exprs []string, res score.Result) error {
	var fired []string
	for _, expr := range exprs {
		c, err := Parse(expr)
		if err != nil {
			return err
		}
		if ok, v := c.Eval(res); ok {
			if c.Field == "rollup" {
				fired = append(fired, c.String())
				continue
			}
			fired = append(fired, fmt.Sprintf("%s (got %s)", c, strconv.FormatFloat(v, 'f', -1, 64)))
		}
	}
	if len(fired) > 0 {
		return fmt.Errorf("%w: %s", ErrGateFired, strings.Join(fired, "; "))
	}
	return nil
}

// numericField maps a field name to its value in the result.
func numericField(field string, res score.Result) float64 {
	switch field {
	case "final_score":
		return res.FinalScore
	case "latency_ms":
		return res.LatencyMs
	default:
		return 0
	}
}

func validOp(op string) bool {
	switch op {
	case ">", ">=", "<", "<=", "==", "!=":
		return true
	default:
		return false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}
