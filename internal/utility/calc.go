package utility

import (
	"math"
	"strconv"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
)

const (
	// MaxExpressionLength caps the calculator input in bytes.
	MaxExpressionLength = 1024

	// MaxNestingDepth caps parenthesis nesting.
	MaxNestingDepth = 64

	maxExpressionNodes = 512
)

// Evaluate computes an arithmetic expression. It supports + - * / % **,
// unary signs, parentheses, the constants pi, e and tau, and the functions
// listed in mathFuncs. % takes the sign of the divisor. Any failure,
// including division by zero or a non-finite result, returns
// ErrInvalidExpression.
func Evaluate(expression string) (float64, error) {
	if len(expression) > MaxExpressionLength || nestingDepth(expression) > MaxNestingDepth {
		return 0, ErrInvalidExpression
	}

	guard := &arithmeticOnly{}
	opts := []expr.Option{
		expr.Env(mathConsts),
		expr.DisableAllBuiltins(),
		expr.MaxNodes(maxExpressionNodes),
		expr.Patch(guard),
	}
	for name, fn := range mathFuncs {
		opts = append(opts, expr.Function(name, callable(fn)))
	}

	program, err := expr.Compile(expression, opts...)
	if err != nil || guard.rejected {
		return 0, ErrInvalidExpression
	}
	out, err := expr.Run(program, mathConsts)
	if err != nil {
		return 0, ErrInvalidExpression
	}
	v, ok := toFloat(out)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidExpression
	}
	return v, nil
}

// FormatNumber renders a result without trailing zeros.
func FormatNumber(v float64) string {
	if math.Abs(v) >= 1e15 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func nestingDepth(s string) int {
	depth, deepest := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
			deepest = max(deepest, depth)
		case ')', ']', '}':
			depth--
		}
	}
	return deepest
}

var allowedBinary = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true, "**": true}

// arithmeticOnly rejects everything but numbers, names, calls and the
// arithmetic operators, and rewrites % into the floored modulo function.
type arithmeticOnly struct {
	rejected bool
}

func (a *arithmeticOnly) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IntegerNode, *ast.FloatNode, *ast.IdentifierNode, *ast.CallNode:
	case *ast.UnaryNode:
		if n.Operator != "-" && n.Operator != "+" {
			a.rejected = true
		}
	case *ast.BinaryNode:
		if !allowedBinary[n.Operator] {
			a.rejected = true
			return
		}
		if n.Operator == "%" {
			ast.Patch(node, &ast.CallNode{
				Callee:    &ast.IdentifierNode{Value: "mod"},
				Arguments: []ast.Node{n.Left, n.Right},
			})
		}
	default:
		a.rejected = true
	}
}

func callable(fn mathFunc) func(params ...any) (any, error) {
	return func(params ...any) (any, error) {
		args := make([]float64, len(params))
		for i, p := range params {
			v, ok := toFloat(p)
			if !ok {
				return nil, ErrInvalidExpression
			}
			args[i] = v
		}
		v, ok := fn(args)
		if !ok {
			return nil, ErrInvalidExpression
		}
		return v, nil
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	}
	return 0, false
}

var mathConsts = map[string]any{
	"pi":  math.Pi,
	"e":   math.E,
	"tau": 2 * math.Pi,
}

type mathFunc func(args []float64) (float64, bool)

func oneArg(f func(float64) float64) mathFunc {
	return func(args []float64) (float64, bool) {
		if len(args) != 1 {
			return 0, false
		}
		return f(args[0]), true
	}
}

func twoArgs(f func(float64, float64) float64) mathFunc {
	return func(args []float64) (float64, bool) {
		if len(args) != 2 {
			return 0, false
		}
		return f(args[0], args[1]), true
	}
}

var mathFuncs = map[string]mathFunc{
	"sin":     oneArg(math.Sin),
	"cos":     oneArg(math.Cos),
	"tan":     oneArg(math.Tan),
	"asin":    oneArg(math.Asin),
	"acos":    oneArg(math.Acos),
	"atan":    oneArg(math.Atan),
	"atan2":   twoArgs(math.Atan2),
	"sinh":    oneArg(math.Sinh),
	"cosh":    oneArg(math.Cosh),
	"tanh":    oneArg(math.Tanh),
	"sqrt":    oneArg(math.Sqrt),
	"exp":     oneArg(math.Exp),
	"log10":   oneArg(math.Log10),
	"log2":    oneArg(math.Log2),
	"fabs":    oneArg(math.Abs),
	"floor":   oneArg(math.Floor),
	"ceil":    oneArg(math.Ceil),
	"trunc":   oneArg(math.Trunc),
	"pow":     twoArgs(math.Pow),
	"hypot":   twoArgs(math.Hypot),
	"fmod":    twoArgs(math.Mod),
	"degrees": oneArg(func(x float64) float64 { return x * 180 / math.Pi }),
	"radians": oneArg(func(x float64) float64 { return x * math.Pi / 180 }),
	"mod": func(args []float64) (float64, bool) {
		if len(args) != 2 || args[1] == 0 {
			return 0, false
		}
		// result takes the sign of the divisor
		return args[0] - args[1]*math.Floor(args[0]/args[1]), true
	},
	"log": func(args []float64) (float64, bool) {
		switch len(args) {
		case 1:
			return math.Log(args[0]), true
		case 2:
			return math.Log(args[0]) / math.Log(args[1]), true
		}
		return 0, false
	},
	"factorial": func(args []float64) (float64, bool) {
		if len(args) != 1 || args[0] < 0 || args[0] != math.Trunc(args[0]) {
			return 0, false
		}
		return math.Gamma(args[0] + 1), true
	},
}
