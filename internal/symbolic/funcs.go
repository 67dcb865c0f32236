package symbolic

import (
	"math"
	"math/big"
)

// Function describes a function the parser and evaluator understand.
type Function struct {
	Name  string
	Arity int
	// Eval computes the function numerically.
	Eval func(args ...float64) float64

	// derivative returns d f(args) given the derivatives of the arguments.
	derivative func(args, ds []Expr) Expr
	// fold returns a simpler equivalent of f(args) or nil.
	fold func(args []Expr) Expr
}

// functionAliases maps alternative spellings to canonical names.
var functionAliases = map[string]string{
	"ln":     "log",
	"arcsin": "asin",
	"arccos": "acos",
	"arctan": "atan",
	"Abs":    "abs",
}

var functions = map[string]*Function{}

func register(fn *Function) { functions[fn.Name] = fn }

// LookupFunction returns the function registered under name or one of its
// aliases. "sqrt" is not a Function; Call and the parser treat it as a power.
func LookupFunction(name string) (*Function, bool) {
	if canonical, ok := functionAliases[name]; ok {
		name = canonical
	}
	fn, ok := functions[name]
	return fn, ok
}

// IsFunctionName reports whether name can be applied as a function.
func IsFunctionName(name string) bool {
	if name == "sqrt" {
		return true
	}
	_, ok := LookupFunction(name)
	return ok
}

// chain wraps a one-argument derivative rule with the chain rule.
func chain(rule func(x Expr) Expr) func(args, ds []Expr) Expr {
	return func(args, ds []Expr) Expr {
		return MulOf(rule(args[0]), ds[0])
	}
}

func unary(name string, eval func(float64) float64, rule func(x Expr) Expr, fold func(x Expr) Expr) {
	fn := &Function{
		Name:       name,
		Arity:      1,
		Eval:       func(args ...float64) float64 { return eval(args[0]) },
		derivative: chain(rule),
	}
	if fold != nil {
		fn.fold = func(args []Expr) Expr { return fold(args[0]) }
	}
	register(fn)
}

// odd folds f(-x) to -f(x) and f(0) to 0.
func odd(name string) func(x Expr) Expr {
	return func(x Expr) Expr {
		if isZero(x) {
			return N(0)
		}
		if isNegative(x) {
			return Neg(Call(name, Neg(x)))
		}
		return nil
	}
}

// even folds f(-x) to f(x) and f(0) to zeroValue.
func even(name string, zeroValue int64) func(x Expr) Expr {
	return func(x Expr) Expr {
		if isZero(x) {
			return N(zeroValue)
		}
		if isNegative(x) {
			return Call(name, Neg(x))
		}
		return nil
	}
}

func init() {
	unary("sin", math.Sin,
		func(x Expr) Expr { return Call("cos", x) },
		func(x Expr) Expr {
			if x.Equal(Pi) {
				return N(0)
			}
			return odd("sin")(x)
		})
	unary("cos", math.Cos,
		func(x Expr) Expr { return Neg(Call("sin", x)) },
		func(x Expr) Expr {
			if x.Equal(Pi) {
				return N(-1)
			}
			return even("cos", 1)(x)
		})
	unary("tan", math.Tan,
		func(x Expr) Expr { return PowOf(Call("cos", x), N(-2)) },
		odd("tan"))
	unary("cot", func(x float64) float64 { return 1 / math.Tan(x) },
		func(x Expr) Expr { return Neg(PowOf(Call("sin", x), N(-2))) },
		nil)
	unary("sec", func(x float64) float64 { return 1 / math.Cos(x) },
		func(x Expr) Expr { return MulOf(Call("sec", x), Call("tan", x)) },
		nil)
	unary("csc", func(x float64) float64 { return 1 / math.Sin(x) },
		func(x Expr) Expr { return Neg(MulOf(Call("csc", x), Call("cot", x))) },
		nil)

	unary("sinh", math.Sinh,
		func(x Expr) Expr { return Call("cosh", x) },
		odd("sinh"))
	unary("cosh", math.Cosh,
		func(x Expr) Expr { return Call("sinh", x) },
		even("cosh", 1))
	unary("tanh", math.Tanh,
		func(x Expr) Expr { return Minus(N(1), PowOf(Call("tanh", x), N(2))) },
		odd("tanh"))

	unary("asin", math.Asin,
		func(x Expr) Expr { return PowOf(Minus(N(1), PowOf(x, N(2))), F(-1, 2)) },
		odd("asin"))
	unary("acos", math.Acos,
		func(x Expr) Expr { return Neg(PowOf(Minus(N(1), PowOf(x, N(2))), F(-1, 2))) },
		nil)
	unary("atan", math.Atan,
		func(x Expr) Expr { return PowOf(AddOf(N(1), PowOf(x, N(2))), N(-1)) },
		odd("atan"))

	unary("exp", math.Exp,
		func(x Expr) Expr { return Call("exp", x) },
		func(x Expr) Expr {
			if isZero(x) {
				return N(1)
			}
			if f, ok := x.(*Func); ok && f.fn.Name == "log" {
				return f.args[0]
			}
			return nil
		})
	unary("log", math.Log,
		func(x Expr) Expr { return PowOf(x, N(-1)) },
		func(x Expr) Expr {
			if isOne(x) {
				return N(0)
			}
			if x.Equal(E) {
				return N(1)
			}
			if f, ok := x.(*Func); ok && f.fn.Name == "exp" {
				return f.args[0]
			}
			return nil
		})

	unary("abs", math.Abs,
		func(x Expr) Expr { return MulOf(x, PowOf(Call("abs", x), N(-1))) },
		func(x Expr) Expr {
			if n, ok := x.(*Num); ok {
				return newNum(new(big.Rat).Abs(n.val))
			}
			if isNegative(x) {
				return Call("abs", Neg(x))
			}
			return nil
		})
	unary("sign", sign,
		func(Expr) Expr { return N(0) },
		func(x Expr) Expr {
			if n, ok := x.(*Num); ok {
				return N(int64(n.Sign()))
			}
			return nil
		})

	register(&Function{
		Name:  "atan2",
		Arity: 2,
		Eval:  func(args ...float64) float64 { return math.Atan2(args[0], args[1]) },
		derivative: func(args, ds []Expr) Expr {
			y, x := args[0], args[1]
			den := AddOf(PowOf(x, N(2)), PowOf(y, N(2)))
			return Div(Minus(MulOf(x, ds[0]), MulOf(y, ds[1])), den)
		},
	})
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
