// Package formula evaluates spreadsheet formulas.
//
// The grammar is deliberately small: numeric literals, cell references (one
// or more letters followed by one or more digits), the binary operators
// + - * /, unary minus and parentheses. Text is parsed with hclsyntax and the
// resulting tree is checked node by node; anything outside the grammar
// (function calls, strings, conditionals, attribute access, ...) is rejected
// before evaluation, so a formula can never run arbitrary code.
//
// Operator precedence and associativity are the usual ones: * and / bind
// tighter than + and -, and operators of equal precedence associate left to
// right.
package formula

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// ErrorValue is the value a cell takes when its formula cannot be evaluated.
const ErrorValue = "#ERROR"

var referencePattern = regexp.MustCompile(`^[A-Za-z]+[0-9]+$`)

// referenceMinus matches a reference immediately followed by '-'. HCL
// identifiers may contain dashes, so "A1-B1" would otherwise read as one name.
var referenceMinus = regexp.MustCompile(`([A-Za-z]+[0-9]+)-`)

// IsReference reports whether s has the shape of a cell id.
func IsReference(s string) bool {
	return referencePattern.MatchString(s)
}

// Lookup returns the current value of a referenced cell. The boolean is
// false when the cell does not exist.
type Lookup func(id string) (any, bool)

// Error is a parse or evaluation failure. It is node-local: callers store
// ErrorValue in the cell rather than aborting.
type Error struct {
	Expression string
	Reason     string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("formula %q: %s: %v", e.Expression, e.Reason, e.Err)
	}
	return fmt.Sprintf("formula %q: %s", e.Expression, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Expression is a parsed, grammar-checked formula.
type Expression struct {
	src  string
	expr hclsyntax.Expression
	refs []string
}

// Parse parses src (without a leading '=') and validates it against the
// formula grammar.
func Parse(src string) (*Expression, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &Error{Expression: src, Reason: "empty expression"}
	}

	text := referenceMinus.ReplaceAllString(src, "$1 - ")
	expr, diags := hclsyntax.ParseExpression([]byte(text), "formula", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, &Error{Expression: src, Reason: "syntax error", Err: diags}
	}

	e := &Expression{src: src, expr: expr}
	seen := make(map[string]bool)
	if err := e.check(expr, seen); err != nil {
		return nil, err
	}
	return e, nil
}

// Source returns the text the expression was parsed from.
func (e *Expression) Source() string { return e.src }

// References returns the referenced cell ids, each once, in order of first
// appearance.
func (e *Expression) References() []string {
	out := make([]string, len(e.refs))
	copy(out, e.refs)
	return out
}

// check walks the syntax tree, rejecting anything outside the grammar and
// collecting references.
func (e *Expression) check(expr hclsyntax.Expression, seen map[string]bool) error {
	switch n := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		if n.Val.Type() != cty.Number {
			return e.reject(n, "only numeric literals are allowed")
		}
		return nil

	case *hclsyntax.ScopeTraversalExpr:
		if len(n.Traversal) != 1 || !IsReference(n.Traversal.RootName()) {
			return e.reject(n, "references must be cell ids such as A1")
		}
		name := n.Traversal.RootName()
		if !seen[name] {
			seen[name] = true
			e.refs = append(e.refs, name)
		}
		return nil

	case *hclsyntax.BinaryOpExpr:
		switch n.Op {
		case hclsyntax.OpAdd, hclsyntax.OpSubtract, hclsyntax.OpMultiply, hclsyntax.OpDivide:
		default:
			return e.reject(n, "only + - * / operators are allowed")
		}
		if err := e.check(n.LHS, seen); err != nil {
			return err
		}
		return e.check(n.RHS, seen)

	case *hclsyntax.UnaryOpExpr:
		if n.Op != hclsyntax.OpNegate {
			return e.reject(n, "only unary minus is allowed")
		}
		return e.check(n.Val, seen)

	case *hclsyntax.ParenthesesExpr:
		return e.check(n.Expression, seen)

	default:
		return e.reject(expr, "unsupported construct")
	}
}

func (e *Expression) reject(expr hclsyntax.Expression, reason string) error {
	rng := expr.Range()
	return &Error{
		Expression: e.src,
		Reason:     fmt.Sprintf("%s (column %d)", reason, rng.Start.Column),
	}
}

// Evaluate resolves every reference through lookup and computes the result,
// formatted as a decimal string. Missing or empty referenced values count as
// 0; a referenced value that is not a number is an error.
func (e *Expression) Evaluate(lookup Lookup) (string, error) {
	vars := make(map[string]cty.Value, len(e.refs))
	for _, ref := range e.refs {
		v, err := e.bind(ref, lookup)
		if err != nil {
			return "", err
		}
		vars[ref] = v
	}

	val, diags := e.expr.Value(&hcl.EvalContext{Variables: vars})
	if diags.HasErrors() {
		return "", &Error{Expression: e.src, Reason: "evaluation failed", Err: diags}
	}
	if !val.IsKnown() || val.IsNull() || val.Type() != cty.Number {
		return "", &Error{Expression: e.src, Reason: "result is not a number"}
	}

	bf := val.AsBigFloat()
	if bf.IsInf() {
		return "", &Error{Expression: e.src, Reason: "result is not finite"}
	}
	f, _ := bf.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "", &Error{Expression: e.src, Reason: "result is out of range"}
	}
	return FormatNumber(f), nil
}

func (e *Expression) bind(ref string, lookup Lookup) (cty.Value, error) {
	if lookup == nil {
		return cty.Zero, nil
	}
	raw, ok := lookup(ref)
	if !ok || raw == nil {
		return cty.Zero, nil
	}

	var text string
	switch v := raw.(type) {
	case string:
		text = v
	default:
		text = fmt.Sprint(v)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return cty.Zero, nil
	}

	num, err := cty.ParseNumberVal(text)
	if err != nil {
		return cty.NilVal, &Error{
			Expression: e.src,
			Reason:     fmt.Sprintf("referenced cell %s holds %q, which is not a number", ref, text),
		}
	}
	return num, nil
}

// FormatNumber renders f the way cells display numbers: the shortest decimal
// form without an exponent, and no negative zero.
func FormatNumber(f float64) string {
	if f == 0 {
		f = 0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Evaluate parses and evaluates src in one step, returning ErrorValue and the
// failure instead of an error result.
func Evaluate(src string, lookup Lookup) (string, error) {
	expr, err := Parse(src)
	if err != nil {
		return ErrorValue, err
	}
	out, err := expr.Evaluate(lookup)
	if err != nil {
		return ErrorValue, err
	}
	return out, nil
}
