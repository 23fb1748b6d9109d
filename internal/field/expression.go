package field

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/cmlibs/zinc-sub001/internal/engine"
	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// ExprPrefix marks a sort field argument as an expression in Resolve.
const ExprPrefix = "expr:"

var (
	pathOut        = cue.ParsePath("out")
	pathIdentifier = cue.ParsePath("identifier")
	pathTime       = cue.ParsePath("time")
)

// CompileError is an expression that does not compile.
type CompileError struct {
	Expr    string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("expression %q:%d:%d: %s", e.Expr, e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("expression %q: %s", e.Expr, e.Message)
}

// Expression evaluates a CUE expression per entity.
//
// The expression sees every stored field of the source by name as a list
// of numbers, plus identifier (the entity's identifier number) and time.
// It must produce a number or a list of numbers.
//
// Thread-safety: Evaluate is safe for concurrent use; evaluations are
// serialized.
type Expression struct {
	expr   string
	src    Source
	fields []*Stored

	mu     sync.Mutex
	schema cue.Value
}

// Compile builds an Expression over the fields of src.
func Compile(src Source, expr string) (*Expression, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, &CompileError{Expr: expr, Message: "empty expression"}
	}

	var b strings.Builder
	b.WriteString("identifier: int\ntime: number\n")
	var fields []*Stored
	for _, name := range src.FieldNames() {
		if ir.ValidateFieldName(name) != nil || strings.HasPrefix(name, "_") {
			continue
		}
		st, err := NewStored(src, name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, st)
		fmt.Fprintf(&b, "%s: [%s]\n", name, strings.TrimSuffix(strings.Repeat("number, ", st.Components()), ", "))
	}
	b.WriteString("out: ")
	b.WriteString(expr)
	b.WriteString("\n")

	v := cuecontext.New().CompileString(b.String(), cue.Filename("expression"))
	if err := v.Err(); err != nil {
		return nil, compileError(expr, err)
	}
	return &Expression{expr: expr, src: src, fields: fields, schema: v}, nil
}

// Name returns the expression with its ExprPrefix.
func (x *Expression) Name() string { return ExprPrefix + x.expr }

// Evaluate fills the inputs for loc and returns the value of the
// expression. A stored field with no value at loc is left unset; the
// evaluation fails only if the expression uses it.
func (x *Expression) Evaluate(ctx context.Context, loc ir.Location) ([]float64, error) {
	id, err := x.src.Identifier(ctx, loc.Handle)
	if err != nil {
		return nil, err
	}
	inputs := make(map[string][]float64, len(x.fields))
	for _, f := range x.fields {
		v, err := f.Evaluate(ctx, loc)
		if errors.Is(err, ErrNotDefined) {
			continue
		}
		if err != nil {
			return nil, err
		}
		inputs[f.Name()] = v
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	v := x.schema.FillPath(pathIdentifier, id.Number).FillPath(pathTime, loc.Time)
	for name, vals := range inputs {
		v = v.FillPath(cue.MakePath(cue.Str(name)), vals)
	}
	return numbers(x.expr, v.LookupPath(pathOut))
}

func numbers(expr string, out cue.Value) ([]float64, error) {
	if err := out.Err(); err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", expr, err)
	}
	switch out.Kind() {
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		f, err := out.Float64()
		if err != nil {
			return nil, fmt.Errorf("evaluate %q: %w", expr, err)
		}
		return []float64{f}, nil
	case cue.ListKind:
		it, err := out.List()
		if err != nil {
			return nil, fmt.Errorf("evaluate %q: %w", expr, err)
		}
		var vals []float64
		for it.Next() {
			f, err := it.Value().Float64()
			if err != nil {
				return nil, fmt.Errorf("evaluate %q: component %d: %w", expr, len(vals), err)
			}
			vals = append(vals, f)
		}
		return vals, nil
	case cue.BottomKind:
		return nil, fmt.Errorf("evaluate %q: incomplete value: %w", expr, ErrNotDefined)
	default:
		return nil, fmt.Errorf("evaluate %q: result is %v, want number or list of numbers", expr, out.Kind())
	}
}

func compileError(expr string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Expr: expr, Message: err.Error()}
	}
	first := errs[0]
	ce := &CompileError{Expr: expr, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}

// Resolve turns a command-line sort field argument into a sort field: "expr:<cue>"
// compiles an Expression, anything else names a stored field.
func Resolve(src Source, arg string) (engine.Field, error) {
	if rest, ok := strings.CutPrefix(arg, ExprPrefix); ok {
		x, err := Compile(src, rest)
		if err != nil {
			return nil, err
		}
		return x, nil
	}
	st, err := NewStored(src, arg)
	if err != nil {
		return nil, err
	}
	return st, nil
}
