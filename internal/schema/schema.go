// Package schema validates encoded chart documents against an embedded CUE
// definition.
//
// Validation is structural: field presence, value kinds, type tags, page
// ranges and degree arity. Cross-references between classes and edges are
// checked by chart.Decode.
package schema

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/sseqchart/internal/chart"
)

//go:embed chart.cue
var chartSchema string

const documentFile = "document.json"

// Validation error codes.
const (
	// CodeSyntax indicates a document that is not well-formed JSON.
	CodeSyntax = "S001"

	// CodeSchema indicates a document that violates the chart schema.
	CodeSchema = "S002"
)

// ValidationError represents a single schema violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validator checks documents against the #Chart definition.
// A Validator is not safe for concurrent use.
type Validator struct {
	ctx   *cue.Context
	chart cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(chartSchema, cue.Filename("chart.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile chart schema: %w", err)
	}
	def := v.LookupPath(cue.ParsePath("#Chart"))
	if !def.Exists() {
		return nil, fmt.Errorf("compile chart schema: #Chart not defined")
	}
	return &Validator{ctx: ctx, chart: def}, nil
}

// Validate checks doc and returns every violation found, ordered by field.
// An empty result means the document is valid.
func (v *Validator) Validate(doc []byte) []ValidationError {
	data := v.ctx.CompileBytes(doc, cue.Filename(documentFile))
	if err := data.Err(); err != nil {
		return convert(err, CodeSyntax)
	}

	unified := v.chart.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return convert(err, CodeSchema)
	}
	return nil
}

// ValidateChart encodes c and validates the result.
func (v *Validator) ValidateChart(c *chart.Chart) ([]ValidationError, error) {
	doc, err := c.Encode()
	if err != nil {
		return nil, err
	}
	return v.Validate(doc), nil
}

func convert(err error, code string) []ValidationError {
	var out []ValidationError
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		verr := ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
			Code:    code,
			Line:    documentLine(e),
		}
		if verr.Field == "" {
			verr.Field = "document"
		}
		out = append(out, verr)
	}
	if len(out) == 0 {
		out = append(out, ValidationError{Field: "document", Message: err.Error(), Code: code})
	}

	slices.SortStableFunc(out, func(a, b ValidationError) int {
		return strings.Compare(a.Field, b.Field)
	})
	return slices.CompactFunc(out, func(a, b ValidationError) bool { return a == b })
}

// documentLine returns the first line in the validated document that e
// points at, or 0.
func documentLine(e cueerrors.Error) int {
	for _, pos := range cueerrors.Positions(e) {
		if pos.Filename() == documentFile {
			return pos.Line()
		}
	}
	return 0
}
