package schema

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sseqchart/internal/chart"
	"github.com/roach88/sseqchart/internal/page"
	"github.com/roach88/sseqchart/internal/testutil"
	"github.com/roach88/sseqchart/internal/value"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New()
	require.NoError(t, err)
	return v
}

// sampleDocument encodes a chart using every entity kind and both property
// forms.
func sampleDocument(t *testing.T) []byte {
	t.Helper()
	c, err := chart.New("sample", chart.WithIDGenerator(testutil.NewSequentialIDs("")))
	require.NoError(t, err)

	require.NoError(t, c.RegisterShape("box", chart.Square(3)))
	require.NoError(t, c.RegisterColor("accent", chart.RGBA(10, 20, 30, 255)))
	require.NoError(t, c.RegisterClassStyle(chart.ClassStyle{
		GroupName:       "boxed",
		Shape:           chart.ShapeRef("box"),
		BackgroundColor: chart.ColorRef("accent"),
		BorderColor:     chart.Black,
		ForegroundColor: chart.Black,
		BorderWidth:     1,
	}))

	a, err := c.AddClass(0, 0)
	require.NoError(t, err)
	b, err := c.AddClass(1, 1)
	require.NoError(t, err)
	d, err := c.AddClass(0, 2)
	require.NoError(t, err)

	a.Name().SetAll("h0")
	require.NoError(t, b.SetStyleByName("boxed", page.From(3)))
	require.NoError(t, b.SetMaxPage(4))
	require.NoError(t, a.UserData().Set("note", "unit"))

	sl, err := c.AddStructline(a, b)
	require.NoError(t, err)
	require.NoError(t, sl.Visible().Set(5, false))
	_, err = c.AddDifferential(2, b, d, true)
	require.NoError(t, err)
	_, err = c.AddExtension(a, d)
	require.NoError(t, err)

	doc, err := c.Encode()
	require.NoError(t, err)
	return doc
}

// mutate decodes doc, lets edit change it and re-encodes it.
func mutate(t *testing.T, doc []byte, edit func(obj value.Object)) []byte {
	t.Helper()
	obj, err := value.UnmarshalObject(doc)
	require.NoError(t, err)
	edit(obj)
	out, err := value.MarshalCanonical(obj)
	require.NoError(t, err)
	return out
}

func firstClass(obj value.Object) value.Object {
	return obj["classes"].(value.Array)[0].(value.Object)
}

func fields(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

func hasFieldPrefix(errs []ValidationError, prefix string) bool {
	for _, e := range errs {
		if strings.HasPrefix(e.Field, prefix) {
			return true
		}
	}
	return false
}

func TestValidate_SampleChart(t *testing.T) {
	v := newValidator(t)
	errs := v.Validate(sampleDocument(t))
	assert.Empty(t, errs)
}

func TestValidate_EmptyChart(t *testing.T) {
	v := newValidator(t)
	c, err := chart.New("empty", chart.WithNumGradings(3))
	require.NoError(t, err)

	errs, err := v.ValidateChart(c)
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(obj value.Object)
		field string
	}{
		{
			name:  "missing name",
			edit:  func(obj value.Object) { delete(obj, "name") },
			field: "name",
		},
		{
			name:  "wrong type tag",
			edit:  func(obj value.Object) { obj["type"] = value.String("Chart") },
			field: "type",
		},
		{
			name:  "num gradings below two",
			edit:  func(obj value.Object) { obj["num_gradings"] = value.Int(1) },
			field: "num_gradings",
		},
		{
			name:  "projection arity",
			edit:  func(obj value.Object) { obj["x_projection"] = value.Ints([]int64{1, 0, 0}) },
			field: "x_projection",
		},
		{
			name:  "unknown field",
			edit:  func(obj value.Object) { obj["bogus"] = value.Bool(true) },
			field: "bogus",
		},
		{
			name:  "page beyond infinity",
			edit:  func(obj value.Object) { firstClass(obj)["max_page"] = value.Int(70000) },
			field: "classes.0.max_page",
		},
		{
			name:  "degree arity",
			edit:  func(obj value.Object) { firstClass(obj)["degree"] = value.Ints([]int64{0}) },
			field: "classes.0.degree",
		},
		{
			name:  "negative index",
			edit:  func(obj value.Object) { firstClass(obj)["idx"] = value.Int(-1) },
			field: "classes.0.idx",
		},
		{
			name: "bad hex color",
			edit: func(obj value.Object) {
				firstClass(obj)["border_color"] = value.Object{
					"type":  value.String("Color"),
					"color": value.String("#zzz"),
				}
			},
			field: "classes.0.border_color",
		},
		{
			name:  "property of the wrong kind",
			edit:  func(obj value.Object) { firstClass(obj)["visible"] = value.String("yes") },
			field: "classes.0.visible",
		},
		{
			name: "unknown edge type",
			edit: func(obj value.Object) {
				obj["edges"].(value.Array)[0].(value.Object)["type"] = value.String("ChartArrow")
			},
			field: "edges.0",
		},
		{
			name: "page list entry",
			edit: func(obj value.Object) {
				obj["page_list"] = value.Array{value.Array{value.Int(2)}}
			},
			field: "page_list",
		},
	}

	v := newValidator(t)
	doc := sampleDocument(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate(mutate(t, doc, tt.edit))
			require.NotEmpty(t, errs)
			assert.True(t, hasFieldPrefix(errs, tt.field), "want an error at %s, got %v", tt.field, fields(errs))
			for _, e := range errs {
				assert.Equal(t, CodeSchema, e.Code)
			}
		})
	}
}

func TestValidate_Syntax(t *testing.T) {
	v := newValidator(t)
	errs := v.Validate([]byte(`{"type": "SseqChart",`))
	require.NotEmpty(t, errs)
	assert.Equal(t, CodeSyntax, errs[0].Code)
}

func TestValidate_SortedByField(t *testing.T) {
	v := newValidator(t)
	doc := mutate(t, sampleDocument(t), func(obj value.Object) {
		delete(obj, "version")
		delete(obj, "name")
	})

	errs := v.Validate(doc)
	require.GreaterOrEqual(t, len(errs), 2)
	assert.True(t, slices.IsSorted(fields(errs)), "fields not sorted: %v", fields(errs))
}

func TestValidationError_Error(t *testing.T) {
	withLine := ValidationError{Field: "name", Message: "incomplete value string", Code: CodeSchema, Line: 3}
	assert.Equal(t, "[S002] line 3: name: incomplete value string", withLine.Error())

	noLine := ValidationError{Field: "document", Message: "bad", Code: CodeSyntax}
	assert.Equal(t, "[S001] document: bad", noLine.Error())
}
