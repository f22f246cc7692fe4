// Package lookml turns a model's nested column tree into LookML view,
// dimension, measure and explore definitions.
//
// The hard part lives in flatten.go: deciding, for every node of an
// arbitrarily deep BigQuery STRUCT/ARRAY tree, whether it becomes an
// inline field on its enclosing view or the root of a new unnested view,
// while keeping names collision-free and SQL references anchored to the
// right view.
package lookml

// FieldKind discriminates the emitted field variants.
type FieldKind int

const (
	// FieldDimension is a plain scalar dimension.
	FieldDimension FieldKind = iota
	// FieldDimensionGroup is a time dimension group with timeframes.
	FieldDimensionGroup
	// FieldArrayPlaceholder is the hidden dimension emitted for an
	// ARRAY column in the view that contains it.
	FieldArrayPlaceholder
	// FieldStructPlaceholder is the hidden dimension emitted for a
	// STRUCT whose leaves are all unsupported.
	FieldStructPlaceholder
)

// FieldSpec is one dimension, dimension group or hidden placeholder.
type FieldSpec struct {
	Name string
	Kind FieldKind

	// Path is the dotted physical path from the table root, used to
	// match manifest metadata overrides against generated fields.
	Path string

	// Type is the Looker dimension type ("string", "number", ...);
	// empty for placeholders. For dimension groups it is "date" or
	// "time" and Datatype carries the underlying engine type.
	Type     string
	Datatype string

	SQL         string
	Description string
	Label       string
	Hidden      bool

	GroupLabel     string
	GroupItemLabel string

	ValueFormatName string
	Tags            []string

	// Dimension group only.
	Timeframes []string
	ConvertTZ  string
}

// MeasureFilter is one filters: entry on a measure.
type MeasureFilter struct {
	Field string
	Value string
}

// MeasureSpec is one measure attached to a view.
type MeasureSpec struct {
	Name            string
	Type            string
	SQL             string
	Description     string
	Label           string
	Hidden          string // "yes"/"no", empty to omit
	GroupLabel      string
	ValueFormatName string
	SQLDistinctKey  string
	Approximate     *bool
	ApproxThreshold *int64
	Precision       *int
	Percentile      *int
	Filters         []MeasureFilter
	Tags            []string
}

// ViewSpec is one emitted view block.
type ViewSpec struct {
	Name    string
	Label   string
	IsRoot  bool
	Hidden  string // "yes"/"no", empty to omit
	Fields  []*FieldSpec
	Measure []*MeasureSpec

	// Root view only.
	SQLTableName string

	// Non-root views only: the join layer resolves the UNNEST source
	// through the parent view's placeholder field.
	ParentViewName  string
	SourceFieldName string
	NestingPath     []string

	names *Namespace
}

// Names returns the view's claimed-identifier namespace, creating it on
// first use.
func (v *ViewSpec) Names() *Namespace {
	if v.names == nil {
		v.names = NewNamespace()
	}
	return v.names
}

// JoinSpec is one unnesting join in an explore.
type JoinSpec struct {
	Name         string
	Relationship string
	SQL          string
	Type         string
}

// ExploreSpec is the join plan connecting a root view to its nested views.
type ExploreSpec struct {
	Name   string
	Label  string
	From   string
	Hidden string
	Joins  []JoinSpec
}
