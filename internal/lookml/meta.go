package lookml

// ColumnMeta carries the manifest-sourced annotations for one column.
// The catalog is the authority on structural shape; these annotations
// only layer labels, visibility and measures on top of it.
type ColumnMeta struct {
	Description string
	Dimension   *DimensionMeta
	Measures    []MeasureMeta
}

// DimensionMeta is the explicit meta.looker dimension override block.
// Every field is optional; overrides merge additively onto the defaults
// computed by the flattening engine.
type DimensionMeta struct {
	Label           string   `mapstructure:"label"`
	GroupLabel      string   `mapstructure:"group_label"`
	Hidden          *bool    `mapstructure:"hidden"`
	Description     string   `mapstructure:"description"`
	ValueFormatName string   `mapstructure:"value_format_name"`
	Timeframes      []string `mapstructure:"timeframes"`
}

// MeasureMeta is one custom measure declaration attached to a column.
type MeasureMeta struct {
	Type            string              `mapstructure:"type"`
	Label           string              `mapstructure:"label"`
	Description     string              `mapstructure:"description"`
	Hidden          *bool               `mapstructure:"hidden"`
	GroupLabel      string              `mapstructure:"group_label"`
	ValueFormatName string              `mapstructure:"value_format_name"`
	SQL             string              `mapstructure:"sql"`
	SQLDistinctKey  string              `mapstructure:"sql_distinct_key"`
	Approximate     *bool               `mapstructure:"approximate"`
	ApproxThreshold *int64              `mapstructure:"approximate_threshold"`
	Precision       *int                `mapstructure:"precision"`
	Percentile      *int                `mapstructure:"percentile"`
	Filters         []MeasureFilterMeta `mapstructure:"filters"`
	Tags            []string            `mapstructure:"tags"`
}

// MeasureFilterMeta is one filter entry on a custom measure.
type MeasureFilterMeta struct {
	FilterDimension  string `mapstructure:"filter_dimension"`
	FilterExpression string `mapstructure:"filter_expression"`
}

// ModelMeta is the model-level meta.looker block.
type ModelMeta struct {
	Label       string `mapstructure:"label"`
	Description string `mapstructure:"description"`
	Hidden      *bool  `mapstructure:"hidden"`
}
