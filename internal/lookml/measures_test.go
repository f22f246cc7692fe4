package lookml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func measureView(t *testing.T, decl MeasureMeta) (*ViewSpec, []Warning) {
	t.Helper()
	meta := map[string]*ColumnMeta{
		"amount": {Measures: []MeasureMeta{decl}},
	}
	views, _, warnings := assembleColumns(t, []CatalogColumn{
		{Path: "amount", Type: "INT64", Index: 1},
	}, meta, nil, AssembleOptions{})
	return views[0], warnings
}

func TestMeasure_Basic(t *testing.T) {
	view, warnings := measureView(t, MeasureMeta{Type: "sum"})
	require.Empty(t, warnings)
	require.Len(t, view.Measure, 1)

	m := view.Measure[0]
	assert.Equal(t, "m_sum_amount", m.Name)
	assert.Equal(t, "sum", m.Type)
	assert.Equal(t, "${amount}", m.SQL)
	assert.Equal(t, "sum of amount", m.Description)
}

func TestMeasure_Attributes(t *testing.T) {
	hidden := true
	view, warnings := measureView(t, MeasureMeta{
		Type:            "average",
		Label:           "Mean Amount",
		GroupLabel:      "Money",
		ValueFormatName: "usd",
		Hidden:          &hidden,
		Description:     "mean order value",
		Tags:            []string{"finance"},
	})
	require.Empty(t, warnings)

	m := view.Measure[0]
	assert.Equal(t, "Mean Amount", m.Label)
	assert.Equal(t, "Money", m.GroupLabel)
	assert.Equal(t, "usd", m.ValueFormatName)
	assert.Equal(t, "yes", m.Hidden)
	assert.Equal(t, "mean order value", m.Description)
	assert.Equal(t, []string{"finance"}, m.Tags)
}

func TestMeasure_CustomSQLForcesNumberType(t *testing.T) {
	view, warnings := measureView(t, MeasureMeta{
		Type: "sum",
		SQL:  "SUM(${TABLE}.amount) / 100 ;",
	})
	require.Empty(t, warnings)

	m := view.Measure[0]
	assert.Equal(t, "number", m.Type)
	assert.Equal(t, "m_number_amount", m.Name)
	assert.Equal(t, "SUM(${TABLE}.amount) / 100", m.SQL, "trailing terminator must be stripped")
}

func TestMeasure_SQLWithoutReferenceRejected(t *testing.T) {
	view, warnings := measureView(t, MeasureMeta{Type: "sum", SQL: "1 + 1"})
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnMeasureConfig, warnings[0].Kind)
	require.Len(t, view.Measure, 1)
	assert.Equal(t, "count", view.Measure[0].Name)
}

func TestMeasure_CountDistinctApproximate(t *testing.T) {
	approx := true
	threshold := int64(50000)
	view, warnings := measureView(t, MeasureMeta{
		Type:            "count_distinct",
		Approximate:     &approx,
		ApproxThreshold: &threshold,
		SQLDistinctKey:  "${amount}",
	})
	require.Empty(t, warnings)

	m := view.Measure[0]
	assert.Equal(t, "count_distinct", m.Type)
	require.NotNil(t, m.Approximate)
	assert.True(t, *m.Approximate)
	require.NotNil(t, m.ApproxThreshold)
	assert.Equal(t, int64(50000), *m.ApproxThreshold)
	assert.Equal(t, "${amount}", m.SQLDistinctKey)
}

func TestMeasure_InvalidDeclarationsWarnAndSkip(t *testing.T) {
	approx := true
	badPercentile := 150
	precision := -1
	tests := []struct {
		name string
		decl MeasureMeta
	}{
		{name: "missing type", decl: MeasureMeta{}},
		{name: "unknown type", decl: MeasureMeta{Type: "mode"}},
		{name: "approximate on sum", decl: MeasureMeta{Type: "sum", Approximate: &approx}},
		{name: "threshold without approximate", decl: MeasureMeta{Type: "count_distinct", ApproxThreshold: new(int64)}},
		{name: "percentile out of range", decl: MeasureMeta{Type: "percentile", Percentile: &badPercentile}},
		{name: "percentile value on sum", decl: MeasureMeta{Type: "sum", Percentile: new(int)}},
		{name: "negative precision", decl: MeasureMeta{Type: "sum", Precision: &precision}},
		{name: "half filter", decl: MeasureMeta{Type: "count", Filters: []MeasureFilterMeta{{FilterDimension: "status"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, warnings := measureView(t, tt.decl)
			require.Len(t, warnings, 1, "declaration must be rejected")
			assert.Equal(t, WarnMeasureConfig, warnings[0].Kind)

			// The invalid measure is skipped, so the default count
			// measure takes its place.
			require.Len(t, view.Measure, 1)
			assert.Equal(t, "count", view.Measure[0].Name)
		})
	}
}

func TestMeasure_Filters(t *testing.T) {
	view, warnings := measureView(t, MeasureMeta{
		Type: "count",
		Filters: []MeasureFilterMeta{
			{FilterDimension: "status", FilterExpression: "shipped"},
		},
	})
	require.Empty(t, warnings)

	m := view.Measure[0]
	require.Len(t, m.Filters, 1)
	assert.Equal(t, "status", m.Filters[0].Field)
	assert.Equal(t, "shipped", m.Filters[0].Value)
}

func TestMeasure_OnlyDimensionColumnsCarryMeasures(t *testing.T) {
	// Measures declared on a date column are ignored: dimension groups
	// cannot anchor a measure.
	meta := map[string]*ColumnMeta{
		"created_date": {Measures: []MeasureMeta{{Type: "count"}}},
	}
	views, _, warnings := assembleColumns(t, []CatalogColumn{
		{Path: "created_date", Type: "DATE", Index: 1},
	}, meta, nil, AssembleOptions{})

	assert.Empty(t, warnings)
	require.Len(t, views[0].Measure, 1)
	assert.Equal(t, "count", views[0].Measure[0].Name)
}
