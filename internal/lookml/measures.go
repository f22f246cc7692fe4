package lookml

import (
	"fmt"
	"strings"
)

// measureTypes are the measure types accepted from meta.looker blocks.
var measureTypes = map[string]bool{
	"count": true, "count_distinct": true, "sum": true, "sum_distinct": true,
	"average": true, "average_distinct": true, "min": true, "max": true,
	"median": true, "median_distinct": true, "percentile": true,
	"percentile_approx": true, "stddev": true, "stddev_pop": true,
	"stddev_samp": true, "variance": true, "var_pop": true, "var_samp": true,
	"number": true, "string": true, "list": true,
}

// attachMeasures expands meta.looker.measures declarations on the view's
// columns into measure entries. Invalid declarations are skipped with a
// warning; generation of the view continues.
func attachMeasures(view *ViewSpec, meta map[string]*ColumnMeta) []Warning {
	var warnings []Warning
	for _, field := range view.Fields {
		if field.Kind != FieldDimension || field.Type == "" {
			continue
		}
		m, ok := meta[strings.ToLower(field.Path)]
		if !ok {
			continue
		}
		for _, decl := range m.Measures {
			spec, err := buildMeasure(field, decl)
			if err != nil {
				warnings = append(warnings, Warning{
					Kind:    WarnMeasureConfig,
					Path:    field.Path,
					Message: err.Error(),
				})
				continue
			}
			view.Measure = append(view.Measure, spec)
		}
	}
	return warnings
}

// buildMeasure validates one declaration and produces its MeasureSpec.
func buildMeasure(field *FieldSpec, decl MeasureMeta) (*MeasureSpec, error) {
	if err := validateMeasure(decl); err != nil {
		return nil, err
	}

	spec := &MeasureSpec{
		Name:            fmt.Sprintf("m_%s_%s", decl.Type, field.Name),
		Type:            decl.Type,
		SQL:             "${" + field.Name + "}",
		Description:     decl.Description,
		Label:           decl.Label,
		GroupLabel:      decl.GroupLabel,
		ValueFormatName: decl.ValueFormatName,
		Approximate:     decl.Approximate,
		ApproxThreshold: decl.ApproxThreshold,
		Precision:       decl.Precision,
		Percentile:      decl.Percentile,
		Tags:            decl.Tags,
	}
	if spec.Description == "" {
		spec.Description = fmt.Sprintf("%s of %s", decl.Type, field.Name)
	}
	if decl.Hidden != nil {
		spec.Hidden = yesNo(*decl.Hidden)
	}

	if decl.SQL != "" {
		sql, err := validateSQL(decl.SQL)
		if err != nil {
			return nil, err
		}
		spec.SQL = sql
		// Free-form SQL expressions only aggregate as number measures.
		if spec.Type != "number" {
			spec.Type = "number"
			spec.Name = fmt.Sprintf("m_number_%s", field.Name)
		}
	}
	if decl.SQLDistinctKey != "" {
		key, err := validateSQL(decl.SQLDistinctKey)
		if err != nil {
			return nil, err
		}
		spec.SQLDistinctKey = key
	}

	for _, flt := range decl.Filters {
		if flt.FilterDimension == "" || flt.FilterExpression == "" {
			return nil, fmt.Errorf("measure filter needs both filter_dimension and filter_expression")
		}
		spec.Filters = append(spec.Filters, MeasureFilter{
			Field: flt.FilterDimension,
			Value: flt.FilterExpression,
		})
	}

	return spec, nil
}

// validateMeasure checks that attribute combinations are internally
// consistent before any output is produced.
func validateMeasure(decl MeasureMeta) error {
	if decl.Type == "" {
		return fmt.Errorf("measure is missing a type")
	}
	if !measureTypes[decl.Type] {
		return fmt.Errorf("unsupported measure type %q", decl.Type)
	}
	if decl.ApproxThreshold != nil {
		if decl.Type != "count_distinct" || decl.Approximate == nil || !*decl.Approximate {
			return fmt.Errorf("approximate_threshold requires count_distinct with approximate: true")
		}
	}
	if decl.Approximate != nil && *decl.Approximate && decl.Type != "count_distinct" {
		return fmt.Errorf("approximate is only meaningful with count_distinct")
	}
	if decl.Percentile != nil {
		if decl.Type != "percentile" && decl.Type != "percentile_approx" {
			return fmt.Errorf("percentile value requires a percentile measure type")
		}
		if *decl.Percentile < 0 || *decl.Percentile > 100 {
			return fmt.Errorf("percentile must be between 0 and 100, got %d", *decl.Percentile)
		}
	}
	if decl.Precision != nil && *decl.Precision < 0 {
		return fmt.Errorf("precision must not be negative")
	}
	return nil
}

// validateSQL accepts Looker SQL fragments: they must reference a field
// through ${...} substitution and must not carry their own terminator.
func validateSQL(sql string) (string, error) {
	s := strings.TrimSpace(sql)
	for strings.HasSuffix(s, ";") {
		s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	}
	if !strings.Contains(s, "${") || !strings.Contains(s, "}") {
		return "", fmt.Errorf("sql expression %q has no ${...} reference", sql)
	}
	return s, nil
}
