package lookml

import (
	"fmt"
	"strings"
)

// AssembleOptions configures the assembler pass.
type AssembleOptions struct {
	// ISOFields appends ISO year / week-of-year number dimensions next
	// to every date dimension group.
	ISOFields bool

	// SkipExplore suppresses explore generation; views are still
	// produced and serialized independently.
	SkipExplore bool
}

// Assemble layers manifest metadata onto the flattening engine's default
// output and builds the optional explore join plan.
//
// Overrides merge additively: an override wins when present, the default
// stays otherwise. The views slice must be in flatten emission order
// (ancestors before descendants) so joins come out in dependency order.
func Assemble(views []*ViewSpec, meta map[string]*ColumnMeta, modelMeta *ModelMeta, opts AssembleOptions) (*ExploreSpec, []Warning) {
	var warnings []Warning

	for _, view := range views {
		applyOverrides(view, meta)
		if opts.ISOFields {
			addISOFields(view)
		}
		warnings = append(warnings, attachMeasures(view, meta)...)
	}

	root := views[0]
	if modelMeta != nil {
		if modelMeta.Label != "" {
			root.Label = modelMeta.Label
		}
		if modelMeta.Hidden != nil {
			root.Hidden = yesNo(*modelMeta.Hidden)
		}
	}

	// The root view carries a count measure when nothing else measures it.
	if len(root.Measure) == 0 {
		root.Measure = append(root.Measure, &MeasureSpec{Name: "count", Type: "count"})
	}

	if opts.SkipExplore {
		return nil, warnings
	}
	return buildExplore(views), warnings
}

// applyOverrides merges explicit meta.looker dimension overrides onto
// matching fields by dotted path.
func applyOverrides(view *ViewSpec, meta map[string]*ColumnMeta) {
	for _, field := range view.Fields {
		m, ok := meta[strings.ToLower(field.Path)]
		if !ok || m.Dimension == nil {
			continue
		}
		o := m.Dimension
		if o.Label != "" {
			field.Label = o.Label
		}
		if o.GroupLabel != "" {
			field.GroupLabel = o.GroupLabel
		}
		if o.Description != "" {
			field.Description = o.Description
		}
		if o.ValueFormatName != "" {
			field.ValueFormatName = o.ValueFormatName
		}
		if o.Hidden != nil {
			field.Hidden = *o.Hidden
		}
		if len(o.Timeframes) > 0 && field.Kind == FieldDimensionGroup {
			field.Timeframes = o.Timeframes
		}
	}
}

// addISOFields appends hidden-by-default ISO week/year pseudo-fields for
// every date dimension group, matching the warehouse reporting convention
// of extracting isoyear/isoweek from the raw column.
func addISOFields(view *ViewSpec) {
	var out []*FieldSpec
	for _, field := range view.Fields {
		out = append(out, field)
		if field.Kind != FieldDimensionGroup || field.Type != "date" {
			continue
		}
		out = append(out,
			isoField(view, field, "year", "Extract(isoyear from %s)"),
			isoField(view, field, "week_of_year", "Extract(isoweek from %s)"),
		)
	}
	view.Fields = out
}

func isoField(view *ViewSpec, group *FieldSpec, suffix, sqlFormat string) *FieldSpec {
	f := &FieldSpec{
		Kind:            FieldDimension,
		Path:            group.Path,
		Type:            "number",
		SQL:             fmt.Sprintf(sqlFormat, group.SQL),
		Label:           group.Label + " ISO " + humanize(strings.TrimSuffix(suffix, "_of_year")),
		GroupLabel:      group.GroupLabel,
		ValueFormatName: "id",
	}
	if suffix == "week_of_year" {
		f.Label = group.Label + " ISO Week Of Year"
	}
	f.Name = view.Names().Unique(group.Name+"_iso_"+suffix, f)
	return f
}

// buildExplore emits one one_to_many join per non-root view, in the
// ancestor-before-descendant order the flattener produced, so every
// join's UNNEST source references an already-joined view.
func buildExplore(views []*ViewSpec) *ExploreSpec {
	root := views[0]
	explore := &ExploreSpec{
		Name:   root.Name,
		Label:  root.Label,
		From:   root.Name,
		Hidden: "no",
	}
	for _, view := range views[1:] {
		source := fmt.Sprintf("${%s.%s}", view.ParentViewName, view.SourceFieldName)
		explore.Joins = append(explore.Joins, JoinSpec{
			Name:         view.Name,
			Relationship: "one_to_many",
			SQL:          fmt.Sprintf("LEFT JOIN UNNEST(%s) AS %s", source, view.Name),
			Type:         "left_outer",
		})
	}
	return explore
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
