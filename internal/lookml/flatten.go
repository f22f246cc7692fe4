package lookml

import (
	"fmt"
	"strings"
)

// Timeframe lists applied to generated dimension groups unless the
// configuration overrides them.
var (
	DefaultDateTimeframes = []string{
		"raw", "date", "day_of_month", "day_of_week", "day_of_week_index",
		"week", "week_of_year", "month", "month_num", "month_name",
		"quarter", "quarter_of_year", "year",
	}
	DefaultTimeTimeframes = []string{
		"raw", "time", "time_of_day", "date", "week", "month", "quarter", "year",
	}
)

// FlattenOptions configures one model's flattening pass.
type FlattenOptions struct {
	// ViewName is the root view name (model name or table name,
	// depending on configuration). Sanitized by Flatten.
	ViewName string

	// TableName is the sql_table_name of the root view.
	TableName string

	// Label is the root view label.
	Label string

	DateTimeframes []string
	TimeTimeframes []string
}

func (o *FlattenOptions) dateTimeframes() []string {
	if len(o.DateTimeframes) > 0 {
		return o.DateTimeframes
	}
	return DefaultDateTimeframes
}

func (o *FlattenOptions) timeTimeframes() []string {
	if len(o.TimeTimeframes) > 0 {
		return o.TimeTimeframes
	}
	return DefaultTimeTimeframes
}

// flattener threads the walk state: the output view sequence and the
// warnings recorded along the way.
type flattener struct {
	opts     FlattenOptions
	views    []*ViewSpec
	warnings []Warning
}

// Flatten walks a model's column tree and emits one root view plus one
// view per ARRAY-typed group at any depth. The returned sequence keeps
// ancestor views before descendant views, which the assembler relies on
// when building joins.
//
// Never fails: naming and typing problems degrade to hidden fallback
// fields with recorded warnings.
func Flatten(root *ColumnNode, opts FlattenOptions) ([]*ViewSpec, []Warning) {
	f := &flattener{opts: opts}

	name, err := SanitizeLabel(opts.ViewName)
	if err != nil {
		f.warn(WarnNaming, "", err.Error())
		name = "unnamed_view"
	}
	rootView := &ViewSpec{
		Name:         name,
		Label:        opts.Label,
		IsRoot:       true,
		SQLTableName: opts.TableName,
	}
	f.views = append(f.views, rootView)

	f.walk(root.Children, rootView, len(root.Segments), nil)
	return f.views, f.warnings
}

func (f *flattener) warn(kind WarningKind, path, msg string) {
	f.warnings = append(f.warnings, Warning{Kind: kind, Path: path, Message: msg})
}

// walk emits fields for nodes into view. anchor is the number of leading
// path segments consumed by the view's UNNEST context (0 for the root
// view); groupLabels accumulates humanized inline-struct names.
func (f *flattener) walk(nodes []*ColumnNode, view *ViewSpec, anchor int, groupLabels []string) {
	for _, node := range nodes {
		switch {
		case node.ArrayRoot:
			f.emitArray(node, view, anchor)
		case node.IsGroup():
			f.emitInlineStruct(node, view, anchor, groupLabels)
		default:
			f.emitLeaf(node, view, anchor, groupLabels)
		}
	}
}

// fieldName builds the view-relative identifier for a node: each segment
// sanitized on its own, joined with a double underscore so nesting stays
// visible in the name.
func (f *flattener) fieldName(node *ColumnNode, anchor int) string {
	rel := node.Segments[anchor:]
	parts := make([]string, 0, len(rel))
	for _, seg := range rel {
		s, err := SanitizeLabel(camelToSnake(seg))
		if err != nil {
			f.warn(WarnNaming, node.Path(), err.Error())
			s = "unnamed"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "__")
}

// sqlRef builds the SQL reference for a node relative to its view: the
// root view qualifies with ${TABLE}., generated views reference the
// UNNESTed element with a bare dotted path.
func sqlRef(node *ColumnNode, view *ViewSpec, anchor int) string {
	if view.IsRoot {
		return "${TABLE}." + quoteRef(node.Path())
	}
	return quoteRef(strings.Join(node.Segments[anchor:], "."))
}

// quoteRef backtick-quotes a path containing characters BigQuery cannot
// reference bare.
func quoteRef(path string) string {
	for _, r := range path {
		ok := r == '.' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return "`" + path + "`"
		}
	}
	return path
}

func (f *flattener) emitLeaf(node *ColumnNode, view *ViewSpec, anchor int, groupLabels []string) {
	kind := Classify(node.PhysicalType)
	name := f.fieldName(node, anchor)

	if kind == KindUnsupported {
		f.warn(WarnUnsupportedType, node.Path(),
			"no semantic mapping for type "+node.PhysicalType)
		field := &FieldSpec{
			Kind:   FieldDimension,
			Path:   node.Path(),
			SQL:    sqlRef(node, view, anchor),
			Hidden: true,
		}
		f.attachMeta(field, node)
		f.claimDimension(view, field, name)
		view.Fields = append(view.Fields, field)
		return
	}

	if kind.IsTemporal() {
		f.emitDimensionGroup(node, view, anchor, groupLabels, kind, name)
		return
	}

	field := &FieldSpec{
		Kind: FieldDimension,
		Path: node.Path(),
		Type: kind.LookerType(),
		SQL:  sqlRef(node, view, anchor),
	}
	f.applyGroupLabels(field, node, groupLabels)
	f.attachMeta(field, node)
	f.claimDimension(view, field, name)
	view.Fields = append(view.Fields, field)
}

func (f *flattener) emitDimensionGroup(node *ColumnNode, view *ViewSpec, anchor int, groupLabels []string, kind Kind, name string) {
	// A created_date column yields a "created" group whose timeframes
	// include created_date, created_week and so on.
	base := strings.TrimSuffix(name, "_date")
	if base == "" {
		base = name
	}

	groupType := "time"
	convertTZ := "yes"
	timeframes := f.opts.timeTimeframes()
	if kind == KindDate {
		groupType = "date"
		convertTZ = "no"
		timeframes = f.opts.dateTimeframes()
	}

	field := &FieldSpec{
		Kind:       FieldDimensionGroup,
		Path:       node.Path(),
		Type:       groupType,
		Datatype:   kind.LookerType(),
		SQL:        sqlRef(node, view, anchor),
		Label:      humanize(base),
		Timeframes: timeframes,
		ConvertTZ:  convertTZ,
	}
	f.applyGroupLabels(field, node, groupLabels)
	f.attachMeta(field, node)

	field.Name = f.claimDimensionGroup(view, field, base, timeframes)
	view.Fields = append(view.Fields, field)
}

func (f *flattener) emitInlineStruct(node *ColumnNode, view *ViewSpec, anchor int, groupLabels []string) {
	if allLeavesUnsupported(node) {
		// Do not silently drop structs full of unknown types; surface
		// the column as a hidden placeholder so consumers see it exists.
		f.warn(WarnUnsupportedType, node.Path(), "struct has no mappable leaf columns")
		field := &FieldSpec{
			Kind:   FieldStructPlaceholder,
			Path:   node.Path(),
			SQL:    sqlRef(node, view, anchor),
			Hidden: true,
			Tags:   []string{"struct"},
		}
		f.attachMeta(field, node)
		f.claimDimension(view, field, f.fieldName(node, anchor))
		view.Fields = append(view.Fields, field)
		return
	}

	label := humanize(node.Name())
	labels := groupLabels
	// Stutter dedup: "Classification Classification Assortment" never
	// appears when a struct repeats its parent's name.
	if len(labels) == 0 || labels[len(labels)-1] != label {
		labels = append(append([]string{}, labels...), label)
	}
	f.walk(node.Children, view, anchor, labels)
}

func (f *flattener) emitArray(node *ColumnNode, parent *ViewSpec, anchor int) {
	// The array column stays visible to the join layer as a hidden
	// placeholder in the view that contains it.
	placeholderName := f.fieldName(node, anchor)
	placeholder := &FieldSpec{
		Kind:   FieldArrayPlaceholder,
		Path:   node.Path(),
		SQL:    sqlRef(node, parent, anchor),
		Hidden: true,
		Tags:   []string{"array"},
	}
	f.attachMeta(placeholder, node)
	f.claimDimension(parent, placeholder, placeholderName)
	parent.Fields = append(parent.Fields, placeholder)

	child := &ViewSpec{
		Name:            parent.Name + "__" + placeholder.Name,
		ParentViewName:  parent.Name,
		SourceFieldName: placeholder.Name,
		NestingPath:     append([]string{}, node.Segments...),
	}
	f.views = append(f.views, child)

	if node.IsGroup() {
		// ARRAY<STRUCT>: the view opens with a hidden field echoing its
		// own name, used to resolve the UNNEST target when the array is
		// anonymous at the SQL level.
		selfName := f.fieldName(node, len(node.Segments)-1)
		self := &FieldSpec{
			Kind:   FieldArrayPlaceholder,
			Path:   node.Path(),
			SQL:    quoteRef(node.Name()),
			Hidden: true,
			Tags:   []string{"array"},
		}
		f.claimDimension(child, self, selfName)
		child.Fields = append(child.Fields, self)

		// References inside the new view are relative to the array
		// element, not the table root.
		f.walk(node.Children, child, len(node.Segments), nil)
		return
	}

	// ARRAY<primitive>: the view holds a single visible dimension typed
	// per the element.
	elemKind := Classify(ArrayElementType(node.PhysicalType))
	elemType := elemKind.LookerType()
	if !elemKind.IsScalar() {
		elemType = "string"
	}
	field := &FieldSpec{
		Kind: FieldDimension,
		Path: node.Path(),
		Type: elemType,
		SQL:  quoteRef(node.Name()),
	}
	f.attachMeta(field, node)
	f.claimDimension(child, field, f.fieldName(node, len(node.Segments)-1))
	child.Fields = append(child.Fields, field)
}

// claimDimension assigns a collision-resolved name to a non-group field.
// A plain dimension colliding with a name owned by a dimension group is
// renamed with a _conflict suffix and hidden instead of suffixing _N:
// dimension groups always win the unsuffixed name.
func (f *flattener) claimDimension(view *ViewSpec, field *FieldSpec, base string) {
	ns := view.Names()
	if owner, taken := ns.Claimed(base); taken && owner != nil && owner.Kind == FieldDimensionGroup {
		field.Hidden = true
		field.Name = ns.Unique(base+"_conflict", field)
		return
	}
	field.Name = ns.Unique(base, field)
}

// claimDimensionGroup claims the group's base name plus every timeframe
// name it will generate. Plain dimensions already holding one of those
// names yield it and are renamed with _conflict, regardless of
// declaration order.
func (f *flattener) claimDimensionGroup(view *ViewSpec, field *FieldSpec, base string, timeframes []string) string {
	ns := view.Names()

	// Settle the group's own name first. A plain dimension holding it is
	// evicted; another group holding it forces an _N suffix.
	chosen := base
	for n := 2; ; n++ {
		owner, taken := ns.Claimed(chosen)
		if !taken {
			break
		}
		if owner != nil && owner.Kind != FieldDimensionGroup {
			f.evict(ns, chosen, owner)
			break
		}
		chosen = fmt.Sprintf("%s_%d", base, n)
	}
	ns.Claim(chosen, field)

	for _, tf := range timeframes {
		name := chosen + "_" + tf
		if owner, taken := ns.Claimed(name); taken {
			if owner == nil || owner.Kind == FieldDimensionGroup {
				continue
			}
			f.evict(ns, name, owner)
		}
		ns.Claim(name, field)
	}
	return chosen
}

// evict renames a plain dimension out of a name a dimension group needs,
// marking it hidden with a _conflict suffix.
func (f *flattener) evict(ns *Namespace, name string, owner *FieldSpec) {
	ns.Release(name)
	owner.Hidden = true
	owner.Name = ns.Unique(owner.Name+"_conflict", owner)
}

func (f *flattener) applyGroupLabels(field *FieldSpec, node *ColumnNode, groupLabels []string) {
	if len(groupLabels) == 0 {
		return
	}
	field.GroupLabel = strings.Join(groupLabels, " ")
	field.GroupItemLabel = humanize(node.Name())
}

func (f *flattener) attachMeta(field *FieldSpec, node *ColumnNode) {
	if node.Meta == nil {
		return
	}
	if node.Meta.Description != "" {
		field.Description = node.Meta.Description
	}
}

func allLeavesUnsupported(node *ColumnNode) bool {
	for _, c := range node.Children {
		if c.IsGroup() || c.ArrayRoot {
			if !allLeavesUnsupported(c) {
				return false
			}
			continue
		}
		if Classify(c.PhysicalType) != KindUnsupported {
			return false
		}
	}
	return true
}
