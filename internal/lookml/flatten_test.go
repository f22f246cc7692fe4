package lookml

import (
	"strings"
	"testing"
)

func flattenColumns(t *testing.T, columns []CatalogColumn, opts FlattenOptions) ([]*ViewSpec, []Warning) {
	t.Helper()
	if opts.ViewName == "" {
		opts.ViewName = "orders"
	}
	root := BuildTree(columns, nil)
	return Flatten(root, opts)
}

func findField(t *testing.T, view *ViewSpec, name string) *FieldSpec {
	t.Helper()
	for _, f := range view.Fields {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("view %s has no field %q; have %v", view.Name, name, fieldNames(view))
	return nil
}

func fieldNames(view *ViewSpec) []string {
	names := make([]string, 0, len(view.Fields))
	for _, f := range view.Fields {
		names = append(names, f.Name)
	}
	return names
}

func TestFlatten_RootViewOnly(t *testing.T) {
	views, warnings := flattenColumns(t, []CatalogColumn{
		{Path: "order_id", Type: "INT64", Index: 1},
		{Path: "status", Type: "STRING", Index: 2},
		{Path: "is_paid", Type: "BOOL", Index: 3},
	}, FlattenOptions{TableName: "`shop.sales.orders`", Label: "Orders"})

	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}

	root := views[0]
	if root.Name != "orders" || !root.IsRoot {
		t.Errorf("root view = %q isRoot=%v", root.Name, root.IsRoot)
	}
	if root.SQLTableName != "`shop.sales.orders`" {
		t.Errorf("sql_table_name = %q", root.SQLTableName)
	}

	id := findField(t, root, "order_id")
	if id.Type != "number" || id.SQL != "${TABLE}.order_id" {
		t.Errorf("order_id = type %q sql %q", id.Type, id.SQL)
	}
	paid := findField(t, root, "is_paid")
	if paid.Type != "yesno" {
		t.Errorf("is_paid type = %q", paid.Type)
	}
}

func TestFlatten_ArrayOfStructBecomesChildView(t *testing.T) {
	views, _ := flattenColumns(t, []CatalogColumn{
		{Path: "order_id", Type: "INT64", Index: 1},
		{Path: "items", Type: "ARRAY<STRUCT<sku STRING, quantity INT64>>", Index: 2},
		{Path: "items.sku", Type: "STRING", Index: 3},
		{Path: "items.quantity", Type: "INT64", Index: 4},
	}, FlattenOptions{})

	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}

	root, child := views[0], views[1]

	// The array stays visible in the root view as a hidden placeholder.
	placeholder := findField(t, root, "items")
	if placeholder.Kind != FieldArrayPlaceholder || !placeholder.Hidden {
		t.Errorf("items placeholder kind=%v hidden=%v", placeholder.Kind, placeholder.Hidden)
	}

	if child.Name != "orders__items" {
		t.Errorf("child view name = %q", child.Name)
	}
	if child.ParentViewName != "orders" || child.SourceFieldName != "items" {
		t.Errorf("child linkage = %q/%q", child.ParentViewName, child.SourceFieldName)
	}

	// The child view opens with a hidden self placeholder, then the
	// element fields with element-relative SQL.
	self := child.Fields[0]
	if self.Kind != FieldArrayPlaceholder || !self.Hidden || self.SQL != "items" {
		t.Errorf("self placeholder = %+v", self)
	}
	sku := findField(t, child, "sku")
	if sku.SQL != "sku" {
		t.Errorf("child field sql = %q, want bare element-relative path", sku.SQL)
	}
	qty := findField(t, child, "quantity")
	if qty.Type != "number" {
		t.Errorf("quantity type = %q", qty.Type)
	}
}

func TestFlatten_ArrayOfPrimitive(t *testing.T) {
	views, _ := flattenColumns(t, []CatalogColumn{
		{Path: "tags", Type: "ARRAY<STRING>", Index: 1},
	}, FlattenOptions{})

	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
	child := views[1]
	if child.Name != "orders__tags" {
		t.Errorf("child view name = %q", child.Name)
	}
	if len(child.Fields) != 1 {
		t.Fatalf("primitive array view should hold exactly one field, got %v", fieldNames(child))
	}
	f := child.Fields[0]
	if f.Name != "tags" || f.Type != "string" || f.SQL != "tags" || f.Hidden {
		t.Errorf("element field = %+v", f)
	}
}

func TestFlatten_InlineStructStaysInParentView(t *testing.T) {
	views, _ := flattenColumns(t, []CatalogColumn{
		{Path: "address", Type: "STRUCT<city STRING, zip STRING>", Index: 1},
		{Path: "address.city", Type: "STRING", Index: 2},
		{Path: "address.zip", Type: "STRING", Index: 3},
	}, FlattenOptions{})

	if len(views) != 1 {
		t.Fatalf("plain structs must not create views, got %d", len(views))
	}

	city := findField(t, views[0], "address__city")
	if city.SQL != "${TABLE}.address.city" {
		t.Errorf("city sql = %q", city.SQL)
	}
	if city.GroupLabel != "Address" || city.GroupItemLabel != "City" {
		t.Errorf("city labels = %q / %q", city.GroupLabel, city.GroupItemLabel)
	}
}

func TestFlatten_NestedStructGroupLabelsAccumulate(t *testing.T) {
	views, _ := flattenColumns(t, []CatalogColumn{
		{Path: "shipping", Type: "STRUCT<address STRUCT<city STRING>>", Index: 1},
		{Path: "shipping.address", Type: "STRUCT<city STRING>", Index: 2},
		{Path: "shipping.address.city", Type: "STRING", Index: 3},
	}, FlattenOptions{})

	city := findField(t, views[0], "shipping__address__city")
	if city.GroupLabel != "Shipping Address" {
		t.Errorf("group label = %q", city.GroupLabel)
	}
}

func TestFlatten_GroupLabelStutterDedup(t *testing.T) {
	// classification.classification.assortment must not produce a
	// "Classification Classification" group label.
	views, _ := flattenColumns(t, []CatalogColumn{
		{Path: "classification", Type: "STRUCT<classification STRUCT<assortment STRING>>", Index: 1},
		{Path: "classification.classification", Type: "STRUCT<assortment STRING>", Index: 2},
		{Path: "classification.classification.assortment", Type: "STRING", Index: 3},
	}, FlattenOptions{})

	f := findField(t, views[0], "classification__classification__assortment")
	if f.GroupLabel != "Classification" {
		t.Errorf("group label = %q", f.GroupLabel)
	}
}

func TestFlatten_DateColumnBecomesDimensionGroup(t *testing.T) {
	views, _ := flattenColumns(t, []CatalogColumn{
		{Path: "created_date", Type: "DATE", Index: 1},
		{Path: "updated_at", Type: "TIMESTAMP", Index: 2},
	}, FlattenOptions{})

	root := views[0]

	// The trailing _date suffix is folded into the group name so the
	// generated created_date timeframe reads naturally.
	created := findField(t, root, "created")
	if created.Kind != FieldDimensionGroup || created.Type != "date" {
		t.Fatalf("created = kind %v type %q", created.Kind, created.Type)
	}
	if created.Datatype != "date" || created.ConvertTZ != "no" {
		t.Errorf("created datatype=%q convert_tz=%q", created.Datatype, created.ConvertTZ)
	}
	if len(created.Timeframes) != len(DefaultDateTimeframes) {
		t.Errorf("created timeframes = %v", created.Timeframes)
	}
	if created.Label != "Created" {
		t.Errorf("created label = %q", created.Label)
	}

	updated := findField(t, root, "updated_at")
	if updated.Type != "time" || updated.Datatype != "timestamp" || updated.ConvertTZ != "yes" {
		t.Errorf("updated_at = %+v", updated)
	}
	if len(updated.Timeframes) != len(DefaultTimeTimeframes) {
		t.Errorf("updated_at timeframes = %v", updated.Timeframes)
	}
}

func TestFlatten_DimensionGroupWinsNameConflict(t *testing.T) {
	orders := [][]CatalogColumn{
		{
			{Path: "created_date", Type: "DATE", Index: 1},
			{Path: "created", Type: "STRING", Index: 2},
		},
		{
			// Same columns, reversed declaration order: the outcome
			// must not depend on which side is seen first.
			{Path: "created", Type: "STRING", Index: 1},
			{Path: "created_date", Type: "DATE", Index: 2},
		},
	}

	for _, columns := range orders {
		views, _ := flattenColumns(t, columns, FlattenOptions{})
		root := views[0]

		group := findField(t, root, "created")
		if group.Kind != FieldDimensionGroup {
			t.Errorf("unsuffixed name must belong to the dimension group, got kind %v", group.Kind)
		}
		conflict := findField(t, root, "created_conflict")
		if conflict.Kind != FieldDimension || !conflict.Hidden {
			t.Errorf("conflicting dimension = kind %v hidden %v", conflict.Kind, conflict.Hidden)
		}
	}
}

func TestFlatten_TimeframeNameConflict(t *testing.T) {
	// A plain column landing on a generated timeframe name (created_week)
	// also yields to the group.
	views, _ := flattenColumns(t, []CatalogColumn{
		{Path: "created_week", Type: "STRING", Index: 1},
		{Path: "created_date", Type: "DATE", Index: 2},
	}, FlattenOptions{})

	conflict := findField(t, views[0], "created_week_conflict")
	if !conflict.Hidden {
		t.Error("evicted dimension should be hidden")
	}
}

func TestFlatten_NestedArraysChainViewNames(t *testing.T) {
	views, _ := flattenColumns(t, []CatalogColumn{
		{Path: "lines", Type: "ARRAY<STRUCT<discounts ARRAY<STRUCT<code STRING>>, amount INT64>>", Index: 1},
		{Path: "lines.discounts", Type: "ARRAY<STRUCT<code STRING>>", Index: 2},
		{Path: "lines.discounts.code", Type: "STRING", Index: 3},
		{Path: "lines.amount", Type: "INT64", Index: 4},
	}, FlattenOptions{ViewName: "invoices"})

	if len(views) != 3 {
		t.Fatalf("expected 3 views, got %d", len(views))
	}

	names := []string{views[0].Name, views[1].Name, views[2].Name}
	want := []string{"invoices", "invoices__lines", "invoices__lines__discounts"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("view %d = %q, want %q (ancestors precede descendants)", i, names[i], want[i])
		}
	}

	inner := views[2]
	if inner.ParentViewName != "invoices__lines" || inner.SourceFieldName != "discounts" {
		t.Errorf("inner linkage = %q/%q", inner.ParentViewName, inner.SourceFieldName)
	}
	code := findField(t, inner, "code")
	if code.SQL != "code" {
		t.Errorf("code sql = %q", code.SQL)
	}
}

func TestFlatten_UnsupportedTypeBecomesHiddenPlaceholder(t *testing.T) {
	views, warnings := flattenColumns(t, []CatalogColumn{
		{Path: "payload", Type: "JSON", Index: 1},
		{Path: "id", Type: "INT64", Index: 2},
	}, FlattenOptions{})

	f := findField(t, views[0], "payload")
	if !f.Hidden || f.Type != "" {
		t.Errorf("unsupported column = hidden %v type %q", f.Hidden, f.Type)
	}

	if len(warnings) != 1 || warnings[0].Kind != WarnUnsupportedType {
		t.Fatalf("warnings = %v", warnings)
	}
	if !strings.Contains(warnings[0].Message, "JSON") {
		t.Errorf("warning should name the type: %s", warnings[0].Message)
	}

	// The mappable column still generates.
	findField(t, views[0], "id")
}

func TestFlatten_FieldNamesUniquePerView(t *testing.T) {
	views, _ := flattenColumns(t, []CatalogColumn{
		{Path: "User Name", Type: "STRING", Index: 1},
		{Path: "user_name", Type: "STRING", Index: 2},
		{Path: "user__name", Type: "STRING", Index: 3},
	}, FlattenOptions{})

	seen := map[string]bool{}
	for _, f := range views[0].Fields {
		if seen[f.Name] {
			t.Errorf("duplicate field name %q", f.Name)
		}
		seen[f.Name] = true
	}
	if len(views[0].Fields) != 3 {
		t.Errorf("all columns must survive, got %v", fieldNames(views[0]))
	}
}

func TestFlatten_CustomTimeframes(t *testing.T) {
	views, _ := flattenColumns(t, []CatalogColumn{
		{Path: "created_date", Type: "DATE", Index: 1},
	}, FlattenOptions{DateTimeframes: []string{"raw", "year"}})

	created := findField(t, views[0], "created")
	if len(created.Timeframes) != 2 || created.Timeframes[1] != "year" {
		t.Errorf("timeframes = %v", created.Timeframes)
	}
}

func TestFlatten_InvalidViewNameFallsBack(t *testing.T) {
	root := BuildTree([]CatalogColumn{{Path: "id", Type: "INT64", Index: 1}}, nil)
	views, warnings := Flatten(root, FlattenOptions{ViewName: "!!!"})

	if views[0].Name != "unnamed_view" {
		t.Errorf("fallback view name = %q", views[0].Name)
	}
	if len(warnings) != 1 || warnings[0].Kind != WarnNaming {
		t.Errorf("warnings = %v", warnings)
	}
}
