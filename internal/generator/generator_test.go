package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/lookgen/internal/dbt"
	"github.com/leapstack-labs/lookgen/internal/testutil"
)

func testNode() *dbt.ManifestNode {
	return &dbt.ManifestNode{
		UniqueID:     "model.shop.orders",
		Name:         "orders",
		ResourceType: "model",
		Schema:       "sales_staging",
		RelationName: "`shop.sales_staging.orders`",
		Columns: map[string]*dbt.ManifestColumn{
			"order_id": {Name: "order_id", Description: "surrogate key"},
			"amount": {Name: "amount", Meta: map[string]any{
				"looker": map[string]any{
					"measures": []any{map[string]any{"type": "sum"}},
				},
			}},
		},
	}
}

func testCatalog() *dbt.Catalog {
	return &dbt.Catalog{
		Nodes: map[string]*dbt.CatalogNode{
			"model.shop.orders": {
				Metadata: dbt.CatalogMetadata{Schema: "sales_staging", Name: "orders"},
				Columns: map[string]*dbt.CatalogColumn{
					"order_id":     {Name: "order_id", Type: "INT64", Index: 1},
					"amount":       {Name: "amount", Type: "INT64", Index: 2},
					"created_date": {Name: "created_date", Type: "DATE", Index: 3},
					"items":        {Name: "items", Type: "ARRAY<STRUCT<sku STRING>>", Index: 4},
					"items.sku":    {Name: "items.sku", Type: "STRING", Index: 5},
				},
			},
		},
	}
}

func TestRun_GeneratesViewFile(t *testing.T) {
	out := t.TempDir()
	gen := New(Options{
		OutputDir: out,
		Jobs:      2,
		Logger:    testutil.NewTestLogger(t),
	})

	report, err := gen.Run(context.Background(), testCatalog(), []*dbt.ManifestNode{testNode()})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Count(StatusSuccess))
	assert.Equal(t, 0, report.Count(StatusFailed))
	assert.NotEmpty(t, report.RunID)

	path := filepath.Join(out, "sales_staging", "orders.view.lkml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "view: orders {")
	assert.Contains(t, content, "sql_table_name: `shop.sales_staging.orders` ;;")
	assert.Contains(t, content, "dimension: order_id {")
	assert.Contains(t, content, `description: "surrogate key"`)
	assert.Contains(t, content, "dimension_group: created {")
	assert.Contains(t, content, "measure: m_sum_amount {")
	assert.Contains(t, content, "view: orders__items {")
	assert.Contains(t, content, "explore: orders {")
	assert.Contains(t, content, "LEFT JOIN UNNEST(${orders.items}) AS orders__items ;;")
}

func TestRun_RemoveSchemaString(t *testing.T) {
	out := t.TempDir()
	gen := New(Options{
		OutputDir:          out,
		RemoveSchemaString: "_staging",
		Logger:             testutil.NewTestLogger(t),
	})

	_, err := gen.Run(context.Background(), testCatalog(), []*dbt.ManifestNode{testNode()})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(out, "sales", "orders.view.lkml"))
}

func TestRun_UseTableName(t *testing.T) {
	out := t.TempDir()
	node := testNode()
	node.RelationName = "`shop.sales_staging.ORDERS_V1`"
	gen := New(Options{
		OutputDir:    out,
		UseTableName: true,
		Logger:       testutil.NewTestLogger(t),
	})

	_, err := gen.Run(context.Background(), testCatalog(), []*dbt.ManifestNode{node})
	require.NoError(t, err)

	path := filepath.Join(out, "sales_staging", "orders_v1.view.lkml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "view: orders_v1 {")
}

func TestRun_SkipExploreJoins(t *testing.T) {
	out := t.TempDir()
	gen := New(Options{
		OutputDir:        out,
		SkipExploreJoins: true,
		Logger:           testutil.NewTestLogger(t),
	})

	_, err := gen.Run(context.Background(), testCatalog(), []*dbt.ManifestNode{testNode()})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "sales_staging", "orders.view.lkml"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "explore:")
	// Nested views are still written.
	assert.Contains(t, string(data), "view: orders__items {")
}

func TestRun_MissingCatalogEntryContinues(t *testing.T) {
	out := t.TempDir()
	missing := &dbt.ManifestNode{
		UniqueID:     "model.shop.ghost",
		Name:         "ghost",
		ResourceType: "model",
		Schema:       "sales",
		RelationName: "`shop.sales.ghost`",
	}
	gen := New(Options{OutputDir: out, Logger: testutil.NewTestLogger(t)})

	report, err := gen.Run(context.Background(), testCatalog(), []*dbt.ManifestNode{testNode(), missing})
	require.NoError(t, err, "continue-on-error records the failure instead of aborting")

	assert.Equal(t, 1, report.Count(StatusSuccess))
	assert.Equal(t, 1, report.Count(StatusFailed))

	results := report.Results()
	require.Len(t, results, 2)
	var modelErr *ModelError
	assert.ErrorAs(t, results[0].Err, &modelErr)
	assert.Equal(t, "ghost", modelErr.Model)
}

func TestRun_StrictAborts(t *testing.T) {
	missing := &dbt.ManifestNode{
		UniqueID:     "model.shop.ghost",
		Name:         "ghost",
		ResourceType: "model",
	}
	gen := New(Options{
		OutputDir: t.TempDir(),
		Strict:    true,
		Jobs:      1,
		Logger:    testutil.NewTestLogger(t),
	})

	_, err := gen.Run(context.Background(), testCatalog(), []*dbt.ManifestNode{missing})
	require.Error(t, err)
	var modelErr *ModelError
	assert.ErrorAs(t, err, &modelErr)
}

func TestRun_GenerateLocale(t *testing.T) {
	out := t.TempDir()
	gen := New(Options{
		OutputDir:      out,
		GenerateLocale: true,
		Logger:         testutil.NewTestLogger(t),
	})

	_, err := gen.Run(context.Background(), testCatalog(), []*dbt.ManifestNode{testNode()})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "en.strings.json"))
	require.NoError(t, err)

	var payload struct {
		Models map[string]map[string]string `json:"models"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))

	labels := payload.Models["orders"]
	require.NotNil(t, labels)
	assert.Equal(t, "Order Id", labels["order_id"])
	assert.Equal(t, "Created", labels["created"])

	// Labelled root fields reference the locale dictionary.
	viewData, err := os.ReadFile(filepath.Join(out, "sales_staging", "orders.view.lkml"))
	require.NoError(t, err)
	assert.Contains(t, string(viewData), `label: "models.orders.created"`)
}

func TestUniqueModelName(t *testing.T) {
	assert.Equal(t, "orders", uniqueModelName(&dbt.ManifestNode{
		UniqueID: "model.shop.orders", Name: "orders",
	}))
	assert.Equal(t, "orders_v2", uniqueModelName(&dbt.ManifestNode{
		UniqueID: "model.shop.orders.v2", Name: "orders",
	}))
	assert.Equal(t, "orders", uniqueModelName(&dbt.ManifestNode{
		UniqueID: "model.shop.orders.1", Name: "orders",
	}))
}

func TestReportWriteSummary(t *testing.T) {
	report := newReport()
	report.add(&ModelResult{Model: "orders", Status: StatusSuccess, Views: 2, File: "x/orders.view.lkml"})
	report.add(&ModelResult{Model: "ghost", Status: StatusFailed, Err: &ModelError{Model: "ghost", Err: os.ErrNotExist}})
	report.Finished = report.Started

	var buf bytes.Buffer
	report.WriteSummary(&buf)

	out := buf.String()
	assert.Contains(t, out, "orders")
	assert.Contains(t, out, "ghost")
	assert.Contains(t, out, "1 succeeded, 0 warned, 1 failed")
}
