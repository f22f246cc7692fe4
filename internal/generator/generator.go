// Package generator runs the per-model LookML pipeline over the selected
// manifest models: column tree, flattening, metadata assembly,
// serialization, file writes.
//
// Models are independent, so the run fans out over a bounded worker pool
// with a shared append-only report as the only cross-task state.
package generator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/lookgen/internal/dbt"
	"github.com/leapstack-labs/lookgen/internal/lkml"
	"github.com/leapstack-labs/lookgen/internal/lookml"
)

// Options configures a run.
type Options struct {
	OutputDir string

	// UseTableName names views and files after the physical table
	// instead of the model.
	UseTableName bool

	SkipExploreJoins bool
	GenerateLocale   bool
	ISOFields        bool

	// RemoveSchemaString is stripped from the schema when building the
	// per-model output directory.
	RemoveSchemaString string

	// Strict aborts the whole run on the first model failure instead of
	// recording it and continuing.
	Strict bool

	// Jobs bounds the worker pool; 0 means one worker per CPU.
	Jobs int

	DateTimeframes []string
	TimeTimeframes []string

	Logger *slog.Logger
}

// Generator drives the pipeline.
type Generator struct {
	opts Options
	log  *slog.Logger
}

// New returns a Generator for the given options.
func New(opts Options) *Generator {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator{opts: opts, log: log}
}

func (g *Generator) jobs() int {
	if g.opts.Jobs > 0 {
		return g.opts.Jobs
	}
	return runtime.NumCPU()
}

// Run processes the selected models and returns the run report. With
// strict mode off, per-model failures are recorded in the report and the
// returned error is nil; callers decide how to surface partial success.
func (g *Generator) Run(ctx context.Context, catalog *dbt.Catalog, models []*dbt.ManifestNode) (*Report, error) {
	report := newReport()
	var locales *localeIndex
	if g.opts.GenerateLocale {
		locales = newLocaleIndex()
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.jobs())

	for _, node := range models {
		node := node
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := g.processModel(node, catalog, locales)
			report.add(res)
			if res.Err != nil {
				g.log.Error("model failed", "model", node.Name, "error", res.Err)
				if g.opts.Strict {
					return res.Err
				}
			}
			return nil
		})
	}
	err := eg.Wait()
	report.Finished = time.Now()
	if err != nil {
		return report, err
	}

	if locales != nil {
		path, err := locales.write(g.opts.OutputDir)
		if err != nil {
			return report, err
		}
		g.log.Info("wrote locale file", "path", path)
	}
	return report, nil
}

func (g *Generator) processModel(node *dbt.ManifestNode, catalog *dbt.Catalog, locales *localeIndex) *ModelResult {
	res := &ModelResult{Model: node.Name, UniqueID: node.UniqueID}

	fail := func(err error) *ModelResult {
		res.Status = StatusFailed
		res.Err = &ModelError{Model: node.Name, Err: err}
		return res
	}

	catNode, ok := catalog.Nodes[node.UniqueID]
	if !ok {
		return fail(fmt.Errorf("not found in catalog"))
	}

	meta, err := g.columnMeta(node)
	if err != nil {
		return fail(err)
	}
	modelMeta, err := dbt.DecodeModelMeta(node)
	if err != nil {
		return fail(err)
	}

	viewName := g.viewName(node)
	tree := lookml.BuildTree(catNode.ColumnsInOrder(), meta)
	views, warnings := lookml.Flatten(tree, lookml.FlattenOptions{
		ViewName:       viewName,
		TableName:      node.RelationName,
		Label:          g.viewLabel(node, modelMeta),
		DateTimeframes: g.opts.DateTimeframes,
		TimeTimeframes: g.opts.TimeTimeframes,
	})

	explore, assembleWarnings := lookml.Assemble(views, meta, modelMeta, lookml.AssembleOptions{
		ISOFields:   g.opts.ISOFields,
		SkipExplore: g.opts.SkipExploreJoins,
	})
	warnings = append(warnings, assembleWarnings...)

	if locales != nil {
		locales.add(g.modelKey(node), harvestLabels(views))
		localizeLabels(views[0], g.modelKey(node))
	}

	body := lkml.Render(views, explore)
	path, err := g.writeModelFile(node, views[0].Name, body)
	if err != nil {
		return fail(err)
	}

	res.File = path
	res.Views = len(views)
	res.Warnings = warnings
	res.Status = StatusSuccess
	if len(warnings) > 0 {
		res.Status = StatusWarned
		for _, w := range warnings {
			g.log.Warn("generation warning", "model", node.Name, "warning", w.String())
		}
	}
	g.log.Debug("generated", "model", node.Name, "path", path, "views", len(views))
	return res
}

// columnMeta decodes every documented column's meta block, keyed by
// lowercased column path for the case-insensitive catalog match.
func (g *Generator) columnMeta(node *dbt.ManifestNode) (map[string]*lookml.ColumnMeta, error) {
	meta := make(map[string]*lookml.ColumnMeta, len(node.Columns))
	for _, col := range node.Columns {
		cm, err := dbt.DecodeColumnMeta(col)
		if err != nil {
			return nil, err
		}
		meta[strings.ToLower(col.Name)] = cm
	}
	return meta, nil
}

// viewName picks the root view name: the physical table when configured,
// otherwise the model name with the version suffix folded in.
func (g *Generator) viewName(node *dbt.ManifestNode) string {
	if g.opts.UseTableName {
		return strings.ToLower(tableName(node))
	}
	return uniqueModelName(node)
}

func (g *Generator) modelKey(node *dbt.ManifestNode) string {
	if g.opts.UseTableName {
		return tableName(node)
	}
	return node.Name
}

// tableName extracts the bare table from relation_name, which arrives as
// a quoted `project.dataset.table` reference.
func tableName(node *dbt.ManifestNode) string {
	parts := strings.Split(node.RelationName, ".")
	return strings.Trim(parts[len(parts)-1], "`")
}

// uniqueModelName folds a trailing version segment of the unique id into
// the name so versioned models do not collide (model.pkg.orders.v2 ->
// orders_v2).
func uniqueModelName(node *dbt.ManifestNode) string {
	parts := strings.Split(node.UniqueID, ".")
	if len(parts) > 3 {
		version := parts[len(parts)-1]
		if strings.HasPrefix(version, "v") {
			return strings.ToLower(parts[len(parts)-2] + "_" + version)
		}
	}
	return strings.ToLower(node.Name)
}

var titleCaser = cases.Title(language.English)

func (g *Generator) viewLabel(node *dbt.ManifestNode, modelMeta *lookml.ModelMeta) string {
	if modelMeta != nil && modelMeta.Label != "" {
		return modelMeta.Label
	}
	return titleCaser.String(strings.ReplaceAll(node.Name, "_", " "))
}

// harvestLabels maps every visible field name to its display label for
// the locale dictionary.
func harvestLabels(views []*lookml.ViewSpec) map[string]string {
	labels := map[string]string{}
	for _, v := range views {
		for _, f := range v.Fields {
			if f.Kind == lookml.FieldArrayPlaceholder || f.Kind == lookml.FieldStructPlaceholder {
				continue
			}
			label := f.Label
			if label == "" {
				label = titleCaser.String(strings.ReplaceAll(f.Name, "_", " "))
			}
			labels[f.Name] = label
		}
	}
	return labels
}

// localizeLabels rewrites the root view's labels into locale references
// resolved against the strings file.
func localizeLabels(root *lookml.ViewSpec, modelKey string) {
	for _, f := range root.Fields {
		if f.Label == "" {
			continue
		}
		f.Label = fmt.Sprintf("models.%s.%s", modelKey, f.Name)
	}
}

// writeModelFile writes the rendered LookML under the schema-derived
// output directory.
func (g *Generator) writeModelFile(node *dbt.ManifestNode, viewName, body string) (string, error) {
	schema := node.Schema
	if g.opts.RemoveSchemaString != "" {
		schema = strings.ReplaceAll(schema, g.opts.RemoveSchemaString, "")
	}
	dir := filepath.Join(g.opts.OutputDir, schema)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, viewName+".view.lkml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
