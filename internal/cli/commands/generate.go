// Package commands implements the lookgen subcommands.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/lookgen/internal/cli/config"
	"github.com/leapstack-labs/lookgen/internal/dbt"
	"github.com/leapstack-labs/lookgen/internal/generator"
)

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate LookML views from dbt models",
		Long: `Read manifest.json and catalog.json from the dbt target directory and
write one .view.lkml file per selected model, with nested views for
ARRAY columns and an explore joining them.`,
		Example: `  # Generate views for every model tagged "analytics"
  lookgen generate --tag analytics

  # Generate a single model, named after its physical table
  lookgen generate --select orders --use-table-name

  # Only models referenced by exposures, failing fast on any error
  lookgen generate --exposures-only --strict`,
		RunE: runGenerate,
	}

	// Model selection
	cmd.Flags().String("tag", "", "Only generate models carrying this dbt tag")
	cmd.Flags().StringSliceP("select", "s", nil, "Only generate the named models")
	cmd.Flags().StringSlice("include-models", nil, "Allow-list of model names")
	cmd.Flags().StringSlice("exclude-models", nil, "Deny-list of model names")
	cmd.Flags().Bool("exposures-only", false, "Only generate models referenced by exposures")
	cmd.Flags().String("exposures-tag", "", "Restrict --exposures-only to exposures carrying this tag")

	// Output shaping
	cmd.Flags().Bool("use-table-name", false, "Name views and files after the physical table instead of the model")
	cmd.Flags().Bool("skip-explore-joins", false, "Skip generating the explore join block for nested views")
	cmd.Flags().Bool("generate-locale", false, "Generate a locale strings file and reference it from labels")
	cmd.Flags().Bool("iso-fields", false, "Add ISO year and week-of-year dimensions next to date dimension groups")
	cmd.Flags().String("remove-schema-string", "", "String removed from the schema when building output folder names")

	// Run control
	cmd.Flags().Bool("strict", false, "Abort the run on the first model failure")
	cmd.Flags().Int("jobs", 0, "Number of parallel model workers (0 = one per CPU)")

	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.GetConfig(ctx)
	log := config.GetLogger(ctx)

	manifest, err := dbt.LoadManifest(cfg.TargetDir)
	if err != nil {
		return err
	}
	catalog, err := dbt.LoadCatalog(cfg.TargetDir)
	if err != nil {
		return err
	}

	models := manifest.SelectModels(dbt.FilterOptions{
		Tag:           cfg.Tag,
		Select:        cfg.Select,
		Include:       cfg.IncludeModels,
		Exclude:       cfg.ExcludeModels,
		ExposuresOnly: cfg.ExposuresOnly,
		ExposuresTag:  cfg.ExposuresTag,
	})
	if len(models) == 0 {
		return fmt.Errorf("no models matched the selection")
	}
	log.Info("generating lookml", "models", len(models), "output", cfg.OutputDir)

	gen := generator.New(generator.Options{
		OutputDir:          cfg.OutputDir,
		UseTableName:       cfg.UseTableName,
		SkipExploreJoins:   cfg.SkipExploreJoins,
		GenerateLocale:     cfg.GenerateLocale,
		ISOFields:          cfg.ISOFields,
		RemoveSchemaString: cfg.RemoveSchemaString,
		Strict:             cfg.Strict,
		Jobs:               cfg.Jobs,
		DateTimeframes:     cfg.DateTimeframes,
		TimeTimeframes:     cfg.TimeTimeframes,
		Logger:             log,
	})

	report, err := gen.Run(ctx, catalog, models)
	report.WriteSummary(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if failed := report.Count(generator.StatusFailed); failed > 0 {
		return fmt.Errorf("%d of %d models failed", failed, len(models))
	}
	return nil
}
