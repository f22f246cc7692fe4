package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/lookgen/internal/cli/config"
)

// initConfig is the scaffold written by `lookgen init`, with the most
// commonly tuned options spelled out.
type initConfig struct {
	TargetDir          string `yaml:"target_dir"`
	OutputDir          string `yaml:"output_dir"`
	Tag                string `yaml:"tag,omitempty"`
	UseTableName       bool   `yaml:"use_table_name"`
	SkipExploreJoins   bool   `yaml:"skip_explore_joins"`
	ISOFields          bool   `yaml:"iso_fields"`
	RemoveSchemaString string `yaml:"remove_schema_string,omitempty"`
	Strict             bool   `yaml:"strict"`
	Jobs               int    `yaml:"jobs"`
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter lookgen.yaml",
		Long: `Write a lookgen.yaml configuration file with default values into the
given directory (current directory when omitted).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")
	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	path := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileName)
	}

	data, err := yaml.Marshal(initConfig{
		TargetDir: config.DefaultTargetDir,
		OutputDir: config.DefaultOutputDir,
	})
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}
