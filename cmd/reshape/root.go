// Root command for the reshape CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/reshape/internal/paths"
	"github.com/mesh-intelligence/reshape/pkg/reshape"
)

// Global flag values.
var (
	flagConfigDir string
	flagDB        string
	flagSchema    string
	flagPrefix    string
	flagCreate    bool
)

// Values loaded from config.yaml by PersistentPreRunE so all
// subcommands can use them.
var (
	configDB     string
	configSchema string
	configPrefix string
)

var rootCmd = &cobra.Command{
	Use:          "reshape",
	Short:        "Reshape migrates a SQLite schema toward a declarative definition",
	Version:      reshape.Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := paths.ResolveConfigDir(flagConfigDir)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configDB = cfg.GetString(cfgKeyDB)
		configSchema = cfg.GetString(cfgKeySchema)
		configPrefix = cfg.GetString(cfgKeyPrefix)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database file (default: $(CWD)/reshape.db)")
	rootCmd.PersistentFlags().StringVar(&flagSchema, "schema", "", "schema definition file (default: $(CWD)/schema.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagPrefix, "prefix", "", "restrict planning to tables carrying this name prefix")
	rootCmd.PersistentFlags().BoolVar(&flagCreate, "create", false, "creation mode: require an empty database and skip reference re-adds")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(applyCmd)
}

// resolveDB returns the database file path following the precedence:
// --db flag > config.yaml db > RESHAPE_DB env > default.
func resolveDB() (string, error) {
	return paths.ResolveDB(flagDB, configDB)
}

// resolveSchema returns the schema definition file path following the
// precedence: --schema flag > config.yaml schema > $(CWD)/schema.yaml.
func resolveSchema() string {
	if flagSchema != "" {
		return flagSchema
	}
	if configSchema != "" {
		return configSchema
	}
	return defaultSchemaFile
}

// resolvePrefix returns the table-name prefix, flag over config.
func resolvePrefix() string {
	if flagPrefix != "" {
		return flagPrefix
	}
	return configPrefix
}
