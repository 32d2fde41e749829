// Package config loads allocator.Configuration from flags, ALLOCATE_* environment
// variables and an optional YAML file, in that order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rhyrak/go-allocate/internal/allocator"
)

const envPrefix = "ALLOCATE"

// Flag names, also used as config file keys.
const (
	FlagInput         = "input"
	FlagExport        = "export"
	FlagTemplate      = "template"
	FlagDelimiter     = "delimiter"
	FlagMaxRank       = "max-rank"
	FlagDeriveMaxRank = "derive-max-rank"
	FlagAddress       = "address"
	FlagDatabase      = "database"
	FlagVerbose       = "verbose"
	FlagJSONLogs      = "json-logs"
)

// AddFlags registers every configuration flag on fs with the defaults of
// allocator.NewDefaultConfiguration.
func AddFlags(fs *pflag.FlagSet) {
	def := allocator.NewDefaultConfiguration()
	fs.StringP(FlagInput, "i", def.InputPath, "input workbook (.xlsx) or directory with Students.csv, Departments.csv, Courses.csv")
	fs.StringP(FlagExport, "o", def.ExportFile, "allocation output file (.csv or .xlsx)")
	fs.String(FlagTemplate, def.TemplateFile, "template output path (.xlsx or directory)")
	fs.String(FlagDelimiter, def.Delimiter, "CSV field delimiter")
	fs.Int(FlagMaxRank, def.MaxPreferenceRank, "highest preference rank considered")
	fs.Bool(FlagDeriveMaxRank, def.DeriveMaxRank, "consider every preference column present instead of --max-rank")
	fs.String(FlagAddress, def.ServerAddress, "HTTP listen address")
	fs.String(FlagDatabase, def.DatabasePath, "SQLite database for stored runs")
	fs.BoolP(FlagVerbose, "v", def.Verbose, "enable debug logging")
	fs.Bool(FlagJSONLogs, def.JSONLogs, "log as JSON lines")
}

// Load resolves the configuration. configFile may be empty.
func Load(fs *pflag.FlagSet, configFile string) (*allocator.Configuration, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	}

	cfg := allocator.NewDefaultConfiguration()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
