// Package config provides configuration loading and validation for sizeimpact.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/collect"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/report"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/sizefmt"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/track"
)

// Sentinel validation errors.
var (
	ErrInvalidLogLevel       = errors.New("invalid log level")
	ErrInvalidWorkers        = errors.New("snapshot workers must not be negative")
	ErrInvalidSnapshotFile   = errors.New("snapshot file must not be empty")
	ErrNoGroups              = errors.New("at least one group is required")
	ErrInvalidGroup          = errors.New("invalid group")
	ErrNoTransformations     = errors.New("at least one transformation is required")
	ErrInvalidReportFormat   = errors.New("invalid report format")
	ErrInvalidMaxIncrease    = errors.New("invalid report max increase")
	ErrInvalidTrackingConfig = errors.New("invalid tracking config")
)

// Config file lookup.
const (
	configName = ".sizeimpact"
	configType = "yaml"
	envPrefix  = "SIZEIMPACT"
)

// Report formats.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatPlot     = "plot"
)

// ReportFormats lists the accepted report.format values.
var ReportFormats = []string{FormatHTML, FormatMarkdown, FormatText, FormatPlot}

var logLevels = []string{"debug", "info", "warn", "error"}

// Config holds all configuration for sizeimpact.
type Config struct {
	Logging         LoggingConfig           `mapstructure:"logging"`
	Snapshot        SnapshotConfig          `mapstructure:"snapshot"`
	Groups          []GroupConfig           `mapstructure:"groups"`
	Transformations []report.Transformation `mapstructure:"transformations"`
	Report          ReportConfig            `mapstructure:"report"`
	GitHub          GitHubConfig            `mapstructure:"github"`
	Storage         StorageConfig           `mapstructure:"storage"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// SnapshotConfig controls snapshot collection.
type SnapshotConfig struct {
	// File is the default snapshot location, a path or an s3:// URL.
	File    string `mapstructure:"file"`
	Workers int    `mapstructure:"workers"`
}

// GroupConfig describes one build output directory.
type GroupConfig struct {
	Name      string       `mapstructure:"name"`
	Directory string       `mapstructure:"directory"`
	Manifest  string       `mapstructure:"manifest"`
	Track     track.Config `mapstructure:"track"`
}

// ReportConfig holds report rendering options.
type ReportConfig struct {
	Format      string `mapstructure:"format"`
	MaxIncrease string `mapstructure:"max_increase"`
	GeneratedBy bool   `mapstructure:"generated_by"`
}

// GitHubConfig holds pull request publishing options.
type GitHubConfig struct {
	APIURL string `mapstructure:"api_url"`
	Token  string `mapstructure:"token"`
}

// StorageConfig holds S3 settings for s3:// snapshot locations.
type StorageConfig struct {
	S3Region    string `mapstructure:"s3_region"`
	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3PathStyle bool   `mapstructure:"s3_path_style"`
}

// LoadConfig loads configuration from file, environment variables and
// defaults. If configPath is empty, .sizeimpact.yaml is searched in the
// working directory and ./config. A missing config file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType(configType)
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", DefaultLogJSON)

	viperCfg.SetDefault("snapshot.file", DefaultSnapshotFile)
	viperCfg.SetDefault("snapshot.workers", DefaultSnapshotWorkers)

	viperCfg.SetDefault("groups", defaultGroups())
	viperCfg.SetDefault("transformations", defaultTransformations())

	viperCfg.SetDefault("report.format", DefaultReportFormat)
	viperCfg.SetDefault("report.max_increase", "")
	viperCfg.SetDefault("report.generated_by", DefaultReportGeneratedBy)

	viperCfg.SetDefault("github.api_url", DefaultGitHubAPIURL)
	viperCfg.SetDefault("github.token", "")

	viperCfg.SetDefault("storage.s3_region", "")
	viperCfg.SetDefault("storage.s3_endpoint", "")
	viperCfg.SetDefault("storage.s3_path_style", false)
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if !slices.Contains(logLevels, strings.ToLower(config.Logging.Level)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	if strings.TrimSpace(config.Snapshot.File) == "" {
		return ErrInvalidSnapshotFile
	}

	if config.Snapshot.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, config.Snapshot.Workers)
	}

	groupsErr := validateGroups(config.Groups)
	if groupsErr != nil {
		return groupsErr
	}

	if len(config.Transformations) == 0 {
		return ErrNoTransformations
	}

	transformationsErr := collect.ValidateTransformations(config.TransformationNames())
	if transformationsErr != nil {
		return transformationsErr
	}

	if !slices.Contains(ReportFormats, config.Report.Format) {
		return fmt.Errorf("%w: %q (expected one of %s)",
			ErrInvalidReportFormat, config.Report.Format, strings.Join(ReportFormats, ", "))
	}

	_, _, maxErr := config.Report.Budget()
	if maxErr != nil {
		return maxErr
	}

	return nil
}

func validateGroups(groups []GroupConfig) error {
	if len(groups) == 0 {
		return ErrNoGroups
	}

	seen := make(map[string]bool, len(groups))

	for i, group := range groups {
		if group.Name == "" {
			return fmt.Errorf("%w: group %d has no name", ErrInvalidGroup, i)
		}

		if seen[group.Name] {
			return fmt.Errorf("%w: duplicate group %q", ErrInvalidGroup, group.Name)
		}

		seen[group.Name] = true

		for _, rule := range group.Track {
			if rule.Pattern == "" {
				return fmt.Errorf("%w: group %q has an empty pattern", ErrInvalidTrackingConfig, group.Name)
			}
		}
	}

	return nil
}

// Budget returns the allowed total size increase in bytes. ok is false when
// no budget is configured.
func (r ReportConfig) Budget() (limit int64, ok bool, err error) {
	if strings.TrimSpace(r.MaxIncrease) == "" {
		return 0, false, nil
	}

	limit, err = sizefmt.ParseSize(r.MaxIncrease)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %w", ErrInvalidMaxIncrease, err)
	}

	return limit, true, nil
}

// TransformationNames returns the configured transformation names in order.
func (c *Config) TransformationNames() []string {
	names := make([]string, 0, len(c.Transformations))
	for _, t := range c.Transformations {
		names = append(names, t.Name)
	}

	return names
}

// CollectGroups converts the configured groups for the collector. A group
// without a directory defaults to its name.
func (c *Config) CollectGroups() []collect.Group {
	groups := make([]collect.Group, 0, len(c.Groups))

	for _, g := range c.Groups {
		directory := g.Directory
		if directory == "" {
			directory = g.Name
		}

		groups = append(groups, collect.Group{
			Name:      g.Name,
			Directory: directory,
			Manifest:  g.Manifest,
			Tracking:  slices.Clone(g.Track),
		})
	}

	return groups
}
