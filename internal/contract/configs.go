package contract

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/huangsam/coverwatch/schema"
	"github.com/joho/godotenv"
)

// Default values for configuration.
const (
	DefaultLookbackDays   = 30
	MaxLookbackDays       = 3650
	DefaultPrecision      = 1
	DefaultMinRuns        = 5
	DefaultFlakyLimit     = 25
	DefaultRPEndpoint     = "http://localhost:8080"
	DefaultRPProject      = "testviper"
	DefaultRPTimeout      = 30 // Seconds
	DefaultRPRateLimit    = 10.0
	DefaultHistoryPattern = "tv_coverage_analytics_report_*.json"
	DefaultCoveragePrefix = "coverage_"
	DefaultServeAddr      = ":8090"
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ReportPortalInstance is one ReportPortal server the analyses can read from.
type ReportPortalInstance struct {
	Name      string  `mapstructure:"name" validate:"required"`
	Endpoint  string  `mapstructure:"endpoint" validate:"required,url"`
	Project   string  `mapstructure:"project" validate:"required"`
	APIKey    string  `mapstructure:"api_key"`
	Enabled   *bool   `mapstructure:"enabled"`
	Priority  int     `mapstructure:"priority" validate:"gte=0"`
	Timeout   int     `mapstructure:"timeout" validate:"gte=0"` // Seconds
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
}

// IsEnabled reports whether the instance should be queried. Missing means enabled.
func (r ReportPortalInstance) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// RequestTimeout returns the per-request timeout of the instance.
func (r ReportPortalInstance) RequestTimeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultRPTimeout * time.Second
	}
	return time.Duration(r.Timeout) * time.Second
}

// ReportPortalRawInput holds ReportPortal settings from the config file.
type ReportPortalRawInput struct {
	Instances []ReportPortalInstance `mapstructure:"instances"`
}

// InfluxConfig holds the InfluxDB sink settings used by publish.
type InfluxConfig struct {
	URL    string `validate:"omitempty,url"`
	Token  string // Please use env var as this is plaintext
	Org    string
	Bucket string
}

// Enabled reports whether enough was configured to publish.
func (c InfluxConfig) Enabled() bool {
	return c.URL != "" && c.Bucket != ""
}

// Config holds the runtime configuration for the analysis.
// This struct remains the "final, validated" config.
type Config struct {
	Days           int
	Now            time.Time // Reference instant for the lookback window
	ReportsDir     string
	HistoryPattern string
	CoverageDir    string
	Source         schema.CoverageSource
	Quiet          bool
	Strict         bool
	AlertOnly      bool
	ReportOnly     bool
	Save           bool

	Trend      schema.TrendParams
	Regression schema.RegressionThresholds

	// Thresholds is a mapping of [component] = minimum coverage; "overall" is the project minimum
	Thresholds map[string]float64

	MinRuns    int
	FlakyLimit int

	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	MetricsFile string
	LogLevel    string
	ServeAddr   string

	ReportPortal []ReportPortalInstance
	Influx       InfluxConfig
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Days                int     `mapstructure:"days"`
	ReportsDir          string  `mapstructure:"reports-dir"`
	HistoryPattern      string  `mapstructure:"history-pattern"`
	CoverageDir         string  `mapstructure:"coverage-dir"`
	Quiet               bool    `mapstructure:"quiet"`
	Output              string  `mapstructure:"output"`
	OutputFile          string  `mapstructure:"output-file"`
	Precision           int     `mapstructure:"precision"`
	Color               string  `mapstructure:"color"`
	Width               int     `mapstructure:"width"`
	MinSamples          int     `mapstructure:"min-samples"`
	SlopeThreshold      float64 `mapstructure:"slope-threshold"`
	VolatilityThreshold float64 `mapstructure:"volatility-threshold"`
	HistoryBackend      string  `mapstructure:"history-backend"`
	HistoryDBConnect    string  `mapstructure:"history-db-connect"`
	MetricsFile         string  `mapstructure:"metrics-file"`
	LogLevel            string  `mapstructure:"log-level"`
	EnvFile             string  `mapstructure:"env-file"`

	// --- Fields from regressionsCmd.Flags() ---
	AlertOnly          bool    `mapstructure:"alert-only"`
	Save               bool    `mapstructure:"save"`
	MajorDrop          float64 `mapstructure:"major-drop"`
	ModerateDrop       float64 `mapstructure:"moderate-drop"`
	MinorDrop          float64 `mapstructure:"minor-drop"`
	TrendModerateSlope float64 `mapstructure:"trend-moderate-slope"`

	// --- Fields from thresholdsCmd.Flags() ---
	Strict             bool   `mapstructure:"strict"`
	ReportOnly         bool   `mapstructure:"report-only"`
	Source             string `mapstructure:"source"`
	ThresholdsOverride string `mapstructure:"thresholds-override"`

	// --- Fields from flakyCmd.Flags() ---
	MinRuns    int `mapstructure:"min-runs"`
	FlakyLimit int `mapstructure:"limit"`

	// --- Fields from publishCmd.Flags() ---
	InfluxURL    string `mapstructure:"influx-url"`
	InfluxToken  string `mapstructure:"influx-token"`
	InfluxOrg    string `mapstructure:"influx-org"`
	InfluxBucket string `mapstructure:"influx-bucket"`

	// --- Fields from serveCmd.Flags() ---
	Addr string `mapstructure:"addr"`

	// --- Thresholds from config file ---
	Thresholds map[string]float64 `mapstructure:"thresholds"`

	// --- ReportPortal instances from config file ---
	ReportPortal ReportPortalRawInput `mapstructure:"reportportal"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Thresholds != nil {
		clone.Thresholds = make(map[string]float64, len(c.Thresholds))
		maps.Copy(clone.Thresholds, c.Thresholds)
	}
	if c.ReportPortal != nil {
		clone.ReportPortal = slices.Clone(c.ReportPortal)
	}
	return &clone
}

// CloneAt returns a deep copy whose clock reads now.
// Long-running servers call it per request so the window follows the wall clock.
func (c *Config) CloneAt(now time.Time) *Config {
	clone := c.Clone()
	clone.Now = now
	return clone
}

// WindowStart returns the oldest instant inside the lookback window.
func (c *Config) WindowStart() time.Time {
	return c.Now.AddDate(0, 0, -c.Days)
}

// ThresholdFor resolves the minimum for a component: its own entry, then "overall", then the default.
func (c *Config) ThresholdFor(component string) float64 {
	return schema.ResolveThreshold(c.Thresholds, component)
}

// EnabledInstances returns the enabled ReportPortal instances by ascending priority.
func (c *Config) EnabledInstances() []ReportPortalInstance {
	var out []ReportPortalInstance
	for _, inst := range c.ReportPortal {
		if inst.IsEnabled() {
			out = append(out, inst)
		}
	}
	slices.SortStableFunc(out, func(a, b ReportPortalInstance) int {
		return a.Priority - b.Priority
	})
	return out
}

// RevalidateWindow applies a per-request lookback override.
func RevalidateWindow(cfg *Config, days int) error {
	if days <= 0 || days > MaxLookbackDays {
		return fmt.Errorf("days must be an integer between 1 and %d", MaxLookbackDays)
	}
	cfg.Days = days
	return nil
}

// RevalidateSource applies a per-request coverage source override. Empty keeps the current source.
func RevalidateSource(cfg *Config, source string) error {
	if source == "" {
		return nil
	}
	s := schema.CoverageSource(strings.ToLower(source))
	if _, ok := schema.ValidCoverageSources[s]; !ok {
		return fmt.Errorf("invalid source '%s'. must be files, history, reportportal", source)
	}
	cfg.Source = s
	return nil
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct. The reference time now anchors the lookback window.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput, now time.Time) error {
	cfg.Now = now
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processAnalysisParams(cfg, input); err != nil {
		return err
	}
	if err := processThresholds(cfg, input); err != nil {
		return err
	}
	if err := processReportPortal(cfg, input); err != nil {
		return err
	}
	if err := processInflux(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the output, window and backend fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Quiet = input.Quiet
	cfg.Strict = input.Strict
	cfg.AlertOnly = input.AlertOnly
	cfg.ReportOnly = input.ReportOnly
	cfg.Save = input.Save
	cfg.MetricsFile = input.MetricsFile
	cfg.ServeAddr = input.Addr
	if cfg.ServeAddr == "" {
		cfg.ServeAddr = DefaultServeAddr
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Window Validation ---
	if input.Days <= 0 || input.Days > MaxLookbackDays {
		return fmt.Errorf("days must be greater than 0 and cannot exceed %d (received %d)", MaxLookbackDays, input.Days)
	}
	cfg.Days = input.Days

	// --- 2. Directories ---
	cfg.ReportsDir = strings.TrimSpace(input.ReportsDir)
	if cfg.ReportsDir == "" {
		cfg.ReportsDir = "."
	}
	cfg.CoverageDir = strings.TrimSpace(input.CoverageDir)
	if cfg.CoverageDir == "" {
		cfg.CoverageDir = "."
	}
	cfg.HistoryPattern = input.HistoryPattern
	if cfg.HistoryPattern == "" {
		cfg.HistoryPattern = DefaultHistoryPattern
	}
	if _, err := filepath.Match(cfg.HistoryPattern, ""); err != nil {
		return fmt.Errorf("invalid history-pattern %q: %w", cfg.HistoryPattern, err)
	}

	// --- 3. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 3 {
		return fmt.Errorf("precision must be between 1 and 3 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", cfg.Output)
	}

	// --- 4. Source Validation ---
	cfg.Source = schema.CoverageSource(strings.ToLower(input.Source))
	if cfg.Source == "" {
		cfg.Source = schema.FilesSource
	}
	if _, ok := schema.ValidCoverageSources[cfg.Source]; !ok {
		return fmt.Errorf("invalid source '%s'. must be files, history, reportportal", input.Source)
	}

	// --- 5. Log level ---
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(input.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	// --- 6. Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	return ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// processAnalysisParams handles the trend, regression and flakiness tunables.
func processAnalysisParams(cfg *Config, input *ConfigRawInput) error {
	cfg.Trend = schema.DefaultTrendParams()
	if input.MinSamples != 0 {
		cfg.Trend.MinSamples = input.MinSamples
	}
	if input.SlopeThreshold != 0 {
		cfg.Trend.SlopeThreshold = input.SlopeThreshold
	}
	if input.VolatilityThreshold != 0 {
		cfg.Trend.VolatilityThreshold = input.VolatilityThreshold
	}
	if cfg.Trend.MinSamples < 2 {
		return fmt.Errorf("min-samples must be at least 2 (received %d)", cfg.Trend.MinSamples)
	}
	if cfg.Trend.SlopeThreshold < 0 || cfg.Trend.VolatilityThreshold < 0 {
		return fmt.Errorf("slope-threshold and volatility-threshold must not be negative")
	}

	cfg.Regression = schema.DefaultRegressionThresholds()
	if input.MajorDrop != 0 {
		cfg.Regression.MajorDrop = input.MajorDrop
	}
	if input.ModerateDrop != 0 {
		cfg.Regression.ModerateDrop = input.ModerateDrop
	}
	if input.MinorDrop != 0 {
		cfg.Regression.MinorDrop = input.MinorDrop
	}
	if input.TrendModerateSlope != 0 {
		cfg.Regression.TrendModerateSlope = input.TrendModerateSlope
	}
	r := cfg.Regression
	if r.MinorDrop <= 0 || r.MinorDrop > r.ModerateDrop || r.ModerateDrop > r.MajorDrop {
		return fmt.Errorf("drop thresholds must satisfy 0 < minor (%.2f) <= moderate (%.2f) <= major (%.2f)",
			r.MinorDrop, r.ModerateDrop, r.MajorDrop)
	}
	if r.TrendModerateSlope >= 0 {
		return fmt.Errorf("trend-moderate-slope must be negative (received %.2f)", r.TrendModerateSlope)
	}

	cfg.MinRuns = input.MinRuns
	if cfg.MinRuns == 0 {
		cfg.MinRuns = DefaultMinRuns
	}
	if cfg.MinRuns < 2 {
		return fmt.Errorf("min-runs must be at least 2 (received %d)", cfg.MinRuns)
	}
	cfg.FlakyLimit = input.FlakyLimit
	if cfg.FlakyLimit <= 0 {
		cfg.FlakyLimit = DefaultFlakyLimit
	}
	return nil
}

// processThresholds merges the defaults, config file entries and the command-line override.
// Command-line --thresholds-override flag takes precedence over config file settings.
func processThresholds(cfg *Config, input *ConfigRawInput) error {
	thresholds := schema.DefaultThresholds()

	for component, value := range input.Thresholds {
		thresholds[strings.ToLower(component)] = value
	}

	if input.ThresholdsOverride != "" {
		parsed, err := ParseThresholdsString(input.ThresholdsOverride)
		if err != nil {
			return fmt.Errorf("invalid --thresholds-override format: %w", err)
		}
		maps.Copy(thresholds, parsed)
	}

	validate := validator.New()
	for _, component := range schema.SortedKeys(thresholds) {
		if err := validate.Var(thresholds[component], "gte=0,lte=100"); err != nil {
			return fmt.Errorf("threshold for %s must be between 0.0 and 100.0 (received %.2f)", component, thresholds[component])
		}
	}

	cfg.Thresholds = thresholds
	return nil
}

// processReportPortal resolves the ReportPortal instances. Without configured instances
// a single "default" one is built from RP_ENDPOINT, RP_PROJECT and RP_API_KEY.
func processReportPortal(cfg *Config, input *ConfigRawInput) error {
	if err := LoadEnvFile(input.EnvFile); err != nil {
		return err
	}

	instances := slices.Clone(input.ReportPortal.Instances)
	if len(instances) == 0 {
		instances = []ReportPortalInstance{{
			Name:     "default",
			Endpoint: envOr("RP_ENDPOINT", DefaultRPEndpoint),
			Project:  envOr("RP_PROJECT", DefaultRPProject),
			APIKey:   os.Getenv("RP_API_KEY"),
		}}
	}

	validate := validator.New()
	seen := make(map[string]struct{}, len(instances))
	for i := range instances {
		inst := &instances[i]
		inst.Endpoint = strings.TrimRight(strings.TrimSpace(inst.Endpoint), "/")
		if inst.Timeout == 0 {
			inst.Timeout = DefaultRPTimeout
		}
		if inst.RateLimit == 0 {
			inst.RateLimit = DefaultRPRateLimit
		}
		if err := validate.Struct(inst); err != nil {
			return fmt.Errorf("invalid reportportal instance %q: %w", inst.Name, err)
		}
		if _, dup := seen[inst.Name]; dup {
			return fmt.Errorf("duplicate reportportal instance name %q", inst.Name)
		}
		seen[inst.Name] = struct{}{}
	}

	cfg.ReportPortal = instances
	return nil
}

// processInflux handles the InfluxDB sink settings.
func processInflux(cfg *Config, input *ConfigRawInput) error {
	cfg.Influx = InfluxConfig{
		URL:    strings.TrimSpace(input.InfluxURL),
		Token:  input.InfluxToken,
		Org:    input.InfluxOrg,
		Bucket: input.InfluxBucket,
	}
	if err := validator.New().Struct(cfg.Influx); err != nil {
		return fmt.Errorf("invalid influx settings: %w", err)
	}
	return nil
}

// LoadEnvFile loads variables from a dotenv file without overriding the environment.
// An empty path means ".env" in the working directory, which may be absent.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cannot read env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("cannot load env file %s: %w", path, err)
	}
	return nil
}

// ParseThresholdsString parses a string like "xradio:70,overall:55"
// into a map of component to minimum coverage.
func ParseThresholdsString(s string) (map[string]float64, error) {
	thresholds := make(map[string]float64)

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		keyValue := strings.Split(part, ":")
		if len(keyValue) != 2 {
			return nil, fmt.Errorf("invalid threshold format '%s', expected 'component:value'", part)
		}

		component := strings.ToLower(strings.TrimSpace(keyValue[0]))
		if component == "" {
			return nil, fmt.Errorf("empty component name in '%s'", part)
		}
		valueStr := strings.TrimSpace(keyValue[1])

		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold value '%s' for component %s: %w", valueStr, component, err)
		}

		thresholds[component] = value
	}

	return thresholds, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
