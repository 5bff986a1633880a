package contract

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/coverwatch/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// baseInput returns the raw values the root command would provide by default.
func baseInput() *ConfigRawInput {
	return &ConfigRawInput{
		Days:      DefaultLookbackDays,
		Output:    "text",
		Precision: DefaultPrecision,
		Color:     "no",
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "invalid days (zero)", mutate: func(in *ConfigRawInput) { in.Days = 0 }, expectError: true},
		{name: "invalid days (too large)", mutate: func(in *ConfigRawInput) { in.Days = MaxLookbackDays + 1 }, expectError: true},
		{name: "invalid output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "invalid precision", mutate: func(in *ConfigRawInput) { in.Precision = 5 }, expectError: true},
		{name: "invalid color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: true},
		{name: "invalid source", mutate: func(in *ConfigRawInput) { in.Source = "ftp" }, expectError: true},
		{name: "invalid history pattern", mutate: func(in *ConfigRawInput) { in.HistoryPattern = "[" }, expectError: true},
		{name: "invalid backend", mutate: func(in *ConfigRawInput) { in.HistoryBackend = "oracle" }, expectError: true},
		{
			name: "mysql backend without connection",
			mutate: func(in *ConfigRawInput) {
				in.HistoryBackend = "mysql"
			},
			expectError: true,
		},
		{
			name: "postgres backend with connection",
			mutate: func(in *ConfigRawInput) {
				in.HistoryBackend = "postgresql"
				in.HistoryDBConnect = "host=localhost dbname=coverwatch"
			},
		},
		{name: "min samples too small", mutate: func(in *ConfigRawInput) { in.MinSamples = 1 }, expectError: true},
		{name: "negative slope threshold", mutate: func(in *ConfigRawInput) { in.SlopeThreshold = -1 }, expectError: true},
		{
			name: "drop thresholds out of order",
			mutate: func(in *ConfigRawInput) {
				in.MinorDrop = 6
				in.ModerateDrop = 5
			},
			expectError: true,
		},
		{name: "positive trend slope", mutate: func(in *ConfigRawInput) { in.TrendModerateSlope = 1 }, expectError: true},
		{
			name: "threshold out of range",
			mutate: func(in *ConfigRawInput) {
				in.Thresholds = map[string]float64{"xradio": 120}
			},
			expectError: true,
		},
		{name: "bad threshold override", mutate: func(in *ConfigRawInput) { in.ThresholdsOverride = "xradio=70" }, expectError: true},
		{
			name: "reportportal instance with bad url",
			mutate: func(in *ConfigRawInput) {
				in.ReportPortal.Instances = []ReportPortalInstance{{Name: "a", Endpoint: "not a url", Project: "p"}}
			},
			expectError: true,
		},
		{
			name: "duplicate reportportal names",
			mutate: func(in *ConfigRawInput) {
				in.ReportPortal.Instances = []ReportPortalInstance{
					{Name: "a", Endpoint: "http://rp1:8080", Project: "p"},
					{Name: "a", Endpoint: "http://rp2:8080", Project: "p"},
				}
			},
			expectError: true,
		},
		{name: "invalid influx url", mutate: func(in *ConfigRawInput) { in.InfluxURL = "::nope" }, expectError: true},
		{name: "missing env file", mutate: func(in *ConfigRawInput) { in.EnvFile = "/does/not/exist.env" }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := baseInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input, fixedNow)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidate_Defaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, baseInput(), fixedNow))

	assert.Equal(t, fixedNow, cfg.Now)
	assert.Equal(t, ".", cfg.ReportsDir)
	assert.Equal(t, DefaultHistoryPattern, cfg.HistoryPattern)
	assert.Equal(t, schema.FilesSource, cfg.Source)
	assert.Equal(t, schema.NoneBackend, cfg.HistoryBackend)
	assert.Equal(t, schema.DefaultTrendParams(), cfg.Trend)
	assert.Equal(t, schema.DefaultRegressionThresholds(), cfg.Regression)
	assert.Equal(t, schema.DefaultThresholds(), cfg.Thresholds)
	assert.Equal(t, DefaultMinRuns, cfg.MinRuns)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.UseColors)
	assert.Equal(t, fixedNow.AddDate(0, 0, -DefaultLookbackDays), cfg.WindowStart())
}

func TestProcessAndValidate_ReportPortalFromEnv(t *testing.T) {
	t.Setenv("RP_ENDPOINT", "http://rp.example.org:8080/")
	t.Setenv("RP_PROJECT", "radio")
	t.Setenv("RP_API_KEY", "secret")

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, baseInput(), fixedNow))

	require.Len(t, cfg.ReportPortal, 1)
	inst := cfg.ReportPortal[0]
	assert.Equal(t, "default", inst.Name)
	assert.Equal(t, "http://rp.example.org:8080", inst.Endpoint)
	assert.Equal(t, "radio", inst.Project)
	assert.Equal(t, "secret", inst.APIKey)
	assert.Equal(t, 30*time.Second, inst.RequestTimeout())
	assert.True(t, inst.IsEnabled())
}

func TestProcessAndValidate_EnvFile(t *testing.T) {
	// Restored after the test; godotenv never overrides variables that are already set
	t.Setenv("RP_PROJECT", "")
	require.NoError(t, os.Unsetenv("RP_PROJECT"))

	envFile := filepath.Join(t.TempDir(), "rp.env")
	require.NoError(t, os.WriteFile(envFile, []byte("RP_PROJECT=fromfile\n"), 0o644))

	input := baseInput()
	input.EnvFile = envFile
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input, fixedNow))
	assert.Equal(t, "fromfile", cfg.ReportPortal[0].Project)
}

func TestThresholdMerging(t *testing.T) {
	input := baseInput()
	input.Thresholds = map[string]float64{"XRadio": 75, "newcomp": 40}
	input.ThresholdsOverride = "newcomp:45, overall:55"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input, fixedNow))

	assert.Equal(t, 75.0, cfg.Thresholds["xradio"])
	assert.Equal(t, 45.0, cfg.Thresholds["newcomp"])
	assert.Equal(t, 55.0, cfg.Thresholds[schema.OverallComponent])
	assert.Equal(t, 65.0, cfg.Thresholds["astroviper"])
}

func TestThresholdFor(t *testing.T) {
	cfg := &Config{Thresholds: map[string]float64{"xradio": 70, schema.OverallComponent: 55}}
	assert.Equal(t, 70.0, cfg.ThresholdFor("xradio"))
	assert.Equal(t, 55.0, cfg.ThresholdFor("unknown"))

	cfg = &Config{Thresholds: map[string]float64{"xradio": 70}}
	assert.Equal(t, schema.DefaultOverallThreshold, cfg.ThresholdFor("unknown"))
}

func TestEnabledInstances(t *testing.T) {
	off := false
	cfg := &Config{ReportPortal: []ReportPortalInstance{
		{Name: "backup", Priority: 2},
		{Name: "disabled", Priority: 0, Enabled: &off},
		{Name: "primary", Priority: 1},
	}}
	got := cfg.EnabledInstances()
	require.Len(t, got, 2)
	assert.Equal(t, "primary", got[0].Name)
	assert.Equal(t, "backup", got[1].Name)
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{
		Thresholds:   map[string]float64{"xradio": 70},
		ReportPortal: []ReportPortalInstance{{Name: "a"}},
	}
	clone := cfg.Clone()
	clone.Thresholds["xradio"] = 10
	clone.ReportPortal[0].Name = "b"

	assert.Equal(t, 70.0, cfg.Thresholds["xradio"])
	assert.Equal(t, "a", cfg.ReportPortal[0].Name)
}

func TestConfigCloneAt(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := start.AddDate(0, 2, 0)
	cfg := &Config{Days: 30, Now: start, Thresholds: map[string]float64{"xradio": 70}}

	clone := cfg.CloneAt(later)
	assert.Equal(t, later.AddDate(0, 0, -30), clone.WindowStart())
	assert.Equal(t, start, cfg.Now)

	clone.Thresholds["xradio"] = 10
	assert.Equal(t, 70.0, cfg.Thresholds["xradio"])
}

func TestParseThresholdsString(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[string]float64
		expectError bool
	}{
		{name: "empty", input: "", expected: map[string]float64{}},
		{name: "single", input: "xradio:70", expected: map[string]float64{"xradio": 70}},
		{name: "multiple with spaces", input: " xradio : 70 , Overall:55.5 ,", expected: map[string]float64{"xradio": 70, "overall": 55.5}},
		{name: "missing colon", input: "xradio70", expectError: true},
		{name: "bad number", input: "xradio:high", expectError: true},
		{name: "empty name", input: ":50", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseThresholdsString(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name        string
		backend     schema.DatabaseBackend
		connStr     string
		expectError bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"none", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/coverwatch", false},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/coverwatch", true},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost dbname=coverwatch", false},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRevalidateWindow(t *testing.T) {
	for _, days := range []int{0, -5, MaxLookbackDays + 1} {
		c := &Config{Days: 30}
		err := RevalidateWindow(c, days)
		assert.Error(t, err, "days=%d", days)
		assert.Equal(t, 30, c.Days, "rejected override must not change the config")
	}

	c := &Config{Days: 30}
	require.NoError(t, RevalidateWindow(c, 7))
	assert.Equal(t, 7, c.Days)
}

func TestRevalidateSource(t *testing.T) {
	c := &Config{Source: schema.FilesSource}

	require.NoError(t, RevalidateSource(c, ""))
	assert.Equal(t, schema.FilesSource, c.Source)

	require.NoError(t, RevalidateSource(c, "ReportPortal"))
	assert.Equal(t, schema.ReportPortalSource, c.Source)

	err := RevalidateSource(c, "jenkins")
	assert.EqualError(t, err, "invalid source 'jenkins'. must be files, history, reportportal")
	assert.Equal(t, schema.ReportPortalSource, c.Source)
}
