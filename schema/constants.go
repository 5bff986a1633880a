package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for run history.
	DatabaseBackend string

	// Direction represents the classified direction of a coverage trend.
	Direction string

	// Severity represents the severity tier of a regression event.
	Severity string

	// RegressionKind represents how a regression event was detected.
	RegressionKind string

	// QualityLevel represents the absolute coverage quality band.
	QualityLevel string

	// Action represents the gate decision for a component or project.
	Action string

	// AlertLevel represents the overall alert for a regression run.
	AlertLevel string

	// CoverageSource represents where current coverage values come from.
	CoverageSource string

	// StabilityRating represents the pass-rate rating of a test.
	StabilityRating string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Trend directions.
const (
	Improving Direction = "improving"
	Stable    Direction = "stable"
	Declining Direction = "declining"
)

// Severity tiers, ordered from least to most severe.
const (
	MinorSeverity    Severity = "minor"
	ModerateSeverity Severity = "moderate"
	MajorSeverity    Severity = "major"
)

// Regression kinds.
const (
	ImmediateRegression  RegressionKind = "immediate"
	TrendRegression      RegressionKind = "trend"
	VolatilityRegression RegressionKind = "volatility"
)

// Quality bands.
const (
	CriticalQuality  QualityLevel = "critical"
	LowQuality       QualityLevel = "low"
	GoodQuality      QualityLevel = "good"
	ExcellentQuality QualityLevel = "excellent"
)

// Gate actions, ordered from least to most strict.
const (
	PassAction Action = "PASS"
	WarnAction Action = "WARN"
	FailAction Action = "FAIL"
)

// Alert levels for a regression run.
const (
	OKAlert       AlertLevel = "OK"
	InfoAlert     AlertLevel = "INFO"
	WarningAlert  AlertLevel = "WARNING"
	CriticalAlert AlertLevel = "CRITICAL"
)

// Sources for current coverage values.
const (
	FilesSource        CoverageSource = "files" // default
	HistorySource      CoverageSource = "history"
	ReportPortalSource CoverageSource = "reportportal"
)

// Stability ratings for flaky test analysis.
const (
	ExcellentStability StabilityRating = "excellent"
	GoodStability      StabilityRating = "good"
	FairStability      StabilityRating = "fair"
	PoorStability      StabilityRating = "poor"
	CriticalStability  StabilityRating = "critical"
)

// OverallComponent is the reserved threshold key for the project-wide minimum.
const OverallComponent = "overall"

// AllSeverities lists severities from most to least severe, for display grouping.
var AllSeverities = []Severity{MajorSeverity, ModerateSeverity, MinorSeverity}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid history backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidCoverageSources lists all valid current coverage sources.
var ValidCoverageSources = map[CoverageSource]struct{}{
	FilesSource:        {},
	HistorySource:      {},
	ReportPortalSource: {},
}

// Rank returns the ordinal of a severity so tiers can be compared.
func (s Severity) Rank() int {
	switch s {
	case MajorSeverity:
		return 3
	case ModerateSeverity:
		return 2
	case MinorSeverity:
		return 1
	default:
		return 0
	}
}

// Rank returns the ordinal of an action so the stricter one can be chosen.
func (a Action) Rank() int {
	switch a {
	case FailAction:
		return 2
	case WarnAction:
		return 1
	default:
		return 0
	}
}
