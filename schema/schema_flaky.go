package schema

// FlakyTest is a test whose outcome varies across runs in the window.
type FlakyTest struct {
	TestName        string          `json:"test_name"`
	SuccessRate     float64         `json:"success_rate"`
	FlakinessScore  float64         `json:"flakiness_score"`
	TotalRuns       int             `json:"total_runs"`
	PassedRuns      int             `json:"passed_runs"`
	FailedRuns      int             `json:"failed_runs"`
	StabilityRating StabilityRating `json:"stability_rating"`
	Recommendations []string        `json:"recommendations"`
}

// FlakyReport is the output of the flaky command.
type FlakyReport struct {
	GeneratedAt     string           `json:"generated_at"`
	DaysAnalyzed    int              `json:"days_analyzed"`
	LaunchesScanned int              `json:"launches_scanned"`
	TestsScanned    int              `json:"tests_scanned"`
	FlakyTests      []FlakyTest      `json:"flaky_tests"`
	Endpoints       []EndpointStatus `json:"endpoints"`
}
