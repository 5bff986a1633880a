package schema

import (
	"strconv"
	"strings"
	"time"
)

// Launch attribute keys carrying coverage.
const (
	AttrCoveragePercentage = "tv_coverage_percentage"
	AttrCoverageComponent  = "tv_coverage_component"
	AttrCoverageQuality    = "tv_coverage_quality"
	AttrCoverageStatements = "tv_coverage_statements"
	AttrCoverageMissing    = "tv_coverage_missing"
	AttrCoverageStatus     = "tv_coverage_status"
)

// Launch is one test-suite execution run recorded by ReportPortal.
type Launch struct {
	ID         int64             `json:"id"`
	UUID       string            `json:"uuid,omitempty"`
	Name       string            `json:"name"`
	Number     int               `json:"number,omitempty"`
	Status     string            `json:"status"`
	StartTime  time.Time         `json:"start_time"`
	EndTime    time.Time         `json:"end_time,omitzero"`
	Statistics LaunchStatistics  `json:"statistics"`
	Attributes map[string]string `json:"attributes"`
	Endpoint   string            `json:"endpoint"` // Name of the instance the launch came from
}

// LaunchStatistics holds execution counters of a launch.
type LaunchStatistics struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// LaunchCoverage is the coverage information carried in launch attributes.
type LaunchCoverage struct {
	LaunchID   int64     `json:"launch_id"`
	LaunchName string    `json:"launch_name"`
	Time       time.Time `json:"time"`
	Component  string    `json:"component"`
	Percentage float64   `json:"percentage"`
	Quality    string    `json:"quality"`
	Statements int       `json:"statements"`
	Missing    int       `json:"missing"`
	Status     string    `json:"status"`
}

// TestItem is one test execution inside a launch.
type TestItem struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Status   string    `json:"status"`
	LaunchID int64     `json:"launch_id"`
	Start    time.Time `json:"start_time"`
}

// EndpointStatus is the connectivity flag of one ReportPortal instance.
type EndpointStatus struct {
	Name      string `json:"name"`
	Endpoint  string `json:"endpoint"`
	Project   string `json:"project"`
	Connected bool   `json:"connected"`
	Launches  int    `json:"launches"`
	Error     string `json:"error,omitempty"`
}

// CoverageComponent returns the component a launch reports coverage for, if any.
func (l Launch) CoverageComponent() string {
	return strings.TrimSpace(l.Attributes[AttrCoverageComponent])
}

// CoveragePercentage parses the "NN%" coverage attribute of a launch, clamped to [0,100].
func (l Launch) CoveragePercentage() (float64, error) {
	raw := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(l.Attributes[AttrCoveragePercentage]), "%"))
	pct, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	pct, _ = ClampCoverage(pct)
	return pct, nil
}
