package reportportal

import (
	"context"
	"time"

	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/schema"
	"github.com/stretchr/testify/mock"
)

// MockLaunchSource is a mock implementation of LaunchSource for testing.
// Identity getters return the plain fields; fetch methods go through mock.Mock.
type MockLaunchSource struct {
	mock.Mock
	SourceName     string
	SourceEndpoint string
	SourceProject  string
}

var _ contract.LaunchSource = &MockLaunchSource{} // Compile-time check

// NewMockLaunchSource creates a mock named name with a dummy endpoint.
func NewMockLaunchSource(name string) *MockLaunchSource {
	return &MockLaunchSource{
		SourceName:     name,
		SourceEndpoint: "http://" + name + ".example:8080",
		SourceProject:  "testviper",
	}
}

// Name implements the LaunchSource interface.
func (m *MockLaunchSource) Name() string { return m.SourceName }

// Endpoint implements the LaunchSource interface.
func (m *MockLaunchSource) Endpoint() string { return m.SourceEndpoint }

// Project implements the LaunchSource interface.
func (m *MockLaunchSource) Project() string { return m.SourceProject }

// FetchLaunchesSince implements the LaunchSource interface.
func (m *MockLaunchSource) FetchLaunchesSince(ctx context.Context, since time.Time) ([]schema.Launch, error) {
	args := m.Called(ctx, since)
	launches, _ := args.Get(0).([]schema.Launch)
	return launches, args.Error(1)
}

// FetchCurrentCoverage implements the LaunchSource interface.
func (m *MockLaunchSource) FetchCurrentCoverage(ctx context.Context, component string, since time.Time) (float64, bool, error) {
	args := m.Called(ctx, component, since)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}

// FetchTestItems implements the LaunchSource interface.
func (m *MockLaunchSource) FetchTestItems(ctx context.Context, launchID int64) ([]schema.TestItem, error) {
	args := m.Called(ctx, launchID)
	items, _ := args.Get(0).([]schema.TestItem)
	return items, args.Error(1)
}

// CheckConnection implements the LaunchSource interface.
func (m *MockLaunchSource) CheckConnection(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
