package schema

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		in     float64
		places int
		want   float64
	}{
		{1.23456, 2, 1.23},
		{1.23456, 3, 1.235},
		{-0.0004, 3, 0},
		{-2.5, 0, -3}, // half away from zero
		{70, 2, 70},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Round(tt.in, tt.places), 1e-12)
	}
}

func TestClampCoverage(t *testing.T) {
	v, clamped := ClampCoverage(55.5)
	assert.Equal(t, 55.5, v)
	assert.False(t, clamped)

	v, clamped = ClampCoverage(-1)
	assert.Equal(t, 0.0, v)
	assert.True(t, clamped)

	v, clamped = ClampCoverage(101)
	assert.Equal(t, 100.0, v)
	assert.True(t, clamped)

	v, clamped = ClampCoverage(math.NaN())
	assert.Equal(t, 0.0, v)
	assert.True(t, clamped)
}

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"toolviper": 1, "astroviper": 2, "xradio": 3}
	assert.Equal(t, []string{"astroviper", "toolviper", "xradio"}, SortedKeys(m))
	assert.Empty(t, SortedKeys(map[string]int{}))
}

func TestWorstSeverity(t *testing.T) {
	assert.Equal(t, Severity(""), WorstSeverity(nil))

	events := []RegressionEvent{
		{Severity: MinorSeverity},
		{Severity: MajorSeverity},
		{Severity: ModerateSeverity},
	}
	assert.Equal(t, MajorSeverity, WorstSeverity(events))
}

func TestRanks(t *testing.T) {
	assert.Greater(t, MajorSeverity.Rank(), ModerateSeverity.Rank())
	assert.Greater(t, ModerateSeverity.Rank(), MinorSeverity.Rank())
	assert.Greater(t, FailAction.Rank(), WarnAction.Rank())
	assert.Greater(t, WarnAction.Rank(), PassAction.Rank())
}
