package core

import (
	"time"

	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/schema"
)

// recordRun stores a finished run and its per-component outcomes when a history store is configured.
// Tracking failures are warnings; they never change the result of the analysis.
func (a *Analyzer) recordRun(command string, start time.Time, outcomes map[string]schema.ComponentOutcome) {
	if a.mgr == nil {
		return
	}
	store := a.mgr.GetHistoryStore()
	if store == nil {
		return
	}

	cfg := a.cfg
	configParams := map[string]any{
		"days":                 cfg.Days,
		"reports_dir":          cfg.ReportsDir,
		"source":               string(cfg.Source),
		"min_samples":          cfg.Trend.MinSamples,
		"slope_threshold":      cfg.Trend.SlopeThreshold,
		"volatility_threshold": cfg.Trend.VolatilityThreshold,
	}
	runID, err := store.BeginRun(command, start, configParams)
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return
	}
	if runID == 0 {
		return // Backend "none"
	}

	for _, component := range schema.SortedKeys(outcomes) {
		if err := store.RecordComponentOutcome(runID, component, outcomes[component]); err != nil {
			contract.LogWarn("Failed to record outcome for "+component, err)
		}
	}

	if err := store.EndRun(runID, time.Now(), len(outcomes)); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}
