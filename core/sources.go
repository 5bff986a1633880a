package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// launchBatch is what one ReportPortal instance returned.
type launchBatch struct {
	source   contract.LaunchSource
	status   schema.EndpointStatus
	launches []schema.Launch
}

func newEndpointStatus(src contract.LaunchSource) schema.EndpointStatus {
	return schema.EndpointStatus{
		Name:     src.Name(),
		Endpoint: src.Endpoint(),
		Project:  src.Project(),
	}
}

// fetchAllLaunches queries every source concurrently. A failing source is recorded in
// its status entry and never affects the others, so the result is always partial-safe.
func fetchAllLaunches(ctx context.Context, sources []contract.LaunchSource, since time.Time, logger logrus.FieldLogger) []launchBatch {
	batches := make([]launchBatch, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			batch := launchBatch{source: src, status: newEndpointStatus(src)}
			launches, err := src.FetchLaunchesSince(gctx, since)
			if err != nil {
				batch.status.Error = err.Error()
				logger.WithField("endpoint", src.Name()).WithError(err).Warn("ReportPortal instance unavailable")
				batches[i] = batch
				return nil
			}
			for j := range launches {
				launches[j].Endpoint = src.Name()
			}
			batch.status.Connected = true
			batch.status.Launches = len(launches)
			batch.launches = launches
			batches[i] = batch
			return nil
		})
	}
	_ = g.Wait() // Goroutines never return errors

	return batches
}

// mergeLaunches flattens batches newest first. The same launch reported to several
// instances is kept once, from the first instance in priority order.
func mergeLaunches(batches []launchBatch) []schema.Launch {
	seen := make(map[string]struct{})
	var merged []schema.Launch
	for _, b := range batches {
		for _, l := range b.launches {
			key := fmt.Sprintf("%s|%d", l.Name, l.StartTime.UnixMilli())
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, l)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].StartTime.After(merged[j].StartTime)
	})
	return merged
}

func batchStatuses(batches []launchBatch) []schema.EndpointStatus {
	statuses := make([]schema.EndpointStatus, len(batches))
	for i, b := range batches {
		statuses[i] = b.status
	}
	return statuses
}

// CheckConnectivity probes every source concurrently.
func CheckConnectivity(ctx context.Context, sources []contract.LaunchSource, now time.Time, logger logrus.FieldLogger) schema.ConnectivityReport {
	statuses := make([]schema.EndpointStatus, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			status := newEndpointStatus(src)
			if err := src.CheckConnection(gctx); err != nil {
				status.Error = err.Error()
				logger.WithField("endpoint", src.Name()).WithError(err).Warn("Connection check failed")
			} else {
				status.Connected = true
			}
			statuses[i] = status
			return nil
		})
	}
	_ = g.Wait()

	report := schema.ConnectivityReport{
		CheckedAt: now.Format(contract.DateTimeFormat),
		Endpoints: statuses,
		Total:     len(statuses),
	}
	for _, s := range statuses {
		if s.Connected {
			report.Reachable++
		}
	}
	return report
}

// collectTestOutcomes gathers test item statuses per test name from every connected batch.
// Per-launch failures are logged and noted on the endpoint status.
func collectTestOutcomes(ctx context.Context, batches []launchBatch, logger logrus.FieldLogger) (map[string][]string, int) {
	perBatch := make([]map[string][]string, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	for i := range batches {
		b := &batches[i]
		if !b.status.Connected {
			continue
		}
		g.Go(func() error {
			outcomes := make(map[string][]string)
			for _, launch := range b.launches {
				items, err := b.source.FetchTestItems(gctx, launch.ID)
				if err != nil {
					logger.WithField("endpoint", b.status.Name).WithField("launch", launch.ID).WithError(err).Warn("Cannot fetch test items")
					b.status.Error = err.Error()
					continue
				}
				for _, item := range items {
					outcomes[item.Name] = append(outcomes[item.Name], item.Status)
				}
			}
			perBatch[i] = outcomes
			return nil
		})
	}
	_ = g.Wait()

	merged := make(map[string][]string)
	items := 0
	for _, outcomes := range perBatch {
		for name, statuses := range outcomes {
			merged[name] = append(merged[name], statuses...)
			items += len(statuses)
		}
	}
	return merged, items
}
