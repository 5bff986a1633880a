package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/huangsam/coverwatch/schema"
)

func writeCSVEndpoints(w io.Writer, endpoints []schema.EndpointStatus) error {
	header := []string{"name", "endpoint", "project", "connected", "launches", "error"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, ep := range endpoints {
			row := []string{
				ep.Name,
				ep.Endpoint,
				ep.Project,
				strconv.FormatBool(ep.Connected),
				strconv.Itoa(ep.Launches),
				ep.Error,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeCSVSnapshot writes the component summary of a snapshot.
func writeCSVSnapshot(w io.Writer, snap schema.GeneratedSnapshot, fmtFloat func(float64) string) error {
	header := []string{
		"component",
		"display_name",
		"launches",
		"avg_coverage",
		"min_coverage",
		"max_coverage",
		"last_coverage",
		"trend",
		"coverage_stability",
	}
	components := snap.Summary.Components
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, name := range schema.SortedKeys(components) {
			c := components[name]
			row := []string{
				name,
				c.DisplayName,
				strconv.Itoa(c.Launches),
				optFloat(c.AvgCoverage, fmtFloat),
				fmtFloat(c.MinCoverage),
				fmtFloat(c.MaxCoverage),
				fmtFloat(c.LastCoverage),
				c.Trend,
				c.CoverageStability,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
