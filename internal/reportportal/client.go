// Package reportportal reads launches and test items from ReportPortal instances.
package reportportal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultPageSize = 100
	maxPages        = 50
	maxErrorBody    = 512
)

// ErrUnauthorized is returned when the instance rejects the API key.
var ErrUnauthorized = errors.New("reportportal rejected the credentials")

// Client talks to one ReportPortal project over its REST API.
type Client struct {
	inst     contract.ReportPortalInstance
	http     *http.Client
	limiter  *rate.Limiter
	logger   logrus.FieldLogger
	pageSize int
}

// NewClient creates a client for inst with its timeout and request rate.
func NewClient(inst contract.ReportPortalInstance, logger logrus.FieldLogger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	limit := rate.Inf
	if inst.RateLimit > 0 {
		limit = rate.Limit(inst.RateLimit)
	}
	return &Client{
		inst:     inst,
		http:     &http.Client{Timeout: inst.RequestTimeout()},
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger.WithField("endpoint", inst.Name),
		pageSize: defaultPageSize,
	}
}

// NewSources builds one client per enabled instance, by ascending priority.
func NewSources(cfg *contract.Config, logger logrus.FieldLogger) []contract.LaunchSource {
	instances := cfg.EnabledInstances()
	sources := make([]contract.LaunchSource, 0, len(instances))
	for _, inst := range instances {
		sources = append(sources, NewClient(inst, logger))
	}
	return sources
}

// Name returns the configured instance name.
func (c *Client) Name() string { return c.inst.Name }

// Endpoint returns the base URL of the instance.
func (c *Client) Endpoint() string { return c.inst.Endpoint }

// Project returns the ReportPortal project queried.
func (c *Client) Project() string { return c.inst.Project }

// FetchLaunchesSince pages through the launches started at or after since, newest first.
func (c *Client) FetchLaunchesSince(ctx context.Context, since time.Time) ([]schema.Launch, error) {
	var launches []schema.Launch
	for page := 1; page <= maxPages; page++ {
		params := url.Values{}
		params.Set("page.page", strconv.Itoa(page))
		params.Set("page.size", strconv.Itoa(c.pageSize))
		params.Set("page.sort", "startTime,desc")
		params.Set("filter.gte.startTime", strconv.FormatInt(since.UnixMilli(), 10))

		var resp launchPage
		if err := c.get(ctx, "launch", params, &resp); err != nil {
			return nil, err
		}
		for _, raw := range resp.Content {
			launch := raw.toLaunch()
			if launch.StartTime.Before(since) {
				continue // Older instances ignore the filter
			}
			launch.Endpoint = c.inst.Name
			launches = append(launches, launch)
		}
		if len(resp.Content) < c.pageSize || page >= resp.Page.TotalPages {
			break
		}
	}

	c.logger.WithField("launches", len(launches)).Debug("Fetched launches")
	return launches, nil
}

// FetchCurrentCoverage returns the coverage of the newest launch reporting component.
func (c *Client) FetchCurrentCoverage(ctx context.Context, component string, since time.Time) (float64, bool, error) {
	launches, err := c.FetchLaunchesSince(ctx, since)
	if err != nil {
		return 0, false, err
	}
	for _, launch := range launches {
		if !strings.EqualFold(launch.CoverageComponent(), component) {
			continue
		}
		pct, err := launch.CoveragePercentage()
		if err != nil {
			c.logger.WithField("launch", launch.ID).WithError(err).Warn("Unparsable coverage attribute")
			continue
		}
		return pct, true, nil
	}
	return 0, false, nil
}

// FetchTestItems returns the leaf test items of a launch.
func (c *Client) FetchTestItems(ctx context.Context, launchID int64) ([]schema.TestItem, error) {
	var items []schema.TestItem
	for page := 1; page <= maxPages; page++ {
		params := url.Values{}
		params.Set("filter.eq.launchId", strconv.FormatInt(launchID, 10))
		params.Set("page.page", strconv.Itoa(page))
		params.Set("page.size", strconv.Itoa(c.pageSize))

		var resp itemPage
		if err := c.get(ctx, "item", params, &resp); err != nil {
			return nil, err
		}
		for _, raw := range resp.Content {
			if raw.HasChildren {
				continue // Suites aggregate their children
			}
			item := raw.toTestItem()
			if item.LaunchID == 0 {
				item.LaunchID = launchID
			}
			if item.LaunchID != launchID {
				continue
			}
			items = append(items, item)
		}
		if len(resp.Content) < c.pageSize || page >= resp.Page.TotalPages {
			break
		}
	}
	return items, nil
}

// CheckConnection requests a single launch to verify reachability and credentials.
func (c *Client) CheckConnection(ctx context.Context) error {
	params := url.Values{}
	params.Set("page.size", "1")
	var resp launchPage
	return c.get(ctx, "launch", params, &resp)
}

// get performs one rate-limited GET against the project API and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, resource string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/%s/%s", c.inst.Endpoint, url.PathEscape(c.inst.Project), resource)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.inst.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.inst.APIKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", c.inst.Endpoint, err)
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w (HTTP %d)", ErrUnauthorized, res.StatusCode)
	case res.StatusCode < 200 || res.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return fmt.Errorf("GET %s returned HTTP %d: %s", resource, res.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", resource, err)
	}
	return nil
}
