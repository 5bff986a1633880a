package reportportal

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/huangsam/coverwatch/schema"
)

type pageInfo struct {
	Number        int `json:"number"`
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
}

type launchPage struct {
	Content []launchPayload `json:"content"`
	Page    pageInfo        `json:"page"`
}

type itemPage struct {
	Content []itemPayload `json:"content"`
	Page    pageInfo      `json:"page"`
}

type attributePayload struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type launchPayload struct {
	ID         int64              `json:"id"`
	UUID       string             `json:"uuid"`
	Name       string             `json:"name"`
	Number     int                `json:"number"`
	Status     string             `json:"status"`
	StartTime  rpTime             `json:"startTime"`
	EndTime    rpTime             `json:"endTime"`
	Attributes []attributePayload `json:"attributes"`
	Statistics struct {
		Executions map[string]int `json:"executions"`
	} `json:"statistics"`
}

func (p launchPayload) toLaunch() schema.Launch {
	attrs := make(map[string]string, len(p.Attributes))
	for _, a := range p.Attributes {
		if a.Key == "" {
			continue // Tags without a key
		}
		attrs[a.Key] = a.Value
	}
	exec := p.Statistics.Executions
	return schema.Launch{
		ID:        p.ID,
		UUID:      p.UUID,
		Name:      p.Name,
		Number:    p.Number,
		Status:    p.Status,
		StartTime: p.StartTime.Time,
		EndTime:   p.EndTime.Time,
		Statistics: schema.LaunchStatistics{
			Total:   exec["total"],
			Passed:  exec["passed"],
			Failed:  exec["failed"],
			Skipped: exec["skipped"],
		},
		Attributes: attrs,
	}
}

type itemPayload struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	LaunchID    int64  `json:"launchId"`
	HasChildren bool   `json:"hasChildren"`
	StartTime   rpTime `json:"startTime"`
}

func (p itemPayload) toTestItem() schema.TestItem {
	return schema.TestItem{
		ID:       p.ID,
		Name:     p.Name,
		Type:     p.Type,
		Status:   p.Status,
		LaunchID: p.LaunchID,
		Start:    p.StartTime.Time,
	}
}

// rpTime accepts the epoch milliseconds of older servers and the ISO-8601 strings of newer ones.
type rpTime struct {
	time.Time
}

func (t *rpTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] != '"' {
		ms, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return err
		}
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	t.Time = parsed.UTC()
	return nil
}
