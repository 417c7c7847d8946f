package kintone

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tsunagu/config"
	"tsunagu/utils"

	"go.uber.org/zap"
)

// Package-level HTTP client for event-master API calls.
var kintoneHTTPClient = &http.Client{Timeout: 15 * time.Second}

// EventRecord is one row of the external event master, normalized to the
// local date and time formats.
type EventRecord struct {
	RecordID  string
	Title     string
	Date      string // YYYY/MM/DD
	StartTime string // HH:MM
	EndTime   string // HH:MM
	ImageURL  string
}

type kintoneField struct {
	Value string `json:"value"`
}

type kintoneRecord struct {
	ID       kintoneField `json:"$id"`
	Title    kintoneField `json:"イベント名"`
	Start    kintoneField `json:"開始日時"`
	End      kintoneField `json:"終了日時"`
	ImageURL kintoneField `json:"画像URL"`
}

type recordsResponse struct {
	Records []kintoneRecord `json:"records"`
}

// Client fetches scheduled events from the external event master.
type Client struct {
	domain   string
	appID    string
	apiToken string
	baseURL  string
}

// NewClient creates an event-master client from configuration.
func NewClient() *Client {
	return &Client{
		domain:   config.AppConfig.KintoneDomain,
		appID:    config.AppConfig.KintoneEventAppID,
		apiToken: config.AppConfig.KintoneEventAPIToken,
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(appID, apiToken, baseURL string) *Client {
	return &Client{appID: appID, apiToken: apiToken, baseURL: baseURL}
}

func (c *Client) recordsURL() string {
	if c.baseURL != "" {
		return c.baseURL + "/k/v1/records.json"
	}
	return fmt.Sprintf("https://%s.cybozu.com/k/v1/records.json", c.domain)
}

// FetchNextMonthEvents returns next month's events relative to now, sorted by
// start time. Fetch failures return an empty slice with the error so callers
// can skip reconciliation safely.
func (c *Client) FetchNextMonthEvents(ctx context.Context, now time.Time) ([]EventRecord, error) {
	now = now.In(utils.JST)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, utils.JST).AddDate(0, 1, 0)
	last := first.AddDate(0, 1, -1)

	query := fmt.Sprintf(`開始日時 >= "%s" and 開始日時 <= "%s" order by 開始日時 asc`,
		first.Format("2006-01-02"), last.Format("2006-01-02"))

	endpoint := fmt.Sprintf("%s?app=%s&query=%s", c.recordsURL(), c.appID, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build event-master request: %w", err)
	}
	req.Header.Set("X-Cybozu-API-Token", c.apiToken)

	resp, err := kintoneHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("event-master request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("event-master API returned %d: %s", resp.StatusCode, string(detail))
	}

	var parsed recordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode event-master response: %w", err)
	}

	logger := utils.GetLogger()
	out := make([]EventRecord, 0, len(parsed.Records))
	for _, rec := range parsed.Records {
		start, err := time.Parse(time.RFC3339, rec.Start.Value)
		if err != nil {
			logger.Warn("Skipping event with unparsable start time",
				zap.String("record", rec.ID.Value), zap.Error(err))
			continue
		}
		start = start.In(utils.JST)

		endTime := ""
		if end, err := time.Parse(time.RFC3339, rec.End.Value); err == nil {
			endTime = end.In(utils.JST).Format("15:04")
		}

		out = append(out, EventRecord{
			RecordID:  rec.ID.Value,
			Title:     rec.Title.Value,
			Date:      start.Format("2006/01/02"),
			StartTime: start.Format("15:04"),
			EndTime:   endTime,
			ImageURL:  rec.ImageURL.Value,
		})
	}

	logger.Info("Fetched events from event master", zap.Int("count", len(out)))
	return out, nil
}
