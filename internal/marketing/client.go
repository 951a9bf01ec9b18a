// Package marketing fetches advertising campaign summaries from the
// marketplace promotion API. The dashboard only consumes the period-level
// total cost; the rest is exposed for the campaigns screen.
package marketing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"kaspi-seller-dashboard/config"
)

// Campaign is one advertising campaign's performance over a period
type Campaign struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Cost   float64 `json:"cost"`
	GMV    float64 `json:"gmv"`
	Clicks int     `json:"clicks"`
	Orders int     `json:"orders"`
}

// CampaignSummary is the period-level rollup of all campaigns
type CampaignSummary struct {
	TotalCost float64    `json:"total_cost"`
	TotalGMV  float64    `json:"total_gmv"`
	ROAS      float64    `json:"roas"`
	Campaigns []Campaign `json:"campaigns,omitempty"`
}

// Client fetches campaign summaries. When mock mode is enabled it returns
// deterministic figures instead of calling the promotion API.
type Client struct {
	baseURL    string
	mockMode   bool
	httpClient *http.Client
}

// NewClient creates a marketing client
func NewClient(cfg config.MarketingConfig) *Client {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		mockMode: cfg.MockMode || cfg.BaseURL == "",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetCampaignSummary fetches the campaign rollup for [from, to]. ROAS is
// recomputed locally so a zero-cost period cannot produce Inf.
func (c *Client) GetCampaignSummary(ctx context.Context, merchantID string, from, to time.Time) (*CampaignSummary, error) {
	if c.mockMode {
		return c.mockSummary(from, to), nil
	}

	params := url.Values{}
	params.Set("merchantId", merchantID)
	params.Set("dateFrom", from.Format("2006-01-02"))
	params.Set("dateTo", to.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/campaigns/summary?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error building campaign request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching campaign summary: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("campaign API error (%d): %s", resp.StatusCode, string(body))
	}

	var summary CampaignSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("error parsing campaign summary: %w", err)
	}

	if summary.TotalCost > 0 {
		summary.ROAS = summary.TotalGMV / summary.TotalCost
	} else {
		summary.ROAS = 0
	}
	return &summary, nil
}

// mockSummary scales a fixed daily spend by the period length
func (c *Client) mockSummary(from, to time.Time) *CampaignSummary {
	days := int(to.Sub(from).Hours()/24) + 1
	if days < 1 {
		days = 1
	}

	cost := float64(days) * 1500
	gmv := cost * 4.2

	return &CampaignSummary{
		TotalCost: cost,
		TotalGMV:  gmv,
		ROAS:      4.2,
		Campaigns: []Campaign{
			{ID: "camp-1", Name: "Электроника — продвижение", Cost: cost * 0.7, GMV: gmv * 0.75, Clicks: days * 120, Orders: days * 3},
			{ID: "camp-2", Name: "Аксессуары — баннер", Cost: cost * 0.3, GMV: gmv * 0.25, Clicks: days * 45, Orders: days},
		},
	}
}
