package opendata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/substation-imagery-etl/internal/domain"
)

// Client implements domain.Catalog against the Enedis open-data records API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a catalog client. A zero timeout leaves requests unbounded.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// FetchDepartment returns the raw catalog records for one department code.
// Non-200 responses and undecodable bodies are errors.
func (c *Client) FetchDepartment(ctx context.Context, code string, limit int) ([]domain.CatalogRecord, error) {
	params := url.Values{
		"limit":  {strconv.Itoa(limit)},
		"refine": {domain.RefineDepartment(code)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request for department %s: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("catalog API error: status %d: %s", resp.StatusCode, body)
	}

	var catalogResp response
	if err := json.NewDecoder(resp.Body).Decode(&catalogResp); err != nil {
		return nil, fmt.Errorf("decode catalog response for department %s: %w", code, err)
	}

	c.logger.Debug("catalog page received", "department", code, "results", len(catalogResp.Results), "total_count", catalogResp.TotalCount)
	return catalogResp.Results, nil
}

// Catalog API response envelope.

type response struct {
	TotalCount int                    `json:"total_count"`
	Results    []domain.CatalogRecord `json:"results"`
}
