package streetview

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

// Client implements domain.Imagery using the Street View Static API.
type Client struct {
	key        string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Street View client. The metadata endpoint lives at
// baseURL + "/metadata".
func NewClient(baseURL, key string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		key: key,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// Metadata checks whether imagery exists at a location and heading. A non-200
// status is reported through the result rather than as an error.
func (c *Client) Metadata(ctx context.Context, lat, lon float64, heading int) (domain.MetadataResult, error) {
	params := c.params(lat, lon, heading)

	resp, err := c.get(ctx, c.baseURL+"/metadata?"+params.Encode(), "metadata")
	if err != nil {
		return domain.MetadataResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Debug("metadata lookup rejected", "status", resp.StatusCode, "heading", heading)
		return domain.MetadataResult{StatusCode: resp.StatusCode}, nil
	}

	var meta metadataResponse
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return domain.MetadataResult{}, fmt.Errorf("decode metadata response: %w", err)
	}

	c.logger.Debug("metadata lookup", "heading", heading, "status", meta.Status, "pano_id", meta.PanoID, "date", meta.Date)
	return domain.MetadataResult{StatusCode: resp.StatusCode, Status: meta.Status}, nil
}

// Image downloads the image at a location and heading. The body is returned
// only for 200 responses.
func (c *Client) Image(ctx context.Context, lat, lon float64, heading int) (domain.ImageResponse, error) {
	params := c.params(lat, lon, heading)
	params.Set("size", domain.ImageSize)

	resp, err := c.get(ctx, c.baseURL+"?"+params.Encode(), "image")
	if err != nil {
		return domain.ImageResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return domain.ImageResponse{StatusCode: resp.StatusCode}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ImageResponse{}, fmt.Errorf("read image body: %w", err)
	}
	return domain.ImageResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) params(lat, lon float64, heading int) url.Values {
	return url.Values{
		"location": {domain.FormatLocation(lat, lon)},
		"heading":  {strconv.Itoa(heading)},
		"key":      {c.key},
	}
}

func (c *Client) get(ctx context.Context, fullURL, kind string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", kind, err)
	}
	return resp, nil
}

// Street View metadata response.

type metadataResponse struct {
	Status string `json:"status"`
	PanoID string `json:"pano_id"`
	Date   string `json:"date"`
}
