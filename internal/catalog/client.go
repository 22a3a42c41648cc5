package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vytor/dailyalbum/internal/logger"
	"github.com/vytor/dailyalbum/internal/models"
)

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type albumResp struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	ImageRef          string `json:"image_ref"`
	PrimaryArtistName string `json:"primary_artist_name"`
}

func (c *HTTPClient) FetchEntitySummary(ctx context.Context, id string) (*models.EntitySummary, error) {
	log := logger.FromContext(ctx).WithPrefix("catalog").WithField("entity_id", id)
	endpoint := fmt.Sprintf("%s/albums/%s", c.baseURL, url.PathEscape(id))

	log.Debug("fetching entity summary from: %s", endpoint)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Error("failed to create request: %v", err)
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("failed to fetch entity summary: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	log.Debug("catalog response received in %v, status=%d", time.Since(start), resp.StatusCode)

	if resp.StatusCode == http.StatusNotFound {
		log.Debug("entity not in catalog")
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Error("catalog request failed: status=%d, body=%s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("catalog status %d: %s", resp.StatusCode, string(body))
	}

	var out albumResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Error("failed to decode catalog response: %v", err)
		return nil, err
	}
	if out.ID == "" {
		out.ID = id
	}

	return &models.EntitySummary{
		ID:                out.ID,
		Title:             out.Title,
		ImageRef:          out.ImageRef,
		PrimaryArtistName: out.PrimaryArtistName,
	}, nil
}
