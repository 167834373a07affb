// Package newsdata is the live search provider backed by the newsdata.io
// "latest news" endpoint.
package newsdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/deusflow/dealwatch/internal/news"
)

const maxBodyBytes = 5 << 20

// Client queries newsdata.io. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	language   string
	pageSize   int
	httpClient *http.Client
}

// New returns a Client. timeout bounds each request in addition to the
// caller's context.
func New(baseURL, apiKey, language string, pageSize int, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		language:   language,
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type response struct {
	Status  string         `json:"status"`
	Results []news.Article `json:"results"`
}

// Search runs one free-text query. Any transport failure, non-200 status or
// malformed body is returned as a classified error and no articles.
func (c *Client) Search(ctx context.Context, query string) ([]news.Article, error) {
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("q", query)
	params.Set("language", c.language)
	params.Set("size", strconv.Itoa(c.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", news.ErrFetchTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, news.ClassifyFetchError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: newsdata status %d", news.ErrFetchTransport, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, news.ClassifyFetchError(err)
	}

	var payload response
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode newsdata response: %v", news.ErrFetchParse, err)
	}
	if payload.Status != "success" {
		return nil, fmt.Errorf("%w: newsdata status %q", news.ErrFetchParse, payload.Status)
	}
	return payload.Results, nil
}
