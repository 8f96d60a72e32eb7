// Package giphy searches Giphy for background images.
package giphy

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

	"mp4creator/internal/config"
	"mp4creator/internal/services"
)

// HTTPDoer is the subset of *http.Client used here.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Image is one search hit, using the original rendition.
type Image struct {
	ID     string
	Title  string
	URL    string
	Width  int
	Height int
	Size   int64
}

// Client calls the Giphy search endpoint.
type Client struct {
	apiKey  string
	baseURL string
	limit   int
	rating  string
	lang    string
	client  HTTPDoer
}

type searchResponse struct {
	Data []struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Images struct {
			Original struct {
				URL    string `json:"url"`
				Width  string `json:"width"`
				Height string `json:"height"`
				Size   string `json:"size"`
			} `json:"original"`
		} `json:"images"`
	} `json:"data"`
	Meta struct {
		Status int    `json:"status"`
		Msg    string `json:"msg"`
	} `json:"meta"`
}

// NewFromConfig builds a client from the [giphy] section.
func NewFromConfig(cfg config.Giphy) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return New(cfg.APIKey, cfg.BaseURL, cfg.Limit, cfg.Rating, cfg.Language, &http.Client{Timeout: timeout})
}

// New builds a client. Empty rating and language fall back to "g" and "ko".
func New(apiKey, baseURL string, limit int, rating, lang string, doer HTTPDoer) *Client {
	if limit <= 0 {
		limit = 1
	}
	if rating == "" {
		rating = "g"
	}
	if lang == "" {
		lang = "ko"
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: strings.TrimSpace(baseURL),
		limit:   limit,
		rating:  rating,
		lang:    lang,
		client:  doer,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Search returns up to the configured number of images for query. No hits
// is an empty slice, not an error.
func (c *Client) Search(ctx context.Context, query string) ([]Image, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("giphy: search query is empty")
	}
	if !c.Enabled() {
		return nil, services.Wrap(services.ErrConfiguration, "images", "giphy search", "api key is not set", nil)
	}

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "images", "giphy search", "invalid base url", err)
	}
	params := endpoint.Query()
	params.Set("api_key", c.apiKey)
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(c.limit))
	params.Set("rating", c.rating)
	params.Set("lang", c.lang)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("giphy: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "images", "giphy search", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		marker := services.ErrExternalTool
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			marker = services.ErrTransient
		}
		return nil, services.Wrap(marker, "images", "giphy search", fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(body))), nil)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("giphy: decode response: %w", err)
	}
	images := make([]Image, 0, len(decoded.Data))
	for _, item := range decoded.Data {
		original := item.Images.Original
		if original.URL == "" {
			continue
		}
		width, _ := strconv.Atoi(original.Width)
		height, _ := strconv.Atoi(original.Height)
		size, _ := strconv.ParseInt(original.Size, 10, 64)
		images = append(images, Image{
			ID:     item.ID,
			Title:  item.Title,
			URL:    original.URL,
			Width:  width,
			Height: height,
			Size:   size,
		})
	}
	return images, nil
}
