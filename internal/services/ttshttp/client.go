// Package ttshttp renders speech through a standalone HTTP TTS service.
package ttshttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mp4creator/internal/services"
	"mp4creator/internal/tts"
)

const (
	speechPath = "/v1/generate/speech"
	healthPath = "/health"
	// maxErrorBody caps how much of a failure response is quoted.
	maxErrorBody = 512
)

// HTTPDoer is the subset of *http.Client used here.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to the TTS service.
type Client struct {
	baseURL string
	client  HTTPDoer
}

type speechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
	Rate  string `json:"rate,omitempty"`
}

type errorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// New builds a client with its own http.Client and timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithDoer(baseURL, &http.Client{Timeout: timeout})
}

// NewWithDoer builds a client around an existing HTTP doer.
func NewWithDoer(baseURL string, doer HTTPDoer) *Client {
	return &Client{baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"), client: doer}
}

// Render implements tts.Renderer.
func (c *Client) Render(ctx context.Context, req tts.Request) ([]byte, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, errors.New("tts service: text cannot be empty")
	}
	body, err := json.Marshal(speechRequest{Text: req.Text, Voice: req.Voice, Rate: req.Rate})
	if err != nil {
		return nil, fmt.Errorf("tts service: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+speechPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tts service: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "synthesis", "tts service", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts service: read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("tts service: received empty audio")
	}
	return audio, nil
}

// HealthCheck verifies the service answers on its health endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, http.NoBody)
	if err != nil {
		return fmt.Errorf("tts service: build health request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("tts service health at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tts service health: %s", resp.Status)
	}
	return nil
}

func parseErrorResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	marker := services.ErrExternalTool
	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		marker = services.ErrTransient
	}
	var decoded errorResponse
	if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Detail != "" {
		msg := decoded.Detail
		if decoded.ErrorCode != "" {
			msg += " (code: " + decoded.ErrorCode + ")"
		}
		return services.Wrap(marker, "synthesis", "tts service", resp.Status, errors.New(msg))
	}
	return services.Wrap(marker, "synthesis", "tts service", resp.Status, errors.New(strings.TrimSpace(string(raw))))
}
