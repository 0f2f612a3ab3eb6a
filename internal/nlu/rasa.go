package nlu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type rasaParseRequest struct {
	Text string `json:"text"`
}

type rasaParseResponse struct {
	Intent struct {
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
	} `json:"intent"`
	Entities []struct {
		Entity string `json:"entity"`
		Value  any    `json:"value"`
	} `json:"entities"`
}

// RasaClient classifies text with a Rasa server's /model/parse endpoint.
type RasaClient struct {
	httpClient *resty.Client
}

// NewRasaClient creates a client for the Rasa server at baseURL.
func NewRasaClient(baseURL string, timeout time.Duration) *RasaClient {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", "support-chat/1.0").
		SetTimeout(timeout)

	return &RasaClient{httpClient: httpClient}
}

// Parse sends text to Rasa. When an entity type repeats, the last value wins.
func (c *RasaClient) Parse(ctx context.Context, text string) (Classification, error) {
	var resp rasaParseResponse
	httpResp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(rasaParseRequest{Text: text}).
		SetResult(&resp).
		Post("/model/parse")
	if err != nil {
		return Classification{}, fmt.Errorf("rasa parse request failed: %w: %w", ErrUpstream, err)
	}
	if httpResp.IsError() {
		return Classification{}, fmt.Errorf("rasa parse error (%d): %w", httpResp.StatusCode(), ErrUpstream)
	}

	cls := Classification{
		Intent:   resp.Intent.Name,
		Entities: make(map[string]string, len(resp.Entities)),
	}
	if cls.Intent == "" {
		cls.Intent = FallbackIntent
	}
	for _, e := range resp.Entities {
		if e.Entity == "" || e.Value == nil {
			continue
		}
		value := fmt.Sprint(e.Value)
		if value == "" {
			continue
		}
		cls.Entities[e.Entity] = value
	}
	return cls, nil
}
