package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mohitkumar/funnel/config"
)

// RenderRequest is one generation request against the rendering backend.
type RenderRequest struct {
	WorkflowId     string         `json:"workflowId"`
	Prompt         string         `json:"prompt"`
	NegativePrompt string         `json:"negativePrompt"`
	Seed           int64          `json:"seed"`
	Parameters     map[string]any `json:"parameters"`
}

type RenderResult struct {
	JobId    string `json:"jobId"`
	Status   string `json:"status"`
	FilePath string `json:"filePath"`
	Seed     int64  `json:"seed"`
}

type RenderClient interface {
	Render(ctx context.Context, req RenderRequest) (*RenderResult, error)
}

var _ RenderClient = new(httpRenderClient)

type httpRenderClient struct {
	endpoint string
	client   *http.Client
}

func NewHttpRenderClient(conf config.RenderBackendConfig) *httpRenderClient {
	return &httpRenderClient{
		endpoint: conf.Endpoint,
		client: &http.Client{
			Timeout: conf.Timeout,
		},
	}
}

func (c *httpRenderClient) Render(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render backend returned status %d for workflow %s", resp.StatusCode, req.WorkflowId)
	}
	var result RenderResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
