package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/logger"
)

// AssistantClient talks to the external AI assistant service used for
// questions the knowledge base cannot answer.
type AssistantClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	log     *logger.Logger
}

type assistantRequest struct {
	Message string              `json:"message"`
	Context []assistantExchange `json:"context,omitempty"`
}

type assistantExchange struct {
	Message  string `json:"message"`
	Response string `json:"response"`
}

type assistantResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func NewAssistantClient(baseURL, apiKey string, timeout time.Duration, log *logger.Logger) *AssistantClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AssistantClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
		log:     log.WithComponent("assistant_client"),
	}
}

// Enabled reports whether an upstream service is configured at all.
func (c *AssistantClient) Enabled() bool {
	return c.baseURL != ""
}

// Generate asks the upstream assistant for a reply, optionally passing
// prior exchanges of the conversation as context.
func (c *AssistantClient) Generate(ctx context.Context, message string, history []assistantExchange) (string, error) {
	if message == "" {
		return "", errors.New("missing message")
	}
	jsonData, err := json.Marshal(assistantRequest{Message: message, Context: history})
	if err != nil {
		return "", err
	}

	url := c.baseURL + "/v1/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		c.log.Warn("assistant request failed", "error", err)
		return "", err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assistant returned status %d", httpResp.StatusCode)
	}

	var resp assistantResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", errors.New(resp.Error)
	}
	if resp.Response == "" {
		return "", errors.New("assistant returned empty response")
	}
	return resp.Response, nil
}
