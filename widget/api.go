package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"clai-chat/internal/dto"
)

// TransportError reports a non-2xx response. Failure bodies are not parsed;
// the status code is all the widget acts on.
type TransportError struct {
	StatusCode int
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("widget api: unexpected status %d", e.StatusCode)
}

// APIClient talks to the public REST surface. Every operation is a single
// round trip with no retry and no idempotency key.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
}

func (c *APIClient) StartConversation(ctx context.Context, req dto.StartConversationRequest) (*dto.StartConversationResponse, error) {
	var resp dto.StartConversationResponse
	if err := c.post(ctx, "/public/conversations", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) SendMessage(ctx context.Context, conversationID, content string) (*dto.PostMessageResponse, error) {
	var resp dto.PostMessageResponse
	path := "/public/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.post(ctx, path, dto.PostMessageRequest{Content: content}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) EndConversation(ctx context.Context, conversationID string) (*dto.EndConversationResponse, error) {
	var resp dto.EndConversationResponse
	path := "/public/conversations/" + url.PathEscape(conversationID) + "/end"
	if err := c.post(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) CreateLead(ctx context.Context, req dto.CreateLeadRequest) (*dto.CreateLeadResponse, error) {
	var resp dto.CreateLeadResponse
	if err := c.post(ctx, "/public/leads", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) WidgetConfig(ctx context.Context, chatbotID string) (*dto.WidgetConfigResponse, error) {
	endpoint := c.baseURL + "/public/widget-config?chatbot_id=" + url.QueryEscape(chatbotID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build widget config request: %w", err)
	}

	var resp dto.WidgetConfigResponse
	if err := c.do(httpReq, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) post(ctx context.Context, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(httpReq, out)
}

func (c *APIClient) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{StatusCode: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}
