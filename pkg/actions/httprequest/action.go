// Package httprequest provides an action that calls an external HTTP
// endpoint, typically a webhook.
package httprequest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/conductorhq/conductor/pkg/models"
	"github.com/conductorhq/conductor/pkg/protocol"
	"github.com/conductorhq/conductor/pkg/template"
)

const defaultTimeout = 30 * time.Second

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "http_request"
}

func (*Factory) Label() string {
	return "HTTP request"
}

func (*Factory) Description() string {
	return "Performs an HTTP request against an external endpoint. URL and body support templating."
}

// SupportsSimulation is true: under simulation the request is not sent and
// the action returns a preview of what it would have sent.
func (*Factory) SupportsSimulation() bool {
	return true
}

func (*Factory) Schema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:  "object",
		Title: "HTTP Request Action Configuration",
		Properties: map[string]*models.Property{
			"method": {
				Type:        "string",
				Description: "HTTP method.",
				Default:     "GET",
				Enum:        []any{"GET", "POST", "PUT", "PATCH", "DELETE"},
			},
			"url": {
				Type:        "string",
				Description: "Request URL. Supports templating against the execution context.",
			},
			"headers": {
				Type:        "object",
				Description: "Request headers.",
			},
			"body": {
				Type:        "string",
				Description: "Request body. Supports templating against the execution context.",
			},
			"timeout_seconds": {
				Type:        "number",
				Description: "Request timeout in seconds.",
				Default:     30,
			},
		},
		Required: []string{"url"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	method, _ := config["method"].(string)
	url, _ := config["url"].(string)
	body, _ := config["body"].(string)

	if url == "" {
		return nil, fmt.Errorf("http_request action requires a url")
	}

	if method == "" {
		method = http.MethodGet
	}

	headers := make(map[string]string)
	if headersConfig, ok := config["headers"].(map[string]any); ok {
		for k, v := range headersConfig {
			if s, ok := v.(string); ok {
				headers[k] = s
			}
		}
	}

	timeout := defaultTimeout
	if seconds, ok := config["timeout_seconds"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	return &Action{
		method:  strings.ToUpper(method),
		url:     url,
		headers: headers,
		body:    body,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type Action struct {
	method  string
	url     string
	headers map[string]string
	body    string
	timeout time.Duration
	client  *http.Client
}

func (a *Action) Run(ctx context.Context, executionCtx *models.ExecutionContext, logger *slog.Logger) (*models.ActionResult, error) {
	logger = logger.With("action_type", "http_request", "method", a.method)

	url, err := renderString(a.url, executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render url: %w", err)
	}

	body := ""
	if a.body != "" {
		body, err = renderString(a.body, executionCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to render body: %w", err)
		}
	}

	if executionCtx.Simulation {
		logger.InfoContext(ctx, "Simulation: skipping HTTP request", "url", url)

		return &models.ActionResult{
			Status: models.ActionStatusSkipped,
			Output: map[string]any{"method": a.method, "url": url, "body": body},
		}, nil
	}

	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, a.method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to build http request: %w", err)
	}

	for key, value := range a.headers {
		req.Header.Set(key, value)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	output := map[string]any{
		"status_code": resp.StatusCode,
		"url":         url,
	}

	var decoded any
	if err := json.Unmarshal(respBody, &decoded); err == nil {
		output["body"] = decoded
	} else {
		output["body"] = string(respBody)
	}

	status := models.ActionStatusSuccess
	if resp.StatusCode >= http.StatusBadRequest {
		status = models.ActionStatusFailed
	}

	logger.InfoContext(ctx, "HTTP request completed", "url", url, "status_code", resp.StatusCode)

	return &models.ActionResult{Status: status, Output: output}, nil
}

func renderString(input string, executionCtx *models.ExecutionContext) (string, error) {
	rendered, err := template.RenderWithContext(input, executionCtx)
	if err != nil {
		return "", err
	}

	if s, ok := rendered.(string); ok {
		return s, nil
	}

	encoded, err := json.Marshal(rendered)
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}
