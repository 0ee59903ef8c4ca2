// Package template renders dynamic workflow configuration against the
// execution context.
package template

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/conductorhq/conductor/pkg/models"
)

// RenderWithContext renders input with the execution context's trigger data,
// node outputs and metadata exposed as template data.
func RenderWithContext(input string, executionCtx *models.ExecutionContext) (any, error) {
	data := map[string]any{
		"trigger_data": executionCtx.TriggerData,
		"node_outputs": executionCtx.NodeOutputs,
		"metadata":     executionCtx.Metadata,
		"execution": map[string]any{
			"id":           executionCtx.ID,
			"workflow_id":  executionCtx.WorkflowID,
			"trigger_type": executionCtx.TriggerType,
			"simulation":   executionCtx.Simulation,
		},
	}

	return Render(input, data)
}

// Render executes templateStr against data. Results that look like JSON,
// numbers or booleans are decoded into the matching Go value; everything
// else comes back as a string.
func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.
		New("render").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
		}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		err := json.Unmarshal([]byte(result), &jsonResult)
		if err == nil {
			return jsonResult, nil
		}

		return nil, fmt.Errorf("failed to parse json '%s': %w", templateStr, err)
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}
