// Package template renders action texts such as task titles and email
// subjects against the event context that triggered them.
package template

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/chantierpro/automation/pkg/models"
)

const dateLayout = "02/01/2006"

// contextFields are the EventContext members templates may always reference.
// An absent member renders as empty text.
var (
	contextFields = []string{
		"entityId", "entityType", "opportunityId", "userId",
		"previousStatus", "newStatus", "priority", "createdAt",
	}
	clientFields = []string{"id", "type", "email", "name"}
)

// NeedsTemplating reports whether input contains template actions.
func NeedsTemplating(input string) bool {
	return strings.Contains(input, "{{")
}

// ContextData exposes ectx under its JSON field names, extras included. Known
// fields are always present so that a template can reference them even when
// the event did not carry them.
func ContextData(ectx models.EventContext) (map[string]any, error) {
	body, err := json.Marshal(ectx)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event context: %w", err)
	}

	data := map[string]any{}

	err = json.Unmarshal(body, &data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode event context: %w", err)
	}

	for _, field := range contextFields {
		if _, ok := data[field]; !ok {
			data[field] = ""
		}
	}

	client, _ := data["client"].(map[string]any)
	if client == nil {
		client = map[string]any{}
		data["client"] = client
	}

	for _, field := range clientFields {
		if _, ok := client[field]; !ok {
			client[field] = ""
		}
	}

	return data, nil
}

// Render executes templateStr against data. now backs the "now" and "today"
// functions. Referencing a key missing from a map is an error.
func Render(templateStr string, data any, now time.Time) (string, error) {
	tmpl, err := template.
		New("action").
		Funcs(template.FuncMap{
			"now": func() string {
				return now.Format(time.RFC3339)
			},
			"today": func() string {
				return now.Format(dateLayout)
			},
			"date": func(value any) string {
				return formatDate(value)
			},
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
			"default": func(fallback string, value any) string {
				if s, ok := value.(string); ok && s != "" {
					return s
				}

				if value != nil {
					if _, isString := value.(string); !isString {
						return fmt.Sprint(value)
					}
				}

				return fallback
			},
		}).
		Option("missingkey=error").
		Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	return buf.String(), nil
}

// RenderContext renders input against ectx. Input without template actions is
// returned unchanged.
func RenderContext(input string, ectx models.EventContext, now time.Time) (string, error) {
	if !NeedsTemplating(input) {
		return input, nil
	}

	data, err := ContextData(ectx)
	if err != nil {
		return "", err
	}

	return Render(input, data, now)
}

func formatDate(value any) string {
	switch v := value.(type) {
	case time.Time:
		return v.Format(dateLayout)
	case *time.Time:
		if v == nil {
			return ""
		}

		return v.Format(dateLayout)
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return v
		}

		return t.Format(dateLayout)
	default:
		return ""
	}
}
