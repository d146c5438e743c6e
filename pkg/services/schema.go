package services

import (
	"fmt"
	"strings"

	"github.com/chantierpro/automation/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

func nullable(t string, extra map[string]any) map[string]any {
	schema := map[string]any{"type": []any{t, "null"}}
	for k, v := range extra {
		schema[k] = v
	}

	return schema
}

func eventEnum() []any {
	names := models.EventNames()
	enum := make([]any, 0, len(names))

	for _, name := range names {
		enum = append(enum, string(name))
	}

	return enum
}

// ruleSchema describes a stored rule document. Unknown condition keys are
// allowed and ignored at evaluation time.
var ruleSchema = map[string]any{
	"$schema":  "http://json-schema.org/draft-07/schema#",
	"type":     "object",
	"required": []any{"name", "event", "actions"},
	"properties": map[string]any{
		"id":          map[string]any{"type": "string"},
		"name":        map[string]any{"type": "string", "minLength": 3},
		"description": map[string]any{"type": "string"},
		"event":       map[string]any{"type": "string", "enum": eventEnum()},
		"active":      map[string]any{"type": "boolean"},
		"conditions": map[string]any{
			"type": []any{"object", "null"},
			"properties": map[string]any{
				models.ConditionStatus:         nullable("string", nil),
				models.ConditionPreviousStatus: nullable("string", nil),
				models.ConditionMinimumAgeDays: nullable("integer", map[string]any{"minimum": 0}),
				models.ConditionPriority:       nullable("string", nil),
				models.ConditionClientType:     nullable("string", nil),
			},
		},
		"actions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"type"},
				"properties": map[string]any{
					"type":       map[string]any{"type": "string", "minLength": 1},
					"parameters": map[string]any{"type": []any{"object", "null"}},
				},
			},
		},
	},
}

var ruleSchemaLoader = gojsonschema.NewGoLoader(ruleSchema)

// validateRuleDocument checks a decoded rule document against ruleSchema.
func validateRuleDocument(document any) error {
	result, err := gojsonschema.Validate(ruleSchemaLoader, gojsonschema.NewGoLoader(document))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidRule, strings.Join(errors, "; "))
	}

	return nil
}
