package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chantierpro/automation/pkg/models"
	"github.com/chantierpro/automation/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Rules manages workflow rule documents.
type Rules struct {
	persistence persistence.Persistence
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewRules(p persistence.Persistence, logger *slog.Logger) *Rules {
	return &Rules{
		persistence: p,
		validator:   validator.New(),
		logger:      logger.With("module", "rules_service"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (r *Rules) HealthCheck(ctx context.Context) (string, bool) {
	if r.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := r.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListRulesRequest filters rule listings. Empty fields do not filter.
type ListRulesRequest struct {
	Event  string
	Active *bool
}

func (r *Rules) List(ctx context.Context, req ListRulesRequest) ([]*models.WorkflowRule, error) {
	opts := persistence.ListRulesOptions{Active: req.Active}

	if req.Event != "" {
		event, err := models.ParseEventName(req.Event)
		if err != nil {
			return nil, invalid("rules.List", CodeInvalidEvent, err.Error(), ErrInvalidEvent)
		}

		opts.Event = &event
	}

	rules, err := r.persistence.RuleRepository().List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	return rules, nil
}

func (r *Rules) Get(ctx context.Context, id string) (*models.WorkflowRule, error) {
	rule, err := r.persistence.RuleRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return rule, nil
}

// Create validates a rule document and stores it. A missing id is generated,
// a missing active flag defaults to true.
func (r *Rules) Create(ctx context.Context, data []byte) (*models.WorkflowRule, error) {
	compiled, err := r.Parse(data)
	if err != nil {
		return nil, err
	}

	rule := compiled.Rule

	if rule.ID == "" {
		rule.ID = uuid.NewString()
	} else {
		_, err := r.persistence.RuleRepository().GetByID(ctx, rule.ID)
		if err == nil {
			return nil, conflict("rules.Create", CodeRuleExists, "rule "+rule.ID+" already exists")
		}

		if !persistence.IsRuleNotFound(err) {
			return nil, fmt.Errorf("failed to check rule %s: %w", rule.ID, err)
		}
	}

	if tags := compiled.Unsupported(); len(tags) > 0 {
		r.logger.WarnContext(ctx, "rule contains unsupported action types", "rule_id", rule.ID, "types", tags)
	}

	if len(compiled.Conditions.Unknown) > 0 {
		r.logger.WarnContext(ctx, "rule contains unknown condition keys", "rule_id", rule.ID, "keys", compiled.Conditions.Unknown)
	}

	err = r.persistence.RuleRepository().Save(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("failed to save rule: %w", err)
	}

	r.logger.InfoContext(ctx, "rule created", "rule_id", rule.ID, "event", rule.Event)

	return rule, nil
}

func (r *Rules) Activate(ctx context.Context, id string) (*models.WorkflowRule, error) {
	return r.setActive(ctx, id, true)
}

func (r *Rules) Deactivate(ctx context.Context, id string) (*models.WorkflowRule, error) {
	return r.setActive(ctx, id, false)
}

func (r *Rules) setActive(ctx context.Context, id string, active bool) (*models.WorkflowRule, error) {
	err := r.persistence.RuleRepository().SetActive(ctx, id, active)
	if err != nil {
		return nil, fmt.Errorf("failed to update rule: %w", err)
	}

	r.logger.InfoContext(ctx, "rule updated", "rule_id", id, "active", active)

	return r.Get(ctx, id)
}

// Parse checks one rule document against the rule schema, the struct
// constraints and the condition and action parsers.
func (r *Rules) Parse(data []byte) (*models.CompiledRule, error) {
	var document map[string]any

	err := json.Unmarshal(data, &document)
	if err != nil {
		return nil, invalid("rules.Parse", CodeInvalidJSON, "rule is not a JSON object: "+err.Error(), ErrInvalidRequest)
	}

	return r.parseDocument(document, data)
}

func (r *Rules) parseDocument(document map[string]any, data []byte) (*models.CompiledRule, error) {
	err := validateRuleDocument(document)
	if err != nil {
		return nil, invalid("rules.Parse", CodeSchemaViolation, err.Error(), err)
	}

	var rule models.WorkflowRule

	err = json.Unmarshal(data, &rule)
	if err != nil {
		return nil, invalid("rules.Parse", CodeInvalidRule, err.Error(), ErrInvalidRule)
	}

	if _, ok := document["active"]; !ok {
		rule.Active = true
	}

	err = r.validator.Struct(rule)
	if err != nil {
		return nil, invalid("rules.Parse", CodeInvalidRule, err.Error(), ErrInvalidRule)
	}

	compiled, err := models.CompileRule(&rule)
	if err != nil {
		return nil, invalid("rules.Parse", CodeInvalidRule, err.Error(), errors.Join(ErrInvalidRule, err))
	}

	return compiled, nil
}

// RuleReport is the validation outcome of one rule document.
type RuleReport struct {
	Index       int                 `json:"index"`
	ID          string              `json:"id,omitempty"`
	Name        string              `json:"name,omitempty"`
	Valid       bool                `json:"valid"`
	Error       string              `json:"error,omitempty"`
	Unsupported []models.ActionType `json:"unsupported_actions,omitempty"`
	UnknownKeys []string            `json:"unknown_condition_keys,omitempty"`
}

// ValidateRaw checks each rule document without storing anything.
func (r *Rules) ValidateRaw(raws []json.RawMessage) []RuleReport {
	reports := make([]RuleReport, 0, len(raws))

	for i, raw := range raws {
		report := RuleReport{Index: i}

		compiled, err := r.Parse(raw)
		if err != nil {
			report.Error = err.Error()
		} else {
			report.Valid = true
			report.ID = compiled.Rule.ID
			report.Name = compiled.Rule.Name
			report.Unsupported = compiled.Unsupported()
			report.UnknownKeys = compiled.Conditions.Unknown
		}

		reports = append(reports, report)
	}

	return reports
}

// CheckIDs fails with a conflict when two documents share an explicit id or
// when an explicit id is already stored. Documents without an id never clash.
func (r *Rules) CheckIDs(ctx context.Context, raws []json.RawMessage) error {
	seen := make(map[string]int, len(raws))

	for i, raw := range raws {
		var document struct {
			ID string `json:"id"`
		}

		err := json.Unmarshal(raw, &document)
		if err != nil {
			return invalid("rules.CheckIDs", CodeInvalidJSON, fmt.Sprintf("rule %d is not a JSON object: %v", i, err), ErrInvalidRequest)
		}

		if document.ID == "" {
			continue
		}

		if first, ok := seen[document.ID]; ok {
			return conflict("rules.CheckIDs", CodeRuleExists, fmt.Sprintf("rules %d and %d share id %s", first, i, document.ID))
		}

		seen[document.ID] = i

		_, err = r.persistence.RuleRepository().GetByID(ctx, document.ID)
		if err == nil {
			return conflict("rules.CheckIDs", CodeRuleExists, fmt.Sprintf("rule %d: rule %s already exists", i, document.ID))
		}

		if !persistence.IsRuleNotFound(err) {
			return fmt.Errorf("failed to check rule %s: %w", document.ID, err)
		}
	}

	return nil
}
