package file

import (
	"context"
	"sort"
	"time"

	"github.com/chantierpro/automation/pkg/models"
	"github.com/chantierpro/automation/pkg/persistence"
)

// RuleRepository handles rule-related file operations.
type RuleRepository struct {
	store *store
}

// ActiveRulesByEvent returns active rules for event ordered by creation time, then id.
func (rr *RuleRepository) ActiveRulesByEvent(ctx context.Context, event models.EventName) ([]*models.WorkflowRule, error) {
	active := true

	return rr.List(ctx, persistence.ListRulesOptions{Event: &event, Active: &active})
}

// List returns rules matching opts ordered by creation time, then id.
func (rr *RuleRepository) List(_ context.Context, opts persistence.ListRulesOptions) ([]*models.WorkflowRule, error) {
	rr.store.mu.RLock()
	defer rr.store.mu.RUnlock()

	all, err := list[models.WorkflowRule](rr.store, rulesDir)
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.WorkflowRule, 0, len(all))

	for _, rule := range all {
		if opts.Event != nil && rule.Event != *opts.Event {
			continue
		}

		if opts.Active != nil && rule.Active != *opts.Active {
			continue
		}

		filtered = append(filtered, rule)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if !filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
		}

		return filtered[i].ID < filtered[j].ID
	})

	return filtered, nil
}

// GetByID retrieves a rule by its ID from the file system.
func (rr *RuleRepository) GetByID(_ context.Context, id string) (*models.WorkflowRule, error) {
	rr.store.mu.RLock()
	defer rr.store.mu.RUnlock()

	rule, found, err := read[models.WorkflowRule](rr.store, rulesDir, id)
	if err != nil {
		return nil, persistence.NewRuleError("GetByID", id, err)
	}

	if !found {
		return nil, persistence.NewRuleError("GetByID", id, persistence.ErrRuleNotFound)
	}

	return rule, nil
}

// Save saves a rule to the file system.
func (rr *RuleRepository) Save(_ context.Context, rule *models.WorkflowRule) error {
	rr.store.mu.Lock()
	defer rr.store.mu.Unlock()

	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}

	rule.UpdatedAt = now

	err := write(rr.store, rulesDir, rule.ID, rule)
	if err != nil {
		return persistence.NewRuleError("Save", rule.ID, err)
	}

	return nil
}

// SetActive toggles the active flag of a rule.
func (rr *RuleRepository) SetActive(_ context.Context, id string, active bool) error {
	rr.store.mu.Lock()
	defer rr.store.mu.Unlock()

	rule, found, err := read[models.WorkflowRule](rr.store, rulesDir, id)
	if err != nil {
		return persistence.NewRuleError("SetActive", id, err)
	}

	if !found {
		return persistence.NewRuleError("SetActive", id, persistence.ErrRuleNotFound)
	}

	rule.Active = active
	rule.UpdatedAt = time.Now().UTC()

	err = write(rr.store, rulesDir, id, rule)
	if err != nil {
		return persistence.NewRuleError("SetActive", id, err)
	}

	return nil
}
