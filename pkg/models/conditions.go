package models

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// Recognized condition keys.
const (
	ConditionStatus         = "statut"
	ConditionPreviousStatus = "previousStatus"
	ConditionMinimumAgeDays = "minimumAgeDays"
	ConditionPriority       = "priority"
	ConditionClientType     = "clientType"
)

const day = 24 * time.Hour

var ErrInvalidCondition = errors.New("invalid condition")

// Conditions is the typed form of a rule's condition document. A nil field
// places no constraint on the context.
type Conditions struct {
	Status         *string
	PreviousStatus *string
	MinimumAgeDays *int
	Priority       *string
	ClientType     *string

	// Unknown lists keys that are not recognized. They never affect matching.
	Unknown []string
}

// ParseConditions converts a stored condition document into Conditions.
// Null values are treated as absent.
func ParseConditions(doc map[string]any) (Conditions, error) {
	var c Conditions

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, key := range keys {
		value := doc[key]
		if value == nil {
			continue
		}

		var err error

		switch key {
		case ConditionStatus:
			c.Status, err = stringCondition(key, value)
		case ConditionPreviousStatus:
			c.PreviousStatus, err = stringCondition(key, value)
		case ConditionPriority:
			c.Priority, err = stringCondition(key, value)
		case ConditionClientType:
			c.ClientType, err = stringCondition(key, value)
		case ConditionMinimumAgeDays:
			c.MinimumAgeDays, err = intCondition(key, value)
		default:
			c.Unknown = append(c.Unknown, key)
		}

		if err != nil {
			return Conditions{}, err
		}
	}

	return c, nil
}

// Matches reports whether every specified condition holds for ctx at now.
// An empty Conditions always matches.
func (c Conditions) Matches(ctx EventContext, now time.Time) bool {
	if c.Status != nil && *c.Status != ctx.NewStatus {
		return false
	}

	if c.PreviousStatus != nil && *c.PreviousStatus != ctx.PreviousStatus {
		return false
	}

	if c.Priority != nil && *c.Priority != ctx.Priority {
		return false
	}

	if c.ClientType != nil && (ctx.Client == nil || *c.ClientType != ctx.Client.Type) {
		return false
	}

	if c.MinimumAgeDays != nil {
		// Age cannot be established without a creation timestamp, so the
		// condition fails even for a threshold of 0. A rule that does not
		// care about age omits the key.
		if ctx.CreatedAt == nil {
			return false
		}

		if AgeInDays(*ctx.CreatedAt, now) < *c.MinimumAgeDays {
			return false
		}
	}

	return true
}

// AgeInDays returns floor((now - createdAt) / 1 day).
func AgeInDays(createdAt, now time.Time) int {
	return int(math.Floor(float64(now.Sub(createdAt)) / float64(day)))
}

func stringCondition(key string, value any) (*string, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidCondition, key, value)
	}

	return &s, nil
}

func intCondition(key string, value any) (*int, error) {
	n, err := toInt(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %v", ErrInvalidCondition, key, err)
	}

	return &n, nil
}
