package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func daysAgo(d float64) *time.Time {
	t := testNow.Add(-time.Duration(d * float64(24*time.Hour)))

	return &t
}

func mustConditions(t *testing.T, doc map[string]any) Conditions {
	t.Helper()

	c, err := ParseConditions(doc)
	require.NoError(t, err)

	return c
}

func TestConditions_EmptyAlwaysMatches(t *testing.T) {
	contexts := []EventContext{
		{},
		{NewStatus: "GAGNE", Priority: "HAUTE"},
		{Client: &ClientSnapshot{ID: "c1", Type: "PROFESSIONNEL"}, CreatedAt: daysAgo(400)},
	}

	docs := []map[string]any{
		nil,
		{},
		{"statut": nil, "priority": nil, "minimumAgeDays": nil},
	}

	for _, doc := range docs {
		c := mustConditions(t, doc)
		for _, ctx := range contexts {
			assert.True(t, c.Matches(ctx, testNow), "doc %v ctx %+v", doc, ctx)
		}
	}
}

func TestConditions_Status(t *testing.T) {
	c := mustConditions(t, map[string]any{"statut": "GAGNE"})

	assert.True(t, c.Matches(EventContext{NewStatus: "GAGNE"}, testNow))
	assert.True(t, c.Matches(EventContext{NewStatus: "GAGNE", PreviousStatus: "PROPOSITION"}, testNow))
	assert.False(t, c.Matches(EventContext{NewStatus: "PERDU"}, testNow))
	assert.False(t, c.Matches(EventContext{PreviousStatus: "GAGNE"}, testNow))
}

func TestConditions_ExactMatchFields(t *testing.T) {
	tests := []struct {
		name  string
		doc   map[string]any
		ctx   EventContext
		match bool
	}{
		{
			name:  "previous status matches",
			doc:   map[string]any{"previousStatus": "PROPOSITION"},
			ctx:   EventContext{PreviousStatus: "PROPOSITION"},
			match: true,
		},
		{
			name:  "previous status differs",
			doc:   map[string]any{"previousStatus": "PROPOSITION"},
			ctx:   EventContext{PreviousStatus: "PROSPECT"},
			match: false,
		},
		{
			name:  "priority matches",
			doc:   map[string]any{"priority": "HAUTE"},
			ctx:   EventContext{Priority: "HAUTE"},
			match: true,
		},
		{
			name:  "priority differs",
			doc:   map[string]any{"priority": "HAUTE"},
			ctx:   EventContext{Priority: "BASSE"},
			match: false,
		},
		{
			name:  "client type matches",
			doc:   map[string]any{"clientType": "PROFESSIONNEL"},
			ctx:   EventContext{Client: &ClientSnapshot{ID: "c1", Type: "PROFESSIONNEL"}},
			match: true,
		},
		{
			name:  "client type without client snapshot",
			doc:   map[string]any{"clientType": "PROFESSIONNEL"},
			ctx:   EventContext{},
			match: false,
		},
		{
			name:  "all conditions hold",
			doc:   map[string]any{"statut": "GAGNE", "previousStatus": "PROPOSITION", "priority": "HAUTE"},
			ctx:   EventContext{NewStatus: "GAGNE", PreviousStatus: "PROPOSITION", Priority: "HAUTE"},
			match: true,
		},
		{
			name:  "one condition fails",
			doc:   map[string]any{"statut": "GAGNE", "priority": "HAUTE"},
			ctx:   EventContext{NewStatus: "GAGNE", Priority: "MOYENNE"},
			match: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustConditions(t, tt.doc)
			assert.Equal(t, tt.match, c.Matches(tt.ctx, testNow))
		})
	}
}

func TestConditions_MinimumAgeDaysBoundary(t *testing.T) {
	c := mustConditions(t, map[string]any{"minimumAgeDays": float64(7)})

	assert.True(t, c.Matches(EventContext{CreatedAt: daysAgo(7)}, testNow), "exactly N days old matches")
	assert.True(t, c.Matches(EventContext{CreatedAt: daysAgo(7.9)}, testNow))
	assert.True(t, c.Matches(EventContext{CreatedAt: daysAgo(30)}, testNow))

	almost := testNow.Add(-7*24*time.Hour + time.Millisecond)
	assert.False(t, c.Matches(EventContext{CreatedAt: &almost}, testNow), "N days minus epsilon does not match")
	assert.False(t, c.Matches(EventContext{CreatedAt: daysAgo(0)}, testNow))
	assert.False(t, c.Matches(EventContext{}, testNow), "missing creation date never satisfies an age threshold")
}

func TestConditions_MinimumAgeDaysZero(t *testing.T) {
	c := mustConditions(t, map[string]any{"minimumAgeDays": float64(0)})

	assert.True(t, c.Matches(EventContext{CreatedAt: daysAgo(0)}, testNow), "created now is 0 days old")
	assert.True(t, c.Matches(EventContext{CreatedAt: daysAgo(12)}, testNow))
	assert.False(t, c.Matches(EventContext{}, testNow), "a zero threshold still needs a creation date")
}

func TestAgeInDays(t *testing.T) {
	assert.Equal(t, 0, AgeInDays(testNow, testNow))
	assert.Equal(t, 10, AgeInDays(*daysAgo(10), testNow))
	assert.Equal(t, 9, AgeInDays(*daysAgo(9.99), testNow))
	assert.Equal(t, -1, AgeInDays(testNow.Add(time.Hour), testNow))
}

func TestParseConditions_UnknownKeysIgnored(t *testing.T) {
	c := mustConditions(t, map[string]any{"statu": "GAGNE", "montant": 1000})

	assert.Equal(t, []string{"montant", "statu"}, c.Unknown)
	assert.True(t, c.Matches(EventContext{NewStatus: "PERDU"}, testNow))
}

func TestParseConditions_InvalidValues(t *testing.T) {
	docs := []map[string]any{
		{"statut": 3},
		{"priority": true},
		{"minimumAgeDays": "7"},
		{"minimumAgeDays": 2.5},
	}

	for _, doc := range docs {
		_, err := ParseConditions(doc)
		require.Error(t, err, "%v", doc)
		assert.ErrorIs(t, err, ErrInvalidCondition)
	}
}

func TestConditions_ConcurrentUse(t *testing.T) {
	c := mustConditions(t, map[string]any{"statut": "GAGNE", "minimumAgeDays": 1})
	ctx := EventContext{NewStatus: "GAGNE", CreatedAt: daysAgo(3)}

	done := make(chan bool)
	for range 8 {
		go func() {
			done <- c.Matches(ctx, testNow)
		}()
	}

	for range 8 {
		assert.True(t, <-done)
	}
}
