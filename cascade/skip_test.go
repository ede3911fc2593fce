package cascade

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateSkip_NilOptions(t *testing.T) {
	got := evaluateSkip(nil, nil, &TierContext{Tier: TierCode})
	assert.False(t, got.skip)
}

func TestEvaluateSkip_UnconditionalSkipTakesPriority(t *testing.T) {
	opts := &Options{
		SkipTiers: map[Tier]bool{TierCode: true},
		SkipConditions: []SkipCondition{
			{Tier: TierCode, Predicate: func(interface{}, *TierContext) bool { return false }, Reason: "never reached"},
		},
	}
	got := evaluateSkip(opts, nil, &TierContext{Tier: TierCode})
	assert.True(t, got.skip)
	assert.Equal(t, "unconditionally skipped", got.reason)
}

func TestEvaluateSkip_FirstMatchingPredicateWins(t *testing.T) {
	opts := &Options{
		SkipConditions: []SkipCondition{
			{Tier: TierCode, Predicate: func(interface{}, *TierContext) bool { return false }, Reason: "no"},
			{Tier: TierCode, Predicate: func(interface{}, *TierContext) bool { return true }, Reason: "yes"},
			{Tier: TierCode, Predicate: func(interface{}, *TierContext) bool { return true }, Reason: "also yes"},
		},
	}
	got := evaluateSkip(opts, nil, &TierContext{Tier: TierCode})
	assert.True(t, got.skip)
	assert.Equal(t, "yes", got.reason)
}

func TestEvaluateSkip_IgnoresConditionsForOtherTiers(t *testing.T) {
	opts := &Options{
		SkipConditions: []SkipCondition{
			{Tier: TierGenerative, Predicate: func(interface{}, *TierContext) bool { return true }, Reason: "wrong tier"},
		},
	}
	got := evaluateSkip(opts, nil, &TierContext{Tier: TierCode})
	assert.False(t, got.skip)
}

func TestEvaluateSkip_NilPredicateIsSkippedOver(t *testing.T) {
	opts := &Options{
		SkipConditions: []SkipCondition{
			{Tier: TierCode, Predicate: nil, Reason: "malformed"},
		},
	}
	got := evaluateSkip(opts, nil, &TierContext{Tier: TierCode})
	assert.False(t, got.skip)
}
