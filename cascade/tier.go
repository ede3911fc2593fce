package cascade

import "time"

// Tier identifies one of the four execution strategies a cascade escalates
// through. The zero value is not a valid tier; use the Tier* constants.
type Tier string

const (
	TierCode       Tier = "code"
	TierGenerative Tier = "generative"
	TierAgentic    Tier = "agentic"
	TierHuman      Tier = "human"
)

// TierOrder is the canonical, bit-exact escalation sequence. It is an
// exported slice variable and is not protected against mutation; the
// package's own lookups use tiersFrom, which returns copies.
var TierOrder = []Tier{TierCode, TierGenerative, TierAgentic, TierHuman}

// DefaultTierTimeouts are the wire-level default budgets per tier, matching
// the canonical 5s / 30s / 5m / 24h ladder.
var DefaultTierTimeouts = map[Tier]time.Duration{
	TierCode:       5 * time.Second,
	TierGenerative: 30 * time.Second,
	TierAgentic:    5 * time.Minute,
	TierHuman:      24 * time.Hour,
}

// tierIndex returns the position of t in TierOrder, or -1 if t is not a
// canonical tier.
func tierIndex(t Tier) int {
	for i, candidate := range TierOrder {
		if candidate == t {
			return i
		}
	}
	return -1
}

// tiersFrom returns the ordered subsequence of TierOrder starting at (and
// including) start. An unrecognized start tier yields the full order,
// mirroring "default: code" behavior for an empty/zero start.
func tiersFrom(start Tier) []Tier {
	idx := tierIndex(start)
	if idx < 0 {
		idx = 0
	}
	out := make([]Tier, len(TierOrder)-idx)
	copy(out, TierOrder[idx:])
	return out
}
