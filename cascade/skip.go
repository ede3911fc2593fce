package cascade

// skipResult is the outcome of evaluating a tier's skip conditions.
type skipResult struct {
	skip   bool
	reason string
}

// evaluateSkip runs the skip evaluator for a tier against its tier context:
// first the unconditional SkipTiers set (runSequential has already filtered
// those tiers out via eligibleTiers; the check keeps evaluateSkip complete
// when called on its own), then each matching SkipCondition's predicate in
// order. The first predicate returning true wins.
func evaluateSkip(opts *Options, input interface{}, tierCtx *TierContext) skipResult {
	if opts.isUnconditionallySkipped(tierCtx.Tier) {
		return skipResult{skip: true, reason: "unconditionally skipped"}
	}
	if opts == nil {
		return skipResult{}
	}
	for _, cond := range opts.SkipConditions {
		if cond.Tier != tierCtx.Tier || cond.Predicate == nil {
			continue
		}
		if cond.Predicate(input, tierCtx) {
			return skipResult{skip: true, reason: cond.Reason}
		}
	}
	return skipResult{}
}
