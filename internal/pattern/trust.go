package pattern

import "math"

// wilsonZ95 is the z-score for a 95% confidence interval. Hand-rolled
// per design note: this is the single source of truth for ranking and
// must not drift with a statistics library's rounding.
const wilsonZ95 = 1.96

// WilsonLowerBound computes the lower bound of the Wilson score
// confidence interval at 95% confidence for a Bernoulli proportion
// p = successes / (successes + failures). Returns 0 when the sample is
// empty, matching the spec's floor for patterns with no usage history.
func WilsonLowerBound(successes, failures uint64) float64 {
	n := float64(successes + failures)
	if n == 0 {
		return 0
	}
	z := wilsonZ95
	phat := float64(successes) / n

	numerator := phat + z*z/(2*n) - z*math.Sqrt((phat*(1-phat)+z*z/(4*n))/n)
	denominator := 1 + z*z/n
	lb := numerator / denominator

	if lb < 0 {
		return 0
	}
	if lb > 1 {
		return 1
	}
	return lb
}

// DerivedTrustScore returns the Wilson lower bound for a pattern's usage
// counters; this is what Pattern.TrustScore must always equal.
func DerivedTrustScore(u Usage) float64 {
	return WilsonLowerBound(u.Successes, u.Failures)
}

// trustULPTolerance bounds how far a stored trust_score may drift from
// its derivation before InvariantViolation fires. The spec asks for
// agreement "to within 1 ulp"; comparing raw ULP distance is brittle
// across platforms for values this small, so a tight absolute epsilon
// is used instead, tight enough to catch any deliberate divergence
// while tolerating the one-ulp rounding the spec allows.
const trustULPTolerance = 1e-9

// TrustScoreMatches reports whether stored agrees with the Wilson
// derivation for u, within tolerance.
func TrustScoreMatches(stored float64, u Usage) bool {
	derived := DerivedTrustScore(u)
	diff := stored - derived
	if diff < 0 {
		diff = -diff
	}
	return diff <= trustULPTolerance
}

// StarsToTrustScore converts a legacy 0-5 integer star rating into the
// [0,1] trust_score scale used natively. Exists solely for legacy
// ingestion, per §4.A.
func StarsToTrustScore(stars int) float64 {
	score := float64(stars) / 5
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// TrustScoreToStars converts a native [0,1] trust_score into the legacy
// 0-5 integer star scale, rounding to the nearest star.
func TrustScoreToStars(score float64) int {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return int(math.Round(score * 5))
}
