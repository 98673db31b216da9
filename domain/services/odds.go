package services

// Parimutuel pricing constants. The multiplier a bettor locks reflects the
// pool state at the instant of placement, including their own stake.
const (
	// OpenOptionMultiplier is quoted when an option has no stakes yet
	OpenOptionMultiplier = 10.0

	// FirstStakeMultiplier is quoted when the whole pool is empty
	FirstStakeMultiplier = 2.0

	// MinimumMultiplier floors the pool-share price so the commission model
	// nets non-negative
	MinimumMultiplier = 1.01
)

// Odds computes the payout multiplier for an option given the current pool
// composition. Pure function; amounts are integer minor units.
func Odds(totalPool, optionPool int64) float64 {
	if optionPool == 0 {
		return OpenOptionMultiplier
	}
	if totalPool == 0 {
		return FirstStakeMultiplier
	}
	multiplier := float64(totalPool) / float64(optionPool)
	if multiplier < MinimumMultiplier {
		return MinimumMultiplier
	}
	return multiplier
}
