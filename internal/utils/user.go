package utils

// TokenBucket is one of the fixed balance ranges used by analytics.
type TokenBucket struct {
	Label string
	Min   int
	Max   int // -1 means unbounded
}

var tokenBuckets = []TokenBucket{
	{Label: "0-10", Min: 0, Max: 10},
	{Label: "11-20", Min: 11, Max: 20},
	{Label: "21-30", Min: 21, Max: 30},
	{Label: "31-50", Min: 31, Max: 50},
	{Label: "51+", Min: 51, Max: -1},
}

// TokenBuckets returns the ranges in ascending order.
func TokenBuckets() []TokenBucket {
	out := make([]TokenBucket, len(tokenBuckets))
	copy(out, tokenBuckets)
	return out
}

// TokenBucketIndex returns which range a balance falls in. Negative balances,
// which the ledger never produces, are counted in the first range.
func TokenBucketIndex(tokens int) int {
	switch {
	case tokens >= 51:
		return 4
	case tokens >= 31:
		return 3
	case tokens >= 21:
		return 2
	case tokens >= 11:
		return 1
	default:
		return 0
	}
}
