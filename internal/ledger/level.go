package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/dukerupert/homebase/internal/apperr"
)

const (
	pointsPerLevel = 100

	MinPointsPerTask = 1
	MaxPointsPerTask = 100
)

var (
	levelSize = decimal.NewFromInt(pointsPerLevel)

	// maxAmount keeps a single award far inside the int64 range of the
	// stored hundredths.
	maxAmount = decimal.NewFromInt(1_000_000)
)

// ComputeLevel returns floor(total / 100) + 1.
func ComputeLevel(total decimal.Decimal) int64 {
	if total.Sign() <= 0 {
		return 1
	}
	return total.Div(levelSize).Floor().IntPart() + 1
}

// ComputeProgress returns how far total is into its current level, as a
// percentage, and how many points remain until the next one.
func ComputeProgress(total decimal.Decimal) (percent, toNext decimal.Decimal) {
	if total.Sign() < 0 {
		total = decimal.Zero
	}
	rem := total.Mod(levelSize)
	return rem.Div(levelSize).Mul(decimal.NewFromInt(100)), levelSize.Sub(rem)
}

// ParseAmount parses a decimal string and validates it as an award amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, apperr.New(apperr.KindInvalidAmount, "amount %q is not a number", s)
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount rejects zero, negative, over-precise and absurdly large
// amounts.
func ValidateAmount(d decimal.Decimal) error {
	if d.Sign() <= 0 {
		return apperr.New(apperr.KindInvalidAmount, "amount must be positive, got %s", d)
	}
	if !d.Equal(d.Truncate(2)) {
		return apperr.New(apperr.KindInvalidAmount, "amount %s has more than two decimal places", d)
	}
	if d.GreaterThan(maxAmount) {
		return apperr.New(apperr.KindInvalidAmount, "amount %s exceeds %s", d, maxAmount)
	}
	return nil
}

// Pages a member may be granted access to.
var KnownPages = []string{
	"dashboard", "calendar", "shopping", "tasks", "chores",
	"budget", "photos", "recipes", "forum", "settings",
}

func validPage(p string) bool {
	for _, k := range KnownPages {
		if k == p {
			return true
		}
	}
	return false
}

// normalizePages rejects unknown keys and drops duplicates, keeping order.
func normalizePages(pages []string) ([]string, error) {
	seen := make(map[string]bool, len(pages))
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		if !validPage(p) {
			return nil, apperr.InvalidInput("unknown page %q", p)
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}
