package calculator

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/Virain6/money-management/internal/models"
	"github.com/Virain6/money-management/internal/money"
)

// SplitMode selects how a total is divided among participants. The set of
// modes is closed: Equal, Percent, Shares and Amounts.
type SplitMode interface {
	// Name is the mode's stable name ("equal", "percent", "shares", "amounts").
	Name() string

	allocate(cents int64, n int) ([]int64, error)
}

// Equal splits evenly; the last participant absorbs the remainder cents.
type Equal struct{}

// Percent splits by one percentage per participant. Percents must sum to 100
// after rounding to the nearest integer.
type Percent struct {
	Percents []float64
}

// Shares splits by relative weights, one per participant.
type Shares struct {
	Weights []float64
}

// Amounts assigns an explicit dollar amount per participant. The amounts must
// add up to the total.
type Amounts struct {
	Amounts []float64
}

func (Equal) Name() string   { return "equal" }
func (Percent) Name() string { return "percent" }
func (Shares) Name() string  { return "shares" }
func (Amounts) Name() string { return "amounts" }

// Allocate divides total dollars among n participants and returns each
// participant's share in dollars, in participant order. The shares always sum
// to total rounded to the cent. A total that is not finite or exceeds
// money.MaxCents fails with ErrInvalidInput.
func Allocate(total float64, n int, mode SplitMode) ([]float64, error) {
	if n <= 0 {
		return nil, models.ErrEmptyParticipants
	}
	totalCents, err := money.Cents(total)
	if err != nil {
		return nil, fmt.Errorf("%w: total: %w", models.ErrInvalidInput, err)
	}
	cents, err := AllocateCents(totalCents, n, mode)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(cents))
	for i, c := range cents {
		out[i] = money.ToDollars(c)
	}
	return out, nil
}

// AllocateCents is Allocate over integer cents. A nil mode means Equal.
func AllocateCents(cents int64, n int, mode SplitMode) ([]int64, error) {
	if n <= 0 {
		return nil, models.ErrEmptyParticipants
	}
	if cents <= 0 {
		return nil, models.ErrNonPositiveAmount
	}
	if mode == nil {
		mode = Equal{}
	}
	return mode.allocate(cents, n)
}

func (Equal) allocate(cents int64, n int) ([]int64, error) {
	base := cents / int64(n)
	out := make([]int64, n)
	for i := range out {
		out[i] = base
	}
	out[n-1] += cents - base*int64(n)
	return out, nil
}

func (m Percent) allocate(cents int64, n int) ([]int64, error) {
	if len(m.Percents) != n {
		return nil, models.InvalidSplit("provide percents for each participant")
	}
	weights, sum, err := toDecimals(m.Percents, "percents")
	if err != nil {
		return nil, err
	}
	if !sum.Round(0).Equal(decimal.NewFromInt(100)) {
		return nil, models.InvalidSplit("percents must sum to 100")
	}
	return proportional(cents, weights, sum), nil
}

func (m Shares) allocate(cents int64, n int) ([]int64, error) {
	if len(m.Weights) != n {
		return nil, models.InvalidSplit("provide shares for each participant")
	}
	weights, sum, err := toDecimals(m.Weights, "shares")
	if err != nil {
		return nil, err
	}
	if !sum.IsPositive() {
		return nil, models.InvalidSplit("shares must sum to more than 0")
	}
	return proportional(cents, weights, sum), nil
}

func (m Amounts) allocate(cents int64, n int) ([]int64, error) {
	if len(m.Amounts) != n {
		return nil, models.InvalidSplit("provide amounts for each participant")
	}
	out := make([]int64, n)
	var sum int64
	for i, a := range m.Amounts {
		if !isFinite(a) {
			return nil, models.InvalidSplit("amounts must be finite numbers")
		}
		if a < 0 {
			return nil, models.InvalidSplit("amounts must not be negative")
		}
		c, err := money.Cents(a)
		if err != nil {
			return nil, models.InvalidSplit("amounts out of range")
		}
		// each amount is rounded on its own; the rounded amounts must add up
		out[i] = c
		sum += c
	}
	if sum != cents {
		return nil, models.InvalidSplit("amounts must equal total")
	}
	return out, nil
}

// toDecimals converts finite non-negative values and returns their sum. what
// names the values in the split error.
func toDecimals(values []float64, what string) (out []decimal.Decimal, sum decimal.Decimal, err error) {
	out = make([]decimal.Decimal, len(values))
	for i, v := range values {
		if !isFinite(v) {
			return nil, decimal.Zero, models.InvalidSplit(what + " must be finite numbers")
		}
		if v < 0 {
			return nil, decimal.Zero, models.InvalidSplit(what + " must not be negative")
		}
		out[i] = decimal.NewFromFloat(v)
		sum = sum.Add(out[i])
	}
	return out, sum, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// proportional gives each slot floor(weight/sum * cents) and hands the
// leftover cents out one at a time from the front of the list. Every weight
// must be >= 0 and sum must be their positive total, which keeps the leftover
// in [0, n).
func proportional(cents int64, weights []decimal.Decimal, sum decimal.Decimal) []int64 {
	total := decimal.NewFromInt(cents)
	out := make([]int64, len(weights))
	remain := cents
	for i, w := range weights {
		q, _ := w.Mul(total).QuoRem(sum, 0)
		out[i] = q.IntPart()
		remain -= out[i]
	}
	for i := 0; i < len(out) && remain > 0; i++ {
		out[i]++
		remain--
	}
	return out
}
