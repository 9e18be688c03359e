package calculator

import (
	"sort"
	"strings"

	"github.com/Virain6/money-management/internal/models"
	"github.com/Virain6/money-management/internal/money"
)

// NetAggregates holds the four grouped sums a net balance is built from, each
// keyed by the other person's id and expressed in cents.
type NetAggregates struct {
	// OwedToMe: participants' shares on expenses "me" paid, excluding me.
	OwedToMe map[string]int64

	// IOwe: my shares on expenses someone else paid, keyed by that payer.
	IOwe map[string]int64

	// SettledToMe: settlements paid to me, keyed by the payer. They reduce
	// what the payer owes me.
	SettledToMe map[string]int64

	// SettledByMe: settlements I paid, keyed by the payee. They reduce what I
	// owe the payee.
	SettledByMe map[string]int64
}

// FoldNet combines the aggregates into one net amount per person.
// Positive = the person owes me, negative = I owe the person.
// People missing from every aggregate get no entry; a person whose
// contributions cancel out keeps an explicit zero.
func FoldNet(a NetAggregates) map[string]int64 {
	net := make(map[string]int64)
	for id, c := range a.OwedToMe {
		net[id] += c
	}
	for id, c := range a.IOwe {
		net[id] -= c
	}
	for id, c := range a.SettledToMe {
		net[id] -= c
	}
	for id, c := range a.SettledByMe {
		net[id] += c
	}
	return net
}

// NetDollars converts a FoldNet result to dollars.
func NetDollars(net map[string]int64) map[string]float64 {
	out := make(map[string]float64, len(net))
	for id, c := range net {
		out[id] = money.ToDollars(c)
	}
	return out
}

// JoinBalances pairs people with their net balance, leaving out "me".
// People without an entry in net get zero. The result is ordered by largest
// absolute balance first, then by name case-insensitively.
func JoinBalances(people []models.Person, net map[string]int64) []models.PersonBalance {
	type row struct {
		balance models.PersonBalance
		cents   int64
	}
	rows := make([]row, 0, len(people))
	for _, p := range people {
		if p.IsMe() {
			continue
		}
		c := net[p.ID]
		rows = append(rows, row{
			balance: models.PersonBalance{Person: p, Net: money.ToDollars(c)},
			cents:   c,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ai, aj := abs(rows[i].cents), abs(rows[j].cents)
		if ai != aj {
			return ai > aj
		}
		return strings.ToLower(rows[i].balance.Person.DisplayName) < strings.ToLower(rows[j].balance.Person.DisplayName)
	})

	out := make([]models.PersonBalance, len(rows))
	for i, r := range rows {
		out[i] = r.balance
	}
	return out
}

func abs(c int64) int64 {
	if c < 0 {
		return -c
	}
	return c
}
