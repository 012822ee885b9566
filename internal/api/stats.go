package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoSubscriptions is the distinct "no data" outcome for statistics
// over an empty listing.
var ErrNoSubscriptions = errors.New("api: no subscriptions to analyze")

// Cadence normalization constants. A month is taken as 365.25/7/12 weeks.
const (
	weeksPerMonth = 4.345
	weeksPerYear  = 52
	monthsPerYear = 12
)

// Stats aggregates spending over one listing.
type Stats struct {
	Count         int
	TotalMonthly  float64
	TotalYearly   float64
	Cheapest      Subscription
	MostExpensive Subscription
}

// ComputeStats derives spending statistics from a listing. It is a pure
// function of the input order: price ties keep the first occurrence.
// Unknown billing cycles count at face value, like the original monthly
// totals did.
func ComputeStats(subs []Subscription) (Stats, error) {
	if len(subs) == 0 {
		return Stats{}, ErrNoSubscriptions
	}

	stats := Stats{Count: len(subs)}
	var cheapest, dearest float64
	for i, sub := range subs {
		price, err := strconv.ParseFloat(strings.TrimSpace(sub.Price), 64)
		if err != nil {
			return Stats{}, fmt.Errorf("subscription %q: bad price %q: %w", sub.Name, sub.Price, err)
		}

		switch strings.ToLower(sub.BillingCycle) {
		case "yearly":
			stats.TotalMonthly += price / monthsPerYear
			stats.TotalYearly += price
		case "weekly":
			stats.TotalMonthly += price * weeksPerMonth
			stats.TotalYearly += price * weeksPerYear
		default:
			stats.TotalMonthly += price
			stats.TotalYearly += price * monthsPerYear
		}

		if i == 0 || price < cheapest {
			cheapest = price
			stats.Cheapest = sub
		}
		if i == 0 || price > dearest {
			dearest = price
			stats.MostExpensive = sub
		}
	}
	return stats, nil
}
