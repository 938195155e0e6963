package orders

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/xkilldash9x/orderlens/api/schemas"
)

// round2 rounds to whole paise.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Summarize totals the orders. The average of an empty list is zero.
func Summarize(orders []schemas.Order) schemas.Summary {
	var total float64
	for _, o := range orders {
		total += o.Amount
	}
	s := schemas.Summary{Total: round2(total), Count: len(orders)}
	if len(orders) > 0 {
		s.Average = round2(total / float64(len(orders)))
	}
	return s
}

// Monthly buckets orders by YYYY-MM, ascending. Orders with an unparseable
// date are skipped.
func Monthly(orders []schemas.Order) []schemas.MonthlyBucket {
	groups := make(map[string][]schemas.Order)
	for _, o := range orders {
		t, err := time.Parse(DateLayout, o.Date)
		if err != nil {
			continue
		}
		key := t.Format("2006-01")
		groups[key] = append(groups[key], o)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buckets := make([]schemas.MonthlyBucket, 0, len(keys))
	for _, k := range keys {
		buckets = append(buckets, schemas.MonthlyBucket{Month: k, Summary: Summarize(groups[k])})
	}
	return buckets
}

// InRange filters orders to those dated within [start, end], both YYYY-MM-DD.
func InRange(orders []schemas.Order, start, end string) (schemas.RangeSummary, error) {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return schemas.RangeSummary{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return schemas.RangeSummary{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if to.Before(from) {
		return schemas.RangeSummary{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}

	selected := make([]schemas.Order, 0)
	for _, o := range orders {
		t, err := time.Parse(DateLayout, o.Date)
		if err != nil {
			continue
		}
		if !t.Before(from) && !t.After(to) {
			selected = append(selected, o)
		}
	}
	return schemas.RangeSummary{
		StartDate: start,
		EndDate:   end,
		Orders:    selected,
		Summary:   Summarize(selected),
	}, nil
}
