package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MonthAmount is the spending total of one calendar month.
type MonthAmount struct {
	Year   int
	Month  int // 1-12
	Label  string
	Amount decimal.Decimal
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// Aggregator groups transactions for the charts.
type Aggregator struct {
	Dates DateNormalizer
}

// NewAggregator returns an Aggregator resolving dates with dates.
func NewAggregator(dates DateNormalizer) Aggregator {
	return Aggregator{Dates: dates}
}

// ByMonth sums amounts per calendar month in chronological order. Rows with
// an unparseable date are skipped. lastN > 0 keeps only the latest N months.
func (a Aggregator) ByMonth(txs []Transaction, lastN int) []MonthAmount {
	totals := make(map[MonthKey]decimal.Decimal)
	for _, tx := range txs {
		key, ok := a.Dates.MonthOf(tx.Date)
		if !ok {
			continue
		}
		totals[key] = totals[key].Add(tx.Amount)
	}

	keys := make([]MonthKey, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Index() < keys[j].Index() })
	if lastN > 0 && len(keys) > lastN {
		keys = keys[len(keys)-lastN:]
	}

	out := make([]MonthAmount, 0, len(keys))
	for _, k := range keys {
		out = append(out, MonthAmount{
			Year:   k.Year,
			Month:  int(k.Month),
			Label:  k.Label(),
			Amount: totals[k],
		})
	}
	return out
}

// ByCategory sums amounts per description, largest first. Equal totals keep
// the order in which their category first appeared. topN > 0 truncates.
func (a Aggregator) ByCategory(txs []Transaction, topN int) []CategoryAmount {
	index := make(map[string]int)
	out := make([]CategoryAmount, 0)
	for _, tx := range txs {
		name := tx.Category()
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, CategoryAmount{Name: name})
		}
		out[i].Amount = out[i].Amount.Add(tx.Amount)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.GreaterThan(out[j].Amount)
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// Sum totals the amounts of txs.
func Sum(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	return total
}
