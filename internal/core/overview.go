package core

import "github.com/shopspring/decimal"

// Overview is the headline statistics block of the dashboard.
type Overview struct {
	Total         decimal.Decimal
	CurrentMonth  decimal.Decimal
	PreviousMonth decimal.Decimal
	// ChangePercent is nil when the previous month has no spending.
	ChangePercent *decimal.Decimal
	Count         int
}

var hundred = decimal.NewFromInt(100)

// Overview computes totals for all transactions and for the current and
// previous calendar months.
func (a Aggregator) Overview(txs []Transaction) Overview {
	current := a.Dates.CurrentMonth()
	previous := current.Prev()

	o := Overview{Count: len(txs)}
	for _, tx := range txs {
		o.Total = o.Total.Add(tx.Amount)
		key, ok := a.Dates.MonthOf(tx.Date)
		if !ok {
			continue
		}
		switch key {
		case current:
			o.CurrentMonth = o.CurrentMonth.Add(tx.Amount)
		case previous:
			o.PreviousMonth = o.PreviousMonth.Add(tx.Amount)
		}
	}
	if !o.PreviousMonth.IsZero() {
		change := o.CurrentMonth.Sub(o.PreviousMonth).
			Div(o.PreviousMonth.Abs()).
			Mul(hundred).
			Round(1)
		o.ChangePercent = &change
	}
	return o
}
