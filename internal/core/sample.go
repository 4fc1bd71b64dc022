package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// SampleTransactions returns the demo data set shown to visitors without a
// valid author key. Dates are relative to now so the recent view always shows
// Today and Yesterday entries.
func SampleTransactions(now time.Time) []Transaction {
	desc := func(s string) *string { return &s }
	return []Transaction{
		{
			ID:          "sample-1",
			Account:     "工商银行",
			Amount:      decimal.RequireFromString("199.99"),
			Date:        now.Format(time.RFC3339),
			Description: desc("购物"),
			CreatedAt:   now,
		},
		{
			ID:          "sample-2",
			Account:     "招商银行",
			Amount:      decimal.RequireFromString("88.50"),
			Date:        now.Add(-24 * time.Hour).Format(time.RFC3339),
			Description: desc("餐饮"),
			CreatedAt:   now.Add(-24 * time.Hour),
		},
		{
			ID:          "sample-3",
			Account:     "建设银行",
			Amount:      decimal.RequireFromString("35.00"),
			Date:        now.Add(-48 * time.Hour).Format(time.RFC3339),
			Description: desc("交通"),
			CreatedAt:   now.Add(-48 * time.Hour),
		},
	}
}
