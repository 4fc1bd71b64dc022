package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txn(date, amount string, desc *string) Transaction {
	return Transaction{Date: date, Amount: decimal.RequireFromString(amount), Description: desc}
}

func strPtr(s string) *string { return &s }

func testAggregator() Aggregator {
	return NewAggregator(fixedNormalizer(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), time.UTC))
}

func fixtureTransactions() []Transaction {
	return []Transaction{
		txn("2024-01-10T09:00:00Z", "100", strPtr("餐饮")),
		txn("2024-03-05T09:00:00Z", "50", nil),
		txn("2023-12-31T23:00:00Z", "25", strPtr("餐饮")),
		txn("13月01日10:00", "40", strPtr("购物")),
		txn("2024-01-20", "10", strPtr("购物")),
	}
}

func TestByMonth(t *testing.T) {
	agg := testAggregator()
	txs := fixtureTransactions()

	months := agg.ByMonth(txs, 0)
	require.Len(t, months, 3)
	assert.Equal(t, "Dec 2023", months[0].Label)
	assert.Equal(t, "Jan 2024", months[1].Label)
	assert.Equal(t, "Mar 2024", months[2].Label)
	assert.Equal(t, "110", months[1].Amount.String())

	// Months strictly increase and the buckets cover exactly the valid rows.
	sum := decimal.Zero
	for i, m := range months {
		if i > 0 {
			prev := MonthKey{Year: months[i-1].Year, Month: time.Month(months[i-1].Month)}
			cur := MonthKey{Year: m.Year, Month: time.Month(m.Month)}
			assert.Less(t, prev.Index(), cur.Index())
		}
		sum = sum.Add(m.Amount)
	}
	assert.True(t, sum.Equal(decimal.NewFromInt(185)), "sum = %s", sum)
}

func TestByMonthLastN(t *testing.T) {
	agg := testAggregator()

	months := agg.ByMonth(fixtureTransactions(), 2)
	require.Len(t, months, 2)
	assert.Equal(t, "Jan 2024", months[0].Label)
	assert.Equal(t, "Mar 2024", months[1].Label)

	assert.Len(t, agg.ByMonth(fixtureTransactions(), 10), 3)
}

func TestByMonthIsChronologicalNotAlphabetical(t *testing.T) {
	agg := testAggregator()
	txs := []Transaction{
		txn("2024-04-01", "1", nil),
		txn("2024-03-01", "1", nil),
		txn("2024-08-01", "1", nil),
	}
	months := agg.ByMonth(txs, 0)
	require.Len(t, months, 3)
	assert.Equal(t, []string{"Mar 2024", "Apr 2024", "Aug 2024"},
		[]string{months[0].Label, months[1].Label, months[2].Label})
}

func TestByMonthEmpty(t *testing.T) {
	assert.Empty(t, testAggregator().ByMonth(nil, 6))
}

func TestByCategory(t *testing.T) {
	agg := testAggregator()
	txs := fixtureTransactions()

	cats := agg.ByCategory(txs, 0)
	require.Len(t, cats, 3)
	assert.Equal(t, "餐饮", cats[0].Name)
	assert.Equal(t, "125", cats[0].Amount.String())
	// Other and 购物 tie at 50; Other was seen first.
	assert.Equal(t, OtherCategory, cats[1].Name)
	assert.Equal(t, "购物", cats[2].Name)

	sum := decimal.Zero
	for i, c := range cats {
		if i > 0 {
			assert.False(t, c.Amount.GreaterThan(cats[i-1].Amount))
		}
		sum = sum.Add(c.Amount)
	}
	assert.True(t, sum.Equal(Sum(txs)), "sum = %s", sum)
}

func TestByCategoryTopN(t *testing.T) {
	cats := testAggregator().ByCategory(fixtureTransactions(), 1)
	require.Len(t, cats, 1)
	assert.Equal(t, "餐饮", cats[0].Name)
}

func TestByCategoryBlankDescriptionIsOther(t *testing.T) {
	txs := []Transaction{
		txn("2024-01-01", "5", strPtr("  ")),
		txn("2024-01-01", "7", nil),
	}
	cats := testAggregator().ByCategory(txs, 0)
	require.Len(t, cats, 1)
	assert.Equal(t, OtherCategory, cats[0].Name)
	assert.Equal(t, "12", cats[0].Amount.String())
}

func TestOverview(t *testing.T) {
	agg := testAggregator()
	txs := []Transaction{
		txn("2024-03-02", "50", nil),
		txn("2024-02-10", "60", nil),
		txn("2024-02-11", "40", nil),
		txn("2023-03-01", "1000", nil),
		txn("garbage", "5", nil),
	}

	o := agg.Overview(txs)
	assert.Equal(t, 5, o.Count)
	assert.Equal(t, "1155", o.Total.String())
	assert.Equal(t, "50", o.CurrentMonth.String())
	assert.Equal(t, "100", o.PreviousMonth.String())
	require.NotNil(t, o.ChangePercent)
	assert.Equal(t, "-50", o.ChangePercent.String())
}

func TestOverviewWithoutPreviousMonth(t *testing.T) {
	o := testAggregator().Overview([]Transaction{txn("2024-03-02", "50", nil)})
	assert.Nil(t, o.ChangePercent)
	assert.Equal(t, "50", o.CurrentMonth.String())
}

func TestSampleTransactions(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	n := fixedNormalizer(now, time.UTC)

	sample := SampleTransactions(now)
	require.Len(t, sample, 3)
	assert.Equal(t, "sample-1", sample[0].ID)
	assert.Equal(t, "199.99", FormatAmount(sample[0].Amount))
	assert.Equal(t, "88.50", FormatAmount(sample[1].Amount))
	assert.Equal(t, "35.00", FormatAmount(sample[2].Amount))
	assert.Equal(t, "Today", n.Label(sample[0].Date, StyleRelative))
	assert.Equal(t, "Yesterday", n.Label(sample[1].Date, StyleRelative))
	assert.Equal(t, "Mar 13", n.Label(sample[2].Date, StyleRelative))

	// Each call returns an independent slice.
	sample[0].Account = "changed"
	assert.Equal(t, "工商银行", SampleTransactions(now)[0].Account)
}
