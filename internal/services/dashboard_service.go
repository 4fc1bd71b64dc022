package services

import (
	"context"

	"github.com/shopspring/decimal"

	"billbook/internal/access"
	"billbook/internal/core"
	"billbook/internal/log"
)

const (
	DefaultRecentLimit   = 5
	DefaultPreviewMonths = 6
)

// TransactionRow is a transaction decorated for display.
type TransactionRow struct {
	core.Transaction
	Category    string
	DateLabel   string
	AmountLabel string
}

// Source tells the client whether a view was built from sample data.
type Source struct {
	Sample bool
	Reason access.Reason
}

type RowsView struct {
	Source
	Rows []TransactionRow
}

type PreviewView struct {
	Source
	Months []core.MonthAmount
}

type AnalyticsView struct {
	Source
	Months     []core.MonthAmount
	Categories []core.CategoryAmount
}

type OverviewView struct {
	Source
	core.Overview
}

// DashboardView bundles everything the landing page renders.
type DashboardView struct {
	Source
	Overview core.Overview
	Recent   []TransactionRow
	Preview  []core.MonthAmount
}

// Lister is the part of TransactionService the views need.
type Lister interface {
	List(ctx context.Context, key string) Listing
}

// DashboardService builds the read-only views.
type DashboardService struct {
	lister     Lister
	dates      core.DateNormalizer
	aggregator core.Aggregator
	logger     *log.Logger
}

func NewDashboardService(lister Lister, dates core.DateNormalizer, logger *log.Logger) *DashboardService {
	return &DashboardService{
		lister:     lister,
		dates:      dates,
		aggregator: core.NewAggregator(dates),
		logger:     logger.WithComponent(log.ComponentDashboard),
	}
}

func sourceOf(l Listing) Source {
	return Source{Sample: l.Sample, Reason: l.Reason}
}

// Recent returns the newest n rows (DefaultRecentLimit when n <= 0) with
// relative date labels.
func (s *DashboardService) Recent(ctx context.Context, key string, n int) RowsView {
	listing := s.lister.List(ctx, key)
	return RowsView{Source: sourceOf(listing), Rows: s.recent(listing.Transactions, n)}
}

func (s *DashboardService) recent(txs []core.Transaction, n int) []TransactionRow {
	if n <= 0 {
		n = DefaultRecentLimit
	}
	if len(txs) > n {
		txs = txs[:n]
	}
	return s.rows(txs, core.StyleRelative)
}

// Page returns every row with full date labels.
func (s *DashboardService) Page(ctx context.Context, key string) RowsView {
	listing := s.lister.List(ctx, key)
	return RowsView{Source: sourceOf(listing), Rows: s.rows(listing.Transactions, core.StyleFull)}
}

func (s *DashboardService) rows(txs []core.Transaction, style core.LabelStyle) []TransactionRow {
	out := make([]TransactionRow, 0, len(txs))
	for _, tx := range txs {
		out = append(out, TransactionRow{
			Transaction: tx,
			Category:    tx.Category(),
			DateLabel:   s.dates.Label(tx.Date, style),
			AmountLabel: core.FormatAmount(tx.Amount),
		})
	}
	return out
}

// Preview returns the last DefaultPreviewMonths monthly totals.
func (s *DashboardService) Preview(ctx context.Context, key string) PreviewView {
	listing := s.lister.List(ctx, key)
	return PreviewView{
		Source: sourceOf(listing),
		Months: s.aggregator.ByMonth(listing.Transactions, DefaultPreviewMonths),
	}
}

// Analytics returns every monthly total and the topN categories (all when
// topN <= 0) over a single listing.
func (s *DashboardService) Analytics(ctx context.Context, key string, topN int) AnalyticsView {
	listing := s.lister.List(ctx, key)
	view := AnalyticsView{
		Source:     sourceOf(listing),
		Months:     s.aggregator.ByMonth(listing.Transactions, 0),
		Categories: s.aggregator.ByCategory(listing.Transactions, topN),
	}

	s.logger.DebugContext(ctx, "Analytics computed",
		log.FieldCount, len(listing.Transactions),
		log.FieldSample, listing.Sample,
		"months", len(view.Months),
		"categories", len(view.Categories))
	return view
}

// Overview returns the headline statistics.
func (s *DashboardService) Overview(ctx context.Context, key string) OverviewView {
	listing := s.lister.List(ctx, key)
	return OverviewView{Source: sourceOf(listing), Overview: s.aggregator.Overview(listing.Transactions)}
}

// Dashboard builds overview, recent rows and preview from one listing.
func (s *DashboardService) Dashboard(ctx context.Context, key string) DashboardView {
	listing := s.lister.List(ctx, key)
	return DashboardView{
		Source:   sourceOf(listing),
		Overview: s.aggregator.Overview(listing.Transactions),
		Recent:   s.recent(listing.Transactions, DefaultRecentLimit),
		Preview:  s.aggregator.ByMonth(listing.Transactions, DefaultPreviewMonths),
	}
}

// Total sums a rows view, used by the page footer.
func (v RowsView) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, r := range v.Rows {
		sum = sum.Add(r.Amount)
	}
	return sum
}
