package google

import (
	"fmt"
	"strings"
	"time"

	"billbook/internal/adapters"
	"billbook/internal/core"
)

// Mirror column order, A through F.
var columns = []string{"id", "account", "amount", "date", "description", "created_at"}

func headerRow() []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = c
	}
	return out
}

func rowValues(tx core.Transaction) []any {
	desc := ""
	if tx.Description != nil {
		desc = *tx.Description
	}
	created := ""
	if !tx.CreatedAt.IsZero() {
		created = tx.CreatedAt.UTC().Format(time.RFC3339)
	}
	return []any{tx.ID, tx.Account, tx.Amount.InexactFloat64(), tx.Date, desc, created}
}

func rowRange(row int) string {
	return fmt.Sprintf("A%d:F%d", row, row)
}

// a1 builds a quoted A1 range so sheet names with spaces work.
func a1(sheet, rng string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheet, "'", "''"), rng)
}

// findRow returns the 1-based row whose first cell equals id, or 0.
func findRow(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

// parseTransactions maps a values matrix to transactions. The first row is
// used as the header when it names any mirror column (canonical or legacy
// names); otherwise the mirror column order is assumed. Rows without an id
// are skipped.
func parseTransactions(values [][]any) []core.Transaction {
	if len(values) == 0 {
		return []core.Transaction{}
	}

	header := columns
	data := values
	if names, ok := headerNames(values[0]); ok {
		header = names
		data = values[1:]
	}

	out := make([]core.Transaction, 0, len(data))
	for _, cells := range data {
		row := make(map[string]any, len(header))
		for i, name := range header {
			if i < len(cells) && name != "" {
				row[name] = cells[i]
			}
		}
		tx := adapters.DecodeStoredRow(row)
		if strings.TrimSpace(tx.ID) == "" {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func headerNames(first []any) ([]string, bool) {
	names := make([]string, len(first))
	known := false
	for i, cell := range toStrings(first) {
		names[i] = adapters.CanonicalField(cell)
		for _, c := range columns {
			if names[i] == c {
				known = true
			}
		}
	}
	return names, known
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
