// Package adapters translates rows from outside sources into core types.
//
// Older rows and forms used capitalized or Chinese column names. They are
// resolved here so the rest of the program only sees canonical fields.
package adapters

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"billbook/internal/core"
)

// Field aliases, canonical name first.
var (
	idFields          = []string{"id", "ID", "Id"}
	accountFields     = []string{"account", "Account", "银行名称"}
	amountFields      = []string{"amount", "Amount", "消费金额"}
	dateFields        = []string{"date", "Date", "消费时间"}
	descriptionFields = []string{"description", "Description", "消费用途"}
	createdAtFields   = []string{"created_at", "createdAt", "CreatedAt"}
)

// CanonicalField maps any known alias to its canonical column name, or
// returns name unchanged.
func CanonicalField(name string) string {
	name = strings.TrimSpace(name)
	for _, group := range [][]string{idFields, accountFields, amountFields, dateFields, descriptionFields, createdAtFields} {
		for _, alias := range group {
			if name == alias {
				return group[0]
			}
		}
	}
	return name
}

// DecodeRow builds a NewTransaction from a row keyed by canonical or legacy
// field names. Missing fields stay empty; validation happens later.
func DecodeRow(row map[string]any) core.NewTransaction {
	out := core.NewTransaction{
		Account: text(lookup(row, accountFields)),
		Amount:  amount(lookup(row, amountFields)),
		Date:    dateText(lookup(row, dateFields)),
	}
	if v := lookup(row, descriptionFields); v != nil {
		d := text(v)
		out.Description = &d
	}
	return out
}

// DecodePatch builds a TransactionPatch from the fields present in row.
// A present but null description clears it.
func DecodePatch(row map[string]any) core.TransactionPatch {
	var p core.TransactionPatch
	if v, ok := find(row, accountFields); ok {
		s := text(v)
		p.Account = &s
	}
	if v, ok := find(row, amountFields); ok {
		a := amount(v)
		p.Amount = &a
	}
	if v, ok := find(row, dateFields); ok {
		s := dateText(v)
		p.Date = &s
	}
	if v, ok := find(row, descriptionFields); ok {
		if v == nil {
			p.ClearDescription = true
		} else {
			s := text(v)
			p.Description = &s
		}
	}
	return p
}

// DecodeStoredRow reads a row that already has an id, such as a mirrored
// spreadsheet line. The date text is kept as found.
func DecodeStoredRow(row map[string]any) core.Transaction {
	n := DecodeRow(row)
	tx := core.Transaction{
		ID:          text(lookup(row, idFields)),
		Account:     strings.TrimSpace(n.Account),
		Amount:      n.Amount.Normalize(),
		Date:        n.Date,
		Description: n.Description,
	}
	if tx.Description != nil && strings.TrimSpace(*tx.Description) == "" {
		tx.Description = nil
	}
	if c := text(lookup(row, createdAtFields)); c != "" {
		if t, err := time.Parse(time.RFC3339, c); err == nil {
			tx.CreatedAt = t
		}
	}
	return tx
}

func find(row map[string]any, aliases []string) (any, bool) {
	for _, k := range aliases {
		if v, ok := row[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func lookup(row map[string]any, aliases []string) any {
	v, _ := find(row, aliases)
	return v
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		if len(t) > 0 {
			return t[0]
		}
		return ""
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func amount(v any) core.RawAmount {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return core.AmountFromFloat(t)
	case float32:
		return core.AmountFromFloat(float64(t))
	case int:
		return core.AmountFromDecimal(decimal.NewFromInt(int64(t)))
	case int64:
		return core.AmountFromDecimal(decimal.NewFromInt(t))
	case decimal.Decimal:
		return core.AmountFromDecimal(t)
	case core.RawAmount:
		return t
	default:
		return core.RawAmount(text(v))
	}
}

func dateText(v any) string {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.RFC3339)
	}
	return strings.TrimSpace(text(v))
}
