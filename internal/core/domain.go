package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OtherCategory labels transactions that carry no description.
const OtherCategory = "Other"

type (
	// Transaction is a bill row as the dashboard consumes it. Date keeps the
	// raw text returned by the store; it is normalized on demand.
	Transaction struct {
		ID          string
		Account     string
		Amount      decimal.Decimal
		Date        string
		Description *string
		CreatedAt   time.Time
	}

	// NewTransaction is the input for inserting a bill row.
	NewTransaction struct {
		Account     string
		Amount      RawAmount
		Date        string
		Description *string
	}

	// TransactionPatch carries the fields of a partial update. Nil fields are
	// left untouched; ClearDescription sets the description to NULL.
	TransactionPatch struct {
		Account          *string
		Amount           *RawAmount
		Date             *string
		Description      *string
		ClearDescription bool
	}
)

var (
	ErrEmptyAccount     = errors.New("empty account")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrAmountOutOfRange = errors.New("amount out of range")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyPatch       = errors.New("no fields to update")
)

// maxAmount is the exclusive bound of a numeric(10,2) column.
var maxAmount = decimal.New(1, 8)

// Category returns the aggregation key of the transaction.
func (t Transaction) Category() string {
	if t.Description == nil || strings.TrimSpace(*t.Description) == "" {
		return OtherCategory
	}
	return *t.Description
}

// ValidatedTransaction is a NewTransaction after validation: amount rounded to
// cents and date resolved to an instant.
type ValidatedTransaction struct {
	Account     string
	Amount      decimal.Decimal
	Date        time.Time
	Description *string
}

// Validate checks the input the way the entry form does and resolves the
// amount and date to canonical values.
func (n NewTransaction) Validate(dates DateNormalizer) (ValidatedTransaction, error) {
	account := strings.TrimSpace(n.Account)
	if account == "" {
		return ValidatedTransaction{}, ErrEmptyAccount
	}
	amount, err := validateAmount(n.Amount)
	if err != nil {
		return ValidatedTransaction{}, err
	}
	date, err := validateDate(dates, n.Date)
	if err != nil {
		return ValidatedTransaction{}, err
	}
	return ValidatedTransaction{
		Account:     account,
		Amount:      amount,
		Date:        date,
		Description: cleanDescription(n.Description),
	}, nil
}

// ValidatedPatch mirrors TransactionPatch with canonical values.
type ValidatedPatch struct {
	Account          *string
	Amount           *decimal.Decimal
	Date             *time.Time
	Description      *string
	ClearDescription bool
}

// Validate checks every field present in the patch.
func (p TransactionPatch) Validate(dates DateNormalizer) (ValidatedPatch, error) {
	var out ValidatedPatch
	if p.Account == nil && p.Amount == nil && p.Date == nil && p.Description == nil && !p.ClearDescription {
		return out, ErrEmptyPatch
	}
	if p.Account != nil {
		account := strings.TrimSpace(*p.Account)
		if account == "" {
			return out, ErrEmptyAccount
		}
		out.Account = &account
	}
	if p.Amount != nil {
		amount, err := validateAmount(*p.Amount)
		if err != nil {
			return out, err
		}
		out.Amount = &amount
	}
	if p.Date != nil {
		date, err := validateDate(dates, *p.Date)
		if err != nil {
			return out, err
		}
		out.Date = &date
	}
	if p.Description != nil {
		out.Description = cleanDescription(p.Description)
		out.ClearDescription = out.Description == nil
	}
	if p.ClearDescription {
		out.Description = nil
		out.ClearDescription = true
	}
	return out, nil
}

func validateAmount(raw RawAmount) (decimal.Decimal, error) {
	if !raw.HasDigits() {
		return decimal.Zero, ErrInvalidAmount
	}
	amount := raw.Normalize()
	if amount.Abs().GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, ErrAmountOutOfRange
	}
	return amount, nil
}

func validateDate(dates DateNormalizer, raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, ErrInvalidDate
	}
	t, ok := dates.Parse(raw)
	if !ok {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func cleanDescription(d *string) *string {
	if d == nil {
		return nil
	}
	v := strings.TrimSpace(*d)
	if v == "" {
		return nil
	}
	return &v
}

// IsValidationError reports whether err comes from input validation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyAccount) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrAmountOutOfRange) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrEmptyPatch)
}
