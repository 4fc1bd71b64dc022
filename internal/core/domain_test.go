package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransactionValidate(t *testing.T) {
	n := fixedNormalizer(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), time.UTC)
	desc := "  lunch "
	blank := "   "

	cases := []struct {
		name string
		in   NewTransaction
		err  error
	}{
		{"ok", NewTransaction{Account: "招商银行", Amount: "88.5", Date: "2024-03-01", Description: &desc}, nil},
		{"token date", NewTransaction{Account: "招商银行", Amount: "¥12", Date: "03月01日10:00"}, nil},
		{"blank description", NewTransaction{Account: "a", Amount: "1", Date: "2024-03-01", Description: &blank}, nil},
		{"max amount", NewTransaction{Account: "a", Amount: "99999999.99", Date: "2024-03-01"}, nil},
		{"empty account", NewTransaction{Account: "  ", Amount: "1", Date: "2024-03-01"}, ErrEmptyAccount},
		{"no digits", NewTransaction{Account: "a", Amount: "abc", Date: "2024-03-01"}, ErrInvalidAmount},
		{"empty amount", NewTransaction{Account: "a", Date: "2024-03-01"}, ErrInvalidAmount},
		{"too large", NewTransaction{Account: "a", Amount: "100000000", Date: "2024-03-01"}, ErrAmountOutOfRange},
		{"bad date", NewTransaction{Account: "a", Amount: "1", Date: "13月01日10:00"}, ErrInvalidDate},
		{"empty date", NewTransaction{Account: "a", Amount: "1"}, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := tc.in.Validate(n)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				assert.True(t, IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.False(t, v.Date.IsZero(), "date is resolved")
		})
	}
}

func TestNewTransactionValidateCleansValues(t *testing.T) {
	n := fixedNormalizer(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), time.UTC)
	desc := "  lunch "
	blank := " "

	v, err := NewTransaction{Account: " 招商银行 ", Amount: "¥88.505", Date: "2024-03-01", Description: &desc}.Validate(n)
	require.NoError(t, err)
	assert.Equal(t, "招商银行", v.Account)
	assert.Equal(t, "88.51", FormatAmount(v.Amount))
	require.NotNil(t, v.Description)
	assert.Equal(t, "lunch", *v.Description)

	v, err = NewTransaction{Account: "a", Amount: "1", Date: "2024-03-01", Description: &blank}.Validate(n)
	require.NoError(t, err)
	assert.Nil(t, v.Description)
}

func TestTransactionPatchValidate(t *testing.T) {
	n := fixedNormalizer(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), time.UTC)

	_, err := TransactionPatch{}.Validate(n)
	assert.ErrorIs(t, err, ErrEmptyPatch)

	amount := RawAmount("12.3")
	p, err := TransactionPatch{Amount: &amount}.Validate(n)
	require.NoError(t, err)
	require.NotNil(t, p.Amount)
	assert.Equal(t, "12.30", FormatAmount(*p.Amount))
	assert.Nil(t, p.Account, "untouched fields stay nil")
	assert.Nil(t, p.Date)
	assert.False(t, p.ClearDescription)

	blank := ""
	p, err = TransactionPatch{Description: &blank}.Validate(n)
	require.NoError(t, err)
	assert.True(t, p.ClearDescription)

	bad := "nope"
	_, err = TransactionPatch{Date: &bad}.Validate(n)
	assert.ErrorIs(t, err, ErrInvalidDate)

	empty := " "
	_, err = TransactionPatch{Account: &empty}.Validate(n)
	assert.ErrorIs(t, err, ErrEmptyAccount)
}

func TestTransactionCategory(t *testing.T) {
	d := "餐饮"
	assert.Equal(t, "餐饮", Transaction{Description: &d}.Category())
	assert.Equal(t, OtherCategory, Transaction{}.Category())
}
