package adapters

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billbook/internal/core"
)

func TestDecodeRowAliases(t *testing.T) {
	cases := []struct {
		name string
		row  map[string]any
	}{
		{"canonical", map[string]any{"account": "招商银行", "amount": "88.50", "date": "2024-03-01", "description": "餐饮"}},
		{"capitalized", map[string]any{"Account": "招商银行", "Amount": 88.5, "Date": "2024-03-01", "Description": "餐饮"}},
		{"chinese", map[string]any{"银行名称": "招商银行", "消费金额": "¥88.5", "消费时间": "2024-03-01", "消费用途": "餐饮"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := DecodeRow(tc.row)
			assert.Equal(t, "招商银行", n.Account)
			assert.Equal(t, "88.50", core.FormatAmount(n.Amount.Normalize()))
			assert.Equal(t, "2024-03-01", n.Date)
			require.NotNil(t, n.Description)
			assert.Equal(t, "餐饮", *n.Description)
		})
	}
}

func TestDecodeRowJSONNumbers(t *testing.T) {
	var row map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 1e2, "date": "03月01日10:00"}`), &row))

	n := DecodeRow(row)
	assert.Equal(t, "100.00", core.FormatAmount(n.Amount.Normalize()))
	assert.Equal(t, "03月01日10:00", n.Date)
	assert.Nil(t, n.Description)
}

func TestDecodeRowTimeValue(t *testing.T) {
	n := DecodeRow(map[string]any{"date": time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)})
	assert.Equal(t, "2024-03-01T10:00:00Z", n.Date)
}

func TestDecodePatch(t *testing.T) {
	p := DecodePatch(map[string]any{"消费金额": "12", "description": nil})
	require.NotNil(t, p.Amount)
	assert.Equal(t, core.RawAmount("12"), *p.Amount)
	assert.True(t, p.ClearDescription)
	assert.Nil(t, p.Account)
	assert.Nil(t, p.Date)

	empty := DecodePatch(map[string]any{"unknown": 1})
	assert.Equal(t, core.TransactionPatch{}, empty)
}

func TestDecodeStoredRow(t *testing.T) {
	tx := DecodeStoredRow(map[string]any{
		"id":          "abc",
		"Account":     " 工商银行 ",
		"Amount":      "199.99",
		"Date":        "2024-03-01T00:00:00Z",
		"Description": "",
		"created_at":  "2024-03-02T00:00:00Z",
	})
	assert.Equal(t, "abc", tx.ID)
	assert.Equal(t, "工商银行", tx.Account)
	assert.Equal(t, "199.99", core.FormatAmount(tx.Amount))
	assert.Nil(t, tx.Description)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), tx.CreatedAt)
}

func TestCanonicalField(t *testing.T) {
	assert.Equal(t, "amount", CanonicalField("消费金额"))
	assert.Equal(t, "description", CanonicalField(" Description "))
	assert.Equal(t, "other", CanonicalField("other"))
}
