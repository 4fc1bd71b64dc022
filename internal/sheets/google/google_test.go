package google

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billbook/internal/core"
	"billbook/internal/log"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{SheetName: "Transactions"}, log.Discard())
	assert.EqualError(t, err, "missing GOOGLE_SPREADSHEET_ID")
}

func TestNew_MissingSheetName(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "abc"}, log.Discard())
	assert.ErrorContains(t, err, "GOOGLE_SHEET_NAME")
}

func TestCredentialsJSON(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	t.Run("inline wins", func(t *testing.T) {
		got, err := credentialsJSON(Config{CredentialsJSON: ` {"type":"service_account"} `, CredentialsFile: "/nope"})
		require.NoError(t, err)
		assert.Equal(t, `{"type":"service_account"}`, string(got))
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sa.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"k":1}`), 0o600))

		got, err := credentialsJSON(Config{CredentialsFile: path})
		require.NoError(t, err)
		assert.Equal(t, `{"k":1}`, string(got))
	})

	t.Run("application default path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "adc.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"adc":true}`), 0o600))
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)

		got, err := credentialsJSON(Config{})
		require.NoError(t, err)
		assert.Equal(t, `{"adc":true}`, string(got))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := credentialsJSON(Config{CredentialsFile: "/non/existent.json"})
		assert.Error(t, err)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := credentialsJSON(Config{})
		assert.ErrorContains(t, err, "missing service account credentials")
	})
}

func TestClient_Uninitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Transactions", logger: log.Discard()}

	_, err := c.UpsertTransaction(context.Background(), core.Transaction{ID: "a1"})
	assert.Error(t, err)
	_, err = c.ReadTransactions(context.Background())
	assert.Error(t, err)
}
