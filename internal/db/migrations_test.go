package db

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/culturekart/marketplace-backend/internal/models"
)

// The repositories scan SELECT * into structs and compare status columns
// against the models constants, so the schema defaults must use the exact
// same strings. A drifted default is invisible until runtime.
func TestSchemaDefaultsMatchModelConstants(t *testing.T) {
	verification := readMigration(t, "0006_verification.sql")
	assert.Contains(t, verification, fmt.Sprintf("status TEXT NOT NULL DEFAULT '%s'", models.CodeStatusUnused))

	users := readMigration(t, "0001_users.sql")
	assert.Contains(t, users, fmt.Sprintf("role TEXT NOT NULL DEFAULT '%s'", models.RoleBuyer))
}

// Ledger rows reference their withdrawal request so settlement never has
// to guess by user and amount.
func TestTransactionsCarryWithdrawalReference(t *testing.T) {
	withdrawals := readMigration(t, "0005_withdrawals.sql")
	assert.Contains(t, withdrawals, "ALTER TABLE transactions ADD COLUMN IF NOT EXISTS withdrawal_id")
}

func readMigration(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "migrations", name))
	require.NoError(t, err)
	return string(data)
}
