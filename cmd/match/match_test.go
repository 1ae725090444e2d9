package match_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"fjacquet/camt-recon/cmd/match"
	"fjacquet/camt-recon/cmd/root"
	"fjacquet/camt-recon/internal/audit"
	"fjacquet/camt-recon/internal/config"
	"fjacquet/camt-recon/internal/container"
	"fjacquet/camt-recon/internal/logging"
	"fjacquet/camt-recon/internal/models"
	"fjacquet/camt-recon/internal/reconerror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchCommand_Metadata(t *testing.T) {
	assert.Equal(t, "match", match.Cmd.Use)
	assert.Contains(t, match.Cmd.Long, "manual")
	assert.NotNil(t, match.Cmd.Flags().Lookup("payment"))
	assert.NotNil(t, match.Cmd.Flags().Lookup("transaction"))
}

func useMemoryContainer(t *testing.T) *container.Container {
	t.Helper()
	c, err := container.NewContainer(&config.Config{
		Log:            config.LogConfig{Level: "error", Format: "text"},
		Data:           config.DataConfig{Database: "memory"},
		Reconciliation: config.ReconciliationConfig{PaymentLookbackDays: 7, SystemActor: "SYSTEM"},
	})
	require.NoError(t, err)
	flags, log := root.SharedFlags, root.Log
	root.AppContainer = c
	root.Log = logging.NewMockLogger()
	root.SharedFlags = root.CommonFlags{Format: "json", Actor: "ops-1"}
	t.Cleanup(func() {
		root.AppContainer, root.SharedFlags, root.Log = nil, flags, log
		_ = match.Cmd.Flags().Set("payment", "")
		_ = match.Cmd.Flags().Set("transaction", "")
	})
	return c
}

func TestMatchCommand_RecordsManualMatch(t *testing.T) {
	c := useMemoryContainer(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.GetStore().SaveStatement(ctx, &models.BankStatement{
		ID: "st-1", StatementDate: day, Currency: "EUR", Status: models.StatementException,
		Transactions: []models.BankTransaction{
			{ID: "tx-1", ValueDate: day, Amount: 98, Currency: "EUR"},
			{ID: "tx-2", ValueDate: day, Amount: 98, Currency: "EUR"},
		},
	}))
	require.NoError(t, c.GetStore().SavePayments(ctx, []models.Payment{
		{ID: "pay-1", Amount: 100, ExecutionDate: day, Status: models.PaymentPending},
	}))

	var out bytes.Buffer
	match.Cmd.SetOut(&out)
	match.Cmd.SetContext(ctx)
	require.NoError(t, match.Cmd.Flags().Set("payment", "pay-1"))
	require.NoError(t, match.Cmd.Flags().Set("transaction", "tx-1"))
	require.NoError(t, match.Cmd.RunE(match.Cmd, nil))

	var mm models.ManualMatch
	require.NoError(t, json.Unmarshal(out.Bytes(), &mm))
	assert.Equal(t, models.MatchManual, mm.MatchType)
	assert.Equal(t, "ops-1", mm.CreatedBy)

	trail, err := c.GetStore().AuditTrail(ctx, "tx-1")
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, audit.ActionManualMatchCreated, trail[0].Action)

	// The payment is claimed and cannot back a second transaction.
	require.NoError(t, match.Cmd.Flags().Set("transaction", "tx-2"))
	err = match.Cmd.RunE(match.Cmd, nil)
	assert.ErrorIs(t, err, reconerror.ErrInvalidState)
}

func TestMatchCommand_RequiresActor(t *testing.T) {
	useMemoryContainer(t)
	t.Setenv("RECON_ACTOR", "")
	root.SharedFlags.Actor = ""
	match.Cmd.SetContext(context.Background())
	require.NoError(t, match.Cmd.Flags().Set("payment", "pay-1"))
	require.NoError(t, match.Cmd.Flags().Set("transaction", "tx-1"))
	assert.ErrorIs(t, match.Cmd.RunE(match.Cmd, nil), reconerror.ErrInvalidInput)
}
