package exceptions_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"fjacquet/camt-recon/cmd/exceptions"
	"fjacquet/camt-recon/cmd/root"
	"fjacquet/camt-recon/internal/audit"
	"fjacquet/camt-recon/internal/config"
	"fjacquet/camt-recon/internal/container"
	"fjacquet/camt-recon/internal/logging"
	"fjacquet/camt-recon/internal/models"
	"fjacquet/camt-recon/internal/reconerror"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExceptionsCommand_SubCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range exceptions.Cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"list", "resolve", "investigate", "ignore", "create"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestExceptionsCommand_Flags(t *testing.T) {
	list, _, err := exceptions.Cmd.Find([]string{"list"})
	require.NoError(t, err)
	for _, flag := range []string{"status", "severity", "type", "statement", "csv"} {
		assert.NotNil(t, list.Flags().Lookup(flag), flag)
	}

	resolve, _, err := exceptions.Cmd.Find([]string{"resolve"})
	require.NoError(t, err)
	assert.NotNil(t, resolve.Flags().Lookup("note"))
	assert.Error(t, resolve.Args(resolve, []string{}))

	create, _, err := exceptions.Cmd.Find([]string{"create"})
	require.NoError(t, err)
	for _, flag := range []string{"type", "description", "severity", "statement", "payment", "transaction"} {
		assert.NotNil(t, create.Flags().Lookup(flag), flag)
	}
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
	})
	return c
}

// sub finds a subcommand, points its output at a buffer and resets the given flags afterwards.
func sub(t *testing.T, name string, flags map[string]string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	cmd, _, err := exceptions.Cmd.Find([]string{name})
	require.NoError(t, err)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	for k, v := range flags {
		require.NoError(t, cmd.Flags().Set(k, v))
		t.Cleanup(func() { _ = cmd.Flags().Set(k, "") })
	}
	return cmd, &out
}

func TestExceptionsCommand_ListAndResolve(t *testing.T) {
	c := useMemoryContainer(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.GetStore().SaveStatement(ctx, &models.BankStatement{
		ID: "st-1", StatementDate: day, Currency: "EUR", Status: models.StatementImported,
		Transactions: []models.BankTransaction{
			{ID: "tx-1", ValueDate: day, Amount: 20000, Currency: "EUR", Reference: "R-1"},
			{ID: "tx-2", ValueDate: day, Amount: 50, Currency: "EUR", Reference: "R-2"},
		},
	}))
	_, err := c.GetReconciler().ProcessStatement(ctx, "st-1")
	require.NoError(t, err)

	list, out := sub(t, "list", map[string]string{"severity": "high"})
	require.NoError(t, list.RunE(list, nil))
	var high []models.ReconciliationException
	require.NoError(t, json.Unmarshal(out.Bytes(), &high))
	require.Len(t, high, 1)
	assert.Equal(t, "tx-1", high[0].TransactionID)

	resolve, out := sub(t, "resolve", map[string]string{"note": "booked manually"})
	require.NoError(t, resolve.RunE(resolve, []string{high[0].ID}))
	var resolved models.ReconciliationException
	require.NoError(t, json.Unmarshal(out.Bytes(), &resolved))
	assert.Equal(t, models.ExceptionResolved, resolved.Status)
	assert.Equal(t, "ops-1", resolved.ResolvedBy)

	assert.ErrorIs(t, resolve.RunE(resolve, []string{high[0].ID}), reconerror.ErrInvalidState)

	trail, err := c.GetStore().AuditTrail(ctx, high[0].ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, audit.ActionExceptionResolved, trail[1].Action)
}

func TestExceptionsCommand_Create(t *testing.T) {
	c := useMemoryContainer(t)

	create, out := sub(t, "create", map[string]string{
		"type":        string(models.ExceptionDuplicateMatch),
		"description": "Bank booked the transfer twice",
	})
	require.NoError(t, create.RunE(create, nil))

	var exc models.ReconciliationException
	require.NoError(t, json.Unmarshal(out.Bytes(), &exc))
	assert.Equal(t, models.ExceptionOpen, exc.Status)
	assert.Equal(t, models.SeverityMedium, exc.Severity)

	stored, err := c.GetStore().GetException(context.Background(), exc.ID)
	require.NoError(t, err)
	assert.Equal(t, "ops-1", stored.CreatedBy)

	bad, _ := sub(t, "create", map[string]string{"type": "bogus", "description": "x"})
	assert.ErrorIs(t, bad.RunE(bad, nil), reconerror.ErrInvalidInput)
}
