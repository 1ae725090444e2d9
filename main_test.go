package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/camt-recon/cmd/root"
	"fjacquet/camt-recon/internal/audit"
	"fjacquet/camt-recon/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statementYAML = `id: st-1
bank_code: UBS
account_number: CH9300762011623852957
statement_date: "2024-03-15"
opening_balance: 50000.00
closing_balance: 29900.00
currency: EUR
transactions:
  - id: tx-1
    transaction_date: "2024-03-15"
    amount: 100
    reference: R-1
    counterparty_name: ACME
  - id: tx-2
    transaction_date: "2024-03-15"
    amount: 20000
    reference: R-2
    counterparty_name: ACME
`

const paymentsCSV = `id,amount,beneficiary_name,reference,execution_date,status
pay-1,100.00,ACME,R-1,2024-03-15,pending
pay-9,5.00,ACME,R-9,2024-03-15,pending
`

type cli struct {
	t        *testing.T
	database string
}

func (c cli) run(args ...string) (string, error) {
	c.t.Helper()
	var out bytes.Buffer
	root.Cmd.SetOut(&out)
	root.Cmd.SetErr(&out)
	base := []string{"--database", c.database, "--output=", "--format", "json", "--actor="}
	root.Cmd.SetArgs(append(base, args...))
	err := root.Cmd.Execute()
	return out.String(), err
}

func (c cli) mustRun(args ...string) []byte {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	return []byte(out)
}

func TestCLI_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	stmtPath := filepath.Join(dir, "statement.yaml")
	paymentsPath := filepath.Join(dir, "payments.csv")
	require.NoError(t, os.WriteFile(stmtPath, []byte(statementYAML), 0600))
	require.NoError(t, os.WriteFile(paymentsPath, []byte(paymentsCSV), 0600))

	c := cli{t: t, database: filepath.Join(dir, "ledger.db")}

	var stmt models.BankStatement
	require.NoError(t, json.Unmarshal(c.mustRun("import", "-i", stmtPath), &stmt))
	assert.Equal(t, models.StatementImported, stmt.Status)

	out := c.mustRun("payments", "-i", paymentsPath, "--list=false")
	assert.Contains(t, string(out), "Imported 2 payments")

	var report models.ReconciliationReport
	require.NoError(t, json.Unmarshal(c.mustRun("reconcile", "st-1", "--all=false"), &report))
	assert.Equal(t, 1, report.Summary.MatchedTransactions)
	assert.Len(t, report.Exceptions, 2)

	_, err := c.run("reconcile", "st-1", "--all=false")
	assert.Error(t, err, "a statement is reconciled once")

	var high []models.ReconciliationException
	require.NoError(t, json.Unmarshal(c.mustRun("exceptions", "list", "--severity", "high"), &high))
	require.Len(t, high, 1)

	_, err = c.run("exceptions", "resolve", high[0].ID, "--note", "booked manually")
	assert.Error(t, err, "actor is required")

	var resolved models.ReconciliationException
	require.NoError(t, json.Unmarshal(c.mustRun("exceptions", "resolve", high[0].ID, "--note", "booked manually", "--actor", "ops-1"), &resolved))
	assert.Equal(t, models.ExceptionResolved, resolved.Status)

	var trail []audit.Record
	require.NoError(t, json.Unmarshal(c.mustRun("audit", high[0].ID), &trail))
	actions := make([]audit.Action, 0, len(trail))
	for _, r := range trail {
		actions = append(actions, r.Action)
	}
	assert.Contains(t, actions, audit.ActionExceptionCreated)
	assert.Contains(t, actions, audit.ActionExceptionResolved)

	var stats models.Statistics
	require.NoError(t, json.Unmarshal(c.mustRun("stats", "--since", "2024-01-01"), &stats))
	assert.Equal(t, 1, stats.TotalStatements)
	assert.Equal(t, 1, stats.ResolvedExceptions)
}
