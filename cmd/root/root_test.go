package root_test

import (
	"testing"

	"fjacquet/camt-recon/cmd/root"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "camt-recon", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "reconcile bank statements")
	assert.Contains(t, root.Cmd.Long, "audit ledger")
	assert.NotNil(t, root.Cmd.Run)
	assert.NotNil(t, root.Cmd.PersistentPreRunE)
	assert.NotNil(t, root.Cmd.PersistentPostRun)
}

func TestRootCommand_Flags(t *testing.T) {
	root.Init()
	root.Init()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{name: "input", shorthand: "i"},
		{name: "output", shorthand: "o"},
		{name: "format", shorthand: "f", defValue: "json"},
		{name: "actor"},
		{name: "database"},
		{name: "log-level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := root.Cmd.PersistentFlags().Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
			assert.Equal(t, tt.defValue, flag.DefValue)
		})
	}
}

func TestRootCommand_Run(t *testing.T) {
	assert.NotPanics(t, func() {
		root.Cmd.Run(&cobra.Command{}, []string{})
	})
}

func TestGetContainer_NotInitialized(t *testing.T) {
	root.AppContainer = nil
	_, err := root.GetContainer()
	assert.Error(t, err)
}

func TestActorID(t *testing.T) {
	root.SharedFlags.Actor = ""
	t.Setenv("RECON_ACTOR", "ops-env")
	assert.Equal(t, "ops-env", root.ActorID())

	root.SharedFlags.Actor = "ops-flag"
	defer func() { root.SharedFlags.Actor = "" }()
	assert.Equal(t, "ops-flag", root.ActorID())
}
