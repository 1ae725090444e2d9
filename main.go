package main

import (
	"fmt"
	"os"

	"fjacquet/camt-recon/cmd/audit"
	"fjacquet/camt-recon/cmd/exceptions"
	importcmd "fjacquet/camt-recon/cmd/import"
	"fjacquet/camt-recon/cmd/match"
	"fjacquet/camt-recon/cmd/payments"
	"fjacquet/camt-recon/cmd/reconcile"
	"fjacquet/camt-recon/cmd/root"
	"fjacquet/camt-recon/cmd/serve"
	"fjacquet/camt-recon/cmd/stats"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(importcmd.Cmd)
	root.Cmd.AddCommand(payments.Cmd)
	root.Cmd.AddCommand(reconcile.Cmd)
	root.Cmd.AddCommand(exceptions.Cmd)
	root.Cmd.AddCommand(match.Cmd)
	root.Cmd.AddCommand(stats.Cmd)
	root.Cmd.AddCommand(audit.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
