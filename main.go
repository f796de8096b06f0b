// Command seshat manages the persistence layer of a seshat deployment:
// backend bootstrap, seeding and status inspection over either the
// embedded or the networked store.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/stokaro/seshat/cmd/bootstrap"
	"github.com/stokaro/seshat/cmd/schema"
	"github.com/stokaro/seshat/cmd/status"
)

var rootCmd = &cobra.Command{
	Use:   "seshat",
	Short: "Dual-backend persistence bootstrap and governance",
	Long: `Seshat provides one data-access contract over an embedded single-file
store and a networked clustered store, plus the startup choreography
that brings either backend from empty to serving: readiness gate,
idempotent schema application and fault-isolated seeding.`,
	SilenceUsage: true,
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	rootCmd.AddCommand(bootstrap.NewBootstrapCommand())
	rootCmd.AddCommand(schema.NewSchemaCommand())
	rootCmd.AddCommand(status.NewStatusCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
