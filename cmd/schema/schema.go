// Package schema implements the `seshat schema` command: inspect the
// baseline schema exactly as the bootstrapper will execute it.
package schema

import (
	"fmt"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/stokaro/seshat/bootstrap"
	"github.com/stokaro/seshat/core/sqlutil"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the baseline schema statements",
	Long: `Print the baseline schema as the ordered statement sequence the
bootstrapper executes. Comments are stripped and the document is split
on statement boundaries, so the output is exactly what each backend
receives.

Use --raw to print the embedded schema document unprocessed.`,
	RunE: runSchema,
}

const rawFlag = "raw"

var schemaFlags = map[string]cobraflags.Flag{
	rawFlag: &cobraflags.BoolFlag{
		Name:  rawFlag,
		Value: false,
		Usage: "Print the embedded schema document without processing",
	},
}

// NewSchemaCommand returns the schema command.
func NewSchemaCommand() *cobra.Command {
	cobraflags.RegisterMap(schemaCmd, schemaFlags)
	return schemaCmd
}

func runSchema(_ *cobra.Command, _ []string) error {
	doc := bootstrap.BaselineSchema()

	if schemaFlags[rawFlag].GetBool() {
		fmt.Print(doc)
		return nil
	}

	statements := sqlutil.SplitStatements(doc)
	for i, stmt := range statements {
		fmt.Printf("-- statement %d/%d\n%s;\n", i+1, len(statements), strings.TrimSpace(stmt))
		if i < len(statements)-1 {
			fmt.Println()
		}
	}
	return nil
}
