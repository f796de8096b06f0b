// Package status implements the `seshat status` command: report backend
// dialect, reachability and which baseline tables are present.
package status

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stokaro/seshat/config"
	"github.com/stokaro/seshat/core/platform"
	"github.com/stokaro/seshat/store"
	"github.com/stokaro/seshat/store/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report backend dialect, reachability and bootstrap state",
	RunE:  runStatus,
}

// NewStatusCommand returns the status command.
func NewStatusCommand() *cobra.Command {
	return statusCmd
}

// baselineTables are the tables the bootstrapper establishes, in schema
// order.
var baselineTables = []string{"roles", "users", "user_roles", "prompt_templates", "app_settings"}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("Dialect: %s\n", cfg.Dialect)
	if cfg.Networked() {
		fmt.Printf("Target:  %s\n", cfg.Addr())
	} else {
		fmt.Printf("Path:    %s\n", cfg.Path)
	}

	st, err := store.Open(cfg)
	if err != nil {
		fmt.Println("Reachable: no")
		return err
	}
	defer st.Close()
	fmt.Println("Reachable: yes")

	present, err := listTables(cmd.Context(), st)
	if err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}

	var missing []string
	for _, table := range baselineTables {
		if !present[table] {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		fmt.Printf("Bootstrapped: no (missing tables: %s)\n", strings.Join(missing, ", "))
		return nil
	}

	row, err := st.GetOne(cmd.Context(), "SELECT COUNT(*) AS n FROM users")
	if err != nil {
		return fmt.Errorf("count identities: %w", err)
	}
	fmt.Printf("Bootstrapped: yes (%v identities)\n", row["n"])
	return nil
}

// listTables reads the backend's catalog and returns the set of table
// names visible to the connection.
func listTables(ctx context.Context, st types.Store) (map[string]bool, error) {
	var query string
	switch st.Dialect() {
	case platform.SQLite:
		query = "SELECT name FROM sqlite_master WHERE type = 'table'"
	case platform.Postgres:
		query = "SELECT table_name AS name FROM information_schema.tables WHERE table_schema = 'public'"
	case platform.MySQL:
		query = "SELECT table_name AS name FROM information_schema.tables WHERE table_schema = DATABASE()"
	default:
		return nil, fmt.Errorf("unknown dialect %q", st.Dialect())
	}

	rows, err := st.GetAll(ctx, query)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(rows))
	for _, row := range rows {
		if name, ok := row["name"].(string); ok {
			present[name] = true
		}
	}
	return present, nil
}
