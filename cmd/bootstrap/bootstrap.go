// Package bootstrap implements the `seshat bootstrap` command: wait for
// the backing store, apply the baseline schema, seed reference and
// identity data.
package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	boot "github.com/stokaro/seshat/bootstrap"
	"github.com/stokaro/seshat/config"
	"github.com/stokaro/seshat/identity"
	"github.com/stokaro/seshat/store"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Initialize the configured store: readiness gate, schema, seed",
	Long: `Initialize the configured store.

For networked backends the command first waits for the store to accept
connections, with bounded exponential backoff. It then applies the
baseline schema (tolerating already-applied statements) and seeds the
role catalog and master identity. The whole sequence is idempotent:
re-running against an initialized store is a no-op.

Backend selection and credentials come from the SESHAT_* environment
variables; flags override the master identity values.`,
	RunE: runBootstrap,
}

const (
	masterEmailFlag    = "master-email"
	masterPasswordFlag = "master-password"
	probeTimeoutFlag   = "probe-timeout"
	skipSeedFlag       = "skip-seed"
)

var bootstrapFlags = map[string]cobraflags.Flag{
	masterEmailFlag: &cobraflags.StringFlag{
		Name:  masterEmailFlag,
		Value: "",
		Usage: "Master identity email (overrides SESHAT_MASTER_EMAIL)",
	},
	masterPasswordFlag: &cobraflags.StringFlag{
		Name:  masterPasswordFlag,
		Value: "",
		Usage: "Master identity password for first-time seeding (overrides SESHAT_MASTER_PASSWORD)",
	},
	probeTimeoutFlag: &cobraflags.StringFlag{
		Name:  probeTimeoutFlag,
		Value: "3s",
		Usage: "Per-attempt connectivity probe timeout",
	},
	skipSeedFlag: &cobraflags.BoolFlag{
		Name:  skipSeedFlag,
		Value: false,
		Usage: "Apply the schema but skip seeding",
	},
}

// NewBootstrapCommand returns the bootstrap command.
func NewBootstrapCommand() *cobra.Command {
	cobraflags.RegisterMap(bootstrapCmd, bootstrapFlags)
	return bootstrapCmd
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if v := bootstrapFlags[masterEmailFlag].GetString(); v != "" {
		cfg.MasterEmail = v
	}
	if v := bootstrapFlags[masterPasswordFlag].GetString(); v != "" {
		cfg.MasterPassword = v
	}

	logger := slog.Default()
	ctx := cmd.Context()

	if cfg.Networked() {
		timeout, err := time.ParseDuration(bootstrapFlags[probeTimeoutFlag].GetString())
		if err != nil {
			return fmt.Errorf("invalid probe timeout: %w", err)
		}
		logger.Info("waiting for store", "target", cfg.Addr(), "dialect", cfg.Dialect)
		if err := boot.WaitReady(ctx, cfg.Addr(), cfg.Retry, boot.DialProbe(timeout), logger); err != nil {
			return fmt.Errorf("store never became ready: %w", err)
		}
	}

	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	b := boot.New(st).WithLogger(logger)

	applied, err := b.ApplySchema(ctx, boot.BaselineSchema())
	if err != nil {
		return err
	}
	fmt.Printf("Schema: %d statements applied\n", applied)

	if bootstrapFlags[skipSeedFlag].GetBool() {
		return nil
	}

	if cfg.MasterEmail == "" {
		logger.Warn("no master identity configured, skipping seed")
		return nil
	}
	if cfg.MasterPassword == "" {
		return fmt.Errorf("%w: master email set but master password missing", config.ErrInvalidConfig)
	}

	hash, err := identity.HashPassword(cfg.MasterPassword)
	if err != nil {
		return err
	}

	report := b.Seed(ctx, identity.BaselineSeed(cfg.MasterEmail, hash))
	fmt.Printf("Seed: %d inserted, %d skipped, %d failed\n",
		report.Inserted, report.Skipped, len(report.Failures))
	for _, f := range report.Failures {
		fmt.Printf("  failed: %s\n", f)
	}

	return nil
}
