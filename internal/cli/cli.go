// Package cli holds the aetherctl maintenance commands.
package cli

import (
	"fmt"

	"aether-backend/internal/chain"
	"aether-backend/internal/config"

	"github.com/spf13/cobra"
)

// Env opens the resources a command needs on demand, so commands that only
// touch the database never dial the chain node and vice versa.
type Env struct {
	Config *config.Config
	// OpenDB points database.DB at the configured database.
	OpenDB    func() error
	DialChain func() (chain.Client, error)
}

func (e *Env) db() error {
	if err := e.OpenDB(); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	return nil
}

func (e *Env) chain() (chain.Client, error) {
	c, err := e.DialChain()
	if err != nil {
		return nil, fmt.Errorf("dial chain node: %w", err)
	}
	return c, nil
}

func NewRootCmd(env *Env) *cobra.Command {
	root := &cobra.Command{
		Use:           "aetherctl",
		Short:         "Aether platform maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		MigrateCmd(env),
		SeedCmd(env),
		PropertiesCmd(env),
		BalanceCmd(env),
		LedgerCmd(env),
		TxCmd(env),
		YieldCmd(env),
		WalletCmd(env),
	)
	return root
}
