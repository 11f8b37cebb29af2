package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"aether-backend/internal/chain"
	"aether-backend/internal/database"
	"aether-backend/internal/events"
	"aether-backend/internal/models"
	"aether-backend/internal/yield"

	"github.com/spf13/cobra"
)

var txStatusNames = map[uint8]string{
	chain.TrxPending: "PENDING",
	chain.TrxFailed:  "FAILED",
	chain.TrxSuccess: "SUCCESS",
}

func BalanceCmd(env *Env) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "balance <address>",
		Short: "Show the DNR balance of an address, or a token balance with --token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := env.chain()
			if err != nil {
				return err
			}
			defer client.Close()

			wei, err := client.Balance(cmd.Context(), args[0], token)
			if err != nil {
				return err
			}
			unit := "DNR"
			if token != "" {
				unit = token
				if info, err := client.Token(cmd.Context(), token); err == nil && info.Symbol != "" {
					unit = info.Symbol
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Balance of %s: %s %s\n", args[0], chain.FromWei(wei).String(), unit)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "ERC-20 contract address")
	return cmd
}

// LedgerCmd reports what the platform wallet holds of every property token;
// purchases fail while that balance is zero.
func LedgerCmd(env *Env) *cobra.Command {
	var holder string
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Platform token balance per listed property",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.db(); err != nil {
				return err
			}
			client, err := env.chain()
			if err != nil {
				return err
			}
			defer client.Close()

			if holder == "" {
				holder = env.Config.PlatformAddress
			}
			if holder == "" {
				holder = client.PayoutAddress()
			}
			if holder == "" {
				return errors.New("no platform address: set PLATFORM_ADDRESS or --address")
			}

			var props []models.Property
			if err := database.DB.Order("id").Find(&props).Error; err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Platform wallet: %s\n", holder)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SYMBOL\tADDRESS\tBALANCE\tSTATE")
			for _, p := range props {
				wei, err := client.Balance(cmd.Context(), holder, p.Address)
				if err != nil {
					fmt.Fprintf(w, "%s\t%s\t-\terror: %v\n", p.Symbol, p.Address, err)
					continue
				}
				state := "READY"
				if wei.Sign() == 0 {
					state = "EMPTY"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Symbol, p.Address, chain.FromWei(wei).String(), state)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&holder, "address", "", "wallet to inspect instead of the platform address")
	return cmd
}

func TxCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "tx <hash>",
		Short: "Show the receipt status of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := env.chain()
			if err != nil {
				return err
			}
			defer client.Close()

			status, err := client.TxStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			name, ok := txStatusNames[status]
			if !ok {
				name = fmt.Sprintf("UNKNOWN(%d)", status)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", args[0], name)
			return nil
		},
	}
}

func YieldCmd(env *Env) *cobra.Command {
	y := &cobra.Command{
		Use:   "yield",
		Short: "Yield payouts",
	}

	var propertyAddr string
	var all bool
	distribute := &cobra.Command{
		Use:   "distribute",
		Short: "Pay the monthly yield now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (propertyAddr != "") {
				return errors.New("pass exactly one of --property or --all")
			}
			if err := env.db(); err != nil {
				return err
			}
			client, err := env.chain()
			if err != nil {
				return err
			}
			defer client.Close()

			svc := yield.NewService(client, events.Nop{})
			ctx := cmd.Context()

			var sums []yield.Summary
			if all {
				sums, err = svc.DistributeAll(ctx)
			} else {
				var sum yield.Summary
				sum, err = svc.Distribute(ctx, strings.TrimSpace(propertyAddr))
				sums = append(sums, sum)
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROPERTY\tPOOL\tINVESTORS\tPAID\tFAILED")
			for _, s := range sums {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", s.PropertyAddress, s.Pool.StringFixed(2), s.Investors, s.Paid, s.Failed)
			}
			return w.Flush()
		},
	}
	distribute.Flags().StringVar(&propertyAddr, "property", "", "property token address")
	distribute.Flags().BoolVar(&all, "all", false, "distribute for every property")
	y.AddCommand(distribute)
	return y
}

func WalletCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "wallet",
		Short: "Print the payout address derived from HD_SEED",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if env.Config.HDSeed == "" {
				return chain.ErrNoPayoutAccount
			}
			addr, _, err := chain.PayoutAccount(env.Config.HDSeed)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		},
	}
}
