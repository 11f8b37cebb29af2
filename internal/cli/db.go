package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"aether-backend/internal/database"
	"aether-backend/internal/models"
	"aether-backend/internal/property"

	"github.com/spf13/cobra"
)

func MigrateCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.db(); err != nil {
				return err
			}
			if err := database.Migrate(database.DB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migration complete")
			return nil
		},
	}
}

func SeedCmd(env *Env) *cobra.Command {
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Load built-in data",
	}
	seed.AddCommand(&cobra.Command{
		Use:   "properties",
		Short: "Find-or-create the built-in property catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.db(); err != nil {
				return err
			}
			created, err := property.Seed(database.DB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d new properties (%d in catalogue)\n", created, len(property.Catalogue))
			return nil
		},
	})
	return seed
}

func PropertiesCmd(env *Env) *cobra.Command {
	props := &cobra.Command{
		Use:   "properties",
		Short: "Inspect and fix listed properties",
	}

	props.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.db(); err != nil {
				return err
			}
			var list []models.Property
			if err := database.DB.Order("id").Find(&list).Error; err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSYMBOL\tTITLE\tADDRESS\tSELLER")
			for _, p := range list {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Symbol, p.Title, p.Address, p.SellerAddress)
			}
			return w.Flush()
		},
	})

	props.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "Count properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.db(); err != nil {
				return err
			}
			var n int64
			if err := database.DB.Model(&models.Property{}).Count(&n).Error; err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d properties\n", n)
			return nil
		},
	})

	var only string
	setSeller := &cobra.Command{
		Use:   "set-seller <address>",
		Short: "Point properties at a new seller wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seller := strings.ToLower(strings.TrimSpace(args[0]))
			if seller == "" {
				return fmt.Errorf("seller address is empty")
			}
			if err := env.db(); err != nil {
				return err
			}
			q := database.DB.Model(&models.Property{}).Where("1 = 1")
			if only != "" {
				q = q.Where("symbol = ?", strings.ToUpper(only))
			}
			res := q.Update("seller_address", seller)
			if res.Error != nil {
				return res.Error
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated seller of %d properties to %s\n", res.RowsAffected, seller)
			return nil
		},
	}
	setSeller.Flags().StringVar(&only, "symbol", "", "only update the property with this symbol")
	props.AddCommand(setSeller)

	return props
}
