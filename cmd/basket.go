package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zjrosen/portal/internal/basket"
	"github.com/zjrosen/portal/internal/money"
	"github.com/zjrosen/portal/internal/presentation"
)

// newBasketCmd builds the cart or quote command tree. Both work on the
// local store only and need no session.
func newBasketCmd(kind basket.Kind, short string) *cobra.Command {
	parent := &cobra.Command{
		Use:   string(kind),
		Short: short,
	}

	add := &cobra.Command{
		Use:   "add <part-number>",
		Short: "Add an item, merging quantities with an existing line",
		Example: fmt.Sprintf(`  portal %[1]s add PN-100 --qty 2 --price 9.99 --name "Hex bolt"
  portal %[1]s add PN-100 --qty 3`, kind),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, _ := cmd.Flags().GetInt("qty")
			price, _ := cmd.Flags().GetFloat64("price")
			name, _ := cmd.Flags().GetString("name")
			notes, _ := cmd.Flags().GetString("notes")

			return withBasket(kind, func(svc *basket.Service) error {
				ctx, cancel := commandContext(cmd)
				defer cancel()

				item, err := svc.Add(ctx, basket.Item{
					PartNumber: args[0],
					Name:       name,
					UnitPrice:  money.FromFloat(price),
					Quantity:   qty,
					Notes:      notes,
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s × %d in %s\n", item.PartNumber, item.Quantity, kind)
				return nil
			})
		},
	}
	add.Flags().IntP("qty", "q", 1, "quantity")
	add.Flags().Float64P("price", "p", 0, "unit price")
	add.Flags().StringP("name", "n", "", "display name (default: part number)")
	add.Flags().String("notes", "", "free-form notes")

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show items and totals",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			return withBasket(kind, func(svc *basket.Service) error {
				ctx, cancel := commandContext(cmd)
				defer cancel()

				items, err := svc.Items(ctx)
				if err != nil {
					return err
				}
				formatter := presentation.NewFormatter(cmd.OutOrStdout(), asJSON)
				return formatter.FormatBasket(presentation.FromBasket(kind, items))
			})
		},
	}
	list.Flags().Bool("json", false, "print JSON")

	remove := &cobra.Command{
		Use:     "remove <part-number>",
		Aliases: []string{"rm"},
		Short:   "Remove an item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBasket(kind, func(svc *basket.Service) error {
				ctx, cancel := commandContext(cmd)
				defer cancel()

				if err := svc.Remove(ctx, args[0]); err != nil {
					if errors.Is(err, basket.ErrItemNotFound) {
						return fmt.Errorf("%s is not in the %s", args[0], kind)
					}
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}

	qty := &cobra.Command{
		Use:   "qty <part-number> <quantity>",
		Short: "Set an item's quantity; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return withBasket(kind, func(svc *basket.Service) error {
				ctx, cancel := commandContext(cmd)
				defer cancel()

				if err := svc.UpdateQuantity(ctx, args[0], n); err != nil {
					if errors.Is(err, basket.ErrItemNotFound) {
						return fmt.Errorf("%s is not in the %s", args[0], kind)
					}
					return err
				}
				if n <= 0 {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				} else {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s × %d in %s\n", args[0], n, kind)
				}
				return nil
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBasket(kind, func(svc *basket.Service) error {
				ctx, cancel := commandContext(cmd)
				defer cancel()

				if err := svc.Clear(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", kind)
				return nil
			})
		},
	}

	parent.AddCommand(add, list, remove, qty, clearCmd)
	return parent
}

func withBasket(kind basket.Kind, fn func(*basket.Service) error) error {
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return fn(basket.NewService(db.BasketRepository(), kind))
}

func init() {
	rootCmd.AddCommand(
		newBasketCmd(basket.Cart, "Manage the local cart"),
		newBasketCmd(basket.Quote, "Manage the local quote draft"),
	)
}
