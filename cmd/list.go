package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/portal/internal/listing"
	"github.com/zjrosen/portal/internal/presentation"
)

var (
	listAccount string
	listPage    int
	listJSON    bool
)

var listCmd = &cobra.Command{
	Use:       "list [orders|quotes]",
	Short:     "Print one page of order or quote history",
	ValidArgs: []string{"orders", "quotes"},
	Long: `Print one page of order or quote history without starting the TUI.
The account defaults to the default site; pass a site slug or ALL.

Examples:
  portal list quotes
  portal list orders --account acme-main --page 2
  portal list quotes --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tab := cfg.Listing.DefaultTab
		if len(args) == 1 {
			tab = args[0]
		}
		rt, err := listing.ParseResultType(tab)
		if err != nil {
			return err
		}

		run, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer run.shutdown()

		sess, err := run.openSession()
		if err != nil {
			return err
		}
		defer sess.Close()

		ctx, cancel := commandContext(cmd)
		defer cancel()

		sites, err := sess.Sites(ctx)
		if err != nil {
			return fmt.Errorf("loading sites: %w", err)
		}

		account := listAccount
		if account == "" {
			account = listing.ResolveInitialAccount(nil, sites)
		}
		label, err := listing.ResolveLabel(account, sites)
		if err != nil {
			return err
		}

		key := listing.RequestKey{Label: label, ResultType: rt, Page: max(1, listPage)}
		data, err := run.client.GetAccountData(ctx, key.Label, rt.Kind(), key.Page)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", rt.Kind(), err)
		}

		page := listing.NewRemotePage(key, data, cfg.Listing.DefaultPageSize)
		formatter := presentation.NewFormatter(cmd.OutOrStdout(), listJSON)
		return formatter.FormatPage(presentation.FromPage(rt, label, page.Rows, page.Pager()))
	},
}

func init() {
	listCmd.Flags().StringVarP(&listAccount, "account", "a", "", "site slug, or ALL")
	listCmd.Flags().IntVarP(&listPage, "page", "p", 1, "page number")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON")
	rootCmd.AddCommand(listCmd)
}
