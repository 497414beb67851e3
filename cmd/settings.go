package cmd

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/portal/internal/portal"
	"github.com/zjrosen/portal/internal/presentation"
	"github.com/zjrosen/portal/internal/session"
)

var (
	settingsJSON     bool
	shippingJSON     bool
	shippingFromSite string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "View and edit account settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the profile settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(rt *runtime, _ *session.Context) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			s, err := rt.client.GetSettings(ctx)
			if err != nil {
				return fmt.Errorf("loading settings: %w", err)
			}
			formatter := presentation.NewFormatter(cmd.OutOrStdout(), settingsJSON)
			return formatter.FormatSettings(presentation.FromSettings(s))
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update profile settings",
	Long: `Update the profile settings. Only the flags you pass change; the rest
keep their saved values. Values are trimmed and cut to 255 characters.

Examples:
  portal settings set --job-title "Purchasing lead"
  portal settings set --other-accounts "ACME-East, ACME-West"
  portal settings set --other-accounts ""`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		names := []string{"first-name", "last-name", "job-title", "amazon-site", "other-accounts"}
		if !slices.ContainsFunc(names, flags.Changed) {
			return fmt.Errorf("nothing to update; pass at least one of --%s", strings.Join(names, ", --"))
		}

		return withSession(cmd, func(rt *runtime, _ *session.Context) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			s, err := rt.client.GetSettings(ctx)
			if err != nil {
				return fmt.Errorf("loading settings: %w", err)
			}

			for name, field := range map[string]*string{
				"first-name":  &s.FirstName,
				"last-name":   &s.LastName,
				"job-title":   &s.JobTitle,
				"amazon-site": &s.AmazonSite,
			} {
				if flags.Changed(name) {
					*field, _ = flags.GetString(name)
				}
			}
			if flags.Changed("other-accounts") {
				raw, _ := flags.GetString("other-accounts")
				s.OtherAccounts = portal.ParseAccountList(raw)
			}

			saved, err := rt.client.UpdateSettings(ctx, s)
			if err != nil {
				return fmt.Errorf("saving settings: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Settings updated.")
			return presentation.NewFormatter(cmd.OutOrStdout(), false).FormatSettings(presentation.FromSettings(saved))
		})
	},
}

var shippingCmd = &cobra.Command{
	Use:   "shipping",
	Short: "View and edit the shipping address",
}

var shippingShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved shipping address",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(rt *runtime, _ *session.Context) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			s, err := rt.client.GetShipping(ctx)
			if err != nil {
				return fmt.Errorf("loading shipping address: %w", err)
			}
			formatter := presentation.NewFormatter(cmd.OutOrStdout(), shippingJSON)
			return formatter.FormatShipping(presentation.FromShipping(s))
		})
	},
}

var shippingSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the shipping address",
	Long: `Update the shipping address. --from-site pre-fills the address on file
for a saved site (by id, slug or label); explicit flags override it.
Address line 1, city, state, ZIP (at least 5 characters) and country are
required.

Examples:
  portal settings shipping set --from-site Main
  portal settings shipping set --address1 "1 Main St" --city Austin --state TX --zip 78701 --country US`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(rt *runtime, sess *session.Context) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			// A user who never saved an address gets an error here; start blank.
			current, err := rt.client.GetShipping(ctx)
			if err != nil {
				current = portal.Shipping{}
			}

			if ref := strings.TrimSpace(shippingFromSite); ref != "" {
				sites, err := sess.Sites(ctx)
				if err != nil {
					return fmt.Errorf("loading sites: %w", err)
				}
				site, ok := findSite(sites, ref)
				if !ok {
					return fmt.Errorf("no saved site matches %q", ref)
				}
				u := sess.User()
				fetched, err := rt.client.FetchAddress(ctx, portal.AddressLookup{
					AccountName: site.DisplayLabel(),
					FirstName:   u.FirstName,
					LastName:    u.LastName,
				})
				if err != nil {
					return fmt.Errorf("fetching address for %s: %w", site.DisplayLabel(), err)
				}
				current = fetched.Merge(current)
			}

			flags := cmd.Flags()
			for name, field := range map[string]*string{
				"ship-to":  &current.ShipTo,
				"address1": &current.Address1,
				"address2": &current.Address2,
				"city":     &current.City,
				"state":    &current.State,
				"zip":      &current.Zip,
				"country":  &current.Country,
			} {
				if flags.Changed(name) {
					*field, _ = flags.GetString(name)
				}
			}

			saved, err := rt.client.UpdateShipping(ctx, current)
			if err != nil {
				return fmt.Errorf("saving shipping address: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Shipping information saved.")
			return presentation.NewFormatter(cmd.OutOrStdout(), false).FormatShipping(presentation.FromShipping(saved))
		})
	},
}

// withSession runs fn with a runtime whose client carries the saved session.
func withSession(cmd *cobra.Command, fn func(*runtime, *session.Context) error) error {
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	sess, err := rt.openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	return fn(rt, sess)
}

// findSite matches ref against site ids, slugs and labels.
func findSite(sites []portal.Site, ref string) (portal.Site, bool) {
	id, _ := strconv.Atoi(ref)
	for _, s := range sites {
		if s.ID == id || strings.EqualFold(s.Slug, ref) || strings.EqualFold(s.DisplayLabel(), ref) {
			return s, true
		}
	}
	return portal.Site{}, false
}

func init() {
	settingsShowCmd.Flags().BoolVar(&settingsJSON, "json", false, "print JSON")

	settingsSetCmd.Flags().String("first-name", "", "first name")
	settingsSetCmd.Flags().String("last-name", "", "last name")
	settingsSetCmd.Flags().String("job-title", "", "job title")
	settingsSetCmd.Flags().String("amazon-site", "", "primary site")
	settingsSetCmd.Flags().String("other-accounts", "", "comma separated list of other accounts")

	shippingShowCmd.Flags().BoolVar(&shippingJSON, "json", false, "print JSON")

	shippingSetCmd.Flags().StringVar(&shippingFromSite, "from-site", "", "pre-fill from the address on file for a saved site")
	shippingSetCmd.Flags().String("ship-to", "", "recipient name")
	shippingSetCmd.Flags().String("address1", "", "address line 1")
	shippingSetCmd.Flags().String("address2", "", "address line 2")
	shippingSetCmd.Flags().String("city", "", "city")
	shippingSetCmd.Flags().String("state", "", "state or province")
	shippingSetCmd.Flags().String("zip", "", "ZIP or postal code")
	shippingSetCmd.Flags().String("country", "", "country")

	shippingCmd.AddCommand(shippingShowCmd, shippingSetCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, shippingCmd)
	rootCmd.AddCommand(settingsCmd)
}
