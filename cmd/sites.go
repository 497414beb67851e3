package cmd

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/portal/internal/presentation"
)

var (
	sitesJSON bool
	sitesYes  bool
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Manage saved ship-to sites",
}

var sitesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved sites",
	Long: `List the signed-in user's saved sites. The default site is marked with "*".

Examples:
  portal sites list
  portal sites list --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		ctx, cancel := commandContext(cmd)
		defer cancel()

		sites, err := sess.ReloadSites(ctx)
		if err != nil {
			return fmt.Errorf("loading sites: %w", err)
		}

		formatter := presentation.NewFormatter(cmd.OutOrStdout(), sitesJSON)
		return formatter.FormatSites(presentation.FromSites(sites))
	},
}

var sitesDefaultCmd = &cobra.Command{
	Use:   "default <id>",
	Short: "Make a site the default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSiteID(args[0])
		if err != nil {
			return err
		}

		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.shutdown()

		ctx, cancel := commandContext(cmd)
		defer cancel()

		sess, err := rt.openSession()
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := rt.client.SetDefaultSite(ctx, id); err != nil {
			return fmt.Errorf("setting default site: %w", err)
		}
		sess.InvalidateSites()
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Site %d is now the default.\n", id)
		return nil
	},
}

var sitesDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a saved site",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSiteID(args[0])
		if err != nil {
			return err
		}

		if !sitesYes {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Delete site %d? [y/N] ", id)
			answer, _ := readLine(bufio.NewReader(cmd.InOrStdin()))
			if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
		}

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

		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := rt.client.DeleteSite(ctx, id); err != nil {
			return fmt.Errorf("deleting site: %w", err)
		}
		sess.InvalidateSites()
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted site %d.\n", id)
		return nil
	},
}

func init() {
	sitesListCmd.Flags().BoolVar(&sitesJSON, "json", false, "print JSON")
	sitesDeleteCmd.Flags().BoolVarP(&sitesYes, "yes", "y", false, "skip the confirmation prompt")

	sitesCmd.AddCommand(sitesListCmd, sitesDefaultCmd, sitesDeleteCmd)
	rootCmd.AddCommand(sitesCmd)
}

func parseSiteID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid site id %q", s)
	}
	return id, nil
}
