package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjrosen/portal/internal/flags"
	"github.com/zjrosen/portal/internal/portal"
)

var pdfOutDir string

var pdfCmd = &cobra.Command{
	Use:   "pdf <quote>",
	Short: "Download a quote as PDF",
	Long: `Download the generated PDF for a quote into Quote-<quote>.pdf.

Examples:
  portal pdf Q-1001
  portal pdf Q-1001 -o ~/Downloads`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flags.New(cfg.Flags).Enabled(flags.FlagQuotePDF) {
			return fmt.Errorf("quote PDF download is disabled (flags.%s)", flags.FlagQuotePDF)
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

		if err := os.MkdirAll(pdfOutDir, 0o750); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		path := filepath.Join(pdfOutDir, portal.QuotePDFFilename(args[0]))

		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := portal.SaveQuotePDF(ctx, rt.client, args[0], path); err != nil {
			return fmt.Errorf("downloading quote %s: %w", args[0], err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
		return nil
	},
}

func init() {
	pdfCmd.Flags().StringVarP(&pdfOutDir, "out", "o", ".", "output directory")
	rootCmd.AddCommand(pdfCmd)
}
