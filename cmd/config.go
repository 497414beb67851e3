package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/portal/internal/config"
	"github.com/zjrosen/portal/internal/flags"
)

var errNoConfigFile = errors.New("no config file in use; pass --config")

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the configuration file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgPath == "" {
			return errNoConfigFile
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), cfgPath)
		return err
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := map[string]any{
			"api_base":        cfg.APIBase,
			"data_api_base":   cfg.DataBase(),
			"session_file":    cfg.SessionFile,
			"store_path":      cfg.StorePath,
			"request_timeout": cfg.RequestTimeout.String(),
			"listing": map[string]any{
				"debounce":             cfg.Listing.Debounce.String(),
				"default_page_size":    cfg.Listing.DefaultPageSize,
				"default_tab":          cfg.Listing.DefaultTab,
				"clear_local_on_error": cfg.Listing.ClearLocalOnError,
			},
			"tracing": map[string]any{
				"enabled":       cfg.Tracing.Enabled,
				"exporter":      cfg.Tracing.Exporter,
				"file_path":     cfg.Tracing.FilePath,
				"otlp_endpoint": cfg.Tracing.OTLPEndpoint,
				"sample_rate":   cfg.Tracing.SampleRate,
			},
			"flags": flags.New(cfg.Flags).All(),
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	},
}

var configDefaultTabCmd = &cobra.Command{
	Use:       "default-tab <orders|quotes>",
	Short:     "Set the tab the history view opens on",
	ValidArgs: []string{config.TabOrders, config.TabQuotes},
	Args:      cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgPath == "" {
			return errNoConfigFile
		}
		if err := config.SaveDefaultTab(cfgPath, args[0]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "default_tab = %s\n", args[0])
		return nil
	},
}

var configAPIBaseCmd = &cobra.Command{
	Use:   "api-base <url>",
	Short: "Set the backend origin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgPath == "" {
			return errNoConfigFile
		}
		if err := config.SaveAPIBase(cfgPath, args[0]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "api_base = %s\n", args[0])
		return nil
	},
}

var configFlagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "List feature flags",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all := flags.New(cfg.Flags).All()
		names := make([]string, 0, len(all))
		for name := range all {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			state := "off"
			if all[name] {
				state = "on"
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", name, state); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd, configShowCmd, configDefaultTabCmd, configAPIBaseCmd, configFlagsCmd)
	rootCmd.AddCommand(configCmd)
}
