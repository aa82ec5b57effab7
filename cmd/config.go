package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/config"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/llm"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage blockify configuration",
	Long: `Manage the LLM endpoint, generation parameters, chunking and storage.

Values can also be set per run with BLOCKIFY_<KEY> environment variables,
for example BLOCKIFY_LLM_BASE_URL. Environment values are shown with (env)
and never written back to the config file.

Examples:
  blockify config                               # Show current config
  blockify config set base_url http://gpu:3153  # Point at another server
  blockify config set temperature 0.2           # Adjust generation
  blockify config delete chunk_size             # Reset to the default`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showConfig(cmd)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Set(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s successfully.\n", args[0])
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		val, err := config.Value(args[0])
		if err != nil {
			return err
		}
		if val == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is not set\n", args[0])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], val)
		return nil
	},
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete <key>",
	Aliases: []string{"remove", "unset", "reset"},
	Short:   "Reset a configuration value to its default",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reset %s.\n", args[0])
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.ConfigPath())
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := effectiveConfig(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid.")
		return nil
	},
}

func showConfig(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration file: %s\n\n", config.ConfigPath())

	cfg, err := effectiveConfig()
	if err != nil {
		fmt.Fprintf(out, "Warning: %v\n\n", err)
		cfg = config.Effective()
	}
	info := llm.NewClient(cfg.LLM(), logger).Describe()
	fmt.Fprintf(out, "Endpoint: %s\nModel:    %s\n\n", info.FullURL, info.Model)

	keys := config.ListKeys()
	width := 0
	for _, name := range config.KeyNames() {
		width = max(width, len(name))
	}
	for _, name := range config.KeyNames() {
		val, ok := keys[name]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "  %s%s  %s\n", name, strings.Repeat(" ", width-len(name)), val)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configDeleteCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}
