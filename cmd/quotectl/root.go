package main

import (
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"quote-workflow/internal/common/config"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "quotectl",
		Short: "Operator tooling for the quote workflow",
		Long: `quotectl runs the pure parts of the quote workflow offline and inspects
the cache store and the task registry used by the workers.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (defaults to the environment config)")

	cmd.AddCommand(
		newPremiumCmd(opts),
		newRouteCmd(),
		newCacheCmd(opts),
		newRegistryCmd(opts),
	)
	return cmd
}

func (o *rootOptions) load() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFromFile(o.configPath)
	}
	return config.Load()
}

// readInput reads the file named by path, or stdin for "" and "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(append(data, '\n'))
	return err
}
