package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"quote-workflow/pkg/registry"
)

func newRegistryCmd(root *rootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the task registry",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "registry file (defaults to registry.path from config)")

	resolve := func() (string, error) {
		if path != "" {
			return path, nil
		}
		cfg, err := root.load()
		if err != nil {
			return "", err
		}
		return cfg.Registry.Path, nil
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate the registry file",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolve()
			if err != nil {
				return err
			}
			reg, err := registry.Load(p)
			if err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d tasks, valid\n", p, len(reg.Tasks))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered task types",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolve()
			if err != nil {
				return err
			}
			reg, err := registry.Load(p)
			if err != nil {
				return err
			}
			tasks := append([]registry.Task(nil), reg.Tasks...)
			sort.Slice(tasks, func(i, j int) bool { return tasks[i].TaskType < tasks[j].TaskType })
			for _, t := range tasks {
				fmt.Fprintf(cmd.OutOrStdout(), "%-32s %-12s %s\n", t.TaskType, t.ImplementationStatus, t.DisplayName)
			}
			return nil
		},
	}

	cmd.AddCommand(validate, list)
	return cmd
}
