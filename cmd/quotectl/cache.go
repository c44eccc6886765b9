package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quote-workflow/internal/common/cache"
)

func newCacheCmd(root *rootOptions) *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the cache store",
	}
	cmd.PersistentFlags().StringVar(&session, "session", "", "session id to scope keys to")

	open := func(ctx context.Context) (cache.Store, func() error, error) {
		cfg, err := root.load()
		if err != nil {
			return nil, nil, err
		}
		store, closeFn, err := cache.Open(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if session != "" {
			store = cache.Scoped(store, session)
		}
		return store, closeFn, nil
	}

	keys := &cobra.Command{
		Use:   "keys [prefix]",
		Short: "List cached keys",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			lister, ok := store.(cache.Lister)
			if !ok {
				return fmt.Errorf("%s store cannot list keys", store.Backend())
			}
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			found, err := lister.Keys(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			for _, k := range found {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one cached value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			value, ok, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("key %q not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(value))
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "rm <key>",
		Short: "Remove one cached value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			return store.Remove(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(keys, get, remove)
	return cmd
}
