package main

import (
	"os"

	"github.com/spf13/cobra"

	"fundops/internal/identity/catalog"
)

func newCatalogCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate and print the effective policy catalog as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := catalog.LoadOrDefault(path)
			if err != nil {
				return err
			}
			out, err := cat.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&path, "file", os.Getenv("POLICY_CATALOG_PATH"), "catalog YAML file (compiled-in default when empty)")
	return cmd
}
