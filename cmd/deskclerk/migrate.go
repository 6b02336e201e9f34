package main

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create database tables for the discovered entities",
	Long: `Discover the entity universe and ensure a table exists for every entity
in the graph. Existing tables are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		ctx := context.Background()

		g, err := a.catalog.Graph()
		if err != nil {
			return err
		}

		if err := a.store.CreateTables(ctx, g); err != nil {
			return err
		}

		successColor := color.New(color.FgGreen, color.Bold)
		successColor.Fprintf(cmd.OutOrStdout(), "✓ ensured tables for %d entities\n", g.Len())
		for _, name := range g.Names() {
			cmd.Printf("  - %s\n", name)
		}
		return nil
	},
}
