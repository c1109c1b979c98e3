package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/webshoptools/shopedit/internal/editor/app"
)

func main() {
	// Optional .env; absence is fine.
	_ = godotenv.Load()

	var application *app.Application

	root := &cobra.Command{
		Use:           "shopedit",
		Short:         "Inline category content editing for DanDomain storefronts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(app.LoadConfig())
			if err != nil {
				return err
			}
			application = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if application != nil {
				return application.Close()
			}
			return nil
		},
	}

	root.AddCommand(
		newTenantCmd(&application),
		newWhitelistCmd(&application),
		newCacheCmd(&application),
		newCategoriesCmd(&application),
		newEditCmd(&application),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
