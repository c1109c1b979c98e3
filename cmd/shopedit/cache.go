package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/webshoptools/shopedit/internal/editor/app"
)

func newCacheCmd(application **app.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the category cache",
	}

	var all bool
	clearCmd := &cobra.Command{
		Use:   "clear [shop-id]",
		Short: "Clear cached categories for one shop, or for every shop with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *application

			if all {
				if err := a.Categories.ClearAll(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "cleared category cache for all shops")
				return nil
			}

			if len(args) != 1 {
				return fmt.Errorf("a shop id is required unless --all is given")
			}
			if err := a.Categories.ClearShop(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared category cache for %s\n", args[0])
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&all, "all", false, "clear every shop's cache")

	cmd.AddCommand(clearCmd)
	return cmd
}

func newCategoriesCmd(application **app.Application) *cobra.Command {
	var language int

	cmd := &cobra.Command{
		Use:   "categories <shop-id>",
		Short: "List the shop's categories for one language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *application
			shopID := args[0]

			categories, err := a.Categories.GetAllCategories(cmd.Context(), shopID, language)
			if err != nil {
				return err
			}

			for _, c := range categories {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c.ID, c.Content().Title)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s categories\n", strconv.Itoa(len(categories)))
			return nil
		},
	}
	cmd.Flags().IntVar(&language, "language", 1, "language id")
	return cmd
}
