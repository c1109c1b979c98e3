package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/webshoptools/shopedit/internal/editor/app"
	"github.com/webshoptools/shopedit/internal/editor/domain"
)

func newTenantCmd(application **app.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage shop credentials",
	}

	var clientID, clientSecret, name string
	addCmd := &cobra.Command{
		Use:   "add <shop-id>",
		Short: "Add or update a shop's API credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *application
			shopID := args[0]

			cfg := domain.TenantConfig{
				ShopID:       shopID,
				ClientID:     clientID,
				ClientSecret: clientSecret,
				DisplayName:  name,
			}
			if !cfg.IsConfigured() {
				return fmt.Errorf("shop id, client id and client secret are all required")
			}

			if err := a.Store().Tenants().Upsert(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configured %s\n", shopID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client id")
	addCmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth2 client secret")
	addCmd.Flags().StringVar(&name, "name", "", "display name")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List configured shops",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *application

			tenants, err := a.Store().Tenants().List(cmd.Context())
			if err != nil {
				return err
			}
			if len(tenants) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no shops configured")
				return nil
			}

			for _, t := range tenants {
				shop := domain.ConfiguredShop{
					ShopID:       t.ShopID,
					Name:         t.DisplayName,
					IsConfigured: t.IsConfigured(),
				}
				status := "ok"
				if !shop.IsConfigured {
					status = "incomplete"
				}
				name := shop.Name
				if name == "" {
					name = "-"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", shop.ShopID, name, status)
			}
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <shop-id>",
		Short: "Remove a shop and its cached categories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *application
			shopID := args[0]

			if err := a.Store().Tenants().Delete(cmd.Context(), shopID); err != nil {
				return err
			}
			if err := a.Categories.ClearShop(cmd.Context(), shopID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", shopID)
			return nil
		},
	}

	cmd.AddCommand(addCmd, listCmd, removeCmd)
	return cmd
}

func newWhitelistCmd(application **app.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage the host whitelist; empty means no restriction",
	}

	setCmd := &cobra.Command{
		Use:   "set [host ...]",
		Short: "Replace the whitelist with the given hosts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *application

			hosts := make([]string, 0, len(args))
			for _, h := range args {
				hosts = append(hosts, strings.ToLower(strings.TrimSpace(h)))
			}

			if err := a.Store().Settings().SetDomainWhitelist(cmd.Context(), hosts); err != nil {
				return err
			}
			if len(hosts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "whitelist cleared; all hosts allowed")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "whitelist set to %d host(s)\n", len(hosts))
			}
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the stored whitelist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *application

			hosts, err := a.Store().Settings().DomainWhitelist(cmd.Context())
			if err != nil {
				return err
			}
			if len(hosts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "empty (all hosts allowed)")
				return nil
			}
			for _, h := range hosts {
				fmt.Fprintln(cmd.OutOrStdout(), h)
			}
			return nil
		},
	}

	cmd.AddCommand(setCmd, showCmd)
	return cmd
}
