package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"curator/internal/backend"
	"curator/internal/config"
	"curator/internal/journal"
)

func newAccountCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newLoginCommand(ctx),
		newLogoutCommand(ctx),
		newWhoamiCommand(ctx),
	}
}

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var username string
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify credentials against the server and remember the account",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			user := strings.TrimSpace(username)
			if user == "" {
				user = cfg.Server.Username
			}
			secret := strings.TrimSpace(token)
			if secret == "" {
				secret = cfg.Server.Token
			}
			client = client.WithCredentials(user, secret)
			if !client.HasCredentials() {
				return fmt.Errorf("no credentials: pass --username and --token, or set %s and %s", config.EnvUsername, config.EnvToken)
			}

			account, err := client.SignIn(cmd.Context())
			if backend.IsUnauthorized(err) {
				return fmt.Errorf("sign in as %s: incorrect username or token", user)
			}
			if err != nil {
				return err
			}
			return ctx.withJournal(func(_ *config.Config, store *journal.Store) error {
				if err := store.SaveAccount(cmd.Context(), journal.Account{
					Username:   user,
					UserID:     int64(account.UserID),
					Permission: string(account.Permission),
				}); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Signed in as %s (user %d, %s)\n", user, account.UserID, account.Permission)
				if user != cfg.Server.Username || secret != cfg.Server.Token {
					fmt.Fprintf(out, "Set server.username/server.token in the config (or %s/%s) so later commands use these credentials.\n", config.EnvUsername, config.EnvToken)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Account name (defaults to the configured one)")
	cmd.Flags().StringVarP(&token, "token", "t", "", "Account token (defaults to the configured one)")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the remembered account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(_ *config.Config, store *journal.Store) error {
				if err := store.ClearAccount(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the remembered account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(_ *config.Config, store *journal.Store) error {
				account, err := store.Account(cmd.Context())
				if errors.Is(err, journal.ErrNotFound) {
					fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
					return nil
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (user %d, %s) since %s\n", account.Username, account.UserID, account.Permission, formatTime(account.SignedInAt))
				if !verify {
					return nil
				}
				client, err := ctx.backendClient()
				if err != nil {
					return err
				}
				if _, err := client.SignIn(cmd.Context()); err != nil {
					return fmt.Errorf("verify credentials: %w", err)
				}
				fmt.Fprintln(out, "Credentials verified")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "Re-check the configured credentials with the server")
	return cmd
}
