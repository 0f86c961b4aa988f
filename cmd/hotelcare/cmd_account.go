package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) signupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.openState(); err != nil {
				return err
			}
			email, password := a.credentials()
			user, err := a.auth.SignUp(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "conta criada: %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
}

func (a *app) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check credentials and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.openState(); err != nil {
				return err
			}
			email, password := a.credentials()
			user, err := a.auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "conectado como %s\n", user.Email)
			return nil
		},
	}
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the remembered session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			p := svc.RequestLogout(func(ctx context.Context) error { return a.auth.Logout(ctx) })
			if err := a.confirm(cmd.Context(), svc, p); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "sessão encerrada")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := a.signIn(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s\t%s\n", user.ID, user.Email)
			return nil
		},
	}
}

func (a *app) profileCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "profile", Short: "Show or rename the profile"}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the profile name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, svc.Data().UserName)
			return nil
		},
	}, &cobra.Command{
		Use:   "name <name>",
		Short: "Set the profile name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.SetUserName(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.synced()
		},
	})
	return cmd
}
