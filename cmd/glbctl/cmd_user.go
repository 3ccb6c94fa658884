package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Faultbox/glbviewer/internal/auth"
)

func (c *cli) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(c.userRegisterCmd(), c.userLoginCmd(), c.userLogoutCmd(), c.userWhoamiCmd())
	return cmd
}

func (c *cli) userRegisterCmd() *cobra.Command {
	var role, password string
	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := auth.ParseRole(role)
			if err != nil {
				return err
			}
			svc, err := c.services()
			if err != nil {
				return err
			}
			u, err := svc.Auth.Register(cmd.Context(), r, args[0], password)
			if err != nil {
				return err
			}
			c.printf("Registered %s (%s) as %s\n", u.Email, u.Role, u.ID)
			return nil
		},
	}
	roleFlag(cmd, &role)
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) userLoginCmd() *cobra.Command {
	var role, password string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and remember the login for the studio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := auth.ParseRole(role)
			if err != nil {
				return err
			}
			svc, err := c.services()
			if err != nil {
				return err
			}
			u, err := svc.Auth.Login(cmd.Context(), r, args[0], password)
			if err != nil {
				return err
			}
			c.printf("Signed in as %s (%s)\n", u.Email, u.Role)
			return nil
		},
	}
	roleFlag(cmd, &role)
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) userLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services()
			if err != nil {
				return err
			}
			if err := svc.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			c.printf("Signed out\n")
			return nil
		},
	}
}

func (c *cli) userWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the saved login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services()
			if err != nil {
				return err
			}
			u, ok, err := svc.Auth.AutoLogin(cmd.Context())
			if err != nil {
				return errors.Join(errors.New("saved login is no longer valid"), err)
			}
			if !ok {
				c.printf("Not signed in\n")
				return nil
			}
			c.printf("%s (%s)\n", u.Email, u.Role)
			return nil
		},
	}
}
