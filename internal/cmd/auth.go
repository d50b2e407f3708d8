package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-taskmaster/authn"
	"github.com/jrsteele09/go-taskmaster/tokenstore"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the TaskMaster backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if email == "" {
			return fmt.Errorf("--email is required")
		}
		if password == "" {
			return fmt.Errorf("--password is required")
		}

		a, err := getApp()
		if err != nil {
			return err
		}

		user, err := a.auth.Login(cmd.Context(), authn.Credentials{Email: email, Password: password})
		if err != nil {
			return err
		}

		fmt.Printf("Logged in as %s (%s)\n", user.Username, user.Email)
		if user.OrganizationID != "" {
			fmt.Printf("Active organization: %s\n", user.OrganizationID)
		}
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		orgName, _ := cmd.Flags().GetString("organization")
		if email == "" {
			return fmt.Errorf("--email is required")
		}
		if password == "" {
			return fmt.Errorf("--password is required")
		}
		if username == "" {
			username = email
		}

		a, err := getApp()
		if err != nil {
			return err
		}

		user, err := a.auth.Register(cmd.Context(), authn.Registration{
			Email:            email,
			Username:         username,
			Password:         password,
			OrganizationName: orgName,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Registered and logged in as %s (%s)\n", user.Username, user.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		if err := a.auth.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current identity and token expiry",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		if err := a.guard.Require(); err != nil {
			return err
		}

		user, err := a.auth.Me(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("User:  %s\n", user.Username)
		fmt.Printf("Email: %s\n", user.Email)
		fmt.Printf("ID:    %s\n", user.ID)
		if org := a.session.ActiveOrganizationID(); org != "" {
			fmt.Printf("Org:   %s\n", org)
		}

		// Unverified peek, display only.
		if token, ok := tokenstore.Lookup(a.store, tokenstore.KindAccessToken); ok {
			if claims, err := authn.PeekClaims(token); err == nil && !claims.ExpiresAt.IsZero() {
				fmt.Printf("Token: expires %s\n", claims.ExpiresAt.Format(time.RFC1123))
			}
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password")

	registerCmd.Flags().String("email", "", "account email")
	registerCmd.Flags().String("username", "", "display name (defaults to email)")
	registerCmd.Flags().String("password", "", "account password")
	registerCmd.Flags().String("organization", "", "create an organization while registering")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}
