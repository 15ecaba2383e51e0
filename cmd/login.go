package cmd

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/harshithareddy1810/SmartDocQ/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	Long: `Sign in with your SmartDocQ account. The session token is stored in
the data directory and used by every other command until you log out.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session token",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE:  runWhoami,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account and sign in",
	RunE:  runRegister,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(registerCmd)
}

func promptCredentials() (email, password string, err error) {
	emailPrompt := promptui.Prompt{
		Label: "Email",
		Validate: func(s string) error {
			if !strings.Contains(s, "@") {
				return fmt.Errorf("enter a valid email address")
			}
			return nil
		},
	}
	email, err = emailPrompt.Run()
	if err != nil {
		return "", "", fmt.Errorf("email: %w", err)
	}

	passwordPrompt := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
	}
	password, err = passwordPrompt.Run()
	if err != nil {
		return "", "", fmt.Errorf("password: %w", err)
	}
	return email, password, nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, client, err := newSession(cfg)
	if err != nil {
		return err
	}

	email, password, err := promptCredentials()
	if err != nil {
		return err
	}

	token, err := client.Login(cmd.Context(), email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := store.Login(token); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}

	fmt.Printf("Signed in as %s\n", email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, _, err := newSession(cfg)
	if err != nil {
		return err
	}

	store.Logout()
	fmt.Println("Signed out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, client, err := newSession(cfg)
	if err != nil {
		return err
	}

	if store.Bootstrap(cmd.Context(), client) != session.StateAuthenticated {
		fmt.Println("Not signed in.")
		return nil
	}

	id, err := client.Me(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetching account: %w", err)
	}
	fmt.Printf("Signed in as %s (%s)\n", id.Name, id.Email)
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, client, err := newSession(cfg)
	if err != nil {
		return err
	}

	namePrompt := promptui.Prompt{Label: "Name"}
	name, err := namePrompt.Run()
	if err != nil {
		return fmt.Errorf("name: %w", err)
	}

	email, password, err := promptCredentials()
	if err != nil {
		return err
	}

	if err := client.Register(cmd.Context(), email, password, name); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	token, err := client.Login(cmd.Context(), email, password)
	if err != nil {
		return fmt.Errorf("signing in after registration: %w", err)
	}
	if err := store.Login(token); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}

	fmt.Printf("Account created. Signed in as %s\n", email)
	return nil
}
