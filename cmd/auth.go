package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"movienight-cli/model"
	"movienight-cli/service"
	"movienight-cli/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password, or with a Google ID token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		useGoogle, _ := cmd.Flags().GetBool("google")
		if useGoogle {
			token, _ := cmd.Flags().GetString("id-token")
			if token == "" {
				token = current.cfg.GoogleIDToken
			}
			if token == "" {
				return errors.New("no Google ID token: pass --id-token or set MOVIENIGHT_GOOGLE_ID_TOKEN")
			}
			sess, err := current.session.LoginWithExternalToken(ctx, token)
			if err != nil {
				return loginError(err)
			}
			printLoggedIn(sess)
			return nil
		}

		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			var err error
			if email, err = promptEmail(); err != nil {
				return err
			}
		}
		password, err := promptPassword("Password", nil)
		if err != nil {
			return err
		}
		sess, err := current.session.Login(ctx, model.Credentials{Email: email, Password: password})
		if err != nil {
			return loginError(err)
		}
		printLoggedIn(sess)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Run: func(cmd *cobra.Command, args []string) {
		current.session.Logout()
		fmt.Println("Logged out.")
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		remote, _ := cmd.Flags().GetBool("remote")
		sess := current.session.Current()
		if !remote {
			if sess.User == nil {
				return errNotLoggedIn
			}
			printUser(*sess.User)
			if exp := current.session.ExpiresAt(); !exp.IsZero() {
				fmt.Printf("Access token expires %s\n", exp.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		}
		return current.authed(cmd.Context(), func(ctx context.Context) error {
			user, err := current.session.Profile(ctx)
			if err != nil {
				return err
			}
			printUser(user)
			return nil
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			var err error
			if email, err = promptEmail(); err != nil {
				return err
			}
		}
		password, err := promptPassword("Password", session.ValidatePassword)
		if err != nil {
			return err
		}
		rePassword, err := promptPassword("Repeat password", nil)
		if err != nil {
			return err
		}
		user, err := current.session.Register(cmd.Context(), email, password, rePassword)
		if err != nil {
			var apiErr *service.APIError
			if errors.As(err, &apiErr) && len(apiErr.Messages()) > 0 {
				return errors.New(strings.Join(apiErr.Messages(), ", "))
			}
			return err
		}
		fmt.Printf("Account created for %s. You can log in now.\n", user.Email)
		return nil
	},
}

func promptEmail() (string, error) {
	prompt := promptui.Prompt{
		Label:    "Email",
		Validate: session.ValidateEmail,
	}
	email, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(email), nil
}

func promptPassword(label string, validate promptui.ValidateFunc) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Mask:     '*',
		Validate: validate,
	}
	return prompt.Run()
}

// loginError shows every message the server attached to a rejected login.
func loginError(err error) error {
	var apiErr *service.APIError
	if errors.As(err, &apiErr) {
		if messages := apiErr.Messages(); len(messages) > 0 {
			return errors.New(strings.Join(messages, ", "))
		}
	}
	return err
}

func printLoggedIn(sess model.Session) {
	if sess.User != nil {
		fmt.Printf("Logged in as %s.\n", sess.User.Email)
		return
	}
	fmt.Println("Logged in.")
}

func printUser(user model.User) {
	fmt.Printf("%s (id %d)\n", user.Email, user.ID)
}

func init() {
	loginCmd.Flags().String("email", "", "account email (prompted when empty)")
	loginCmd.Flags().Bool("google", false, "log in with a Google ID token")
	loginCmd.Flags().String("id-token", "", "Google ID token (defaults to MOVIENIGHT_GOOGLE_ID_TOKEN)")
	whoamiCmd.Flags().Bool("remote", false, "ask the server instead of reading the stored token")
	registerCmd.Flags().String("email", "", "account email (prompted when empty)")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, registerCmd)
}
