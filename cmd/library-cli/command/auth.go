package command

import (
	"fmt"

	"library-circulation/cmd/library-cli/authentication"
	"library-circulation/cmd/library-cli/command/client"
	"library-circulation/internal/circulation/dto"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Create a student account, log in and log out.`,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a student account",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.SignupRequest
		req.StudentName, _ = cmd.Flags().GetString("name")
		req.StudentID, _ = cmd.Flags().GetString("student-id")
		req.Password, _ = cmd.Flags().GetString("password")

		ctx, cancel := requestContext(cmd)
		defer cancel()

		res, err := client.NewHTTPClient(apiURL).Signup(ctx, req)
		if err != nil {
			return fmt.Errorf("signup failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓", res.Message)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and remember the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.LoginRequest
		req.StudentID, _ = cmd.Flags().GetString("student-id")
		req.Password, _ = cmd.Flags().GetString("password")

		ctx, cancel := requestContext(cmd)
		defer cancel()

		res, err := client.NewHTTPClient(apiURL).Login(ctx, req)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		err = authentication.StoreTokens(&authentication.StoredCredentials{
			AccessToken: res.AccessToken,
			StudentID:   res.StudentID,
			StudentName: res.StudentName,
			ExpiresAt:   res.ExpiresAt,
		})
		if err != nil {
			return fmt.Errorf("could not save session: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Welcome, %s (%s)\n", res.StudentName, res.StudentID)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := authentication.DeleteTokens(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Logged out.")
		return nil
	},
}

func init() {
	authCmd.AddCommand(signupCmd, loginCmd, logoutCmd)

	signupCmd.Flags().StringP("name", "n", "", "your full name")
	signupCmd.Flags().StringP("student-id", "s", "", "your student ID")
	signupCmd.Flags().StringP("password", "p", "", "password for the new account")
	_ = signupCmd.MarkFlagRequired("name")
	_ = signupCmd.MarkFlagRequired("student-id")
	_ = signupCmd.MarkFlagRequired("password")

	loginCmd.Flags().StringP("student-id", "s", "", "your student ID")
	loginCmd.Flags().StringP("password", "p", "", "your password")
	_ = loginCmd.MarkFlagRequired("student-id")
	_ = loginCmd.MarkFlagRequired("password")
}
