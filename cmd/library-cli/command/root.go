package command

// root.go defines the root command and the flags every subcommand shares.

import (
	"context"
	"fmt"
	"os"
	"time"

	"library-circulation/cmd/library-cli/authentication"
	"library-circulation/cmd/library-cli/command/client"

	"github.com/spf13/cobra"
)

var (
	apiURL  string        // API server URL
	timeout time.Duration // per request
)

var rootCmd = &cobra.Command{
	Use:   "library-cli",
	Short: "library-cli - borrow and return library books from the terminal",
	Long: `library-cli talks to the library circulation API. Students can:
- create an account and log in
- browse the catalog
- borrow and return books
- list their borrowings and due dates

Use "library-cli [command] --help" to see the flags of a command.`,
	SilenceUsage: true,
}

// Execute runs the root command. It is called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultURL := os.Getenv("LIBRARY_API_URL")
	if defaultURL == "" {
		defaultURL = "http://127.0.0.1:8080"
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultURL, "API server URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")

	rootCmd.AddCommand(authCmd, booksCmd, borrowCmd, returnCmd, loansCmd)
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

// authenticatedClient returns a client carrying the stored token.
func authenticatedClient() (*client.HTTPClient, *authentication.StoredCredentials, error) {
	creds, err := authentication.GetTokens()
	if err != nil {
		return nil, nil, err
	}
	if creds.Expired(time.Now()) {
		return nil, nil, fmt.Errorf("session expired at %s, please log in again", creds.ExpiresAt.Local().Format(time.RFC1123))
	}
	c := client.NewHTTPClient(apiURL)
	c.SetToken(creds.AccessToken)
	return c, creds, nil
}
