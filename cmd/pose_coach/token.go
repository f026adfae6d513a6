package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/pose-coach/internal/config"
	"github.com/jonathan/pose-coach/internal/server"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an author token for the pose-authoring API",
	Long: `Signs a bearer token for POST/PUT/DELETE /poses with JWT_SECRET, valid for
JWT_EXPIRATION_HOURS. The token is printed alone on stdout.`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

var tokenAuthor string

func init() {
	tokenCmd.Flags().StringVar(&tokenAuthor, "author", "", "Token subject (defaults to AUTHOR_USERNAME, then \"author\")")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(_ *cobra.Command, _ []string) error {
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	author := tokenAuthor
	if author == "" {
		author = config.NewAuthorCredentials().Username
	}

	token, expiresAt, err := server.NewJWTService(jwtConfig).GenerateToken(author)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(os.Stdout, token)
	_, _ = fmt.Fprintf(os.Stderr, "Token for %s expires at %s\n", author, expiresAt.Format(time.RFC3339))
	return nil
}
