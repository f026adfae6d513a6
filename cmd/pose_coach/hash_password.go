package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/pose-coach/internal/config"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Hash an author password for AUTHOR_PASSWORD_HASH",
	Long: `Reads a password from the first line of stdin and prints its bcrypt hash,
using BCRYPT_COST and PASSWORD_PEPPER as the server does.

  echo -n 's3cret' | pose_coach hash-password`,
	Args: cobra.NoArgs,
	RunE: runHashPassword,
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
}

func runHashPassword(_ *cobra.Command, _ []string) error {
	passwords, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}

	password, err := readPassword(os.Stdin)
	if err != nil {
		return err
	}

	hash, err := passwords.HashPassword(password)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(os.Stdout, hash)
	return nil
}

// readPassword returns the first line of r without its line ending.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password is empty")
	}
	// bcrypt ignores everything past 72 bytes.
	if len(password) > 72 {
		return "", fmt.Errorf("password is longer than 72 bytes")
	}
	return password, nil
}
