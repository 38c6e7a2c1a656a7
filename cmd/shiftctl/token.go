package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/forgo/shiftboard/api/pkg/jwt"
	"github.com/spf13/cobra"
)

type tokenOptions struct {
	keyPath string
	userID  string
	email   string
	role    string
	issuer  string
	expMins int
	json    bool
}

var tokenOpts tokenOptions

// tokenCmd mints an access token for local testing
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an access token for development",
	Long: `Sign an access token with the local private key.

The token is not backed by a refresh token and cannot be revoked; use it only
against development deployments.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToken(cmd.OutOrStdout(), tokenOpts, time.Now())
	},
}

// keysCmd groups signing key commands
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage JWT signing keys",
}

var keysDir string

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a fresh RSA key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		priv := filepath.Join(keysDir, "private.pem")
		pub := filepath.Join(keysDir, "public.pem")
		if err := os.MkdirAll(keysDir, 0o700); err != nil {
			return err
		}
		if err := jwt.GenerateKeyPair(priv, pub); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s and %s\n", priv, pub)
		return nil
	},
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenOpts.keyPath, "key", "./keys/private.pem", "Path to JWT private key")
	f.StringVar(&tokenOpts.userID, "user", "user:admin-dev", "User ID for the token")
	f.StringVar(&tokenOpts.email, "email", "admin@shiftboard.dev", "Email for the token")
	f.StringVar(&tokenOpts.role, "role", jwt.RoleAdmin, "Role claim (volunteer or admin)")
	f.StringVar(&tokenOpts.issuer, "issuer", "shiftboard.forgo.software", "JWT issuer")
	f.IntVar(&tokenOpts.expMins, "exp", 60*24*7, "Token expiration in minutes")
	f.BoolVar(&tokenOpts.json, "json", false, "Output as JSON")

	keysGenerateCmd.Flags().StringVar(&keysDir, "dir", "./keys", "Directory for private.pem and public.pem")
	keysCmd.AddCommand(keysGenerateCmd)
}

func runToken(out io.Writer, opts tokenOptions, now time.Time) error {
	if opts.role != jwt.RoleAdmin && opts.role != jwt.RoleVolunteer {
		return fmt.Errorf("role must be %q or %q", jwt.RoleVolunteer, jwt.RoleAdmin)
	}

	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: opts.keyPath,
		Issuer:         opts.issuer,
		ExpirationMins: opts.expMins,
	})
	if err != nil {
		return fmt.Errorf("loading signing key (run `shiftctl keys generate` first): %w", err)
	}

	token, err := jwtService.Sign(jwt.Claims{
		UserID: opts.userID,
		Email:  opts.email,
		Role:   opts.role,
	})
	if err != nil {
		return fmt.Errorf("signing token: %w", err)
	}

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   opts.expMins * 60,
			"user_id":      opts.userID,
			"email":        opts.email,
			"role":         opts.role,
		})
	}

	expTime := now.Add(time.Duration(opts.expMins) * time.Minute)
	fmt.Fprintln(out, "Token Generated")
	fmt.Fprintln(out, "===============")
	fmt.Fprintf(out, "User ID:  %s\n", opts.userID)
	fmt.Fprintf(out, "Email:    %s\n", opts.email)
	fmt.Fprintf(out, "Role:     %s\n", opts.role)
	fmt.Fprintf(out, "Expires:  %s\n", expTime.Format(time.RFC3339))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Token:")
	fmt.Fprintln(out, token)
	return nil
}
