package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tripplan/internal/auth"
)

var (
	tokenUser  string
	tokenEmail string
	tokenTTL   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an identity token signed with JWT_SECRET, for local development",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		tok, err := auth.NewVerifier(cfg.JWTSecret).Issue(auth.User{ID: tokenUser, Email: tokenEmail}, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVar(&tokenUser, "user", "dev-user", "User ID placed in the subject claim")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Optional email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
}
