package main

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/edugenius-backend/internal/http/middleware"
	"github.com/yungbote/edugenius-backend/internal/platform/envutil"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token [user-id]",
	Short: "Mint a bearer token for local testing",
	Long:  `Signs an HS256 token with JWT_SECRET_KEY. A random user id is used when none is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	secret := envutil.String("JWT_SECRET_KEY", "")
	if secret == "" {
		return errors.New("JWT_SECRET_KEY is not set")
	}
	userID := uuid.New()
	if len(args) == 1 {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return err
		}
		userID = id
	}
	now := time.Now()
	tok, err := middleware.IssueToken(secret, userID, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	})
	if err != nil {
		return err
	}
	cmd.Println(tok)
	return nil
}
