package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arnavshah/autoscheduler-api-go/pkg/auth"
	"github.com/arnavshah/autoscheduler-api-go/pkg/config"
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen <userID>",
		Short: "Print an HMAC API key for a user, signed with API_MASTER_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.APIMasterSecret == "" {
				return errors.New("API_MASTER_SECRET not found in environment or .env")
			}

			userID := args[0]
			key := auth.New(cfg.JWTSecret, cfg.APIMasterSecret).GenerateKey(userID)
			fmt.Fprintf(cmd.OutOrStdout(), "Generated Key for %s:\n%s\n", userID, key)
			return nil
		},
	}
}
