package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cppla/nailgrow/config"
	"github.com/cppla/nailgrow/utils"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token [device-name]",
	Short: "Issue a device token without pairing",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if cfg.JWTSecret == "" {
			return errors.New("JWT_SECRET must be set to issue tokens")
		}
		device := "cli"
		if len(args) == 1 {
			device = args[0]
		}
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = time.Duration(cfg.TokenTTLHours) * time.Hour
		}
		token, err := utils.GenerateDeviceToken(cfg.JWTSecret, device, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var hashPasscodeCmd = &cobra.Command{
	Use:   "hash-passcode <passcode>",
	Short: "Print the bcrypt hash to use as PAIRING_PASSCODE_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := utils.HashPasscode(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default TOKEN_TTL_HOURS)")
	rootCmd.AddCommand(tokenCmd, hashPasscodeCmd)
}
