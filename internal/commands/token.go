package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/platform/config"
	"github.com/SscSPs/ledger_core/internal/utils"
	"github.com/spf13/cobra"
)

func newTokenCommand() *cobra.Command {
	var userID string
	var role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development JWT signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.IsProduction {
				return fmt.Errorf("refusing to mint tokens with IS_PRODUCTION set")
			}

			r := domain.Role(strings.ToUpper(role))
			switch r {
			case domain.RoleAdmin, domain.RoleMember, domain.RoleReadOnly:
			default:
				return fmt.Errorf("unknown role %q, expected ADMIN, MEMBER or READONLY", role)
			}
			if ttl <= 0 {
				ttl = cfg.JWTExpiryDuration
			}

			token, err := utils.GenerateJWT(userID, string(r), cfg.JWTSecret, ttl, cfg.JWTIssuer)
			if err != nil {
				return fmt.Errorf("signing token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the subject claim (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleMember), "ADMIN, MEMBER or READONLY")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_EXPIRY_DURATION)")

	return cmd
}
