package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	jwttoken "passport/internal/jwt_token"
	"passport/pkg/domain"
)

type tokenOutput struct {
	Address   domain.Address `json:"address"`
	Token     string         `json:"token"`
	ExpiresIn string         `json:"expires_in"`
}

func newTokenCommand(opts *RootOptions) *cobra.Command {
	var (
		signingKey string
		issuer     string
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <address>",
		Short: "Mint a bearer token for an address",
		Long: `Mints an HS256 bearer token the server accepts as proof of the given
address. The signing key defaults to $JWT_SIGNING_KEY.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := domain.ParseAddress(args[0])
			if err != nil {
				return commandError("invalid address", err)
			}
			if signingKey == "" {
				signingKey = os.Getenv("JWT_SIGNING_KEY")
			}
			if signingKey == "" {
				return commandError("signing key required", nil)
			}
			if ttl <= 0 {
				return commandError("--ttl must be positive", nil)
			}

			tok, err := jwttoken.NewJWTService(signingKey, issuer).GenerateToken(addr, ttl)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.Format, tokenOutput{Address: addr, Token: tok, ExpiresIn: ttl.String()}, []field{
				{"token", tok},
			})
		},
	}

	cmd.Flags().StringVar(&signingKey, "signing-key", "", "HMAC signing key (default $JWT_SIGNING_KEY)")
	cmd.Flags().StringVar(&issuer, "issuer", "passport", "token issuer")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")

	return cmd
}
