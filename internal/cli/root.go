// Package cli implements passportctl, the offline companion to the passport
// server. It generates and commits keys, encrypts data keys for delivery,
// previews dispute verdicts and mints bearer tokens for local testing.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "passportctl",
		Short: "Passport key and exchange tooling",
		Long:  "Offline helpers for the private data fair exchange: key commitments, one-time pad delivery and dispute previews.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newKeygenCommand(opts))
	cmd.AddCommand(newHashCommand(opts))
	cmd.AddCommand(newEncryptCommand(opts))
	cmd.AddCommand(newDecryptCommand(opts))
	cmd.AddCommand(newVerifyCommand(opts))
	cmd.AddCommand(newFactKeyCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))

	return cmd
}
