package cli

import (
	"github.com/spf13/cobra"

	"passport/internal/commitment"
	"passport/pkg/domain"
)

type keyOutput struct {
	Key  commitment.Key    `json:"key"`
	Hash commitment.Digest `json:"hash"`
}

func newKeygenCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a random 32-byte key and its keccak256 commitment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := commitment.NewKey()
			if err != nil {
				return err
			}
			out := keyOutput{Key: k, Hash: commitment.Hash(k)}
			return render(cmd.OutOrStdout(), opts.Format, out, []field{
				{"key", k.String()},
				{"hash", out.Hash.String()},
			})
		},
	}
}

func newHashCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hash <key>",
		Short: "Print the keccak256 commitment of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := commitment.ParseKey(args[0])
			if err != nil {
				return commandError("invalid key", err)
			}
			out := keyOutput{Key: k, Hash: commitment.Hash(k)}
			return render(cmd.OutOrStdout(), opts.Format, out, []field{
				{"hash", out.Hash.String()},
			})
		},
	}
}

type padOutput struct {
	Result commitment.Key `json:"result"`
}

// The pad is symmetric so encrypt and decrypt share one implementation; the
// two commands exist to name the arguments by role.
func newEncryptCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt-data-key <data-key> <exchange-key>",
		Short: "Mask a data key with the requester's exchange key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPad(cmd, opts, args[0], args[1], "encrypted_data_key")
		},
	}
}

func newDecryptCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt-data-key <encrypted-data-key> <exchange-key>",
		Short: "Recover a data key from its masked form",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPad(cmd, opts, args[0], args[1], "data_key")
		},
	}
}

func runPad(cmd *cobra.Command, opts *RootOptions, a, b, label string) error {
	left, err := commitment.ParseKey(a)
	if err != nil {
		return commandError("invalid first key", err)
	}
	right, err := commitment.ParseKey(b)
	if err != nil {
		return commandError("invalid exchange key", err)
	}
	out := padOutput{Result: commitment.XOR(left, right)}
	return render(cmd.OutOrStdout(), opts.Format, out, []field{
		{label, out.Result.String()},
	})
}

type verifyOutput struct {
	RevealValid  bool              `json:"reveal_valid"`
	DataKeyValid bool              `json:"data_key_valid"`
	DataKey      commitment.Key    `json:"data_key"`
	DataKeyHash  commitment.Digest `json:"data_key_hash"`
}

func newVerifyCommand(opts *RootOptions) *cobra.Command {
	var exchangeKeyHash, dataKeyHash string

	cmd := &cobra.Command{
		Use:   "verify <exchange-key> <encrypted-data-key>",
		Short: "Preview a dispute: check the reveal and the delivered data key",
		Long: `Checks the exchange key against --exchange-key-hash, then unmasks the
encrypted data key and checks it against --data-key-hash. Exits 1 when
either check fails.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			exchangeKey, err := commitment.ParseKey(args[0])
			if err != nil {
				return commandError("invalid exchange key", err)
			}
			encrypted, err := commitment.ParseKey(args[1])
			if err != nil {
				return commandError("invalid encrypted data key", err)
			}
			ekh, err := commitment.ParseDigest(exchangeKeyHash)
			if err != nil {
				return commandError("invalid --exchange-key-hash", err)
			}
			dkh, err := commitment.ParseDigest(dataKeyHash)
			if err != nil {
				return commandError("invalid --data-key-hash", err)
			}

			dataKey := commitment.XOR(encrypted, exchangeKey)
			out := verifyOutput{
				RevealValid: commitment.Verify(exchangeKey, ekh),
				DataKey:     dataKey,
				DataKeyHash: commitment.Hash(dataKey),
			}
			out.DataKeyValid = out.RevealValid && out.DataKeyHash == dkh

			if err := render(cmd.OutOrStdout(), opts.Format, out, []field{
				{"reveal", verdictWord(out.RevealValid)},
				{"data key", verdictWord(out.DataKeyValid)},
				{"recovered", dataKey.String()},
			}); err != nil {
				return err
			}
			switch {
			case !out.RevealValid:
				return &ExitError{Code: ExitFailure, Message: "exchange key does not match its commitment"}
			case !out.DataKeyValid:
				return &ExitError{Code: ExitFailure, Message: "delivered data key does not match its commitment"}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&exchangeKeyHash, "exchange-key-hash", "", "commitment the requester published at propose")
	cmd.Flags().StringVar(&dataKeyHash, "data-key-hash", "", "commitment the attester registered with the private data")
	_ = cmd.MarkFlagRequired("exchange-key-hash")
	_ = cmd.MarkFlagRequired("data-key-hash")

	return cmd
}

func verdictWord(ok bool) string {
	if ok {
		return "ok"
	}
	return "mismatch"
}

type factKeyOutput struct {
	Label string         `json:"label"`
	Key   domain.FactKey `json:"key"`
}

func newFactKeyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fact-key <label>",
		Short: "Encode a label as the canonical 32-byte fact key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := domain.FactKeyFromString(args[0])
			if err != nil {
				return commandError("invalid label", err)
			}
			return render(cmd.OutOrStdout(), opts.Format, factKeyOutput{Label: args[0], Key: k}, []field{
				{"key", k.String()},
			})
		},
	}
}
