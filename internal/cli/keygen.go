package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/catalog/internal/cursor"
)

// NewKeygenCommand creates the keygen command.
func NewKeygenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		algorithm string
		bits      int
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Print a new random cursor key as a JWK",
		Long: `Print a new random cursor key as a JSON Web Key.

Set it as cursor.key (or CATALOG_CURSOR_KEY). Changing the key invalidates
every cursor issued under the old one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &Output{Format: rootOpts.Format, W: cmd.OutOrStdout()}

			key, err := cursor.GenerateJWK(cursor.Algorithm(algorithm), bits)
			if err != nil {
				return out.Fail(ExitCommandError, err)
			}
			return out.Result(map[string]string{"key": key, "algorithm": algorithm}, func(w io.Writer) {
				fmt.Fprintln(w, key)
			})
		},
	}

	cmd.Flags().StringVar(&algorithm, "algorithm", string(cursor.AESGCM), "aes-gcm or chacha20-poly1305")
	cmd.Flags().IntVar(&bits, "bits", 128, "key size in bits (128, 192 or 256; chacha20-poly1305 needs 256)")
	return cmd
}
