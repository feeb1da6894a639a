package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &Output{Format: rootOpts.Format, W: cmd.OutOrStdout()}
			info := map[string]string{"version": Version, "go": runtime.Version()}
			return out.Result(info, func(w io.Writer) {
				fmt.Fprintf(w, "catalog %s (%s)\n", Version, runtime.Version())
			})
		},
	}
}
