// File: cmd/version.go
package cmd

import (
	"runtime"

	"github.com/spf13/cobra"
)

// Version is the application version, set at build time:
// go build -ldflags "-X github.com/xkilldash9x/orderlens/cmd.Version=1.0.0"
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and Go runtime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Printf("orderlens %s (%s %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
