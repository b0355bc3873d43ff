package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Allen20077/8berries/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("8berries %s (%s)\n", version.Version, version.Commit)
		},
	}
}
