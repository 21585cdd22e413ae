// Package cli wires the cobra command tree for the relay binary.
package cli

import (
	"github.com/spf13/cobra"
)

const version = "0.1.0"

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "relay",
		Short:         "Agent gateway and content generation runtime",
		Long:          "relay routes chat turns to configured agents, hydrates composite context documents from the record store, and runs queued content generations in the background.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newChatCmd())
	root.AddCommand(newHydrateCmd())
	root.AddCommand(newRunsCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("relay " + version)
		},
	}
}
