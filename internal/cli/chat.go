package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/relaymesh/relay/internal/gatewayclient"
)

func newChatCmd() *cobra.Command {
	var gatewayURL string
	var token string
	var session string

	cmd := &cobra.Command{
		Use:   "chat <agent> <message...>",
		Short: "Send one chat turn to a running gateway",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := gatewayclient.New(gatewayURL, token, 2*time.Minute)
			resp, err := client.Chat(cmd.Context(), args[0], gatewayclient.ChatRequest{
				Message: strings.Join(args[1:], " "),
				Session: session,
			})
			if err != nil {
				return err
			}
			cmd.Println(resp.Reply)
			if resp.ToolCalls > 0 {
				cmd.PrintErrln(fmt.Sprintf("(%d tool calls)", resp.ToolCalls))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&gatewayURL, "gateway", "http://127.0.0.1:8080", "gateway base URL")
	cmd.Flags().StringVar(&token, "token", "", "gateway bearer token")
	cmd.Flags().StringVar(&session, "session", "", "session id to continue")
	return cmd
}
