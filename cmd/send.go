package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iksnae/pocket-chat/internal"
	"github.com/spf13/cobra"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send one message and print the reply",
	Long: `Append a message to the transcript, wait for the reply and print it.

Failed requests are recorded as an error notice in the transcript, like in
interactive chat.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if _, err := a.requireSession(ctx); err != nil {
			return err
		}

		engine, err := a.newEngine(ctx)
		if err != nil {
			return err
		}
		engine.Initialize(ctx)

		text := strings.Join(args, " ")
		var status internal.SendStatus
		internal.Spin(ctx, cmd.ErrOrStderr(), "Waiting for reply...", func() {
			status = engine.Send(ctx, text)
		})

		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := engine.Close(closeCtx); err != nil {
			printer(cmd).Warning(fmt.Sprintf("Transcript could not be saved: %v", err))
		}

		switch status {
		case internal.SendCompleted:
			tr := engine.Transcript()
			fmt.Fprint(cmd.OutOrStdout(), internal.NewRendererFor(cmd.OutOrStdout()).RenderMessage(tr[len(tr)-1]))
			return nil
		case internal.SendIgnored:
			return errors.New("message is empty")
		default:
			return fmt.Errorf("message not sent: %s", status)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}
