package cmd

import (
	"bufio"
	"fmt"

	"github.com/iksnae/pocket-chat/internal"
	"github.com/spf13/cobra"
)

var (
	loginUsername string
	loginPassword string
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with the configured credentials",
	Long: `Sign in so that chat, send, history and export can be used.

The username and password are compared with auth.username and auth.password
from the config (or POCKET_CHAT_USERNAME / POCKET_CHAT_PASSWORD). Missing
values are prompted for. The session is remembered until logout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		p := printer(cmd)

		if state := a.gate.CheckSession(ctx); state.Present() {
			p.Info(fmt.Sprintf("Already signed in as %s", state.Username))
			return nil
		}

		creds := internal.Credentials{Username: loginUsername, Password: loginPassword}
		in := bufio.NewReader(cmd.InOrStdin())
		if creds.Username == "" {
			if creds.Username, err = prompt(in, cmd.OutOrStdout(), "Username"); err != nil {
				internal.LogDebug("No username entered: %v", err)
			}
		}
		if creds.Password == "" {
			if creds.Password, err = promptSecret(cmd.InOrStdin(), in, cmd.OutOrStdout(), "Password"); err != nil {
				internal.LogDebug("No password entered: %v", err)
			}
		}

		state, err := a.gate.SignIn(ctx, creds)
		if err != nil {
			return err
		}

		p.Success(fmt.Sprintf("Signed in as %s", state.Username))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted when omitted)")
}
