package cmd

import (
	"bufio"

	"github.com/spf13/cobra"
)

var logoutYes bool

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	Long: `Sign out of the current session.

The stored transcript is kept and is shown again after the next login.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		p := printer(cmd)

		if !a.gate.CheckSession(ctx).Present() {
			p.Info("Not signed in")
			return nil
		}

		if !logoutYes && !confirm(bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout(), "Are you sure you want to log out?") {
			p.Info("Logout cancelled")
			return nil
		}

		if err := a.gate.SignOut(ctx); err != nil {
			return err
		}
		p.Success("Signed out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
	logoutCmd.Flags().BoolVarP(&logoutYes, "yes", "y", false, "Do not ask for confirmation")
}
