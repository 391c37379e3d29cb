package auth

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var logoutLocal bool

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := session(ctx)
		if err != nil {
			return err
		}

		// attaches the stored token to the transport
		if err := s.Init(ctx); err != nil {
			return err
		}
		if s.Token() == "" {
			pterm.Info.Println("Not logged in")
			return nil
		}
		if err := s.Logout(ctx, logoutLocal); err != nil {
			return fmt.Errorf("failed to delete credentials: %w", err)
		}

		fmt.Println("Logged out successfully")
		return nil
	},
}

func init() {
	logoutCmd.Flags().BoolVar(&logoutLocal, "local", false, "Only forget the local token; do not revoke it on the server")
}
