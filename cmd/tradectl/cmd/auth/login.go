package auth

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/routing"
	"github.com/tradedesk/tradedesk/pkg/sdk"
)

var (
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:         "login",
	Short:       "Log in to the back-office",
	Long:        `Exchanges a username and password for a session token and stores it in the configured credential store.`,
	Annotations: routing.For(sdk.RouteLogin),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := session(ctx)
		if err != nil {
			return err
		}

		username, err := prompt(ctx, loginUsername, "Username", false)
		if err != nil {
			return err
		}
		password, err := prompt(ctx, loginPassword, "Password", true)
		if err != nil {
			return err
		}

		if err := s.Login(ctx, sdk.LoginInput{Username: username, Password: password}); err != nil {
			return failure("login", s, err)
		}

		pterm.Success.Printf("Logged in as %s\n", s.User().Username)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted when omitted)")
}
