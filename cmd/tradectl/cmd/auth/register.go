package auth

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/routing"
	"github.com/tradedesk/tradedesk/pkg/sdk"
)

var (
	registerUsername string
	registerPassword string
	registerEmail    string
)

var registerCmd = &cobra.Command{
	Use:         "register",
	Short:       "Create an account and log in",
	Annotations: routing.For(sdk.RouteRegister),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := session(ctx)
		if err != nil {
			return err
		}

		username, err := prompt(ctx, registerUsername, "Username", false)
		if err != nil {
			return err
		}
		password, err := prompt(ctx, registerPassword, "Password", true)
		if err != nil {
			return err
		}

		in := sdk.RegisterInput{Username: username, Password: password, Email: registerEmail}
		if err := s.Register(ctx, in); err != nil {
			return failure("registration", s, err)
		}

		pterm.Success.Printf("Account %s created; you are logged in\n", s.User().Username)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVarP(&registerUsername, "username", "u", "", "Username")
	registerCmd.Flags().StringVarP(&registerPassword, "password", "p", "", "Password (prompted when omitted)")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Optional e-mail address")
}
