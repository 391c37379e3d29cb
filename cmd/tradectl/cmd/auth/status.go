package auth

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/config"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/output"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/routing"
)

var statusCmd = &cobra.Command{
	Use:         "status",
	Aliases:     []string{"profile", "whoami"},
	Short:       "Display the current profile",
	Annotations: routing.For("profile"),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := session(ctx)
		if err != nil {
			return err
		}

		if err := s.Init(ctx); err != nil {
			return err
		}
		user := s.User()
		if user == nil {
			// the token survived init but the identity did not load
			return fmt.Errorf("session is not fully established (state %s); run `tradectl auth login`", s.State())
		}

		role := "user"
		if s.IsAdmin() {
			role = "admin"
		}

		pterm.DefaultSection.Println("Profile")
		pterm.Info.Printf("Server: %s\n", config.MustFromContext(ctx).APIBaseURL)
		return output.Table(cmd.OutOrStdout(),
			[]string{"id", "username", "email", "role", "broker_id"},
			[][]string{{fmt.Sprintf("%d", user.ID), user.Username, user.Email, role, output.Int64(s.BrokerID())}},
		)
	},
}
