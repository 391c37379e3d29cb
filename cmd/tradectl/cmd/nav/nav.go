package nav

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/config"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/output"
	"github.com/tradedesk/tradedesk/pkg/sdk"
)

// NavCmd exposes the route guard directly
var NavCmd = &cobra.Command{
	Use:   "nav",
	Short: "Inspect back-office routes and where the guard sends you",
}

var openCmd = &cobra.Command{
	Use:   "open <path>",
	Short: "Navigate to a path and show every guard decision",
	Long: `Resolves a back-office path (for example /reports/latest-trades) against
the route table, applies the guard with the current session and prints each
redirect until navigation settles.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		guard, err := config.MustFromContext(ctx).ClientProvider.Guard(ctx)
		if err != nil {
			return err
		}

		nav, err := guard.Navigate(ctx, args[0])
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(nav.Hops))
		for i, hop := range nav.Hops {
			next := "proceed"
			if !hop.Allowed() {
				next = hop.RedirectTo
			}
			rows = append(rows, []string{strconv.Itoa(i + 1), hop.Target.Name, next, hop.Reason})
		}
		if err := output.Table(cmd.OutOrStdout(), []string{"hop", "route", "decision", "reason"}, rows); err != nil {
			return err
		}

		pterm.Info.Printf("Settled on %s (%s), view %s\n", nav.Route.Name, nav.FullPath, nav.Route.View)
		return nil
	},
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the route table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		router, err := sdk.NewRouter(sdk.DefaultRoutes())
		if err != nil {
			return fmt.Errorf("invalid route table: %w", err)
		}

		var rows [][]string
		for _, r := range router.Routes() {
			rows = append(rows, []string{r.Name, r.Path, r.View, access(r)})
		}
		return output.Table(cmd.OutOrStdout(), []string{"name", "path", "view", "access"}, rows)
	},
}

func access(r sdk.Route) string {
	switch {
	case r.RequiresAdmin:
		return "admin"
	case r.RequiresAuth:
		return "authenticated"
	case r.Public:
		return "public"
	default:
		return "any"
	}
}

func init() {
	NavCmd.AddCommand(openCmd)
	NavCmd.AddCommand(routesCmd)
}
