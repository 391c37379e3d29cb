package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/config"
	"github.com/tradedesk/tradedesk/pkg/sdk"
)

// AuthCmd is the parent command for auth operations
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Commands for logging in, registering, logging out and showing the current profile.`,
}

func init() {
	AuthCmd.AddCommand(loginCmd)
	AuthCmd.AddCommand(registerCmd)
	AuthCmd.AddCommand(logoutCmd)
	AuthCmd.AddCommand(statusCmd)
}

func session(ctx context.Context) (*sdk.Session, error) {
	cfg := config.MustFromContext(ctx)
	return cfg.ClientProvider.Session(ctx)
}

// prompt asks for a value unless it was given or prompts are disabled.
func prompt(ctx context.Context, value, label string, secret bool) (string, error) {
	if value != "" {
		return value, nil
	}
	if config.MustFromContext(ctx).NonInteractive {
		return "", fmt.Errorf("--%s is required in non-interactive mode", strings.ToLower(label))
	}

	input := pterm.DefaultInteractiveTextInput
	if secret {
		input = *input.WithMask("*")
	}
	answer, err := input.Show(label)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(answer), nil
}

// failure prefers the session's readable message over the raw error.
func failure(action string, s *sdk.Session, err error) error {
	if msg := s.Error(); msg != "" {
		return fmt.Errorf("%s failed: %s", action, msg)
	}
	return fmt.Errorf("%s failed: %w", action, err)
}
