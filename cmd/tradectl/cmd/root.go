package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tradedesk/tradedesk/cmd/tradectl/cmd/auth"
	"github.com/tradedesk/tradedesk/cmd/tradectl/cmd/nav"
	"github.com/tradedesk/tradedesk/cmd/tradectl/cmd/report"
	"github.com/tradedesk/tradedesk/cmd/tradectl/cmd/resource"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/client"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/config"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/credstore"
	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/routing"
	"github.com/tradedesk/tradedesk/pkg/sdk"
)

var (
	configFile     string
	ephemeralToken string

	activeProvider *client.Provider
)

var rootCmd = &cobra.Command{
	Use:   "tradectl",
	Short: "tradectl - trading back-office client",
	Long: `tradectl is the command-line client for the trading back-office API.
Use it to log in, manage the catalog and trading batches, and run reports.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			viper.SetConfigFile(configFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		}
		if err := bindFlags(cmd.Flags()); err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		provider := client.NewProvider(providerOptions(cfg))
		if ephemeralToken != "" {
			provider.SetToken(ephemeralToken)
		}
		activeProvider = provider

		ctx := config.InjectConfig(cmd.Context(), &config.GlobalConfig{
			Config:         cfg,
			ClientProvider: provider,
		})
		cmd.SetContext(ctx)

		route := cmd.Annotations[routing.Annotation]
		if route == "" {
			return nil
		}
		guard, err := provider.Guard(ctx)
		if err != nil {
			return err
		}
		return routing.Enter(ctx, guard, route)
	},
}

// Execute runs the root command
func Execute() {
	err := rootCmd.Execute()
	if activeProvider != nil {
		if closeErr := activeProvider.Close(); closeErr != nil {
			pterm.Warning.Println(closeErr)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (yaml, json or toml)")
	flags.String("server", "", "API base URL (also set via TRADEDESK_API_BASE_URL)")
	flags.Bool("non-interactive", false, "Disable interactive prompts (also set via TRADEDESK_NON_INTERACTIVE=1)")
	flags.BoolP("verbose", "v", false, "Log session transitions and navigation")
	flags.StringVar(&ephemeralToken, "token", "", "Use this token for one invocation without touching the credential store")

	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(resource.CatalogCmd)
	rootCmd.AddCommand(resource.TradingCmd)
	rootCmd.AddCommand(report.ReportCmd)
	rootCmd.AddCommand(nav.NavCmd)
}

// flagKeys maps persistent flags to config keys.
var flagKeys = map[string]string{
	"server":          "api_base_url",
	"non-interactive": "non_interactive",
	"verbose":         "verbose",
}

// bindFlags lets explicitly set flags override env and config file values.
func bindFlags(flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	return nil
}

func providerOptions(cfg *config.Config) client.Options {
	logger := log.New(io.Discard, "", 0)
	opts := client.Options{
		ServerURL:   cfg.APIBaseURL,
		HTTPTimeout: cfg.HTTPTimeout,
		StorageKey:  cfg.StorageKey,
		Store: credstore.Options{
			Backend:   cfg.CredentialStore,
			DSN:       cfg.CredentialDSN,
			RedisAddr: cfg.RedisAddr,
		},
	}

	if cfg.Verbose {
		pterm.EnableDebugMessages()
		logger = log.New(os.Stderr, "tradectl: ", log.LstdFlags)
		opts.Observer = func(tr sdk.Transition) {
			pterm.Debug.Printfln("session %s -> %s (%s)", tr.From, tr.To, tr.Reason)
		}
		opts.OnNavigate = func(n sdk.Navigation) {
			pterm.Debug.Printfln("navigated to %s (%s)", n.Route.Name, n.FullPath)
		}
	}
	opts.Logger = logger
	return opts
}
