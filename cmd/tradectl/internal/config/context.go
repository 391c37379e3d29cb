package config

import (
	"context"

	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/client"
)

type contextKey string

const configKey contextKey = "tradectl-config"

// GlobalConfig holds shared configuration for all tradectl commands.
// The root command's PersistentPreRunE injects it into the cobra context.
type GlobalConfig struct {
	*Config
	ClientProvider *client.Provider
}

// InjectConfig adds config to the cobra command context.
func InjectConfig(ctx context.Context, cfg *GlobalConfig) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from the cobra command context.
// Returns (nil, false) if config is not present.
func FromContext(ctx context.Context) (*GlobalConfig, bool) {
	cfg, ok := ctx.Value(configKey).(*GlobalConfig)
	return cfg, ok
}

// MustFromContext retrieves config from context or panics. Only command
// RunE functions should use it; the root command has injected the config
// by then.
func MustFromContext(ctx context.Context) *GlobalConfig {
	cfg, ok := FromContext(ctx)
	if !ok {
		panic("tradectl: config not found in context - this is a bug in tradectl")
	}
	return cfg
}
