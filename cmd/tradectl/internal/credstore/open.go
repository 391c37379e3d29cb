package credstore

import (
	"context"
	"fmt"
	"io"

	"github.com/tradedesk/tradedesk/pkg/sdk"
)

// Backend names accepted by Open.
const (
	BackendFile  = "file"
	BackendSQL   = "sql"
	BackendRedis = "redis"
)

// Options selects and locates a Durable Record backend.
type Options struct {
	Backend   string
	DSN       string
	RedisAddr string
}

// Store is a CredentialStore that may hold a connection.
type Store interface {
	sdk.CredentialStore
	io.Closer
}

type nopCloser struct {
	sdk.CredentialStore
}

func (nopCloser) Close() error { return nil }

// Open builds the configured backend. For "file" the DSN is the file path
// (empty means the default path).
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		store, err := NewFileStore(opts.DSN)
		if err != nil {
			return nil, err
		}
		return nopCloser{store}, nil
	case BackendSQL:
		return OpenSQLStore(ctx, opts.DSN)
	case BackendRedis:
		return OpenRedisStore(ctx, opts.RedisAddr)
	default:
		return nil, fmt.Errorf("unknown credential store backend %q", opts.Backend)
	}
}
