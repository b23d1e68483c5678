package snapshot

import (
	"context"
	"fmt"
)

// Backend kinds accepted by Open
const (
	KindFile     = "file"
	KindS3       = "s3"
	KindPostgres = "postgres"
	KindMemory   = "memory"
)

// Options selects and configures a backend
type Options struct {
	Kind        string
	Dir         string
	S3          S3Config
	PostgresURL string
}

// Open creates the backend described by opts
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Kind {
	case KindFile, "":
		return NewFileBackend(opts.Dir)
	case KindS3:
		return NewS3Backend(ctx, opts.S3)
	case KindPostgres:
		if opts.PostgresURL == "" {
			return nil, fmt.Errorf("postgres state backend: database url is required")
		}
		return NewPostgresBackend(ctx, opts.PostgresURL)
	case KindMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported state backend: %s (use: file, s3, postgres, memory)", opts.Kind)
	}
}
