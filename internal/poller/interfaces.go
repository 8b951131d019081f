package poller

import (
	"context"

	"github.com/ryzom/shardstatus/internal/shard"
)

// Fetcher retrieves a fresh shard report
type Fetcher interface {
	Fetch(ctx context.Context) (shard.Report, error)
}
