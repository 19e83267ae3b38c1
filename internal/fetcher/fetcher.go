package fetcher

import (
	"context"

	"github.com/IshaanNene/RepoMiner/internal/types"
)

// Fetcher retrieves pages for the extractors.
type Fetcher interface {
	// Fetch retrieves the content at the given request's URL.
	// Any transport failure or non-2xx status is returned as *types.FetchError.
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}
