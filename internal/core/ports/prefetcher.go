package ports

import "context"

// Prefetcher computes the content checksum of a pinned git source.
//
//go:generate go run go.uber.org/mock/mockgen -source=prefetcher.go -destination=mocks/mock_prefetcher.go -package=mocks
type Prefetcher interface {
	// Prefetch fetches the source at the exact revision and returns its
	// sha256 in the form the plan embeds verbatim.
	Prefetch(ctx context.Context, url, rev string) (string, error)
}

// ChecksumStore persists prefetch results across runs, keyed "url#rev".
// A revision pins content, so entries never expire.
type ChecksumStore interface {
	// Get retrieves a cached checksum. Returns "" without error when absent.
	Get(key string) (string, error)

	// Put stores a checksum.
	Put(key, checksum string) error
}
