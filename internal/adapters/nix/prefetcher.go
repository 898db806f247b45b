// Package nix shells out to the Nix toolchain for prefetching and building.
package nix

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"go.trai.ch/nixplan/internal/core/domain"
	"go.trai.ch/zerr"
)

// Prefetcher implements ports.Prefetcher using nix-prefetch-git.
type Prefetcher struct{}

// NewPrefetcher creates a new Prefetcher backed by the nix-prefetch-git CLI.
func NewPrefetcher() *Prefetcher {
	return &Prefetcher{}
}

type prefetchResult struct {
	SHA256 string `json:"sha256"`
}

// Prefetch fetches the repository at the exact revision and returns its
// sha256. The revision pins the content, so results are safe to cache.
func (p *Prefetcher) Prefetch(ctx context.Context, url, rev string) (string, error) {
	cmd := exec.CommandContext(ctx, "nix-prefetch-git",
		"--quiet",
		"--url", url,
		"--rev", rev)

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr := strings.TrimSpace(string(exitErr.Stderr))

			prefetchErr := zerr.Wrap(exitErr, domain.ErrPrefetchFailed.Error())
			prefetchErr = zerr.With(prefetchErr, "url", url)
			prefetchErr = zerr.With(prefetchErr, "rev", rev)
			return "", zerr.With(prefetchErr, "stderr", stderr)
		}

		prefetchErr := zerr.Wrap(err, domain.ErrPrefetchFailed.Error())
		prefetchErr = zerr.With(prefetchErr, "url", url)
		return "", zerr.With(prefetchErr, "rev", rev)
	}

	return ParsePrefetchOutput(output, url, rev)
}

// ParsePrefetchOutput extracts the sha256 from nix-prefetch-git JSON output.
func ParsePrefetchOutput(output []byte, url, rev string) (string, error) {
	var result prefetchResult
	if err := json.Unmarshal(output, &result); err != nil {
		parseErr := zerr.Wrap(err, "failed to parse nix-prefetch-git output")
		parseErr = zerr.With(parseErr, "url", url)
		return "", zerr.With(parseErr, "rev", rev)
	}

	if result.SHA256 == "" {
		emptyErr := zerr.With(zerr.Wrap(domain.ErrPrefetchFailed, ""), "url", url)
		emptyErr = zerr.With(emptyErr, "rev", rev)
		return "", zerr.With(emptyErr, "reason", "no sha256 in prefetch output")
	}

	return result.SHA256, nil
}
