package nix

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"go.trai.ch/nixplan/internal/core/domain"
	"go.trai.ch/zerr"
)

// Builder implements ports.Builder using the Nix CLI.
type Builder struct{}

// NewBuilder creates a new Builder backed by nix build.
func NewBuilder() *Builder {
	return &Builder{}
}

// buildResults mirrors the JSON output of nix build --json.
type buildResults []struct {
	DrvPath string            `json:"drvPath"`
	Outputs map[string]string `json:"outputs"`
}

// Build evaluates the plan file and builds the named workspace member.
// Returns the absolute store path of the build result.
func (b *Builder) Build(ctx context.Context, planPath, member string, sys domain.System, channel string) (string, error) {
	attr := fmt.Sprintf("workspaceMembers.%q.build", member)

	// Use nix build --json to get the store path in JSON format.
	// We use --no-link to avoid creating result symlinks.
	//nolint:gosec // arguments are constructed from validated inputs
	cmd := exec.CommandContext(ctx, "nix", "build",
		"--extra-experimental-features", "nix-command",
		"--json", "--no-link",
		"--file", planPath,
		"--argstr", "system", sys.String(),
		"--argstr", "channel", channel,
		attr)

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr := strings.TrimSpace(string(exitErr.Stderr))

			buildErr := zerr.Wrap(exitErr, domain.ErrBuildFailed.Error())
			buildErr = zerr.With(buildErr, "member", member)
			buildErr = zerr.With(buildErr, "plan", planPath)
			return "", zerr.With(buildErr, "stderr", stderr)
		}

		buildErr := zerr.Wrap(err, domain.ErrBuildFailed.Error())
		buildErr = zerr.With(buildErr, "member", member)
		return "", zerr.With(buildErr, "plan", planPath)
	}

	return ParseBuildOutput(output, member)
}

// ParseBuildOutput extracts the out store path from nix build JSON output.
func ParseBuildOutput(output []byte, member string) (string, error) {
	var results buildResults
	if err := json.Unmarshal(output, &results); err != nil {
		parseErr := zerr.Wrap(err, "failed to parse nix build JSON output")
		return "", zerr.With(parseErr, "member", member)
	}

	if len(results) == 0 {
		emptyErr := zerr.With(zerr.Wrap(domain.ErrBuildFailed, ""), "member", member)
		return "", zerr.With(emptyErr, "reason", "empty build results from nix build")
	}

	storePath, ok := results[0].Outputs["out"]
	if !ok || storePath == "" {
		outErr := zerr.With(zerr.Wrap(domain.ErrBuildFailed, ""), "member", member)
		return "", zerr.With(outErr, "reason", "no 'out' output found in build results")
	}

	return storePath, nil
}
