package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/nixplan/internal/adapters/manifest"
)

// writeWorkspace lays out a workspace directory from a map of relative file
// paths to contents.
func writeWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func TestLoad_WorkspaceWithMembers(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{
		"workspace.toml": `
[workspace]
members = ["server", "tool"]

[profile.release]
opt-level = 3
lto = true
`,
		"server/package.toml": `
[package]
name = "server"
version = "0.1.0"

[dependencies]
libc = "0.2.150"
ring = { version = "0.17.8", optional = true }

[features]
default = ["tls"]
tls = ["ring"]
`,
		"tool/package.toml": `
[package]
name = "tool"
version = "1.2.0"

[dev-dependencies]
testlib = "0.5.0"
`,
	})

	loader := manifest.NewLoader()
	ws, err := loader.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"server", "tool"}, ws.Manifest.Members)
	require.Contains(t, ws.Manifest.Profiles, "release")
	assert.Equal(t, int64(3), ws.Manifest.Profiles["release"]["opt-level"])
	assert.Equal(t, true, ws.Manifest.Profiles["release"]["lto"])

	server := ws.Members["server"]
	require.NotNil(t, server)
	assert.Equal(t, "0.1.0", server.Version)
	assert.Equal(t, "0.2.150", server.Dependencies["libc"].Version)
	assert.True(t, server.Dependencies["libc"].DefaultFeatures)
	assert.True(t, server.Dependencies["ring"].Optional)
	assert.Equal(t, []string{"ring"}, server.Features["tls"])

	tool := ws.Members["tool"]
	require.NotNil(t, tool)
	assert.Equal(t, "0.5.0", tool.DevDependencies["testlib"].Version)
}

func TestLoad_InlineTableDependency(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{
		"workspace.toml": `
[workspace]
members = ["app"]
`,
		"app/package.toml": `
[package]
name = "app"
version = "0.1.0"

[dependencies]
winhelp = { version = "0.3.0", default-features = false, features = ["alloc"], platform = 'cfg(windows)', rename = "win" }
`,
	})

	loader := manifest.NewLoader()
	ws, err := loader.Load(dir)
	require.NoError(t, err)

	dep := ws.Members["app"].Dependencies["winhelp"]
	assert.Equal(t, "0.3.0", dep.Version)
	assert.False(t, dep.DefaultFeatures)
	assert.Equal(t, []string{"alloc"}, dep.Features)
	assert.Equal(t, "cfg(windows)", dep.Platform.String())
	assert.Equal(t, "win", dep.Rename)
}

func TestLoad_RejectsWeakFeatureReference(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{
		"workspace.toml": `
[workspace]
members = ["app"]
`,
		"app/package.toml": `
[package]
name = "app"
version = "0.1.0"

[dependencies]
serde = { version = "1.0", optional = true }

[features]
std = ["serde?/std"]
`,
	})

	loader := manifest.NewLoader()
	_, err := loader.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weak feature references are not supported")
}

func TestLoad_RejectsDanglingFeatureEntry(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{
		"workspace.toml": `
[workspace]
members = ["app"]
`,
		"app/package.toml": `
[package]
name = "app"
version = "0.1.0"

[features]
default = ["nosuchthing"]
`,
	})

	loader := manifest.NewLoader()
	_, err := loader.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feature references unknown entry")
}

func TestLoad_RejectsFeatureOnUnknownDependency(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{
		"workspace.toml": `
[workspace]
members = ["app"]
`,
		"app/package.toml": `
[package]
name = "app"
version = "0.1.0"

[features]
default = ["ghost/feat"]
`,
	})

	loader := manifest.NewLoader()
	_, err := loader.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feature references unknown dependency")
}

func TestLoad_RejectsDuplicateMemberName(t *testing.T) {
	pkg := `
[package]
name = "same"
version = "0.1.0"
`
	dir := writeWorkspace(t, map[string]string{
		"workspace.toml": `
[workspace]
members = ["a", "b"]
`,
		"a/package.toml": pkg,
		"b/package.toml": pkg,
	})

	loader := manifest.NewLoader()
	_, err := loader.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate workspace member")
}

func TestLoad_RejectsEmptyWorkspace(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{
		"workspace.toml": `
[workspace]
members = []
`,
	})

	loader := manifest.NewLoader()
	_, err := loader.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workspace has no members")
}

func TestLoad_MissingMemberManifest(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{
		"workspace.toml": `
[workspace]
members = ["ghost"]
`,
	})

	loader := manifest.NewLoader()
	_, err := loader.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load package manifest")
}

func TestLoad_RequiresNameAndVersion(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{
		"workspace.toml": `
[workspace]
members = ["app"]
`,
		"app/package.toml": `
[package]
name = "app"
`,
	})

	loader := manifest.NewLoader()
	_, err := loader.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires name and version")
}
