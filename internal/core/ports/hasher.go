package ports

// Hasher computes the workspace input fingerprint recorded in the plan.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// ComputeFingerprint hashes the given files (relative to root) in a
	// deterministic order and returns a hex digest.
	ComputeFingerprint(root string, paths []string) (string, error)
}
