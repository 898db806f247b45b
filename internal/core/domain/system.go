package domain

import (
	"runtime"
	"strings"

	"go.trai.ch/zerr"
)

// System identifies a target platform in Nix double notation, e.g. "x86_64-linux".
type System struct {
	// Arch is the CPU architecture component (e.g., "x86_64", "aarch64").
	Arch string

	// OS is the operating system component (e.g., "linux", "darwin").
	OS string
}

// String returns the canonical "<arch>-<os>" form.
func (s System) String() string {
	return s.Arch + "-" + s.OS
}

// Family returns the platform family ("unix" or "windows") used by cfg(unix) gates.
func (s System) Family() string {
	if s.OS == "windows" {
		return "windows"
	}
	return "unix"
}

// ParseSystem parses a system double like "x86_64-linux" or "aarch64-darwin".
func ParseSystem(s string) (System, error) {
	arch, os, ok := strings.Cut(s, "-")
	if !ok || arch == "" || os == "" {
		return System{}, zerr.With(zerr.Wrap(ErrUnsupportedSystem, ""), "system", s)
	}
	return System{Arch: arch, OS: os}, nil
}

// CurrentSystem derives the system double for the running platform.
func CurrentSystem() (System, error) {
	arch, ok := map[string]string{
		"amd64": "x86_64",
		"arm64": "aarch64",
		"386":   "i686",
	}[runtime.GOARCH]
	if !ok {
		return System{}, zerr.With(zerr.Wrap(ErrUnsupportedSystem, ""), "goarch", runtime.GOARCH)
	}

	switch runtime.GOOS {
	case "linux", "darwin":
		return System{Arch: arch, OS: runtime.GOOS}, nil
	default:
		return System{}, zerr.With(zerr.Wrap(ErrUnsupportedSystem, ""), "goos", runtime.GOOS)
	}
}
