// Package build carries build-time metadata injected via linker flags.
package build

// Version is the generator version recorded in emitted plans.
// Overridden at release time with
// -ldflags "-X go.trai.ch/nixplan/internal/build.Version=<version>".
var Version = "0.0.0-dev"
