// Package version reports the build of the tomoflow binary.
//
// Version and GitCommit are set at link time and fall back to the module
// build information recorded by the Go toolchain:
//
//	go build -ldflags "-X github.com/kbukum/tomoflow/version.Version=0.3.0" ./cmd/tomoflow
package version
