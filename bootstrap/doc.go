// Package bootstrap gives tomoflow binaries one lifecycle: load and
// validate the typed configuration, initialise logging, start the
// registered components, run a finite task and shut everything down again,
// also when the task fails or the process is interrupted.
package bootstrap
