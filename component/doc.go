// Package component manages the lifecycle of tomoflow's infrastructure:
// components are started in registration order, stopped in reverse, and
// report their health to the status server.
package component
