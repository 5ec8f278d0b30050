// Package app wires contestlens together and owns its lifecycle.
//
// New builds every component from a loaded configuration in this order:
// telemetry, business metrics, dataset store, websocket hub, services,
// router and HTTP server. Run serves until the process receives SIGINT or
// SIGTERM and then shuts down the server, the hub and the telemetry
// providers.
package app
