// Package application provides application initialization and dependency wiring.
// It assembles catalog storage, the exchange-rate chain, the instrumented
// allocation searcher, metrics, handlers, routers, and the HTTP server, keeping
// the main package focused on CLI parsing and orchestration.
package application
