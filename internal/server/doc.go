// Package server hosts the Fiber HTTP status and control service: request
// middleware (recover, request IDs), the node registry that maps node names to
// running nodes, and the Prometheus metrics endpoint. Node state is only ever
// touched through an Executor so HTTP handlers never race the event loop.
package server
