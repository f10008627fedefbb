// Package api exposes the engine to the outside: Prometheus metrics
// for pipeline activity and a ZeroMQ preview server that streams
// materialized tables as Arrow IPC to inspection clients.
package api
