// Package ipc serializes materialized tables as Arrow IPC streams for
// zero-copy transfer to out-of-process inspection clients.
package ipc
