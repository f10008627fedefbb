// Package pipeline runs the extraction sequence for one container:
// open, navigate, materialize, export. Runs are independent and share
// no mutable state, so the batch mode parallelizes across containers
// without locking.
package pipeline
