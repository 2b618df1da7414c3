// Package daemon hosts the long-running roastreel process: single-instance
// locking and the HTTP API that drives the pipeline.
package daemon
