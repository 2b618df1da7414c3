// Package api defines the JSON payloads served by the daemon's HTTP
// interface and the mapping from service errors to HTTP status codes.
package api
