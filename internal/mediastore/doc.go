// Package mediastore persists generated video artifacts on disk, keyed by
// opaque uuid identifiers that the API hands out to clients.
package mediastore
