// Package roast holds the domain types shared across the pipeline: the roast
// profile produced by script synthesis and its per-scene breakdown.
package roast
