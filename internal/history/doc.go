// Package history keeps a sqlite ledger of completed and failed session runs
// for later inspection. It is write-mostly; pipeline behavior never depends
// on its contents.
package history
