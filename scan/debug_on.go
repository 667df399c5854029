//go:build scandebug

package scan

// debugChecks enables referent validation on every emitted edge.
const debugChecks = true
