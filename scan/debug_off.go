//go:build !scandebug

package scan

const debugChecks = false
