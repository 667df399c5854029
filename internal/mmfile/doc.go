// Package mmfile maps heap image files into memory for reading.
//
// On unix the file is mapped read-only and shared, so opening a large image
// costs no copy and pages load on demand. Elsewhere the file is read in full.
// Either way the returned slice is only valid until the cleanup function
// returns.
package mmfile
