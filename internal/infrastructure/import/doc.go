// Package csvimport reads the raw order CSV and collects per-cell
// issues found while interpreting it.
package csvimport
