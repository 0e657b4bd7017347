// Package view derives the display table from the canonical asset collection.
// It filters by search term, variation sign and favorites, and orders rows by
// a requested column. Nothing here mutates canonical records.
package view
