// Package textutil derives filesystem-safe names from script titles, sheet
// row IDs, and other user text.
package textutil
