// Package form declares the request forms of the site as data and cleans raw
// submissions into typed values.
//
// A Schema lists its fields in display order. Clean validates each field
// according to its Kind and extra rules, then resolves "other" companions:
// when a primary field is left empty or set to the "0" sentinel, the value
// typed into its companion is used instead. Companion keys never appear in
// the cleaned Data.
package form
