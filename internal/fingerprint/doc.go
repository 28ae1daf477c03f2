// Package fingerprint computes cheap, comparable summaries of documents
// used to screen for duplicates before ingestion.
//
// All functions are pure. Malformed or empty input yields a neutral
// fingerprint that never matches anything, rather than an error.
package fingerprint
