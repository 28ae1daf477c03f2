// Package html provides a Normaliser implementation for HTML documents.
// It parses the page with goquery, drops non-content elements and keeps
// the readable text with one line per block element.
package html
