// Package connectors provides document sources that feed ingestion.
//
// The filesystem connector scans a directory and watches it for changes so
// new or edited files are ingested as they appear.
package connectors
