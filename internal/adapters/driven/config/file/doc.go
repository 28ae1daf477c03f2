// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML-based settings storage (~/.docsift/config.toml)
package file
