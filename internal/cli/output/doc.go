// Package output provides output formatting for statictls-server commands.
//
// This package handles command output formatting:
//
//   - formatter.go: Formatter interface and factory
//   - text.go: Aligned key/value rendering for humans
//   - json.go: JSON output formatting
//   - yaml.go: YAML output formatting
//
// The text format flattens nested structs into dotted keys, matching the
// configuration key names.
package output
