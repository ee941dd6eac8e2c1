// Package confloader provides configuration loading mechanism.
//
// This package implements a flexible configuration loader that supports
// multiple sources using koanf as the underlying library.
//
// Features:
//
//   - Multiple Sources: YAML file, environment variables, flag maps
//   - Type Safety: Unmarshaling into typed structs via koanf tags
//   - Watch Support: Change notification for the config file (fsnotify)
//
// Priority (highest to lowest):
//
//  1. Command-line flags (LoadMap)
//  2. Environment variables
//  3. Configuration file
//  4. Default values (pre-populated target struct)
package confloader
