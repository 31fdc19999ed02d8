// Package utils provides small utility packages used across the codebase:
//
//   - envvar: ${VAR_NAME} expansion for configuration values
//   - notify: formatted console messages with symbols and colors
package utils
