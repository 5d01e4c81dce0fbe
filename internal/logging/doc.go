// Package logging provides a simple leveled logging interface for the
// video relay service.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable,
// or forced to debug with DEBUG=true. Tests can override the resolved
// level with SetLevel.
package logging
