// Package logging provides a tiny abstraction over slog so runtime code can
// depend on a minimal Logger interface while allowing users to plug any
// structured logger.
package logging
