// Package log provides structured event logging for the chatwire client.
//
// Events are captured at every layer (bridge channel frames, decoded
// wire frames, client state changes) and handed to a Logger
// implementation chosen by the application:
//
//   - NoopLogger discards everything (the default).
//   - SlogAdapter forwards events to a standard library slog.Logger.
//   - FileLogger appends CBOR-encoded events to a file.
//   - MultiLogger fans out to several loggers at once.
//
// CBOR log files can be read back with Reader, optionally filtered by
// connection, direction, layer, category, session, or time range.
package log
