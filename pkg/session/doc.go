// Package session persists authentication artifacts between runs.
//
// A session is keyed by name and holds the opaque credentials the
// bridge hands back after a successful authentication. On the next
// start the stored credentials let the client restore the session
// without scanning a QR code again.
package session
