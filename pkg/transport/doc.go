// Package transport provides the duplex channel between the client and
// the browser bridge.
//
// The core only depends on the narrow Transport interface: open and
// close the channel, send a frame, and consume an inbound event stream.
// The production implementation (Bridge) speaks WebSocket to the local
// bridge process; tests substitute an in-memory transport.
//
// The transport layer carries opaque frame bytes. Encoding and decoding
// of frames is the wire package's concern.
package transport
