// Package wire implements the CBOR envelope spoken between the client
// and the browser bridge.
//
// Every frame on the bridge channel is a single CBOR map with integer
// keys. The envelope carries a frame kind, an optional sequence number
// for request/response correlation, and a kind-specific body:
//
//	{
//	  1: kind,       // uint8, see Kind constants
//	  2: seq,        // uint32, 0 for unsolicited frames
//	  3: body        // kind-specific map (optional)
//	}
//
// The envelope is the contract with the local bridge process only. The
// remote service's own wire format is the bridge's concern; this
// package never sees it.
package wire
