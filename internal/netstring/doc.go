// Package netstring implements the length-prefixed framing used on the
// urldrop socket.
//
// A frame is the decimal length of the payload, a colon, the payload bytes
// and a terminating comma:
//
//	5:hello,
//	0:,
//
// The length has no leading zeros except for the literal value 0.
//
// # Encoding and Decoding
//
//	frame := netstring.Encode([]byte("http://example.com/file.iso"))
//	payload, err := netstring.Decode(frame)
//
// # Incremental Reading
//
// Reader decodes frames from a stream that may arrive in arbitrary pieces.
// Feed returns every frame completed by the given bytes and keeps partial
// state for the next call:
//
//	r := netstring.NewReader()
//	for {
//	    n, err := conn.Read(buf)
//	    msgs, ferr := r.Feed(buf[:n])
//	    for _, msg := range msgs {
//	        handle(msg)
//	    }
//	    if ferr != nil {
//	        // the reader stays in StateError until Reset
//	    }
//	}
package netstring
