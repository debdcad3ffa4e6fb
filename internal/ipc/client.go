package ipc

import (
	"context"
	"fmt"
	"net"

	"github.com/handiism/dman/internal/netstring"
)

// Submit sends each URL over the urldrop socket at path as one netstring
// frame. Delivery is fire and forget: the daemon sends no reply.
func Submit(ctx context.Context, path string, urls ...string) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return fmt.Errorf("connecting to dman at %s: %w", path, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
	}

	var frames []byte
	for _, u := range urls {
		frames = append(frames, netstring.EncodeString(u)...)
	}
	if _, err := conn.Write(frames); err != nil {
		return fmt.Errorf("sending urls: %w", err)
	}
	return nil
}
