// Package ioutils provides file system utilities for the dman daemon.
//
// This package contains functions for:
//   - Directory creation
//   - Detecting and removing stale UNIX socket files
//
// # Sockets
//
// A socket file left behind by a crashed daemon blocks the next listener.
// PrepareSocket removes such leftovers but refuses to touch a socket that
// still has a live listener:
//
//	if err := ioutils.PrepareSocket(path); errors.Is(err, ioutils.ErrSocketInUse) {
//	    // another daemon is running
//	}
package ioutils
