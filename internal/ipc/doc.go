// Package ipc connects clients to the dman daemon over UNIX sockets.
//
// # Urldrop
//
// Server listens on the urldrop socket. Clients write URLs as netstring
// frames and close the connection; nothing is sent back:
//
//	err := ipc.Submit(ctx, settings.UrldropSocket(), "http://example.com/a.iso")
//
// Each decoded URL is passed to the Submitter. A malformed frame closes
// that connection only.
//
// # Status API
//
// ServeStatus exposes the scheduler over HTTP on the ipc socket. See
// NewStatusAPI for the routes and internal/http for the client side.
package ipc
