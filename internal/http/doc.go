// Package http provides the client side of the dman status API.
//
// The daemon serves the API on a UNIX socket (see internal/ipc), so the
// Client dials that socket instead of a TCP address. Request URLs use the
// placeholder host "dman".
//
// # Basic Usage
//
//	client := http.NewClient(settings.StatusSocket())
//
//	if err := client.Health(ctx); err != nil {
//	    // daemon is not running
//	}
//
//	snap, err := client.Snapshot(ctx)
//	err = client.StopJob(ctx, snap.Running[0].ID)
package http
