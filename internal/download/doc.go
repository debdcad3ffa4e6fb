// Package download provides the job scheduler of the dman daemon.
//
// # Manager
//
// The Manager keeps every job in one of three ordered collections:
//
//  1. pending: queued, no backend allocated
//  2. running: backend launched
//  3. finished: outcome recorded, no longer scheduled
//
// Each reconciliation pass first retires running jobs whose backend has
// finished, then admits pending jobs oldest first until
// MaxConcurrentDownloads are running.
//
// # Basic Usage
//
//	registry := backend.NewRegistry(backend.DefaultVariants(nil)...)
//	manager := download.NewManager(registry, settings, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	go manager.Run(ctx)
//	manager.Submit("http://example.com/file.iso", "")
//
// # Completion
//
// Backends report completion through a callback that wakes Run, which then
// reconciles. Run also reconciles on a timer so jobs held back because no
// backend is installed are retried.
//
// # Failures
//
// A job that cannot get a backend stays pending. A job whose backend fails
// is moved to finished with its error message and is not retried.
package download
