// Package backend provides the pluggable executors that perform transfers.
//
// # Backends
//
// A Backend runs one transfer. Process runs an external program and watches
// it from a goroutine; when the program exits, the onExit callback passed at
// creation is invoked so the scheduler can react immediately. IsFinished and
// the other status methods may also be polled.
//
// Exit code 0 is success. Other codes are explained through a per-tool
// table; codes missing from the table produce "Unknown error".
//
// # Variants
//
// Each Variant knows how to build the command line for its tool:
//   - wget: wget --directory-prefix=DEST URL
//   - curl: curl --fail --location --output-dir DEST --remote-name URL
//   - aria2c: aria2c --dir=DEST URL
//   - debug: no process, finishes successfully at once
//
// # Registry
//
// A Registry probes every variant once and uses the first available one:
//
//	reg := backend.NewRegistry(backend.DefaultVariants(nil)...)
//	b, err := reg.New(backend.Request{URL: u, Destination: dir}, onExit)
//	if errors.Is(err, backend.ErrNoBackend) {
//	    // nothing installed
//	}
package backend
