// Package config provides configuration management for dman.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - Overrides from DMAN_* environment variables
//   - Locating the runtime directory and its sockets
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Downloads to ~/Downloads
//	// Two concurrent downloads
//	// First installed tool of wget, curl, aria2c
//
// # Loading from File
//
//	settings, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//	err = settings.ApplyEnv() // DMAN_MAX_CONCURRENT=4 etc.
//
// # Sockets
//
// The daemon listens on two UNIX sockets in RuntimePath():
//   - urldrop: netstring framed URLs, fire and forget
//   - ipc: HTTP status API
package config
